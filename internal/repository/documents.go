package repository

import (
	"context"
	"fmt"

	"github.com/Meetsu369/Dastaavej/internal/domain/model"
)

// DocumentRepository — интерфейс доступа к таблице documents.
type DocumentRepository interface {
	// Create создаёт запись о загруженном документе.
	Create(ctx context.Context, d *model.Document) error
	// ListByApplication возвращает документы заявки в порядке загрузки.
	ListByApplication(ctx context.Context, applicationID int64) ([]*model.Document, error)
}

// documentRepo — реализация DocumentRepository.
type documentRepo struct {
	db DBTX
}

// NewDocumentRepository создаёт репозиторий документов.
func NewDocumentRepository(db DBTX) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.Document) error {
	query := `
		INSERT INTO documents (application_id, document_type, file_path)
		VALUES ($1, $2, $3)
		RETURNING id, uploaded_at`

	err := r.db.QueryRow(ctx, query, d.ApplicationID, d.DocumentType, d.FilePath).
		Scan(&d.ID, &d.UploadedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания документа: %w", err)
	}
	return nil
}

func (r *documentRepo) ListByApplication(ctx context.Context, applicationID int64) ([]*model.Document, error) {
	query := `
		SELECT id, application_id, document_type, file_path, uploaded_at
		FROM documents
		WHERE application_id = $1
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения документов заявки: %w", err)
	}
	defer rows.Close()

	var result []*model.Document
	for rows.Next() {
		d := &model.Document{}
		if err := rows.Scan(
			&d.ID, &d.ApplicationID, &d.DocumentType, &d.FilePath, &d.UploadedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования документа: %w", err)
		}
		result = append(result, d)
	}
	return result, rows.Err()
}
