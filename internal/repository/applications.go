package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Meetsu369/Dastaavej/internal/domain/model"
)

// ApplicationRepository — интерфейс доступа к таблице applications.
type ApplicationRepository interface {
	// Create создаёт новую заявку (статус по умолчанию — Pending).
	Create(ctx context.Context, a *model.Application) error
	// GetByID возвращает заявку по первичному ключу.
	GetByID(ctx context.Context, id int64) (*model.Application, error)
	// ListByUser возвращает заявки пользователя, новые — первыми.
	ListByUser(ctx context.Context, userID int64) ([]*model.Application, error)
	// List возвращает заявки с фильтрацией по статусу (для администратора).
	List(ctx context.Context, status *string, limit, offset int) ([]*model.Application, error)
	// Count возвращает количество заявок с учётом фильтра по статусу.
	Count(ctx context.Context, status *string) (int, error)
	// UpdateStatus меняет статус заявки. Если reason == nil,
	// прежняя причина отклонения сохраняется.
	UpdateStatus(ctx context.Context, a *model.Application, status string, reason *string) error
}

// applicationRepo — реализация ApplicationRepository.
type applicationRepo struct {
	db DBTX
}

// NewApplicationRepository создаёт репозиторий заявок.
func NewApplicationRepository(db DBTX) ApplicationRepository {
	return &applicationRepo{db: db}
}

// scanApplication сканирует строку результата в модель Application.
func scanApplication(row pgx.Row) (*model.Application, error) {
	a := &model.Application{}
	err := row.Scan(
		&a.ID, &a.UserID, &a.ApplicationType, &a.Status, &a.RejectionReason,
		&a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

const appColumns = `id, user_id, application_type, status, rejection_reason,
	created_at, updated_at`

func (r *applicationRepo) Create(ctx context.Context, a *model.Application) error {
	query := `
		INSERT INTO applications (user_id, application_type)
		VALUES ($1, $2)
		RETURNING id, status, created_at, updated_at`

	err := r.db.QueryRow(ctx, query, a.UserID, a.ApplicationType).
		Scan(&a.ID, &a.Status, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ошибка создания заявки: %w", err)
	}
	return nil
}

func (r *applicationRepo) GetByID(ctx context.Context, id int64) (*model.Application, error) {
	query := fmt.Sprintf(`SELECT %s FROM applications WHERE id = $1`, appColumns)
	a, err := scanApplication(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения заявки: %w", err)
	}
	return a, nil
}

func (r *applicationRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Application, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		WHERE user_id = $1
		ORDER BY created_at DESC`, appColumns)

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения заявок пользователя: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (r *applicationRepo) List(ctx context.Context, status *string, limit, offset int) ([]*model.Application, error) {
	var conditions []string
	var args []any
	argNum := 1

	if status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *status)
		argNum++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM applications
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`, appColumns, where, argNum, argNum+1)

	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка заявок: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

func (r *applicationRepo) Count(ctx context.Context, status *string) (int, error) {
	var args []any
	query := "SELECT COUNT(*) FROM applications"

	if status != nil {
		query += " WHERE status = $1"
		args = append(args, *status)
	}

	var count int
	err := r.db.QueryRow(ctx, query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта заявок: %w", err)
	}
	return count, nil
}

func (r *applicationRepo) UpdateStatus(ctx context.Context, a *model.Application, status string, reason *string) error {
	// COALESCE сохраняет прежнюю причину отклонения,
	// если новая не передана
	query := `
		UPDATE applications
		SET status = $2,
			rejection_reason = COALESCE($3, rejection_reason),
			updated_at = now()
		WHERE id = $1
		RETURNING rejection_reason, updated_at`

	err := r.db.QueryRow(ctx, query, a.ID, status, reason).
		Scan(&a.RejectionReason, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления статуса заявки: %w", err)
	}
	a.Status = status
	return nil
}

// collectApplications собирает результат запроса в срез моделей.
func collectApplications(rows pgx.Rows) ([]*model.Application, error) {
	var result []*model.Application
	for rows.Next() {
		a := &model.Application{}
		if err := rows.Scan(
			&a.ID, &a.UserID, &a.ApplicationType, &a.Status, &a.RejectionReason,
			&a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования заявки: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
