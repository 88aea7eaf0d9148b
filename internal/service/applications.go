package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/Meetsu369/Dastaavej/internal/domain/model"
	"github.com/Meetsu369/Dastaavej/internal/domain/status"
	"github.com/Meetsu369/Dastaavej/internal/notify"
	"github.com/Meetsu369/Dastaavej/internal/repository"
	"github.com/Meetsu369/Dastaavej/internal/storage/uploadstore"
)

// SubmittedFile — один файл из multipart-формы подачи заявки.
type SubmittedFile struct {
	// FieldName — имя поля формы, становится типом документа
	FieldName string
	// Filename — исходное имя файла
	Filename string
	// Reader — содержимое файла
	Reader io.Reader
}

// ApplicationDetails — заявка вместе с её документами.
type ApplicationDetails struct {
	Application *model.Application
	Documents   []*model.Document
}

// txRunner выполняет функцию в рамках одной транзакции БД.
// Реализуется repository.TxRunner.
type txRunner interface {
	RunInTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// uploadStore — файловое хранилище документов заявок.
// Реализуется uploadstore.Store.
type uploadStore interface {
	Save(reader io.Reader, originalFilename string) (string, error)
	Remove(storagePath string) error
}

// ApplicationService — подача заявок и управление их статусами.
type ApplicationService struct {
	apps     repository.ApplicationRepository
	docs     repository.DocumentRepository
	users    repository.UserRepository
	tx       txRunner
	uploads  uploadStore
	notifier notify.Notifier
	logger   *slog.Logger

	// Фабрики репозиториев поверх открытой транзакции.
	txApps func(db repository.DBTX) repository.ApplicationRepository
	txDocs func(db repository.DBTX) repository.DocumentRepository
}

// NewApplicationService создаёт сервис заявок.
func NewApplicationService(
	apps repository.ApplicationRepository,
	docs repository.DocumentRepository,
	users repository.UserRepository,
	tx txRunner,
	uploads uploadStore,
	notifier notify.Notifier,
	logger *slog.Logger,
) *ApplicationService {
	return &ApplicationService{
		apps:     apps,
		docs:     docs,
		users:    users,
		tx:       tx,
		uploads:  uploads,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "application_service")),
		txApps:   repository.NewApplicationRepository,
		txDocs:   repository.NewDocumentRepository,
	}
}

// Submit подаёт новую заявку от имени пользователя.
// Заявка и записи о документах создаются в одной транзакции;
// файлы с запрещёнными расширениями молча пропускаются.
// При откате транзакции сохранённые файлы удаляются с диска.
// После успешной подачи гражданину уходит email-уведомление.
func (s *ApplicationService) Submit(ctx context.Context, user *model.User, applicationType string, files []SubmittedFile) (*model.Application, error) {
	if applicationType == "" {
		return nil, fmt.Errorf("%w: тип заявки обязателен", ErrValidation)
	}

	app := &model.Application{
		UserID:          user.ID,
		ApplicationType: applicationType,
	}

	// Пути файлов, сохранённых на диск в рамках этой подачи.
	// При ошибке транзакции — удаляются.
	var savedPaths []string

	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		apps := s.txApps(tx)
		docs := s.txDocs(tx)

		if err := apps.Create(ctx, app); err != nil {
			return err
		}

		for _, f := range files {
			if !uploadstore.Allowed(f.Filename) {
				s.logger.Debug("Файл пропущен: недопустимый тип",
					slog.String("filename", f.Filename),
					slog.Int64("application_id", app.ID),
				)
				continue
			}

			path, err := s.uploads.Save(f.Reader, f.Filename)
			if err != nil {
				return fmt.Errorf("ошибка сохранения файла %s: %w", f.Filename, err)
			}
			savedPaths = append(savedPaths, path)

			doc := &model.Document{
				ApplicationID: app.ID,
				DocumentType:  f.FieldName,
				FilePath:      path,
			}
			if err := docs.Create(ctx, doc); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		// Транзакция откатилась — подчищаем файлы с диска
		for _, path := range savedPaths {
			if rmErr := s.uploads.Remove(path); rmErr != nil {
				s.logger.Warn("Не удалось удалить файл после отката",
					slog.String("path", path),
					slog.String("error", rmErr.Error()),
				)
			}
		}
		return nil, err
	}

	s.logger.Info("Заявка подана",
		slog.Int64("application_id", app.ID),
		slog.Int64("user_id", user.ID),
		slog.String("type", applicationType),
		slog.Int("documents", len(savedPaths)),
	)

	s.notifier.Notify(user.Email,
		"Application Submitted",
		fmt.Sprintf("Your application ID is: %d", app.ID),
	)

	return app, nil
}

// ListByOwner возвращает заявки пользователя, новые — первыми.
func (s *ApplicationService) ListByOwner(ctx context.Context, user *model.User) ([]*model.Application, error) {
	return s.apps.ListByUser(ctx, user.ID)
}

// List возвращает заявки с фильтром по статусу и общее количество.
// Доступно только администраторам (проверяется на уровне роутера).
func (s *ApplicationService) List(ctx context.Context, statusFilter *string, limit, offset int) ([]*model.Application, int, error) {
	if statusFilter != nil {
		if _, err := status.Parse(*statusFilter); err != nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrValidation, err)
		}
	}

	apps, err := s.apps.List(ctx, statusFilter, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.apps.Count(ctx, statusFilter)
	if err != nil {
		return nil, 0, err
	}

	return apps, total, nil
}

// Get возвращает заявку с документами.
// Гражданин видит только свои заявки, администратор — любые.
func (s *ApplicationService) Get(ctx context.Context, user *model.User, id int64) (*ApplicationDetails, error) {
	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if app.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrForbidden
	}

	docs, err := s.docs.ListByApplication(ctx, app.ID)
	if err != nil {
		return nil, err
	}

	return &ApplicationDetails{Application: app, Documents: docs}, nil
}

// UpdateStatus меняет статус заявки (операция администратора).
// Новая причина отклонения перезаписывает прежнюю только если передана.
// После обновления владельцу уходит email-уведомление.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id int64, newStatus string, reason *string) (*model.Application, error) {
	target, err := status.Parse(newStatus)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if !status.CanTransition(status.Status(app.Status), target) {
		return nil, fmt.Errorf("%w: переход %s → %s недопустим", ErrValidation, app.Status, target)
	}

	if err := s.apps.UpdateStatus(ctx, app, string(target), reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Info("Статус заявки обновлён",
		slog.Int64("application_id", app.ID),
		slog.String("status", app.Status),
	)

	// Уведомляем владельца заявки
	owner, err := s.users.GetByID(ctx, app.UserID)
	if err != nil {
		s.logger.Warn("Не удалось загрузить владельца заявки для уведомления",
			slog.Int64("application_id", app.ID),
			slog.Int64("user_id", app.UserID),
			slog.String("error", err.Error()),
		)
		return app, nil
	}

	s.notifier.Notify(owner.Email,
		"Application Status Updated",
		fmt.Sprintf("Your application status is now: %s", app.Status),
	)

	return app, nil
}
