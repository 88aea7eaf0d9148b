package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Meetsu369/Dastaavej/internal/domain/model"
)

// UserRepository — интерфейс доступа к таблице users.
type UserRepository interface {
	// Create создаёт нового пользователя.
	Create(ctx context.Context, u *model.User) error
	// GetByID возвращает пользователя по первичному ключу.
	GetByID(ctx context.Context, id int64) (*model.User, error)
	// GetByAadhaar возвращает пользователя по номеру aadhaar.
	GetByAadhaar(ctx context.Context, aadhaar string) (*model.User, error)
}

// userRepo — реализация UserRepository.
type userRepo struct {
	db DBTX
}

// NewUserRepository создаёт репозиторий пользователей.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepo{db: db}
}

// scanUser сканирует строку результата в модель User.
func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(
		&u.ID, &u.AadhaarNumber, &u.PasswordHash, &u.Email, &u.Phone,
		&u.Role, &u.CreatedAt,
	)
	return u, err
}

const userColumns = `id, aadhaar_number, password_hash, email, phone, role, created_at`

func (r *userRepo) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (aadhaar_number, password_hash, email, phone, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		u.AadhaarNumber, u.PasswordHash, u.Email, u.Phone, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			// Сообщение зависит от нарушенного ограничения
			if constraint == "users_email_key" {
				return fmt.Errorf("%w: пользователь с таким email уже существует", ErrConflict)
			}
			return fmt.Errorf("%w: пользователь с таким aadhaar уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания пользователя: %w", err)
	}
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя: %w", err)
	}
	return u, nil
}

func (r *userRepo) GetByAadhaar(ctx context.Context, aadhaar string) (*model.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE aadhaar_number = $1`, userColumns)
	u, err := scanUser(r.db.QueryRow(ctx, query, aadhaar))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения пользователя по aadhaar: %w", err)
	}
	return u, nil
}
