package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/Meetsu369/Dastaavej/internal/auth"
	"github.com/Meetsu369/Dastaavej/internal/domain/model"
	"github.com/Meetsu369/Dastaavej/internal/repository"
)

func newTestAuthService(users *mockUserRepo) *AuthService {
	tokens := auth.NewTokenService("test-secret-0123456789abcdef", 24*time.Hour)
	return NewAuthService(users, tokens, slog.Default())
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		AadhaarNumber: "123456789012",
		Password:      "secret",
		Email:         "citizen@example.com",
		Phone:         "+919876543210",
	}
}

// TestRegister_OK проверяет штатную регистрацию.
func TestRegister_OK(t *testing.T) {
	var created *model.User
	users := &mockUserRepo{
		createFn: func(_ context.Context, u *model.User) error {
			u.ID = 1
			created = u
			return nil
		},
	}

	svc := newTestAuthService(users)

	user, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("Register() ошибка: %v", err)
	}
	if user.Role != model.RoleCitizen {
		t.Errorf("Role = %q, хотели %q", user.Role, model.RoleCitizen)
	}
	if created.PasswordHash == "secret" || created.PasswordHash == "" {
		t.Error("пароль должен храниться только в виде хеша")
	}
	if !auth.VerifyPassword(created.PasswordHash, "secret") {
		t.Error("хеш не соответствует паролю")
	}
}

// TestRegister_Validation проверяет отказы валидации входных данных.
func TestRegister_Validation(t *testing.T) {
	svc := newTestAuthService(&mockUserRepo{})

	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"короткий aadhaar", func(in *RegisterInput) { in.AadhaarNumber = "12345" }},
		{"aadhaar с буквами", func(in *RegisterInput) { in.AadhaarNumber = "12345678901a" }},
		{"пустой пароль", func(in *RegisterInput) { in.Password = "" }},
		{"некорректный email", func(in *RegisterInput) { in.Email = "не-email" }},
		{"пустой email", func(in *RegisterInput) { in.Email = "" }},
		{"некорректный телефон", func(in *RegisterInput) { in.Phone = "12" }},
		{"пустой телефон", func(in *RegisterInput) { in.Phone = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegisterInput()
			tt.mutate(&in)

			_, err := svc.Register(context.Background(), in)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Ожидали ErrValidation, получили: %v", err)
			}
		})
	}
}

// TestRegister_Duplicate проверяет ErrConflict для занятого aadhaar/email.
func TestRegister_Duplicate(t *testing.T) {
	users := &mockUserRepo{
		createFn: func(_ context.Context, _ *model.User) error {
			return repository.ErrConflict
		},
	}

	svc := newTestAuthService(users)

	_, err := svc.Register(context.Background(), validRegisterInput())
	if !errors.Is(err, ErrConflict) {
		t.Errorf("Ожидали ErrConflict, получили: %v", err)
	}
}

// TestLogin_OK проверяет вход и выпуск токена.
func TestLogin_OK(t *testing.T) {
	hash, _ := auth.HashPassword("secret")
	users := &mockUserRepo{
		getByAadhaarFn: func(_ context.Context, aadhaar string) (*model.User, error) {
			if aadhaar != "123456789012" {
				return nil, repository.ErrNotFound
			}
			return &model.User{ID: 1, AadhaarNumber: aadhaar, PasswordHash: hash}, nil
		},
	}

	svc := newTestAuthService(users)

	token, err := svc.Login(context.Background(), "123456789012", "secret")
	if err != nil {
		t.Fatalf("Login() ошибка: %v", err)
	}
	if token == "" {
		t.Error("Login() вернул пустой токен")
	}
}

// TestLogin_BadCredentials проверяет, что неизвестный aadhaar и неверный
// пароль дают одинаковую ошибку.
func TestLogin_BadCredentials(t *testing.T) {
	hash, _ := auth.HashPassword("secret")
	users := &mockUserRepo{
		getByAadhaarFn: func(_ context.Context, aadhaar string) (*model.User, error) {
			if aadhaar != "123456789012" {
				return nil, repository.ErrNotFound
			}
			return &model.User{ID: 1, PasswordHash: hash}, nil
		},
	}

	svc := newTestAuthService(users)

	// Неизвестный aadhaar
	_, err := svc.Login(context.Background(), "000000000000", "secret")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Ожидали ErrInvalidCredentials, получили: %v", err)
	}

	// Неверный пароль
	_, err = svc.Login(context.Background(), "123456789012", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Ожидали ErrInvalidCredentials, получили: %v", err)
	}
}
