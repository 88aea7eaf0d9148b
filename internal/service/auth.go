package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"

	"github.com/nyaruka/phonenumbers"

	"github.com/Meetsu369/Dastaavej/internal/auth"
	"github.com/Meetsu369/Dastaavej/internal/domain/model"
	"github.com/Meetsu369/Dastaavej/internal/repository"
)

// defaultPhoneRegion — регион для разбора номеров без кода страны.
const defaultPhoneRegion = "IN"

// RegisterInput — данные регистрации гражданина.
type RegisterInput struct {
	AadhaarNumber string `json:"aadhaar_number"`
	Password      string `json:"password"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
}

// AuthService — регистрация и вход пользователей.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Register создаёт нового гражданина.
// Проверяет формат aadhaar (ровно 12 цифр), email и телефон.
// Пароль хранится только в виде bcrypt-хеша.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if err := validateAadhaar(in.AadhaarNumber); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: пароль обязателен", ErrValidation)
	}
	if err := validateEmail(in.Email); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}
	if err := validatePhone(in.Phone); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &model.User{
		AadhaarNumber: in.AadhaarNumber,
		PasswordHash:  hash,
		Email:         in.Email,
		Phone:         in.Phone,
		Role:          model.RoleCitizen,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: пользователь с таким aadhaar или email уже зарегистрирован", ErrConflict)
		}
		return nil, err
	}

	s.logger.Info("Пользователь зарегистрирован",
		slog.Int64("user_id", user.ID),
	)
	return user, nil
}

// Login проверяет учётные данные и выпускает токен доступа.
// Для неизвестного aadhaar и неверного пароля ответ неразличим.
func (s *AuthService) Login(ctx context.Context, aadhaar, password string) (string, error) {
	user, err := s.users.GetByAadhaar(ctx, aadhaar)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", fmt.Errorf("ошибка выпуска токена: %w", err)
	}

	s.logger.Info("Пользователь вошёл в систему",
		slog.Int64("user_id", user.ID),
	)
	return token, nil
}

// validateAadhaar проверяет формат номера aadhaar: ровно 12 цифр.
func validateAadhaar(aadhaar string) error {
	if len(aadhaar) != 12 {
		return errors.New("номер aadhaar должен содержать ровно 12 цифр")
	}
	for _, c := range aadhaar {
		if c < '0' || c > '9' {
			return errors.New("номер aadhaar должен содержать только цифры")
		}
	}
	return nil
}

// validateEmail проверяет синтаксис email по RFC 5322.
func validateEmail(email string) error {
	if email == "" {
		return errors.New("email обязателен")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("некорректный email")
	}
	return nil
}

// validatePhone проверяет телефонный номер через libphonenumber.
func validatePhone(phone string) error {
	if phone == "" {
		return errors.New("телефон обязателен")
	}
	num, err := phonenumbers.Parse(phone, defaultPhoneRegion)
	if err != nil {
		return errors.New("некорректный номер телефона")
	}
	if !phonenumbers.IsValidNumber(num) {
		return errors.New("некорректный номер телефона")
	}
	return nil
}
