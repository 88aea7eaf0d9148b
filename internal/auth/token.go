package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки проверки токена.
var (
	// ErrTokenMissing — токен не передан.
	ErrTokenMissing = errors.New("токен отсутствует")
	// ErrTokenExpired — срок действия токена истёк.
	ErrTokenExpired = errors.New("срок действия токена истёк")
	// ErrTokenInvalid — токен повреждён или подпись неверна.
	ErrTokenInvalid = errors.New("недействительный токен")
)

// Claims — полезная нагрузка токена доступа.
type Claims struct {
	jwt.RegisteredClaims
	// UserID — первичный ключ пользователя в БД
	UserID int64 `json:"user_id"`
}

// TokenService выпускает и проверяет JWT-токены (HS256, общий секрет).
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService создаёт сервис токенов.
func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

// Issue выпускает токен для пользователя.
func (s *TokenService) Issue(userID int64) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет токен и возвращает ID пользователя.
// Принимает «сырое» значение заголовка Authorization без префикса Bearer.
func (s *TokenService) Verify(raw string) (int64, error) {
	if raw == "" {
		return 0, ErrTokenMissing
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(t *jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrTokenInvalid
	}

	return claims.UserID, nil
}
