// auth.go — JWT middleware аутентификации и авторизации.
// Токен передаётся в заголовке Authorization как есть, без префикса Bearer.
// После проверки подписи пользователь загружается из БД и помещается
// в контекст запроса для downstream handlers.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/Meetsu369/Dastaavej/internal/api/errors"
	"github.com/Meetsu369/Dastaavej/internal/auth"
	"github.com/Meetsu369/Dastaavej/internal/domain/model"
	"github.com/Meetsu369/Dastaavej/internal/repository"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// ContextKeyUser — аутентифицированный пользователь в контексте запроса.
const ContextKeyUser contextKey = "auth_user"

// UserProvider — интерфейс загрузки пользователя по ID.
// Реализуется repository.UserRepository.
type UserProvider interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// Auth — middleware аутентификации по JWT.
type Auth struct {
	tokens *auth.TokenService
	users  UserProvider
	logger *slog.Logger
}

// NewAuth создаёт middleware аутентификации.
func NewAuth(tokens *auth.TokenService, users UserProvider, logger *slog.Logger) *Auth {
	return &Auth{
		tokens: tokens,
		users:  users,
		logger: logger.With(slog.String("component", "auth")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Проверяет токен из заголовка Authorization, загружает пользователя
// и помещает его в контекст.
func (a *Auth) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				apierrors.Unauthorized(w, "Отсутствует заголовок Authorization")
				return
			}

			userID, err := a.tokens.Verify(raw)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					apierrors.Unauthorized(w, "Срок действия токена истёк")
					return
				}
				a.logger.Debug("JWT валидация не пройдена",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Недействительный токен")
				return
			}

			// Токен валиден, но пользователь мог быть удалён
			user, err := a.users.GetByID(r.Context(), userID)
			if err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					apierrors.Unauthorized(w, "Пользователь не найден")
					return
				}
				a.logger.Error("Ошибка загрузки пользователя",
					slog.Int64("user_id", userID),
					slog.String("error", err.Error()),
				)
				apierrors.InternalError(w, "Внутренняя ошибка сервера")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole возвращает middleware, требующий одну из указанных ролей.
// Должен использоваться ПОСЛЕ Auth.Middleware().
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := UserFromContext(r.Context())
			if user == nil {
				apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			apierrors.Forbidden(w, fmt.Sprintf("Недостаточно прав: требуется роль %s", strings.Join(roles, " или ")))
		})
	}
}

// UserFromContext извлекает аутентифицированного пользователя из контекста.
// Возвращает nil, если пользователь не найден.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ContextKeyUser).(*model.User)
	return user
}
