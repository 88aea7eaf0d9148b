// auth.go — обработчики регистрации и входа.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	apierrors "github.com/Meetsu369/Dastaavej/internal/api/errors"
	"github.com/Meetsu369/Dastaavej/internal/api/middleware"
	"github.com/Meetsu369/Dastaavej/internal/service"
)

// loginRequest — тело запроса входа.
type loginRequest struct {
	AadhaarNumber string `json:"aadhaar_number"`
	Password      string `json:"password"`
}

// userResponse — представление пользователя в ответах API.
// Хеш пароля наружу не отдаётся.
type userResponse struct {
	ID            int64  `json:"id"`
	AadhaarNumber string `json:"aadhaar_number"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	CreatedAt     string `json:"created_at"`
}

// Register — POST /api/auth/register.
// Создаёт гражданина. Возвращает 201 или 409 для занятого aadhaar/email.
func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	_, err := h.auth.Register(r.Context(), in)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrConflict):
			apierrors.Conflict(w, err.Error())
		default:
			h.logger.Error("Ошибка регистрации", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
	})
}

// Login — POST /api/auth/login.
// Проверяет учётные данные и возвращает токен доступа.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	token, err := h.auth.Login(r.Context(), in.AadhaarNumber, in.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, "Неверный aadhaar или пароль")
			return
		}
		h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CurrentUser — GET /api/auth/me.
// Возвращает аутентифицированного пользователя.
func (h *APIHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
		return
	}

	writeJSON(w, http.StatusOK, userResponse{
		ID:            user.ID,
		AadhaarNumber: user.AadhaarNumber,
		Email:         user.Email,
		Phone:         user.Phone,
		Role:          user.Role,
		CreatedAt:     user.CreatedAt.UTC().Format(time.RFC3339),
	})
}
