// applications.go — обработчики заявок: подача, просмотр, смена статуса.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/Meetsu369/Dastaavej/internal/api/errors"
	"github.com/Meetsu369/Dastaavej/internal/api/middleware"
	"github.com/Meetsu369/Dastaavej/internal/domain/model"
	"github.com/Meetsu369/Dastaavej/internal/service"
)

// applicationResponse — представление заявки в ответах API.
type applicationResponse struct {
	ID              int64   `json:"id"`
	UserID          int64   `json:"user_id"`
	ApplicationType string  `json:"application_type"`
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason"`
	CreatedAt       string  `json:"created_at"`
	UpdatedAt       string  `json:"updated_at"`
}

// documentResponse — представление документа в ответах API.
type documentResponse struct {
	ID           int64  `json:"id"`
	DocumentType string `json:"document_type"`
	FilePath     string `json:"file_path"`
	UploadedAt   string `json:"uploaded_at"`
}

// updateStatusRequest — тело запроса смены статуса.
type updateStatusRequest struct {
	Status          string  `json:"status"`
	RejectionReason *string `json:"rejection_reason"`
}

func toApplicationResponse(a *model.Application) applicationResponse {
	return applicationResponse{
		ID:              a.ID,
		UserID:          a.UserID,
		ApplicationType: a.ApplicationType,
		Status:          a.Status,
		RejectionReason: a.RejectionReason,
		CreatedAt:       a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SubmitApplication — POST /api/applications/submit.
// Принимает multipart-форму: поле application_type и произвольный
// набор файловых полей. Файлы недопустимых типов молча пропускаются.
func (h *APIHandler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
		return
	}

	// Ограничиваем размер тела запроса
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			apierrors.TooLarge(w, "Размер запроса превышает допустимый")
			return
		}
		apierrors.ValidationError(w, "Ожидается multipart/form-data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	applicationType := r.FormValue("application_type")

	var files []service.SubmittedFile
	var opened []interface{ Close() error }
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					h.logger.Warn("Не удалось открыть загруженный файл",
						slog.String("field", field),
						slog.String("filename", fh.Filename),
						slog.String("error", err.Error()),
					)
					continue
				}
				opened = append(opened, f)
				files = append(files, service.SubmittedFile{
					FieldName: field,
					Filename:  fh.Filename,
					Reader:    f,
				})
			}
		}
	}

	app, err := h.applications.Submit(r.Context(), user, applicationType, files)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка подачи заявки", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":        "Application submitted successfully",
		"application_id": app.ID,
	})
}

// ListApplications — GET /api/applications.
// Гражданин видит свои заявки; администратор — все, с фильтром
// ?status= и пагинацией ?limit=&offset=.
func (h *APIHandler) ListApplications(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
		return
	}

	if !user.IsAdmin() {
		apps, err := h.applications.ListByOwner(r.Context(), user)
		if err != nil {
			h.logger.Error("Ошибка получения заявок", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"applications": toApplicationResponses(apps),
			"total":        len(apps),
		})
		return
	}

	var statusFilter *string
	if v := r.URL.Query().Get("status"); v != "" {
		statusFilter = &v
	}
	limit, offset := paginationDefaults(r)

	apps, total, err := h.applications.List(r.Context(), statusFilter, limit, offset)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка получения списка заявок", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"applications": toApplicationResponses(apps),
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// GetApplication — GET /api/applications/{id}.
// Возвращает заявку с документами. Чужая заявка для гражданина — 403.
func (h *APIHandler) GetApplication(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r.Context())
	if user == nil {
		apierrors.Unauthorized(w, "Отсутствует пользователь в контексте")
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный ID заявки")
		return
	}

	details, err := h.applications.Get(r.Context(), user, id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Заявка не найдена")
		case errors.Is(err, service.ErrForbidden):
			apierrors.Forbidden(w, "Доступ к чужой заявке запрещён")
		default:
			h.logger.Error("Ошибка получения заявки", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
		}
		return
	}

	docs := make([]documentResponse, 0, len(details.Documents))
	for _, d := range details.Documents {
		docs = append(docs, documentResponse{
			ID:           d.ID,
			DocumentType: d.DocumentType,
			FilePath:     d.FilePath,
			UploadedAt:   d.UploadedAt.UTC().Format(time.RFC3339),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"application": toApplicationResponse(details.Application),
		"documents":   docs,
	})
}

// UpdateApplicationStatus — PUT /api/applications/{id}/status.
// Операция администратора. Причина отклонения перезаписывается
// только если передана в запросе.
func (h *APIHandler) UpdateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		apierrors.ValidationError(w, "Некорректный ID заявки")
		return
	}

	var in updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON в теле запроса")
		return
	}

	app, err := h.applications.UpdateStatus(r.Context(), id, in.Status, in.RejectionReason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			apierrors.ValidationError(w, err.Error())
		case errors.Is(err, service.ErrNotFound):
			apierrors.NotFound(w, "Заявка не найдена")
		default:
			h.logger.Error("Ошибка обновления статуса", slog.String("error", err.Error()))
			apierrors.InternalError(w, "Внутренняя ошибка сервера")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     "Status updated successfully",
		"application": toApplicationResponse(app),
	})
}

func toApplicationResponses(apps []*model.Application) []applicationResponse {
	result := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		result = append(result, toApplicationResponse(a))
	}
	return result
}
