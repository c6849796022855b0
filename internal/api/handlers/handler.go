// Пакет handlers — HTTP-обработчики API Catalog Module.
// Маршруты регистрируются явно в Register; middleware авторизации
// администраторов применяется только к группе /api/v1/admin.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/fileid"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// APIHandler — обработчики всех маршрутов API.
type APIHandler struct {
	health   *HealthHandler
	catalog  *service.CatalogService
	search   *service.SearchService
	settings *service.SettingsResolver
	isAdmin  func(id int64) bool
	logger   *slog.Logger
}

// NewAPIHandler создаёт APIHandler.
// isAdmin — проверка идентификатора запрашивающего по списку администраторов.
func NewAPIHandler(
	health *HealthHandler,
	catalog *service.CatalogService,
	search *service.SearchService,
	settings *service.SettingsResolver,
	isAdmin func(id int64) bool,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health:   health,
		catalog:  catalog,
		search:   search,
		settings: settings,
		isAdmin:  isAdmin,
		logger:   logger.With(slog.String("component", "api_handler")),
	}
}

// Register регистрирует маршруты API на роутере.
// adminMiddleware оборачивает административные маршруты.
func (h *APIHandler) Register(r chi.Router, adminMiddleware func(http.Handler) http.Handler) {
	r.Get("/health/live", h.health.HealthLive)
	r.Get("/health/ready", h.health.HealthReady)
	r.Get("/metrics", h.health.GetMetrics)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/search", h.Search)
		r.Get("/stats", h.GetStats)

		r.Get("/media/{id}", h.GetMedia)
		r.Post("/media", h.IngestMedia)
		r.Post("/media/batch", h.IngestMediaBatch)

		r.Get("/chats/{chat_id}/settings", h.GetChatSettings)
		r.Put("/chats/{chat_id}/settings", h.UpdateChatSettings)

		r.Route("/admin", func(r chi.Router) {
			r.Use(adminMiddleware)
			r.Post("/media/delete", h.DeleteMedia)
			r.Delete("/media", h.DropAllMedia)
			r.Get("/media/search", h.AdminSearch)
		})
	})
}

// writeJSON — вспомогательная функция для записи JSON-ответа.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeServiceError маппит ошибку сервисного слоя в HTTP-ответ.
func (h *APIHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, model.ErrValidation), errors.Is(err, service.ErrInvalidRequest):
		apierrors.ValidationError(w, err.Error())
	case errors.Is(err, fileid.ErrDecode):
		apierrors.DecodeError(w, err.Error())
	case errors.Is(err, service.ErrBatchTooLarge):
		apierrors.PayloadTooLarge(w, err.Error())
	case errors.Is(err, service.ErrNotFound):
		apierrors.NotFound(w, err.Error())
	case errors.Is(err, service.ErrStoreUnavailable):
		h.logger.Error("Хранилище недоступно",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.StoreUnavailable(w, "Хранилище временно недоступно")
	default:
		h.logger.Error("Внутренняя ошибка",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}

// parseOffset разбирает параметр offset. Пустое значение — первая страница.
func parseOffset(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New("offset должен быть неотрицательным целым числом")
	}
	return n, nil
}

// parseChatID разбирает идентификатор чата.
func parseChatID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New("chat_id должен быть целым числом")
	}
	return id, nil
}
