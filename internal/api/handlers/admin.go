// admin.go — административные операции над каталогом.
// Доступны только запрашивающим из списка CM_ADMINS (middleware.RequireAdmin).
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// confirmDropAll — значение параметра confirm, подтверждающее очистку каталога.
const confirmDropAll = "yes"

// deleteMediaRequest — тело запроса удаления.
type deleteMediaRequest struct {
	ID           string `json:"id"`
	RemoteFileID string `json:"remote_file_id"`
	FileName     string `json:"file_name"`
	FileSize     int64  `json:"file_size"`
	MimeType     string `json:"mime_type"`
}

// deleteMediaResponse — результат удаления.
type deleteMediaResponse struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// adminSearchResponse — все совпадения без пагинации.
type adminSearchResponse struct {
	Items []mediaResponse `json:"items"`
	Total int             `json:"total"`
}

// DeleteMedia — POST /api/v1/admin/media/delete.
// Ищет запись по id или remote_file_id, затем по (file_name, file_size, mime_type).
func (h *APIHandler) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	var req deleteMediaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	result, err := h.catalog.Delete(r.Context(), service.DeleteRequest{
		ID:           req.ID,
		RemoteFileID: req.RemoteFileID,
		FileName:     req.FileName,
		FileSize:     req.FileSize,
		MimeType:     req.MimeType,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	admin, _ := middleware.RequesterFromContext(r.Context())
	h.logger.Info("Запрос удаления выполнен",
		slog.Int64("admin_id", admin),
		slog.Int("deleted", result.Deleted),
	)

	writeJSON(w, http.StatusOK, deleteMediaResponse{Deleted: result.Deleted, Message: result.Message})
}

// DropAllMedia — DELETE /api/v1/admin/media?confirm=yes. Удаляет все записи.
func (h *APIHandler) DropAllMedia(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != confirmDropAll {
		apierrors.ValidationError(w, "Для очистки каталога требуется confirm=yes")
		return
	}

	if err := h.catalog.DropAll(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	admin, _ := middleware.RequesterFromContext(r.Context())
	h.logger.Warn("Каталог очищен администратором", slog.Int64("admin_id", admin))

	w.WriteHeader(http.StatusNoContent)
}

// AdminSearch — GET /api/v1/admin/media/search?q=&type=. Все совпадения без пагинации.
func (h *APIHandler) AdminSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	items, total, err := h.search.QueryAll(r.Context(), q.Get("q"), q.Get("type"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, adminSearchResponse{Items: mediaListToResponse(items), Total: total})
}
