// media.go — чтение и индексация записей каталога.
// GET /api/v1/media/{id}, POST /api/v1/media, POST /api/v1/media/batch.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// GetMedia — GET /api/v1/media/{id}.
func (h *APIHandler) GetMedia(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rec, err := h.catalog.GetFileDetails(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mediaToResponse(rec))
}

// IngestMedia — POST /api/v1/media. Индексирует одно описание файла.
// 201 — добавлено, 200 — уже в каталоге, 400 — отклонено, 503 — хранилище недоступно.
func (h *APIHandler) IngestMedia(w http.ResponseWriter, r *http.Request) {
	var d model.IngestDescriptor
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	outcome, err := h.catalog.Save(r.Context(), d)
	switch outcome {
	case service.Saved:
		writeJSON(w, http.StatusCreated, ingestResponse{Outcome: outcome.String()})
	case service.AlreadyIndexed:
		writeJSON(w, http.StatusOK, ingestResponse{Outcome: outcome.String()})
	default:
		h.writeServiceError(w, r, err)
	}
}

// IngestMediaBatch — POST /api/v1/media/batch. Тело — массив описаний.
// Ошибки отдельных описаний возвращаются в теле ответа 200.
func (h *APIHandler) IngestMediaBatch(w http.ResponseWriter, r *http.Request) {
	var batch []model.IngestDescriptor
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	result, err := h.catalog.SaveBatch(r.Context(), batch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, batchToResponse(result))
}
