// search.go — поиск по каталогу: GET /api/v1/search.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
)

// Search — GET /api/v1/search?q=&type=&offset=&chat_id=
// chat_id определяет размер страницы по настройкам чата; без него — размер по умолчанию.
func (h *APIHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	offset, err := parseOffset(q.Get("offset"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	var requester *int64
	if raw := q.Get("chat_id"); raw != "" {
		id, err := parseChatID(raw)
		if err != nil {
			apierrors.ValidationError(w, err.Error())
			return
		}
		requester = &id
	}

	page, err := h.search.QueryForRequester(r.Context(), requester, q.Get("q"), q.Get("type"), offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, pageToResponse(page))
}
