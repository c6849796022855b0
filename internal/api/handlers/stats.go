// stats.go — сводка по каталогу: GET /api/v1/stats.
package handlers

import "net/http"

// statsResponse — общее число записей и распределение по типам.
type statsResponse struct {
	Total  int            `json:"total"`
	ByKind map[string]int `json:"by_kind"`
}

// GetStats — GET /api/v1/stats.
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.Stats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	byKind := make(map[string]int, len(stats.ByKind))
	for k, n := range stats.ByKind {
		byKind[string(k)] = n
	}
	writeJSON(w, http.StatusOK, statsResponse{Total: stats.Total, ByKind: byKind})
}
