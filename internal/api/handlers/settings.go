// settings.go — настройки выдачи для чата.
// GET|PUT /api/v1/chats/{chat_id}/settings.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/bigkaa/goartstore/catalog-module/internal/api/errors"
	"github.com/bigkaa/goartstore/catalog-module/internal/api/middleware"
)

// updateChatSettingsRequest — тело PUT. MaxButtons обязателен.
type updateChatSettingsRequest struct {
	MaxButtons *bool `json:"max_buttons"`
}

// GetChatSettings — GET /api/v1/chats/{chat_id}/settings.
// Отсутствующие настройки создаются со значениями по умолчанию.
func (h *APIHandler) GetChatSettings(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseChatID(chi.URLParam(r, "chat_id"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	s, err := h.settings.Settings(r.Context(), chatID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeSettings(w, r, chatID, *s.MaxButtons, s.UpdatedAt)
}

// UpdateChatSettings — PUT /api/v1/chats/{chat_id}/settings.
// Изменять настройки может сам чат (X-Requester-ID совпадает с chat_id) или администратор.
func (h *APIHandler) UpdateChatSettings(w http.ResponseWriter, r *http.Request) {
	chatID, err := parseChatID(chi.URLParam(r, "chat_id"))
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	requester, ok := middleware.RequesterID(r)
	if !ok {
		apierrors.Unauthorized(w, "Отсутствует или некорректен заголовок "+middleware.RequesterHeader)
		return
	}
	if requester != chatID && !h.isAdmin(requester) {
		apierrors.Forbidden(w, "Недостаточно прав для изменения настроек чата")
		return
	}

	var req updateChatSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}
	if req.MaxButtons == nil {
		apierrors.ValidationError(w, "Поле max_buttons обязательно")
		return
	}

	s, err := h.settings.Update(r.Context(), chatID, *req.MaxButtons)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.writeSettings(w, r, chatID, *req.MaxButtons, s.UpdatedAt)
}

// writeSettings отвечает настройками вместе с действующим размером страницы.
func (h *APIHandler) writeSettings(w http.ResponseWriter, r *http.Request, chatID int64, maxButtons bool, updatedAt time.Time) {
	pageSize, err := h.settings.PageSize(r.Context(), chatID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, chatSettingsResponse{
		ChatID:     chatID,
		MaxButtons: maxButtons,
		PageSize:   pageSize,
		UpdatedAt:  updatedAt.UTC(),
	})
}
