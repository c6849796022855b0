// dto.go — JSON-представления ответов API.
package handlers

import (
	"strconv"
	"time"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

// mediaResponse — запись каталога в ответе API.
type mediaResponse struct {
	ID          string    `json:"id"`
	Reference   string    `json:"reference,omitempty"`
	DisplayName string    `json:"display_name"`
	Size        int64     `json:"size"`
	Kind        string    `json:"kind"`
	MimeType    *string   `json:"mime_type,omitempty"`
	Caption     *string   `json:"caption,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func mediaToResponse(r *model.MediaRecord) mediaResponse {
	return mediaResponse{
		ID:          r.ID,
		Reference:   r.Reference,
		DisplayName: r.DisplayName,
		Size:        r.Size,
		Kind:        string(r.Kind),
		MimeType:    r.MimeType,
		Caption:     r.Caption,
		CreatedAt:   r.CreatedAt.UTC(),
	}
}

func mediaListToResponse(items []*model.MediaRecord) []mediaResponse {
	out := make([]mediaResponse, 0, len(items))
	for _, r := range items {
		out = append(out, mediaToResponse(r))
	}
	return out
}

// searchResponse — страница выдачи.
// NextOffset — строка; пустая строка означает, что страниц больше нет.
type searchResponse struct {
	Items      []mediaResponse `json:"items"`
	NextOffset string          `json:"next_offset"`
	Total      int             `json:"total"`
}

func pageToResponse(p *service.Page) searchResponse {
	next := ""
	if p.NextOffset > 0 {
		next = strconv.Itoa(p.NextOffset)
	}
	return searchResponse{
		Items:      mediaListToResponse(p.Items),
		NextOffset: next,
		Total:      p.Total,
	}
}

// ingestResponse — результат индексации одного описания.
type ingestResponse struct {
	Outcome string `json:"outcome"`
	Message string `json:"message,omitempty"`
}

// batchItemErrorResponse — описание, не попавшее в каталог.
type batchItemErrorResponse struct {
	Index   int    `json:"index"`
	Outcome string `json:"outcome"`
	Message string `json:"message"`
}

// batchResponse — итог пакетной индексации.
type batchResponse struct {
	BatchID        string                   `json:"batch_id"`
	Total          int                      `json:"total"`
	Saved          int                      `json:"saved"`
	AlreadyIndexed int                      `json:"already_indexed"`
	Invalid        int                      `json:"invalid"`
	Skipped        int                      `json:"skipped"`
	Failed         int                      `json:"failed"`
	Errors         []batchItemErrorResponse `json:"errors"`
}

func batchToResponse(b *service.BatchResult) batchResponse {
	errs := make([]batchItemErrorResponse, 0, len(b.Errors))
	for _, e := range b.Errors {
		errs = append(errs, batchItemErrorResponse{
			Index:   e.Index,
			Outcome: e.Outcome.String(),
			Message: e.Message,
		})
	}
	return batchResponse{
		BatchID:        b.BatchID,
		Total:          b.Total,
		Saved:          b.Saved,
		AlreadyIndexed: b.AlreadyIndexed,
		Invalid:        b.Invalid,
		Skipped:        b.Skipped,
		Failed:         b.Failed,
		Errors:         errs,
	}
}

// chatSettingsResponse — настройки чата.
type chatSettingsResponse struct {
	ChatID     int64     `json:"chat_id"`
	MaxButtons bool      `json:"max_buttons"`
	PageSize   int       `json:"page_size"`
	UpdatedAt  time.Time `json:"updated_at"`
}
