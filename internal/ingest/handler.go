// handler.go — обработка сообщений индексации из NATS.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/service"
)

var messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cm_nats_messages_total",
	Help: "Количество сообщений NATS по результату обработки.",
}, []string{"result"})

// Saver индексирует одно описание файла.
type Saver interface {
	Save(ctx context.Context, d model.IngestDescriptor) (service.SaveOutcome, error)
}

// Handler декодирует сообщение с описанием файла и индексирует его.
type Handler struct {
	saver  Saver
	logger *slog.Logger
}

// NewHandler создаёт обработчик сообщений индексации.
func NewHandler(saver Saver, logger *slog.Logger) *Handler {
	return &Handler{
		saver:  saver,
		logger: logger.With(slog.String("component", "ingest_handler")),
	}
}

// HandleMessage возвращает ошибку только при недоступности хранилища.
// Некорректное сообщение подтверждается: повторная доставка его не исправит.
func (h *Handler) HandleMessage(ctx context.Context, data []byte) error {
	var d model.IngestDescriptor
	if err := json.Unmarshal(data, &d); err != nil {
		messagesTotal.WithLabelValues("malformed").Inc()
		h.logger.Warn("Некорректное сообщение отброшено",
			slog.Int("size", len(data)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	outcome, err := h.saver.Save(ctx, d)
	messagesTotal.WithLabelValues(outcome.String()).Inc()
	if outcome == service.Failed {
		return fmt.Errorf("индексация %q: %w", d.FileName, err)
	}
	return nil
}
