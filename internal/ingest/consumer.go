// Пакет ingest — приём описаний файлов из NATS JetStream.
//
// Consumer читает subject CM_NATS_SUBJECT durable-потребителем и передаёт
// каждое сообщение обработчику. Успешно обработанные и неисправимые
// сообщения подтверждаются (Ack), при недоступности хранилища —
// возвращаются на повторную доставку (Nak).
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/bigkaa/goartstore/catalog-module/internal/config"
)

// Параметры потребителя JetStream.
const (
	ackWait    = 30 * time.Second
	maxDeliver = 10
)

// redeliveryBackoff — задержки повторной доставки после Nak.
var redeliveryBackoff = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second}

// MessageHandler обрабатывает тело сообщения.
// Ошибка означает, что сообщение нужно доставить повторно.
type MessageHandler interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// Consumer — durable-потребитель JetStream.
type Consumer struct {
	conn     *nats.Conn
	js       jetstream.JetStream
	stream   string
	subject  string
	consumer string
	iter     jetstream.MessagesContext
	wg       sync.WaitGroup
	logger   *slog.Logger

	mu      sync.Mutex
	loopErr error // причина аварийной остановки цикла чтения
}

// NewConsumer подключается к NATS по CM_NATS_URL.
func NewConsumer(cfg *config.Config, logger *slog.Logger) (*Consumer, error) {
	log := logger.With(slog.String("component", "nats_consumer"))

	conn, err := nats.Connect(cfg.NATSURL,
		nats.Name(cfg.NATSConsumer),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS: соединение потеряно", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS: соединение восстановлено", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка инициализации JetStream: %w", err)
	}

	return &Consumer{
		conn:     conn,
		js:       js,
		stream:   cfg.NATSStream,
		subject:  cfg.NATSSubject,
		consumer: cfg.NATSConsumer,
		logger:   log,
	}, nil
}

// Subscribe создаёт (или обновляет) стрим и durable-потребителя и запускает
// обработку сообщений в отдельной горутине. Не блокирует.
func (c *Consumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     c.stream,
		Subjects: []string{c.subject},
	})
	if err != nil {
		return fmt.Errorf("ошибка создания стрима %s: %w", c.stream, err)
	}

	cons, err := c.js.CreateOrUpdateConsumer(ctx, c.stream, jetstream.ConsumerConfig{
		Durable:       c.consumer,
		AckPolicy:     jetstream.AckExplicitPolicy,
		FilterSubject: c.subject,
		AckWait:       ackWait,
		MaxDeliver:    maxDeliver,
		BackOff:       redeliveryBackoff,
	})
	if err != nil {
		return fmt.Errorf("ошибка создания потребителя %s: %w", c.consumer, err)
	}

	iter, err := cons.Messages()
	if err != nil {
		return fmt.Errorf("ошибка подписки на %s: %w", c.subject, err)
	}
	c.iter = iter

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.logger.Info("Подписка NATS запущена",
			slog.String("stream", c.stream),
			slog.String("subject", c.subject),
		)
		c.consume(ctx, iter, handler)
	}()

	go func() {
		<-ctx.Done()
		iter.Stop()
	}()
	return nil
}

// consume читает сообщения до закрытия итератора или отмены ctx.
// Прочие ошибки итератора останавливают цикл и переводят CheckReady в "fail".
func (c *Consumer) consume(ctx context.Context, iter jetstream.MessagesContext, handler MessageHandler) {
	for {
		msg, err := iter.Next()
		if err != nil {
			if errors.Is(err, jetstream.ErrMsgIteratorClosed) || ctx.Err() != nil {
				c.logger.Info("Подписка NATS остановлена")
				return
			}
			c.logger.Error("Ошибка получения сообщения, чтение остановлено", slog.String("error", err.Error()))
			c.mu.Lock()
			c.loopErr = err
			c.mu.Unlock()
			return
		}

		if err := handler.HandleMessage(ctx, msg.Data()); err != nil {
			c.logger.Warn("Сообщение возвращено на повторную доставку",
				slog.String("error", err.Error()),
			)
			if err := msg.Nak(); err != nil {
				c.logger.Error("Ошибка Nak", slog.String("error", err.Error()))
			}
			continue
		}
		if err := msg.Ack(); err != nil {
			c.logger.Error("Ошибка Ack", slog.String("error", err.Error()))
		}
	}
}

// Close останавливает обработку, дожидается текущего сообщения и закрывает соединение.
func (c *Consumer) Close() error {
	if c.iter != nil {
		c.iter.Stop()
	}
	c.wg.Wait()

	if c.conn != nil {
		if err := c.conn.Drain(); err != nil {
			c.conn.Close()
			return fmt.Errorf("ошибка закрытия соединения NATS: %w", err)
		}
	}
	return nil
}

// CheckReady реализует handlers.ReadinessChecker.
func (c *Consumer) CheckReady() (status string, message string) {
	c.mu.Lock()
	loopErr := c.loopErr
	c.mu.Unlock()
	if loopErr != nil {
		return "fail", fmt.Sprintf("чтение сообщений NATS остановлено: %v", loopErr)
	}

	if c.conn.IsConnected() {
		return "ok", "подключение к NATS активно"
	}
	return "fail", fmt.Sprintf("NATS: %s", c.conn.Status())
}
