// catalog.go — индексация и администрирование каталога медиафайлов.
// Координирует декодер идентификаторов, repository, LRU cache и Prometheus-метрики.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/fileid"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
)

// Сообщения результата удаления.
const (
	MessageDeleted  = "Файл удалён из базы данных."
	MessageNotFound = "Файл не найден в базе данных."
)

// Prometheus-метрики индексации.
var (
	ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_ingest_total",
		Help: "Количество описаний файлов, обработанных индексацией, по результату.",
	}, []string{"outcome"})
	ingestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_ingest_duration_seconds",
		Help:    "Длительность индексации одного описания файла.",
		Buckets: prometheus.DefBuckets,
	})
	deleteTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_delete_total",
		Help: "Количество запросов удаления по способу поиска записи.",
	}, []string{"method"})
)

// SaveOutcome — результат индексации одного описания файла.
type SaveOutcome int

const (
	// Saved — запись добавлена.
	Saved SaveOutcome = iota
	// AlreadyIndexed — запись с таким ключом уже есть.
	AlreadyIndexed
	// Invalid — описание не прошло валидацию.
	Invalid
	// Skipped — удалённый идентификатор не декодируется.
	Skipped
	// Failed — хранилище недоступно.
	Failed
)

// String возвращает имя результата для логов, метрик и API.
func (o SaveOutcome) String() string {
	switch o {
	case Saved:
		return "saved"
	case AlreadyIndexed:
		return "already_indexed"
	case Invalid:
		return "invalid"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// BatchItemError — описание, не попавшее в каталог.
type BatchItemError struct {
	Index   int
	Outcome SaveOutcome
	Message string
}

// BatchResult — итог пакетной индексации.
type BatchResult struct {
	BatchID        string
	Total          int
	Saved          int
	AlreadyIndexed int
	Invalid        int
	Skipped        int
	Failed         int
	Errors         []BatchItemError
}

// DeleteRequest — запрос удаления записи.
// Либо ID, либо RemoteFileID; при неудаче по ключу используется (имя, размер, mime).
type DeleteRequest struct {
	ID           string
	RemoteFileID string
	FileName     string
	FileSize     int64
	MimeType     string
}

// DeleteResult — итог удаления.
type DeleteResult struct {
	Deleted int
	Message string
}

// CatalogStats — сводка по каталогу.
type CatalogStats struct {
	Total  int
	ByKind map[model.Kind]int
}

// CatalogService — индексация, удаление и чтение записей каталога.
type CatalogService struct {
	media    repository.MediaRepository
	cache    *MetadataCache
	workers  int
	maxBatch int
	now      func() time.Time
	logger   *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
// workers — число параллельных обработчиков пакета, maxBatch — предельный размер пакета.
func NewCatalogService(
	media repository.MediaRepository,
	cache *MetadataCache,
	workers, maxBatch int,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		media:    media,
		cache:    cache,
		workers:  workers,
		maxBatch: maxBatch,
		now:      time.Now,
		logger:   logger.With(slog.String("component", "catalog_service")),
	}
}

// Save индексирует одно описание файла.
// AlreadyIndexed не является ошибкой; для Invalid, Skipped и Failed возвращается причина.
func (s *CatalogService) Save(ctx context.Context, d model.IngestDescriptor) (SaveOutcome, error) {
	start := time.Now()
	outcome, err := s.save(ctx, d)
	ingestDuration.Observe(time.Since(start).Seconds())
	ingestTotal.WithLabelValues(outcome.String()).Inc()
	return outcome, err
}

func (s *CatalogService) save(ctx context.Context, d model.IngestDescriptor) (SaveOutcome, error) {
	fid, err := fileid.Decode(d.RemoteFileID)
	if err != nil {
		s.logger.Warn("Описание пропущено: идентификатор не декодируется",
			slog.String("file_name", d.FileName),
			slog.String("error", err.Error()),
		)
		return Skipped, err
	}

	rec, err := model.NewMediaRecord(d, fid.Key(), fileid.EncodeReference(fid.Reference), s.now())
	if err != nil {
		s.logger.Warn("Описание отклонено валидацией",
			slog.String("file_name", d.FileName),
			slog.String("error", err.Error()),
		)
		return Invalid, err
	}

	if err := s.media.Insert(ctx, rec); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateKey):
			s.logger.Debug("Файл уже в каталоге",
				slog.String("id", rec.ID),
				slog.String("display_name", rec.DisplayName),
			)
			return AlreadyIndexed, nil
		case errors.Is(err, model.ErrValidation):
			return Invalid, err
		}
		s.logger.Error("Ошибка сохранения записи",
			slog.String("id", rec.ID),
			slog.String("error", err.Error()),
		)
		return Failed, storeError("сохранение записи", err)
	}

	s.logger.Info("Файл добавлен в каталог",
		slog.String("id", rec.ID),
		slog.String("display_name", rec.DisplayName),
		slog.String("kind", string(rec.Kind)),
	)
	return Saved, nil
}

// SaveBatch индексирует пакет описаний параллельно, без сохранения порядка.
// Ошибка отдельного описания не прерывает пакет.
func (s *CatalogService) SaveBatch(ctx context.Context, batch []model.IngestDescriptor) (*BatchResult, error) {
	if len(batch) > s.maxBatch {
		return nil, fmt.Errorf("%w: %d описаний, допустимо не более %d", ErrBatchTooLarge, len(batch), s.maxBatch)
	}

	batchID := uuid.New().String()
	log := s.logger.With(slog.String("batch_id", batchID))
	log.Info("Пакетная индексация начата", slog.Int("total", len(batch)))

	outcomes := make([]SaveOutcome, len(batch))
	errs := make([]error, len(batch))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, d := range batch {
		g.Go(func() error {
			outcomes[i], errs[i] = s.Save(ctx, d)
			return nil
		})
	}
	_ = g.Wait()

	result := &BatchResult{BatchID: batchID, Total: len(batch)}
	for i, o := range outcomes {
		switch o {
		case Saved:
			result.Saved++
		case AlreadyIndexed:
			result.AlreadyIndexed++
		case Invalid:
			result.Invalid++
		case Skipped:
			result.Skipped++
		case Failed:
			result.Failed++
		}
		if errs[i] != nil {
			result.Errors = append(result.Errors, BatchItemError{Index: i, Outcome: o, Message: errs[i].Error()})
		}
	}

	log.Info("Пакетная индексация завершена",
		slog.Int("saved", result.Saved),
		slog.Int("already_indexed", result.AlreadyIndexed),
		slog.Int("invalid", result.Invalid),
		slog.Int("skipped", result.Skipped),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// Delete удаляет запись по ключу, а если её нет, по (имя, размер, mime).
// Варианты имени: текущая нормализация, устаревшая посимвольная, исходное имя.
func (s *CatalogService) Delete(ctx context.Context, req DeleteRequest) (*DeleteResult, error) {
	id := req.ID
	if id == "" && req.RemoteFileID != "" {
		fid, err := fileid.Decode(req.RemoteFileID)
		switch {
		case err == nil:
			id = fid.Key()
		case req.FileName == "":
			return nil, err
		default:
			s.logger.Warn("Идентификатор не декодируется, удаление по имени",
				slog.String("error", err.Error()),
			)
		}
	}
	if id == "" && req.FileName == "" {
		return nil, fmt.Errorf("%w: нужен id, remote_file_id или file_name", ErrInvalidRequest)
	}

	if id != "" {
		n, err := s.media.DeleteByID(ctx, id)
		if err != nil {
			return nil, storeError("удаление по id", err)
		}
		if n > 0 {
			s.cache.Delete(id)
			deleteTotal.WithLabelValues("id").Inc()
			s.logger.Info("Запись удалена по id", slog.String("id", id))
			return &DeleteResult{Deleted: n, Message: MessageDeleted}, nil
		}
	}

	if req.FileName != "" {
		var mime *string
		if req.MimeType != "" {
			mime = &req.MimeType
		}
		n, err := s.media.DeleteByNameSizeMime(ctx, model.NameVariants(req.FileName), req.FileSize, mime)
		if err != nil {
			return nil, storeError("удаление по имени", err)
		}
		if n > 0 {
			s.cache.Purge()
			deleteTotal.WithLabelValues("name").Inc()
			s.logger.Info("Записи удалены по имени",
				slog.String("file_name", req.FileName),
				slog.Int64("file_size", req.FileSize),
				slog.Int("deleted", n),
			)
			return &DeleteResult{Deleted: n, Message: MessageDeleted}, nil
		}
	}

	deleteTotal.WithLabelValues("not_found").Inc()
	return &DeleteResult{Deleted: 0, Message: MessageNotFound}, nil
}

// DropAll удаляет все записи каталога.
func (s *CatalogService) DropAll(ctx context.Context) error {
	if err := s.media.DropAll(ctx); err != nil {
		return storeError("очистка каталога", err)
	}
	s.cache.Purge()
	s.logger.Warn("Каталог полностью очищен")
	return nil
}

// Count возвращает число записей в каталоге.
func (s *CatalogService) Count(ctx context.Context) (int, error) {
	n, err := s.media.Count(ctx)
	if err != nil {
		return 0, storeError("подсчёт записей", err)
	}
	return n, nil
}

// Stats возвращает общее число записей и распределение по типам.
func (s *CatalogService) Stats(ctx context.Context) (*CatalogStats, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := &CatalogStats{Total: total, ByKind: make(map[model.Kind]int, 4)}
	for _, k := range []model.Kind{model.KindDocument, model.KindVideo, model.KindAudio, model.KindUnknown} {
		kind := k
		n, err := s.media.CountMatching(ctx, repository.MediaFilter{Kind: &kind})
		if err != nil {
			return nil, storeError("подсчёт по типу", err)
		}
		stats.ByKind[k] = n
	}
	return stats, nil
}

// GetFileDetails возвращает запись по ключу. Сначала проверяется LRU-кэш.
func (s *CatalogService) GetFileDetails(ctx context.Context, id string) (*model.MediaRecord, error) {
	if rec, ok := s.cache.Get(id); ok {
		return rec, nil
	}

	rec, err := s.media.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("получение записи", err)
	}
	s.cache.Set(id, rec)
	return rec, nil
}
