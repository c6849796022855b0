// search.go — поиск по каталогу с пагинацией.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
	"github.com/bigkaa/goartstore/catalog-module/internal/repository"
	"github.com/bigkaa/goartstore/catalog-module/internal/search"
)

// Prometheus-метрики поиска.
var (
	searchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cm_search_total",
		Help: "Общее количество поисковых запросов по результату.",
	}, []string{"result"})
	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cm_search_duration_seconds",
		Help:    "Длительность поисковых запросов.",
		Buckets: prometheus.DefBuckets,
	})
)

// Page — страница выдачи.
type Page struct {
	// Items — записи страницы, новые первыми
	Items []*model.MediaRecord
	// NextOffset — смещение следующей страницы; 0 — страниц больше нет
	NextOffset int
	// Total — общее число совпадений
	Total int
}

// SearchService — поиск записей каталога по свободному тексту.
type SearchService struct {
	media           repository.MediaRepository
	settings        *SettingsResolver
	defaultPageSize int
	useCaption      bool
	logger          *slog.Logger
}

// NewSearchService создаёт сервис поиска.
// useCaption — шаблон проверяется также по подписи.
func NewSearchService(
	media repository.MediaRepository,
	settings *SettingsResolver,
	defaultPageSize int,
	useCaption bool,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		media:           media,
		settings:        settings,
		defaultPageSize: defaultPageSize,
		useCaption:      useCaption,
		logger:          logger.With(slog.String("component", "search_service")),
	}
}

// Query возвращает страницу выдачи.
// Запрос, из которого не строится шаблон, даёт пустую страницу без ошибки.
// Общее число считается до выборки страницы; снимок данных не фиксируется.
func (s *SearchService) Query(ctx context.Context, text, typeFilter string, pageSize, offset int) (*Page, error) {
	start := time.Now()
	defer func() { searchDuration.Observe(time.Since(start).Seconds()) }()

	if pageSize <= 0 {
		pageSize = s.defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}

	f, err := s.filter(text, typeFilter)
	if err != nil {
		return s.degrade(text, err)
	}

	total, err := s.media.CountMatching(ctx, f)
	if err != nil {
		return s.degrade(text, storeError("подсчёт совпадений", err))
	}

	items, err := s.media.Find(ctx, f, pageSize, offset)
	if err != nil {
		return s.degrade(text, storeError("выборка страницы", err))
	}
	if items == nil {
		items = []*model.MediaRecord{}
	}

	next := offset + pageSize
	if next >= total {
		next = 0
	}

	if total == 0 {
		searchTotal.WithLabelValues("empty").Inc()
	} else {
		searchTotal.WithLabelValues("ok").Inc()
	}
	return &Page{Items: items, NextOffset: next, Total: total}, nil
}

// QueryAll возвращает все совпадения без пагинации и их число.
func (s *SearchService) QueryAll(ctx context.Context, text, typeFilter string) ([]*model.MediaRecord, int, error) {
	f, err := s.filter(text, typeFilter)
	if err != nil {
		page, err := s.degrade(text, err)
		if err != nil {
			return nil, 0, err
		}
		return page.Items, 0, nil
	}

	items, err := s.media.Find(ctx, f, 0, 0)
	if err != nil {
		page, err := s.degrade(text, storeError("выборка совпадений", err))
		if err != nil {
			return nil, 0, err
		}
		return page.Items, 0, nil
	}
	if items == nil {
		items = []*model.MediaRecord{}
	}
	searchTotal.WithLabelValues("all").Inc()
	return items, len(items), nil
}

// QueryForRequester выполняет Query с размером страницы по настройкам запрашивающего.
// Без идентификатора используется размер по умолчанию.
func (s *SearchService) QueryForRequester(
	ctx context.Context,
	requesterID *int64,
	text, typeFilter string,
	offset int,
) (*Page, error) {
	pageSize := s.defaultPageSize
	if requesterID != nil {
		size, err := s.settings.PageSize(ctx, *requesterID)
		if err != nil {
			return nil, err
		}
		pageSize = size
	}
	return s.Query(ctx, text, typeFilter, pageSize, offset)
}

// filter строит условие выборки из текста запроса и фильтра по типу.
func (s *SearchService) filter(text, typeFilter string) (repository.MediaFilter, error) {
	f := repository.MediaFilter{IncludeCaption: s.useCaption}

	if typeFilter != "" {
		kind, err := model.ParseKind(typeFilter)
		if err != nil {
			return f, err
		}
		f.Kind = &kind
	}

	p, err := search.Build(text)
	if err != nil {
		return f, err
	}
	f.Pattern = p
	return f, nil
}

// degrade превращает ошибку построения шаблона в пустую страницу.
// Остальные ошибки возвращаются вызывающему.
func (s *SearchService) degrade(text string, err error) (*Page, error) {
	if errors.Is(err, search.ErrPatternCompile) {
		searchTotal.WithLabelValues("degraded").Inc()
		s.logger.Debug("Запрос не преобразуется в шаблон, пустая выдача",
			slog.String("query", text),
			slog.String("error", err.Error()),
		)
		return &Page{Items: []*model.MediaRecord{}}, nil
	}
	searchTotal.WithLabelValues("error").Inc()
	return nil, err
}
