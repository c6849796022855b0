// Пакет service — бизнес-логика Catalog Module.
// MetadataCache — LRU-кэш записей каталога с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/goartstore/catalog-module/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей каталога.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cm_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей каталога.",
	})
)

// MetadataCache — LRU-кэш записей каталога с автоматическим TTL.
// Кэш локален для экземпляра; инвалидируется при удалении и очистке каталога.
type MetadataCache struct {
	cache *expirable.LRU[string, *model.MediaRecord]
}

// NewMetadataCache создаёт LRU-кэш с указанным максимальным размером и TTL.
func NewMetadataCache(maxSize int, ttl time.Duration) *MetadataCache {
	return &MetadataCache{cache: expirable.NewLRU[string, *model.MediaRecord](maxSize, nil, ttl)}
}

// Get возвращает копию записи из кэша.
// Обновляет Prometheus-метрики hit/miss.
func (c *MetadataCache) Get(id string) (*model.MediaRecord, bool) {
	val, ok := c.cache.Get(id)
	if !ok {
		cacheMissesTotal.Inc()
		return nil, false
	}
	cacheHitsTotal.Inc()
	copied := *val
	return &copied, true
}

// Set добавляет запись в кэш.
func (c *MetadataCache) Set(id string, r *model.MediaRecord) {
	copied := *r
	c.cache.Add(id, &copied)
}

// Delete удаляет запись из кэша.
func (c *MetadataCache) Delete(id string) {
	c.cache.Remove(id)
}

// Purge очищает кэш целиком.
func (c *MetadataCache) Purge() {
	c.cache.Purge()
}

// Len возвращает количество записей в кэше.
func (c *MetadataCache) Len() int {
	return c.cache.Len()
}
