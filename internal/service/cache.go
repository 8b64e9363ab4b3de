// cache.go — LRU-кэш записей растений с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arturkryukov/plantstore/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ps_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш записей растений.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ps_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша записей растений.",
	})
)

// PlantCache — LRU-кэш записей растений с автоматическим TTL.
// Каждый экземпляр сервиса имеет собственный in-memory кэш (per-instance).
type PlantCache struct {
	cache *expirable.LRU[string, *model.Plant]
}

// NewPlantCache создаёт LRU-кэш с указанным максимальным размером и TTL.
// maxSize — максимальное количество записей в кэше.
// ttl — время жизни записи после добавления.
func NewPlantCache(maxSize int, ttl time.Duration) *PlantCache {
	cache := expirable.NewLRU[string, *model.Plant](maxSize, nil, ttl)
	return &PlantCache{cache: cache}
}

// Get возвращает запись растения из кэша по id.
// Возвращает (запись, true) при hit или (nil, false) при miss.
// Обновляет Prometheus-метрики hit/miss.
func (c *PlantCache) Get(id string) (*model.Plant, bool) {
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *PlantCache) Set(id string, p *model.Plant) {
	c.cache.Add(id, p)
}

// Delete удаляет запись из кэша (инвалидация при изменении или удалении).
func (c *PlantCache) Delete(id string) {
	c.cache.Remove(id)
}
