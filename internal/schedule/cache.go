package schedule

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
)

// HoursCache — LRU-кэш правил рабочих часов поверх HoursSource.
// Шаблон рабочих часов неизменяем во время работы сервиса (конфигурация,
// а не пользовательские данные), поэтому кэш не может устареть.
// Блокировки и приёмы никогда не кэшируются.
type HoursCache struct {
	source HoursSource
	cache  *lru.Cache[uuid.UUID, []HoursRule]
}

func NewHoursCache(source HoursSource, size int) (*HoursCache, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[uuid.UUID, []HoursRule](size)
	if err != nil {
		return nil, err
	}
	return &HoursCache{source: source, cache: cache}, nil
}

func (c *HoursCache) HoursFor(ctx context.Context, doctorID uuid.UUID) ([]HoursRule, error) {
	if rules, ok := c.cache.Get(doctorID); ok {
		return rules, nil
	}
	rules, err := c.source.HoursFor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	c.cache.Add(doctorID, rules)
	return rules, nil
}
