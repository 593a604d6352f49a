package schedule

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// HoursSource отдаёт правила рабочих часов врача.
// В реале — обёртка над БД с LRU-кэшем, в тестах — статический набор.
type HoursSource interface {
	HoursFor(ctx context.Context, doctorID uuid.UUID) ([]HoursRule, error)
}

// OccupiedSource отдаёт занятые интервалы врача внутри окна:
// блокировки доступности и запланированные приёмы.
type OccupiedSource interface {
	BlockedIntervals(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error)
	ScheduledIntervals(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error)
}

// Resolver сводит рабочие часы, блокировки и приёмы в единую
// поверхность бронирования. Только читает леджеры, ничего не мутирует.
type Resolver struct {
	hours       HoursSource
	occupied    OccupiedSource
	granularity time.Duration
	loc         *time.Location
}

func NewResolver(hours HoursSource, occupied OccupiedSource, granularity time.Duration, loc *time.Location) *Resolver {
	if granularity <= 0 {
		granularity = 30 * time.Minute
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		hours:       hours,
		occupied:    occupied,
		granularity: granularity,
		loc:         loc,
	}
}

func (r *Resolver) Granularity() time.Duration {
	return r.granularity
}

// freeRanges возвращает свободные непрерывные диапазоны внутри окна:
// рабочие часы минус блокировки и запланированные приёмы.
// Пересекающиеся блокировки допустимы — вычитание работает как объединение.
func (r *Resolver) freeRanges(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error) {
	rules, err := r.hours.HoursFor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	envelope := ExpandHours(rules, window, r.loc)
	if len(envelope) == 0 {
		return []Interval{}, nil
	}

	blocked, err := r.occupied.BlockedIntervals(ctx, doctorID, window)
	if err != nil {
		return nil, err
	}
	scheduled, err := r.occupied.ScheduledIntervals(ctx, doctorID, window)
	if err != nil {
		return nil, err
	}

	free := SubtractAll(envelope, blocked)
	free = SubtractAll(free, scheduled)
	return free, nil
}

// FreeSlots возвращает упорядоченный набор свободных слотов врача в окне.
// Результат детерминирован: при неизменном состоянии леджеров повторный
// вызов возвращает идентичную последовательность.
func (r *Resolver) FreeSlots(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error) {
	free, err := r.freeRanges(ctx, doctorID, window)
	if err != nil {
		return nil, err
	}

	slots := make([]Interval, 0)
	for _, fr := range free {
		part, err := SplitToSlots(fr, r.granularity)
		if err != nil {
			return nil, err
		}
		slots = append(slots, part...)
	}
	return slots, nil
}

// IsBookable проверяет, лежит ли interval целиком в свободной поверхности
// врача. Вызывается координатором на момент транзакции — по живому
// состоянию леджеров, а не по закэшированному рендеру UI.
func (r *Resolver) IsBookable(ctx context.Context, doctorID uuid.UUID, interval Interval) (bool, error) {
	free, err := r.freeRanges(ctx, doctorID, interval)
	if err != nil {
		return false, err
	}
	for _, fr := range free {
		if fr.Contains(interval) {
			return true, nil
		}
	}
	return false, nil
}

// WithinHours проверяет, что interval целиком лежит внутри одного вхождения
// рабочих часов (без учёта блокировок и приёмов).
func (r *Resolver) WithinHours(ctx context.Context, doctorID uuid.UUID, interval Interval) (bool, error) {
	rules, err := r.hours.HoursFor(ctx, doctorID)
	if err != nil {
		return false, err
	}
	for _, occ := range ExpandHours(rules, interval, r.loc) {
		if occ.Contains(interval) {
			return true, nil
		}
	}
	return false, nil
}
