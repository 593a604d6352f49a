package schedule

import (
	"errors"
	"time"
)

var (
	ErrInvalidInterval = errors.New("invalid time interval")
	ErrSlotDuration    = errors.New("slot duration must be positive")
)

// Interval представляет временной интервал [Start, End).
// Касание концами пересечением не считается.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval создаёт интервал и делает простую валидацию.
func NewInterval(start, end time.Time) (Interval, error) {
	if start.IsZero() || end.IsZero() {
		return Interval{}, ErrInvalidInterval
	}
	if !end.After(start) {
		return Interval{}, ErrInvalidInterval
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps проверяет пересечение полуоткрытых интервалов:
// a.Start < b.End && b.Start < a.End.
func (a Interval) Overlaps(b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Contains — inner целиком лежит внутри a.
func (a Interval) Contains(inner Interval) bool {
	return !inner.Start.Before(a.Start) && !inner.End.After(a.End)
}

// Duration возвращает длительность интервала.
func (a Interval) Duration() time.Duration {
	return a.End.Sub(a.Start)
}

// DurationMinutes — длительность в целых минутах.
func (a Interval) DurationMinutes() int {
	return int(a.Duration() / time.Minute)
}

// Equal сравнивает интервалы по границам (с учётом таймзон через time.Equal).
func (a Interval) Equal(b Interval) bool {
	return a.Start.Equal(b.Start) && a.End.Equal(b.End)
}

// IsAligned проверяет, что интервал лежит на сетке слотов:
// начало и конец кратны granularity (якорь — начало часа),
// а длительность равна granularity ровно.
func (a Interval) IsAligned(granularity time.Duration) bool {
	if granularity <= 0 {
		return false
	}
	if a.Duration() != granularity {
		return false
	}
	if a.Start.Nanosecond() != 0 || a.Start.Second() != 0 {
		return false
	}
	step := int(granularity / time.Minute)
	if step <= 0 {
		return false
	}
	return a.Start.Minute()%step == 0
}

// Subtract вырезает occupied из free. Результат — 0, 1 или 2 остатка:
// ноль, если occupied покрывает free целиком; два, если occupied лежит внутри.
func (free Interval) Subtract(occupied Interval) []Interval {
	if !free.Overlaps(occupied) {
		return []Interval{free}
	}

	var rest []Interval
	if occupied.Start.After(free.Start) {
		rest = append(rest, Interval{Start: free.Start, End: occupied.Start})
	}
	if occupied.End.Before(free.End) {
		rest = append(rest, Interval{Start: occupied.End, End: free.End})
	}
	return rest
}

// SubtractAll вычитает все occupied из набора free.
// Пересекающиеся occupied допустимы — трактуются как объединение.
func SubtractAll(free []Interval, occupied []Interval) []Interval {
	result := free
	for _, occ := range occupied {
		var next []Interval
		for _, fr := range result {
			next = append(next, fr.Subtract(occ)...)
		}
		result = next
	}
	return result
}

// SplitToSlots разбивает интервал на выровненные слоты фиксированной
// длительности. Начало поднимается до ближайшей отметки сетки,
// "хвост" короче slotDuration отбрасывается, не округляется.
func SplitToSlots(tr Interval, slotDuration time.Duration) ([]Interval, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []Interval{}, nil
	}

	start := alignUp(tr.Start, slotDuration)
	if !start.Before(tr.End) {
		return []Interval{}, nil
	}

	var slots []Interval
	for cur := start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		slots = append(slots, Interval{Start: cur, End: cur.Add(slotDuration)})
	}
	return slots, nil
}

// alignUp поднимает t до ближайшей границы сетки (якорь — начало часа).
func alignUp(t time.Time, granularity time.Duration) time.Time {
	step := int(granularity / time.Minute)
	if step <= 0 {
		return t
	}

	aligned := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, t.Location())
	if aligned.Before(t) {
		aligned = aligned.Add(time.Minute)
	}
	rem := aligned.Minute() % step
	if rem != 0 {
		aligned = aligned.Add(time.Duration(step-rem) * time.Minute)
	}
	return aligned
}

// HasOverlap проверяет, пересекается ли newRange хотя бы с одним из existing,
// и возвращает список конфликтующих интервалов.
func HasOverlap(newRange Interval, existing []Interval) (bool, []Interval) {
	var conflicts []Interval
	for _, tr := range existing {
		if newRange.Overlaps(tr) {
			conflicts = append(conflicts, tr)
		}
	}
	return len(conflicts) > 0, conflicts
}
