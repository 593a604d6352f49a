package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// staticHours — статический источник рабочих часов для тестов резолвера.
type staticHours struct {
	rules []HoursRule
}

func (s staticHours) HoursFor(ctx context.Context, doctorID uuid.UUID) ([]HoursRule, error) {
	return s.rules, nil
}

// staticOccupied — статический источник занятых интервалов.
type staticOccupied struct {
	blocked   []Interval
	scheduled []Interval
}

func (s staticOccupied) BlockedIntervals(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error) {
	return s.blocked, nil
}

func (s staticOccupied) ScheduledIntervals(ctx context.Context, doctorID uuid.UUID, window Interval) ([]Interval, error) {
	return s.scheduled, nil
}

func weekdayRules() []HoursRule {
	return []HoursRule{{
		Weekdays: []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		Start:    540,  // 09:00
		End:      1020, // 17:00
	}}
}

func tuesdayWindow(t *testing.T) Interval {
	t.Helper()
	return Interval{
		Start: mustTime(t, 2025, 1, 7, 0, 0),
		End:   mustTime(t, 2025, 1, 8, 0, 0),
	}
}

func TestFreeSlots_FullWorkday(t *testing.T) {
	resolver := NewResolver(staticHours{rules: weekdayRules()}, staticOccupied{}, 30*time.Minute, time.UTC)
	doctorID := uuid.New()

	slots, err := resolver.FreeSlots(context.Background(), doctorID, tuesdayWindow(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Рабочий день 09:00–17:00 при шаге 30 минут — ровно 16 слотов.
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].Start.Equal(mustTime(t, 2025, 1, 7, 9, 0)) {
		t.Fatalf("first slot starts at %v, want 09:00", slots[0].Start)
	}
	if !slots[15].End.Equal(mustTime(t, 2025, 1, 7, 17, 0)) {
		t.Fatalf("last slot ends at %v, want 17:00", slots[15].End)
	}
	for i := 1; i < len(slots); i++ {
		if !slots[i].Start.After(slots[i-1].Start) {
			t.Fatalf("slots not ordered at %d", i)
		}
	}
}

func TestFreeSlots_BlockRemovesSlots(t *testing.T) {
	occupied := staticOccupied{
		blocked: []Interval{{
			Start: mustTime(t, 2025, 1, 7, 10, 0),
			End:   mustTime(t, 2025, 1, 7, 11, 0),
		}},
	}
	resolver := NewResolver(staticHours{rules: weekdayRules()}, occupied, 30*time.Minute, time.UTC)
	doctorID := uuid.New()

	slots, err := resolver.FreeSlots(context.Background(), doctorID, tuesdayWindow(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Часовая блокировка съедает ровно два слота: 10:00 и 10:30.
	if len(slots) != 14 {
		t.Fatalf("expected 14 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Overlaps(occupied.blocked[0]) {
			t.Fatalf("slot %+v overlaps blocked interval", s)
		}
	}
}

func TestFreeSlots_ScheduledAppointmentRemovesSlot(t *testing.T) {
	appt := Interval{
		Start: mustTime(t, 2025, 1, 7, 14, 0),
		End:   mustTime(t, 2025, 1, 7, 14, 30),
	}
	resolver := NewResolver(
		staticHours{rules: weekdayRules()},
		staticOccupied{scheduled: []Interval{appt}},
		30*time.Minute, time.UTC,
	)
	doctorID := uuid.New()

	slots, err := resolver.FreeSlots(context.Background(), doctorID, tuesdayWindow(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 15 {
		t.Fatalf("expected 15 slots, got %d", len(slots))
	}
	for _, s := range slots {
		if s.Overlaps(appt) {
			t.Fatalf("slot %+v overlaps scheduled appointment", s)
		}
	}
}

func TestFreeSlots_Deterministic(t *testing.T) {
	occupied := staticOccupied{
		blocked: []Interval{{
			Start: mustTime(t, 2025, 1, 7, 12, 0),
			End:   mustTime(t, 2025, 1, 7, 13, 0),
		}},
		scheduled: []Interval{{
			Start: mustTime(t, 2025, 1, 7, 9, 30),
			End:   mustTime(t, 2025, 1, 7, 10, 0),
		}},
	}
	resolver := NewResolver(staticHours{rules: weekdayRules()}, occupied, 30*time.Minute, time.UTC)
	doctorID := uuid.New()

	first, err := resolver.FreeSlots(context.Background(), doctorID, tuesdayWindow(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := resolver.FreeSlots(context.Background(), doctorID, tuesdayWindow(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !equalIntervalSlices(first, second) {
		t.Fatalf("resolver is not deterministic: %+v vs %+v", first, second)
	}
}

func TestFreeSlots_WeekendEmpty(t *testing.T) {
	resolver := NewResolver(staticHours{rules: weekdayRules()}, staticOccupied{}, 30*time.Minute, time.UTC)
	// Воскресенье 12 января 2025.
	window := Interval{
		Start: mustTime(t, 2025, 1, 12, 0, 0),
		End:   mustTime(t, 2025, 1, 13, 0, 0),
	}

	slots, err := resolver.FreeSlots(context.Background(), uuid.New(), window)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(slots) != 0 {
		t.Fatalf("expected no slots on sunday, got %d", len(slots))
	}
}

func TestIsBookable(t *testing.T) {
	occupied := staticOccupied{
		blocked: []Interval{{
			Start: mustTime(t, 2025, 1, 7, 10, 0),
			End:   mustTime(t, 2025, 1, 7, 11, 0),
		}},
	}
	resolver := NewResolver(staticHours{rules: weekdayRules()}, occupied, 30*time.Minute, time.UTC)
	doctorID := uuid.New()
	ctx := context.Background()

	free := Interval{Start: mustTime(t, 2025, 1, 7, 11, 0), End: mustTime(t, 2025, 1, 7, 11, 30)}
	if ok, err := resolver.IsBookable(ctx, doctorID, free); err != nil || !ok {
		t.Fatalf("expected free slot to be bookable, ok=%v err=%v", ok, err)
	}

	insideBlock := Interval{Start: mustTime(t, 2025, 1, 7, 10, 0), End: mustTime(t, 2025, 1, 7, 10, 30)}
	if ok, _ := resolver.IsBookable(ctx, doctorID, insideBlock); ok {
		t.Fatalf("expected blocked slot to be unbookable")
	}

	outOfHours := Interval{Start: mustTime(t, 2025, 1, 7, 18, 0), End: mustTime(t, 2025, 1, 7, 18, 30)}
	if ok, _ := resolver.IsBookable(ctx, doctorID, outOfHours); ok {
		t.Fatalf("expected out-of-hours slot to be unbookable")
	}
}

func TestWithinHours(t *testing.T) {
	resolver := NewResolver(staticHours{rules: weekdayRules()}, staticOccupied{}, 30*time.Minute, time.UTC)
	doctorID := uuid.New()
	ctx := context.Background()

	inside := Interval{Start: mustTime(t, 2025, 1, 7, 9, 0), End: mustTime(t, 2025, 1, 7, 12, 0)}
	if ok, err := resolver.WithinHours(ctx, doctorID, inside); err != nil || !ok {
		t.Fatalf("expected interval inside hours, ok=%v err=%v", ok, err)
	}

	crossing := Interval{Start: mustTime(t, 2025, 1, 7, 16, 0), End: mustTime(t, 2025, 1, 7, 18, 0)}
	if ok, _ := resolver.WithinHours(ctx, doctorID, crossing); ok {
		t.Fatalf("expected interval crossing hours boundary to be rejected")
	}
}
