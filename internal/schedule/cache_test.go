package schedule

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

// countingHours считает обращения к источнику.
type countingHours struct {
	rules []HoursRule
	calls int
}

func (c *countingHours) HoursFor(ctx context.Context, doctorID uuid.UUID) ([]HoursRule, error) {
	c.calls++
	return c.rules, nil
}

func TestHoursCache_HitsSourceOnce(t *testing.T) {
	source := &countingHours{rules: weekdayRules()}
	cache, err := NewHoursCache(source, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	doctorID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rules, err := cache.HoursFor(ctx, doctorID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rules) != 1 {
			t.Fatalf("expected 1 rule, got %d", len(rules))
		}
	}
	if source.calls != 1 {
		t.Fatalf("expected single source call, got %d", source.calls)
	}

	// Другой врач — отдельная запись в кэше.
	if _, err := cache.HoursFor(ctx, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected second source call, got %d", source.calls)
	}
}

func TestPaginate(t *testing.T) {
	items := make([]int, 7)
	for i := range items {
		items[i] = i
	}

	first := Paginate(items, 1, 3)
	if len(first.Items) != 3 || first.HasPrev || !first.HasNext || first.Total != 7 {
		t.Fatalf("unexpected first page: %+v", first)
	}

	last := Paginate(items, 3, 3)
	if len(last.Items) != 1 || !last.HasPrev || last.HasNext {
		t.Fatalf("unexpected last page: %+v", last)
	}

	// За пределами данных — пустая страница, не паника.
	beyond := Paginate(items, 10, 3)
	if len(beyond.Items) != 0 {
		t.Fatalf("expected empty page beyond range, got %+v", beyond)
	}
}
