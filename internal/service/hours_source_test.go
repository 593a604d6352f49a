package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

func TestRepoHoursSource_GlobalFallback(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// У врача нет персонального шаблона — действует глобальный (будни 09:00–17:00).
	slots, err := env.resolver.FreeSlots(ctx, env.doctor.ID, tuesday(t))
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots from global template, got %d", len(slots))
	}
}

func TestRepoHoursSource_PersonalScheduleOverrides(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Персональный шаблон: вторник 12:00–14:00.
	ds := model.DoctorSchedule{
		DoctorID: env.doctor.ID,
		TimeZone: "UTC",
		Rules:    datatypes.JSON(`[{"daysOfWeek":[2],"startTime":"12:00","endTime":"14:00"}]`),
	}
	if err := env.db.Create(&ds).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	slots, err := env.resolver.FreeSlots(ctx, env.doctor.ID, tuesday(t))
	if err != nil {
		t.Fatalf("free slots: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("expected 4 slots from personal template, got %d", len(slots))
	}
	if !slots[0].Start.Equal(time.Date(2025, 1, 7, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("first slot starts at %v, want 12:00", slots[0].Start)
	}
}

func TestRepoHoursSource_InvalidPersonalSchedule(t *testing.T) {
	env := newTestEnv(t)

	ds := model.DoctorSchedule{
		DoctorID: env.doctor.ID,
		TimeZone: "UTC",
		Rules:    datatypes.JSON(`[{"daysOfWeek":[2],"startTime":"14:00","endTime":"12:00"}]`),
	}
	if err := env.db.Create(&ds).Error; err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	scheduleRepo := repository.NewGormScheduleRepository(env.db)
	source := NewRepoHoursSource(scheduleRepo, nil)
	_, err := source.HoursFor(context.Background(), env.doctor.ID)
	if !errors.Is(err, schedule.ErrInvalidHoursRule) {
		t.Fatalf("expected ErrInvalidHoursRule, got %v", err)
	}
}
