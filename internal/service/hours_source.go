package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// RepoHoursSource отдаёт резолверу правила рабочих часов: персональный
// шаблон врача из doctor_schedules, иначе глобальный шаблон из конфига.
// Невалидный персональный шаблон — ошибка конфигурации, не запроса.
type RepoHoursSource struct {
	schedules repository.ScheduleRepository
	global    []schedule.HoursRule
}

func NewRepoHoursSource(schedules repository.ScheduleRepository, global []schedule.HoursRule) *RepoHoursSource {
	return &RepoHoursSource{schedules: schedules, global: global}
}

func (s *RepoHoursSource) HoursFor(ctx context.Context, doctorID uuid.UUID) ([]schedule.HoursRule, error) {
	ds, err := s.schedules.GetByDoctor(ctx, doctorID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return s.global, nil
		}
		return nil, storageErr("load doctor schedule", err)
	}
	return schedule.ParseHoursJSON(ds.Rules)
}

// repoOccupiedSource — чтение занятых интервалов напрямую из леджеров.
// Резолвер только читает; мутации идут через сервисы.
type repoOccupiedSource struct {
	blocks repository.AvailabilityRepository
	appts  repository.AppointmentRepository
}

func NewRepoOccupiedSource(
	blocks repository.AvailabilityRepository,
	appts repository.AppointmentRepository,
) schedule.OccupiedSource {
	return &repoOccupiedSource{blocks: blocks, appts: appts}
}

func (s *repoOccupiedSource) BlockedIntervals(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
) ([]schedule.Interval, error) {
	blocks, err := s.blocks.ListByDoctorRange(ctx, doctorID.String(), window.Start, window.End)
	if err != nil {
		return nil, storageErr("list availability blocks", err)
	}
	intervals := make([]schedule.Interval, 0, len(blocks))
	for i := range blocks {
		intervals = append(intervals, blocks[i].Interval())
	}
	return intervals, nil
}

func (s *repoOccupiedSource) ScheduledIntervals(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
) ([]schedule.Interval, error) {
	appts, err := s.appts.ListScheduledOverlapping(ctx, doctorID.String(), window.Start, window.End)
	if err != nil {
		return nil, storageErr("list scheduled appointments", err)
	}
	intervals := make([]schedule.Interval, 0, len(appts))
	for i := range appts {
		intervals = append(intervals, appts[i].Interval())
	}
	return intervals, nil
}
