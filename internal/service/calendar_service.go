package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// Категория события календаря.
type EventCategory string

const (
	CategoryAvailable EventCategory = "available"
	CategoryBlocked   EventCategory = "blocked"
	CategoryBooked    EventCategory = "booked"
)

// CalendarEvent — строгая выходная схема для календарного виджета.
// Намеренно отвязана от внутренних GORM-моделей леджеров.
type CalendarEvent struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Category EventCategory `json:"category"`
}

// CalendarService — тонкий адаптер: переводит состояние леджеров в
// последовательность событий для рендера. Бизнес-логики не содержит.
type CalendarService struct {
	resolver    *schedule.Resolver
	blockRepo   repository.AvailabilityRepository
	apptRepo    repository.AppointmentRepository
	patientRepo repository.PatientRepository
	userRepo    repository.UserRepository
}

func NewCalendarService(
	resolver *schedule.Resolver,
	blockRepo repository.AvailabilityRepository,
	apptRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	userRepo repository.UserRepository,
) *CalendarService {
	return &CalendarService{
		resolver:    resolver,
		blockRepo:   blockRepo,
		apptRepo:    apptRepo,
		patientRepo: patientRepo,
		userRepo:    userRepo,
	}
}

// DoctorCalendar собирает события календаря врача за окно:
// свободные слоты, блокировки и запланированные приёмы,
// по возрастанию времени начала.
func (s *CalendarService) DoctorCalendar(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
) ([]CalendarEvent, error) {
	slots, err := s.resolver.FreeSlots(ctx, doctorID, window)
	if err != nil {
		return nil, err
	}

	blocks, err := s.blockRepo.ListByDoctorRange(ctx, doctorID.String(), window.Start, window.End)
	if err != nil {
		return nil, storageErr("list blocks", err)
	}

	appts, err := s.apptRepo.ListByDoctorRange(ctx, doctorID.String(), window.Start, window.End,
		[]model.AppointmentStatus{model.AppointmentStatusScheduled})
	if err != nil {
		return nil, storageErr("list appointments", err)
	}

	events := make([]CalendarEvent, 0, len(slots)+len(blocks)+len(appts))

	for _, slot := range slots {
		events = append(events, CalendarEvent{
			ID:       fmt.Sprintf("slot-%s", slot.Start.UTC().Format("20060102T1504")),
			Title:    "Available",
			Start:    slot.Start,
			End:      slot.End,
			Category: CategoryAvailable,
		})
	}

	for i := range blocks {
		events = append(events, CalendarEvent{
			ID:       fmt.Sprintf("nonavail-%s", blocks[i].ID),
			Title:    "Not Available",
			Start:    blocks[i].StartsAt,
			End:      blocks[i].EndsAt,
			Category: CategoryBlocked,
		})
	}

	for i := range appts {
		events = append(events, CalendarEvent{
			ID:       fmt.Sprintf("appt-%s", appts[i].ID),
			Title:    s.bookedTitle(ctx, &appts[i]),
			Start:    appts[i].StartsAt,
			End:      appts[i].EndsAt,
			Category: CategoryBooked,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

func (s *CalendarService) bookedTitle(ctx context.Context, appt *model.Appointment) string {
	patient, err := s.patientRepo.GetByID(ctx, appt.PatientID.String())
	if err != nil {
		return "Booked"
	}
	user, err := s.userRepo.GetByID(ctx, patient.UserID)
	if err != nil {
		return "Booked"
	}
	return fmt.Sprintf("Booked: %s", user.DisplayName())
}
