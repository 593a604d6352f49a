package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/auth"
	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/notify"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// BookingService — координатор транзакций бронирования, единственный
// путь создания приёма. Владеет гарантией "не больше одного
// бронирования на интервал" для каждого врача.
//
// Схема: валидация по живому состоянию леджеров, затем повторная
// проверка и вставка под мьютексом врача внутри транзакции БД.
// Оптимистичные проверки пересечений на стороне UI — только подсказка.
type BookingService struct {
	db          *gorm.DB
	apptRepo    repository.AppointmentRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	eventRepo   repository.EventRepository
	resolver    *schedule.Resolver
	locker      *DoctorLocker
	publisher   notify.Publisher
	links       notify.MeetingLinkIssuer
	log         *zap.Logger
}

func NewBookingService(
	db *gorm.DB,
	apptRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	eventRepo repository.EventRepository,
	resolver *schedule.Resolver,
	locker *DoctorLocker,
	publisher notify.Publisher,
	links notify.MeetingLinkIssuer,
	log *zap.Logger,
) *BookingService {
	return &BookingService{
		db:          db,
		apptRepo:    apptRepo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		eventRepo:   eventRepo,
		resolver:    resolver,
		locker:      locker,
		publisher:   publisher,
		links:       links,
		log:         log,
	}
}

// Book валидирует запрос против резолвера и атомарно коммитит приём.
//
// Контракт:
//  1. интервал лежит на сетке слотов, иначе ErrInvalidSlot;
//  2. интервал входит в свободную поверхность врача на момент транзакции
//     (свежее чтение, не кэш UI), иначе ErrSlotUnavailable;
//  3. повторная проверка и вставка под мьютексом врача: если интервал
//     заняли между валидацией и коммитом — ErrConcurrentConflict.
//
// Пациент бронирует только для себя; администратор — для любого пациента.
func (s *BookingService) Book(
	ctx context.Context,
	identity auth.Identity,
	doctorID, patientID uuid.UUID,
	interval schedule.Interval,
	apptType model.AppointmentType,
) (*model.Appointment, error) {
	if _, err := schedule.NewInterval(interval.Start, interval.End); err != nil {
		return nil, err
	}
	if !interval.IsAligned(s.resolver.Granularity()) {
		return nil, ErrInvalidSlot
	}
	if apptType != model.AppointmentTypeVideo && apptType != model.AppointmentTypeInPerson {
		return nil, fmt.Errorf("%w: unknown appointment type %q", ErrInvalidSlot, apptType)
	}

	if err := s.authorizePatient(ctx, identity, patientID); err != nil {
		return nil, err
	}
	if _, err := s.doctorRepo.GetByID(ctx, doctorID.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("load doctor", err)
	}

	// Валидация по живому состоянию. Может устареть до коммита —
	// поэтому ниже есть повторная проверка под мьютексом.
	bookable, err := s.resolver.IsBookable(ctx, doctorID, interval)
	if err != nil {
		return nil, err
	}
	if !bookable {
		return nil, ErrSlotUnavailable
	}

	appt := &model.Appointment{
		ID:        uuid.New(),
		DoctorID:  doctorID,
		PatientID: patientID,
		StartsAt:  interval.Start,
		EndsAt:    interval.End,
		Type:      apptType,
		Status:    model.AppointmentStatusScheduled,
	}

	unlock := s.locker.Lock(doctorID)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Повторная проверка: интервал мог быть занят между чтением
		// резолвера и захватом мьютекса.
		var count int64
		if err := tx.Model(&model.Appointment{}).
			Where("doctor_id = ?", doctorID.String()).
			Where("status = ?", model.AppointmentStatusScheduled).
			Where("starts_at < ? AND ends_at > ?", interval.End, interval.Start).
			Count(&count).Error; err != nil {
			return storageErr("recheck appointments", err)
		}
		if count > 0 {
			return ErrConcurrentConflict
		}

		if err := tx.Model(&model.AvailabilityBlock{}).
			Where("doctor_id = ?", doctorID.String()).
			Where("starts_at < ? AND ends_at > ?", interval.End, interval.Start).
			Count(&count).Error; err != nil {
			return storageErr("recheck blocks", err)
		}
		if count > 0 {
			return ErrConcurrentConflict
		}

		if err := tx.Create(appt).Error; err != nil {
			return storageErr("create appointment", err)
		}
		return nil
	})
	unlock()
	if err != nil {
		return nil, err
	}

	// Вторичные эффекты после коммита; их сбой бронирование не откатывает.
	if appt.Type == model.AppointmentTypeVideo {
		s.attachMeetingLink(ctx, appt)
	}
	if err := s.publisher.BookingCreated(ctx, appt); err != nil {
		s.log.Warn("booking notification failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
	}
	s.audit(ctx, model.EventTypeBookingCreated, identity, appt.ID,
		fmt.Sprintf("%s %s [%s, %s)", appt.Type, appt.DoctorID,
			appt.StartsAt.Format("2006-01-02 15:04"), appt.EndsAt.Format("15:04")))

	s.log.Info("appointment booked",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("doctor_id", doctorID.String()),
		zap.String("patient_id", patientID.String()),
		zap.Time("starts_at", appt.StartsAt),
		zap.Int("duration_min", interval.DurationMinutes()),
	)
	return appt, nil
}

// Cancel переводит приём в cancelled и возвращает интервал в поверхность
// бронирования. Разрешён пациенту-владельцу, назначенному врачу и админу.
func (s *BookingService) Cancel(
	ctx context.Context,
	identity auth.Identity,
	appointmentID uuid.UUID,
) (*model.Appointment, error) {
	appt, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, identity, appt); err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentStatusScheduled {
		return nil, fmt.Errorf("%w: appointment is %s", ErrConflict, appt.Status)
	}

	now := time.Now().UTC()
	if err := s.apptRepo.UpdateStatus(ctx, appointmentID.String(), model.AppointmentStatusCancelled, &now); err != nil {
		return nil, storageErr("cancel appointment", err)
	}
	appt.Status = model.AppointmentStatusCancelled
	appt.CancelledAt = &now

	if err := s.publisher.BookingCancelled(ctx, appt); err != nil {
		s.log.Warn("cancel notification failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
	}
	s.audit(ctx, model.EventTypeBookingCancelled, identity, appt.ID, "")

	s.log.Info("appointment cancelled",
		zap.String("appointment_id", appt.ID.String()),
		zap.String("doctor_id", appt.DoctorID.String()),
	)
	return appt, nil
}

// Complete — терминальный переход scheduled -> completed.
// Интервал остаётся занятым в истории, но больше не бронируем в будущем.
// Разрешён назначенному врачу и админу.
func (s *BookingService) Complete(
	ctx context.Context,
	identity auth.Identity,
	appointmentID uuid.UUID,
) (*model.Appointment, error) {
	appt, err := s.loadAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeAssignedDoctor(ctx, identity, appt); err != nil {
		return nil, err
	}
	if appt.Status != model.AppointmentStatusScheduled {
		return nil, fmt.Errorf("%w: appointment is %s", ErrConflict, appt.Status)
	}

	if err := s.apptRepo.UpdateStatus(ctx, appointmentID.String(), model.AppointmentStatusCompleted, nil); err != nil {
		return nil, storageErr("complete appointment", err)
	}
	appt.Status = model.AppointmentStatusCompleted

	s.audit(ctx, model.EventTypeBookingCompleted, identity, appt.ID, "")
	return appt, nil
}

// ListDoctorAppointments возвращает приёмы врача в окне, опционально по статусам.
func (s *BookingService) ListDoctorAppointments(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
	statuses []model.AppointmentStatus,
) ([]model.Appointment, error) {
	appts, err := s.apptRepo.ListByDoctorRange(ctx, doctorID.String(), window.Start, window.End, statuses)
	if err != nil {
		return nil, storageErr("list appointments", err)
	}
	return appts, nil
}

// ListMyAppointments возвращает приёмы субъекта запроса: пациенту — его
// записи, врачу — записи его календаря. Карточка пациента заводится
// лениво при первом обращении.
func (s *BookingService) ListMyAppointments(
	ctx context.Context,
	identity auth.Identity,
	window schedule.Interval,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	switch identity.Role {
	case auth.RolePatient:
		patient, err := s.patientRepo.EnsureByUserID(ctx, identity.UserID)
		if err != nil {
			return nil, 0, storageErr("ensure patient", err)
		}
		appts, total, err := s.apptRepo.ListByPatientRange(ctx, patient.ID.String(), window.Start, window.End, limit, offset)
		if err != nil {
			return nil, 0, storageErr("list patient appointments", err)
		}
		return appts, total, nil
	case auth.RoleDoctor:
		doctor, err := s.doctorRepo.GetByUserID(ctx, identity.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, ErrNotFound
			}
			return nil, 0, storageErr("load doctor", err)
		}
		appts, err := s.apptRepo.ListByDoctorRange(ctx, doctor.ID.String(), window.Start, window.End, nil)
		if err != nil {
			return nil, 0, storageErr("list doctor appointments", err)
		}
		return appts, int64(len(appts)), nil
	default:
		return nil, 0, ErrNotPermitted
	}
}

// FreeSlots — свободные слоты врача в окне (проксирует резолвер).
func (s *BookingService) FreeSlots(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
) ([]schedule.Interval, error) {
	return s.resolver.FreeSlots(ctx, doctorID, window)
}

func (s *BookingService) attachMeetingLink(ctx context.Context, appt *model.Appointment) {
	link, err := s.links.Issue(ctx, appt.ID)
	if err != nil {
		s.log.Warn("meeting link issuance failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return
	}
	if err := s.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", appt.ID.String()).
		Update("meeting_link", link).Error; err != nil {
		s.log.Warn("meeting link save failed",
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return
	}
	appt.MeetingLink = link
}

func (s *BookingService) loadAppointment(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appt, err := s.apptRepo.GetByID(ctx, id.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("load appointment", err)
	}
	return appt, nil
}

// authorizePatient: пациент бронирует только для себя.
func (s *BookingService) authorizePatient(ctx context.Context, identity auth.Identity, patientID uuid.UUID) error {
	if identity.IsAdmin() {
		return nil
	}
	if identity.Role != auth.RolePatient {
		return ErrNotPermitted
	}
	patient, err := s.patientRepo.GetByID(ctx, patientID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr("load patient", err)
	}
	if patient.UserID != identity.UserID {
		return ErrNotPermitted
	}
	return nil
}

// authorizeParticipant: пациент-владелец, назначенный врач или админ.
func (s *BookingService) authorizeParticipant(ctx context.Context, identity auth.Identity, appt *model.Appointment) error {
	if identity.IsAdmin() {
		return nil
	}
	switch identity.Role {
	case auth.RolePatient:
		patient, err := s.patientRepo.GetByID(ctx, appt.PatientID.String())
		if err != nil {
			return storageErr("load patient", err)
		}
		if patient.UserID == identity.UserID {
			return nil
		}
	case auth.RoleDoctor:
		doctor, err := s.doctorRepo.GetByID(ctx, appt.DoctorID.String())
		if err != nil {
			return storageErr("load doctor", err)
		}
		if doctor.UserID == identity.UserID {
			return nil
		}
	}
	return ErrNotPermitted
}

// authorizeAssignedDoctor: только назначенный врач или админ.
func (s *BookingService) authorizeAssignedDoctor(ctx context.Context, identity auth.Identity, appt *model.Appointment) error {
	if identity.IsAdmin() {
		return nil
	}
	if identity.Role != auth.RoleDoctor {
		return ErrNotPermitted
	}
	doctor, err := s.doctorRepo.GetByID(ctx, appt.DoctorID.String())
	if err != nil {
		return storageErr("load doctor", err)
	}
	if doctor.UserID != identity.UserID {
		return ErrNotPermitted
	}
	return nil
}

func (s *BookingService) audit(
	ctx context.Context,
	eventType model.EventType,
	identity auth.Identity,
	appointmentID uuid.UUID,
	details string,
) {
	event := &model.Event{
		EventType:     eventType,
		UserID:        &identity.UserID,
		AppointmentID: &appointmentID,
		Details:       details,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		// Аудит не должен ронять основную операцию.
		s.log.Warn("audit event write failed", zap.Error(err))
	}
}
