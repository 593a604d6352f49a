package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/auth"
	"github.com/Leganyst/telehealth-platform/internal/model"
	"github.com/Leganyst/telehealth-platform/internal/repository"
	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// AvailabilityService — леджер блокировок доступности.
// Владеет записями availability_blocks; мутации выполняются в том же
// домене сериализации по врачу, что и коммиты бронирований, чтобы
// создание блокировки и бронирование не забрали один интервал вдвоём.
type AvailabilityService struct {
	blockRepo  repository.AvailabilityRepository
	apptRepo   repository.AppointmentRepository
	doctorRepo repository.DoctorRepository
	eventRepo  repository.EventRepository
	resolver   *schedule.Resolver
	locker     *DoctorLocker
	log        *zap.Logger
}

func NewAvailabilityService(
	blockRepo repository.AvailabilityRepository,
	apptRepo repository.AppointmentRepository,
	doctorRepo repository.DoctorRepository,
	eventRepo repository.EventRepository,
	resolver *schedule.Resolver,
	locker *DoctorLocker,
	log *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		blockRepo:  blockRepo,
		apptRepo:   apptRepo,
		doctorRepo: doctorRepo,
		eventRepo:  eventRepo,
		resolver:   resolver,
		locker:     locker,
		log:        log,
	}
}

// ListBlocks возвращает блокировки врача, пересекающиеся с окном.
func (s *AvailabilityService) ListBlocks(
	ctx context.Context,
	doctorID uuid.UUID,
	window schedule.Interval,
) ([]model.AvailabilityBlock, error) {
	blocks, err := s.blockRepo.ListByDoctorRange(ctx, doctorID.String(), window.Start, window.End)
	if err != nil {
		return nil, storageErr("list blocks", err)
	}
	return blocks, nil
}

// AddBlock создаёт блокировку доступности.
// Врач блокирует только собственный календарь, администратор — любой.
func (s *AvailabilityService) AddBlock(
	ctx context.Context,
	identity auth.Identity,
	doctorID uuid.UUID,
	interval schedule.Interval,
) (*model.AvailabilityBlock, error) {
	if _, err := schedule.NewInterval(interval.Start, interval.End); err != nil {
		return nil, err
	}
	if err := s.authorizeDoctor(ctx, identity, doctorID); err != nil {
		return nil, err
	}

	within, err := s.resolver.WithinHours(ctx, doctorID, interval)
	if err != nil {
		return nil, err
	}
	if !within {
		return nil, ErrOutOfHours
	}

	unlock := s.locker.Lock(doctorID)
	defer unlock()

	// Нельзя заблокировать уже забронированный интервал.
	appts, err := s.apptRepo.ListScheduledOverlapping(ctx, doctorID.String(), interval.Start, interval.End)
	if err != nil {
		return nil, storageErr("check appointments", err)
	}
	if len(appts) > 0 {
		return nil, fmt.Errorf("%w: interval is already booked", ErrConflict)
	}

	// Блокировки одного врача не пересекаются.
	existing, err := s.blockRepo.ListByDoctorRange(ctx, doctorID.String(), interval.Start, interval.End)
	if err != nil {
		return nil, storageErr("check blocks", err)
	}
	intervals := make([]schedule.Interval, 0, len(existing))
	for i := range existing {
		intervals = append(intervals, existing[i].Interval())
	}
	if found, conflicts := schedule.HasOverlap(interval, intervals); found {
		return nil, fmt.Errorf("%w: interval overlaps %d existing block(s)", ErrConflict, len(conflicts))
	}

	block := &model.AvailabilityBlock{
		ID:         uuid.New(),
		DoctorID:   doctorID,
		StartsAt:   interval.Start,
		EndsAt:     interval.End,
		Recurrence: model.RecurrenceNone,
	}
	if err := s.blockRepo.Create(ctx, block); err != nil {
		return nil, storageErr("create block", err)
	}

	s.audit(ctx, model.EventTypeBlockCreated, identity, nil, &block.ID,
		fmt.Sprintf("block %s [%s, %s)", block.ID, interval.Start.Format("2006-01-02 15:04"), interval.End.Format("15:04")))

	s.log.Info("availability block created",
		zap.String("doctor_id", doctorID.String()),
		zap.String("block_id", block.ID.String()),
		zap.Time("starts_at", interval.Start),
		zap.Time("ends_at", interval.End),
	)
	return block, nil
}

// RemoveBlock удаляет блокировку и возвращает интервал в поверхность
// бронирования. Отчитывается об отсутствии явно через ErrNotFound.
func (s *AvailabilityService) RemoveBlock(
	ctx context.Context,
	identity auth.Identity,
	blockID uuid.UUID,
) error {
	block, err := s.blockRepo.GetByID(ctx, blockID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr("load block", err)
	}
	if err := s.authorizeDoctor(ctx, identity, block.DoctorID); err != nil {
		return err
	}

	unlock := s.locker.Lock(block.DoctorID)
	defer unlock()

	deleted, err := s.blockRepo.Delete(ctx, blockID.String())
	if err != nil {
		return storageErr("delete block", err)
	}
	if deleted == 0 {
		return ErrNotFound
	}

	s.audit(ctx, model.EventTypeBlockRemoved, identity, nil, &blockID, "")

	s.log.Info("availability block removed",
		zap.String("doctor_id", block.DoctorID.String()),
		zap.String("block_id", blockID.String()),
	)
	return nil
}

// ToggleBlock — UI-семантика календаря: выбор интервала, точно
// совпадающего с существующей блокировкой, снимает её; выбор свободного
// интервала создаёт новую. Построено поверх Add/Remove.
func (s *AvailabilityService) ToggleBlock(
	ctx context.Context,
	identity auth.Identity,
	doctorID uuid.UUID,
	interval schedule.Interval,
) (*model.AvailabilityBlock, bool, error) {
	existing, err := s.blockRepo.FindExact(ctx, doctorID.String(), interval.Start, interval.End)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, storageErr("find block", err)
	}

	if existing != nil {
		if err := s.RemoveBlock(ctx, identity, existing.ID); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}

	block, err := s.AddBlock(ctx, identity, doctorID, interval)
	if err != nil {
		return nil, false, err
	}
	return block, false, nil
}

// authorizeDoctor: врач действует только от своего имени, админ — от любого.
func (s *AvailabilityService) authorizeDoctor(ctx context.Context, identity auth.Identity, doctorID uuid.UUID) error {
	if identity.IsAdmin() {
		return nil
	}
	if identity.Role != auth.RoleDoctor {
		return ErrNotPermitted
	}
	doctor, err := s.doctorRepo.GetByID(ctx, doctorID.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return storageErr("load doctor", err)
	}
	if doctor.UserID != identity.UserID {
		return ErrNotPermitted
	}
	return nil
}

func (s *AvailabilityService) audit(
	ctx context.Context,
	eventType model.EventType,
	identity auth.Identity,
	appointmentID *uuid.UUID,
	blockID *uuid.UUID,
	details string,
) {
	event := &model.Event{
		EventType:     eventType,
		UserID:        &identity.UserID,
		AppointmentID: appointmentID,
		BlockID:       blockID,
		Details:       details,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		// Аудит не должен ронять основную операцию.
		s.log.Warn("audit event write failed", zap.Error(err))
	}
}
