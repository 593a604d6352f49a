package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

type AppointmentRepository interface {
	// Создать новый приём. Единственная точка вставки — координатор бронирования.
	Create(ctx context.Context, appt *model.Appointment) error
	// Получить приём по ID.
	GetByID(ctx context.Context, id string) (*model.Appointment, error)
	// Обновить статус приёма (отмена, завершение).
	UpdateStatus(ctx context.Context, id string, status model.AppointmentStatus, cancelledAt *time.Time) error
	// Приёмы врача за период, опционально по статусам.
	ListByDoctorRange(
		ctx context.Context,
		doctorID string,
		from, to time.Time,
		statuses []model.AppointmentStatus,
	) ([]model.Appointment, error)
	// Приёмы пациента за период.
	ListByPatientRange(
		ctx context.Context,
		patientID string,
		from, to time.Time,
		limit, offset int,
	) ([]model.Appointment, int64, error)
	// Запланированные приёмы врача, пересекающиеся с интервалом.
	ListScheduledOverlapping(ctx context.Context, doctorID string, start, end time.Time) ([]model.Appointment, error)
}

// Реализация на GORM.
type GormAppointmentRepository struct {
	db *gorm.DB
}

func NewGormAppointmentRepository(db *gorm.DB) *GormAppointmentRepository {
	return &GormAppointmentRepository{db: db}
}

func (r *GormAppointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return r.db.WithContext(ctx).Create(appt).Error
}

func (r *GormAppointmentRepository) GetByID(ctx context.Context, id string) (*model.Appointment, error) {
	var a model.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *GormAppointmentRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status model.AppointmentStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	return r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("id = ?", id).
		Updates(update).
		Error
}

func (r *GormAppointmentRepository) ListByDoctorRange(
	ctx context.Context,
	doctorID string,
	from, to time.Time,
	statuses []model.AppointmentStatus,
) ([]model.Appointment, error) {
	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("doctor_id = ?", doctorID).
		// Пересечение полуоткрытых интервалов с окном запроса.
		Where("starts_at < ? AND ends_at > ?", to, from)

	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var appts []model.Appointment
	if err := q.Order("starts_at ASC").Find(&appts).Error; err != nil {
		return nil, err
	}
	return appts, nil
}

func (r *GormAppointmentRepository) ListByPatientRange(
	ctx context.Context,
	patientID string,
	from, to time.Time,
	limit, offset int,
) ([]model.Appointment, int64, error) {
	var (
		appts []model.Appointment
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.Appointment{}).
		Where("patient_id = ?", patientID).
		Where("starts_at < ? AND ends_at > ?", to, from)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at ASC").Find(&appts).Error; err != nil {
		return nil, 0, err
	}

	return appts, total, nil
}

func (r *GormAppointmentRepository) ListScheduledOverlapping(
	ctx context.Context,
	doctorID string,
	start, end time.Time,
) ([]model.Appointment, error) {
	var appts []model.Appointment
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Where("status = ?", model.AppointmentStatusScheduled).
		Where("starts_at < ? AND ends_at > ?", end, start).
		Order("starts_at ASC").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}
