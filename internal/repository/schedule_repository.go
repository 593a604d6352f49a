package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

type ScheduleRepository interface {
	// GetByDoctor возвращает персональный шаблон рабочих часов врача
	// или gorm.ErrRecordNotFound, если действует глобальный шаблон.
	GetByDoctor(ctx context.Context, doctorID string) (*model.DoctorSchedule, error)
}

type GormScheduleRepository struct {
	db *gorm.DB
}

func NewGormScheduleRepository(db *gorm.DB) *GormScheduleRepository {
	return &GormScheduleRepository{db: db}
}

func (r *GormScheduleRepository) GetByDoctor(ctx context.Context, doctorID string) (*model.DoctorSchedule, error) {
	var s model.DoctorSchedule
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}
