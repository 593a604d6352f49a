package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

type DoctorRepository interface {
	GetByID(ctx context.Context, id string) (*model.Doctor, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error)
	List(ctx context.Context, limit, offset int) ([]model.Doctor, int64, error)
}

type GormDoctorRepository struct {
	db *gorm.DB
}

func NewGormDoctorRepository(db *gorm.DB) *GormDoctorRepository {
	return &GormDoctorRepository{db: db}
}

func (r *GormDoctorRepository) GetByID(ctx context.Context, id string) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDoctorRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Doctor, error) {
	var d model.Doctor
	if err := r.db.WithContext(ctx).First(&d, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *GormDoctorRepository) List(ctx context.Context, limit, offset int) ([]model.Doctor, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Doctor{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var doctors []model.Doctor
	if err := q.Order("display_name ASC").Limit(limit).Offset(offset).Find(&doctors).Error; err != nil {
		return nil, 0, err
	}
	return doctors, total, nil
}
