package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

type PatientRepository interface {
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
	EnsureByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
}

type GormPatientRepository struct {
	db *gorm.DB
}

func NewGormPatientRepository(db *gorm.DB) *GormPatientRepository {
	return &GormPatientRepository{db: db}
}

func (r *GormPatientRepository) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	var p model.Patient
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPatientRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	var p model.Patient
	if err := r.db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormPatientRepository) EnsureByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error) {
	if userID == uuid.Nil {
		return nil, gorm.ErrRecordNotFound
	}
	var p model.Patient
	tx := r.db.WithContext(ctx).First(&p, "user_id = ?", userID)
	if tx.Error == nil {
		return &p, nil
	}
	if tx.Error != gorm.ErrRecordNotFound {
		return nil, tx.Error
	}

	p = model.Patient{UserID: userID}
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}
