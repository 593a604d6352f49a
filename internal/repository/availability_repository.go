package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

type AvailabilityRepository interface {
	// Создать блокировку.
	Create(ctx context.Context, block *model.AvailabilityBlock) error
	// Найти блокировку по ID.
	GetByID(ctx context.Context, id string) (*model.AvailabilityBlock, error)
	// Удалить блокировку. Возвращает количество удалённых строк,
	// чтобы леджер мог явно отчитаться об отсутствии.
	Delete(ctx context.Context, id string) (int64, error)
	// Блокировки врача, пересекающиеся с окном.
	ListByDoctorRange(ctx context.Context, doctorID string, from, to time.Time) ([]model.AvailabilityBlock, error)
	// Блокировка с точно совпадающими границами (для toggle-семантики).
	FindExact(ctx context.Context, doctorID string, start, end time.Time) (*model.AvailabilityBlock, error)
}

type GormAvailabilityRepository struct {
	db *gorm.DB
}

func NewGormAvailabilityRepository(db *gorm.DB) *GormAvailabilityRepository {
	return &GormAvailabilityRepository{db: db}
}

func (r *GormAvailabilityRepository) Create(ctx context.Context, block *model.AvailabilityBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}

func (r *GormAvailabilityRepository) GetByID(ctx context.Context, id string) (*model.AvailabilityBlock, error) {
	var b model.AvailabilityBlock
	if err := r.db.WithContext(ctx).First(&b, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *GormAvailabilityRepository) Delete(ctx context.Context, id string) (int64, error) {
	tx := r.db.WithContext(ctx).Delete(&model.AvailabilityBlock{}, "id = ?", id)
	return tx.RowsAffected, tx.Error
}

func (r *GormAvailabilityRepository) ListByDoctorRange(
	ctx context.Context,
	doctorID string,
	from, to time.Time,
) ([]model.AvailabilityBlock, error) {
	var blocks []model.AvailabilityBlock
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Where("starts_at < ? AND ends_at > ?", to, from).
		Order("starts_at ASC").
		Find(&blocks).Error
	if err != nil {
		return nil, err
	}
	return blocks, nil
}

func (r *GormAvailabilityRepository) FindExact(
	ctx context.Context,
	doctorID string,
	start, end time.Time,
) (*model.AvailabilityBlock, error) {
	var b model.AvailabilityBlock
	err := r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Where("starts_at = ? AND ends_at = ?", start, end).
		First(&b).Error
	if err != nil {
		return nil, err
	}
	return &b, nil
}
