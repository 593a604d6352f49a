package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

// Recurrence — явный тег повторения блокировки.
// Сейчас используется только RecurrenceNone; weekly зарезервирован,
// чтобы неподдерживаемое значение ловилось явно, а не молча.
type Recurrence string

const (
	RecurrenceNone   Recurrence = "none"
	RecurrenceWeekly Recurrence = "weekly"
)

// availability_blocks
//
// Блокировка доступности: врач вручную вырезает подынтервал из своей
// поверхности бронирования. Принадлежит только создавшему её врачу;
// для одного врача блокировки не пересекаются (контролируется леджером
// при создании).
type AvailabilityBlock struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DoctorID uuid.UUID `gorm:"type:uuid;not null;index:idx_blocks_doctor_time"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_blocks_doctor_time"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Recurrence Recurrence `gorm:"type:varchar(32);not null;default:'none'"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// Interval возвращает интервал блокировки.
func (b *AvailabilityBlock) Interval() schedule.Interval {
	return schedule.Interval{Start: b.StartsAt, End: b.EndsAt}
}
