package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// doctor_schedules
//
// Персональный шаблон рабочих часов врача. Неизменяем во время работы
// сервиса: заполняется при онбординге, через API не мутируется.
// Если записи нет, действует глобальный шаблон из конфигурации.
type DoctorSchedule struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`

	DoctorID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`

	// Чистые даты без времени — datatypes.Date
	StartDate *datatypes.Date `gorm:"type:date"`
	EndDate   *datatypes.Date `gorm:"type:date"`

	TimeZone string `gorm:"type:varchar(64);not null;default:'UTC'"`

	// Правила рабочих часов в виде JSON:
	// [{"daysOfWeek":[1,2,3,4,5],"startTime":"09:00","endTime":"17:00"}]
	Rules datatypes.JSON `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Doctor *Doctor `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}
