package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/telehealth-platform/internal/schedule"
)

type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
)

type AppointmentType string

const (
	AppointmentTypeVideo    AppointmentType = "video"
	AppointmentTypeInPerson AppointmentType = "in-person"
)

// appointments
//
// Инвариант: для одного врача никакие два приёма со статусом scheduled
// не пересекаются по времени. Создаётся только координатором бронирования.
type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	DoctorID  uuid.UUID `gorm:"type:uuid;not null;index:idx_appointments_doctor_time"`
	PatientID uuid.UUID `gorm:"type:uuid;not null;index"`

	StartsAt time.Time `gorm:"type:timestamp with time zone;not null;index:idx_appointments_doctor_time"`
	EndsAt   time.Time `gorm:"type:timestamp with time zone;not null"`

	Type   AppointmentType   `gorm:"type:varchar(32);not null"`
	Status AppointmentStatus `gorm:"type:varchar(32);not null;default:'scheduled';index"`

	MeetingLink string     `gorm:"type:text"`
	CancelledAt *time.Time `gorm:"type:timestamp with time zone"`
	Comment     string     `gorm:"type:text"`

	CreatedAt time.Time `gorm:"not null;default:now()"`
	UpdatedAt time.Time `gorm:"not null;default:now()"`

	Doctor  *Doctor  `gorm:"foreignKey:DoctorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
	Patient *Patient `gorm:"foreignKey:PatientID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

// Interval возвращает интервал приёма.
func (a *Appointment) Interval() schedule.Interval {
	return schedule.Interval{Start: a.StartsAt, End: a.EndsAt}
}
