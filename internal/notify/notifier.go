package notify

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

// Publisher рассылает события календаря внешним потребителям
// (почта, мессенджеры — вне зоны ответственности ядра).
// Все вызовы строго после коммита и best-effort: сбой доставки
// никогда не откатывает бронирование.
type Publisher interface {
	BookingCreated(ctx context.Context, appt *model.Appointment) error
	BookingCancelled(ctx context.Context, appt *model.Appointment) error
}

// NopPublisher используется, когда брокер выключен конфигурацией.
type NopPublisher struct{}

func (NopPublisher) BookingCreated(context.Context, *model.Appointment) error   { return nil }
func (NopPublisher) BookingCancelled(context.Context, *model.Appointment) error { return nil }

// MeetingLinkIssuer выдаёт ссылку на видеокомнату для видео-приёмов.
// Внешний коллаборатор; сбой выдачи не откатывает бронирование.
type MeetingLinkIssuer interface {
	Issue(ctx context.Context, appointmentID uuid.UUID) (string, error)
}

// RoomLinkIssuer строит ссылку на комнату по базовому URL видеосервиса.
type RoomLinkIssuer struct {
	BaseURL string
}

func (i RoomLinkIssuer) Issue(_ context.Context, appointmentID uuid.UUID) (string, error) {
	if i.BaseURL == "" {
		return "", fmt.Errorf("meeting link: base url is not configured")
	}
	return fmt.Sprintf("%s/room/%s", i.BaseURL, appointmentID), nil
}
