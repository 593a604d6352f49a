package notify

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Leganyst/telehealth-platform/internal/model"
)

const (
	routingKeyBookingCreated   = "booking.created"
	routingKeyBookingCancelled = "booking.cancelled"
)

// bookingMessage — полезная нагрузка события для брокера.
type bookingMessage struct {
	AppointmentID string    `json:"appointmentId"`
	DoctorID      string    `json:"doctorId"`
	PatientID     string    `json:"patientId"`
	StartsAt      time.Time `json:"startsAt"`
	EndsAt        time.Time `json:"endsAt"`
	Type          string    `json:"type"`
	Status        string    `json:"status"`
	MeetingLink   string    `json:"meetingLink,omitempty"`
}

// AMQPPublisher публикует события календаря в exchange RabbitMQ.
type AMQPPublisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	log      *zap.Logger
}

func NewAMQPPublisher(url, exchange string, log *zap.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}

	if err := channel.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		log:      log,
	}, nil
}

func (p *AMQPPublisher) BookingCreated(ctx context.Context, appt *model.Appointment) error {
	return p.publish(ctx, routingKeyBookingCreated, appt)
}

func (p *AMQPPublisher) BookingCancelled(ctx context.Context, appt *model.Appointment) error {
	return p.publish(ctx, routingKeyBookingCancelled, appt)
}

func (p *AMQPPublisher) publish(ctx context.Context, routingKey string, appt *model.Appointment) error {
	body, err := json.Marshal(bookingMessage{
		AppointmentID: appt.ID.String(),
		DoctorID:      appt.DoctorID.String(),
		PatientID:     appt.PatientID.String(),
		StartsAt:      appt.StartsAt,
		EndsAt:        appt.EndsAt,
		Type:          string(appt.Type),
		Status:        string(appt.Status),
		MeetingLink:   appt.MeetingLink,
	})
	if err != nil {
		return err
	}

	err = p.channel.PublishWithContext(ctx,
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now().UTC(),
			Body:        body,
		},
	)
	if err != nil {
		p.log.Warn("amqp publish failed",
			zap.String("routing_key", routingKey),
			zap.String("appointment_id", appt.ID.String()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
