package events

import (
	"context"
	"encoding/json"
	"fmt"
	"ticketdesk/internal/notify"
	"time"

	"github.com/segmentio/kafka-go"
)

const TypeRegistrationCreated = "registration.created"

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type RegistrationCreated struct {
	Type         string    `json:"type"`
	Id           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone"`
	TicketNumber int       `json:"ticket_number"`
	TicketCode   string    `json:"ticket_code"`
	Event        string    `json:"event"`
	CreatedAt    time.Time `json:"created_at"`
}

// Producer streams registrations to Kafka; it is registered as one more notification channel.
type Producer struct {
	Writer MessageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	})
	return &Producer{Writer: writer}
}

func (p *Producer) Name() string {
	return "kafka"
}

func (p *Producer) Send(ctx context.Context, msg *notify.Message) error {
	event := RegistrationCreated{
		Type:         TypeRegistrationCreated,
		Id:           msg.Registrant.Id,
		Name:         msg.Registrant.Name,
		Email:        msg.Registrant.Email,
		Phone:        msg.Registrant.Phone,
		TicketNumber: msg.Registrant.TicketNumber,
		TicketCode:   msg.Registrant.TicketCode,
		Event:        msg.Event.Name,
		CreatedAt:    msg.Registrant.CreatedAt,
	}
	msgBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(msg.Registrant.TicketCode),
			Value: msgBytes,
			Headers: []kafka.Header{
				{Key: "type", Value: []byte(TypeRegistrationCreated)},
			},
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
