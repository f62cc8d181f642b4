package notify

import (
	"context"
	"fmt"
	"ticketdesk/internal/brevo"
)

type SmsSender interface {
	SendSms(ctx context.Context, sms *brevo.Sms) (*brevo.SmsResponse, error)
}

type Sms struct {
	client SmsSender
	sender string
}

func NewSms(client SmsSender, sender string) *Sms {
	return &Sms{client: client, sender: sender}
}

func (s *Sms) Name() string {
	return "sms"
}

func (s *Sms) Send(ctx context.Context, msg *Message) error {
	if msg.Registrant.Phone == "" {
		return ErrSkipped
	}
	content, err := renderText(msg)
	if err != nil {
		return fmt.Errorf("render sms: %w", err)
	}
	_, err = s.client.SendSms(ctx, &brevo.Sms{
		Sender:    s.sender,
		Recipient: msg.Registrant.Phone,
		Content:   content,
		Type:      brevo.SmsTransactional,
		Tag:       msg.Registrant.TicketCode,
	})
	return err
}
