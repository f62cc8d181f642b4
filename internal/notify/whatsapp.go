package notify

import (
	"context"
	"fmt"
	"ticketdesk/internal/brevo"
)

type WhatsAppSender interface {
	SendWhatsApp(ctx context.Context, msg *brevo.WhatsAppMessage) (*brevo.WhatsAppResponse, error)
}

// WhatsApp uses the approved template when templateId is set, plain text otherwise.
type WhatsApp struct {
	client       WhatsAppSender
	senderNumber string
	templateId   int
}

func NewWhatsApp(client WhatsAppSender, senderNumber string, templateId int) *WhatsApp {
	return &WhatsApp{client: client, senderNumber: senderNumber, templateId: templateId}
}

func (w *WhatsApp) Name() string {
	return "whatsapp"
}

func (w *WhatsApp) Send(ctx context.Context, msg *Message) error {
	if msg.Registrant.Phone == "" {
		return ErrSkipped
	}
	request := &brevo.WhatsAppMessage{
		SenderNumber:   w.senderNumber,
		ContactNumbers: []string{msg.Registrant.Phone},
	}
	if w.templateId > 0 {
		request.TemplateId = w.templateId
		request.Params = map[string]string{
			"NAME":     msg.Registrant.Name,
			"TICKET":   msg.Registrant.TicketCode,
			"EVENT":    msg.Event.Name,
			"DATE":     msg.Event.Date,
			"TIME":     msg.Event.Time,
			"LOCATION": msg.Event.Location,
		}
	} else {
		text, err := renderText(msg)
		if err != nil {
			return fmt.Errorf("render whatsapp: %w", err)
		}
		request.Text = text
	}
	_, err := w.client.SendWhatsApp(ctx, request)
	return err
}
