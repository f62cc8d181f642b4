package notify

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"ticketdesk/lib/sl"
	"time"

	"github.com/skip2/go-qrcode"
	"github.com/wneessen/go-mail"
)

const ticketImage = "ticket.png"

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

// Email sends the confirmation over SMTP with the ticket code as an inline QR image.
type Email struct {
	conf EmailConfig
	send func(ctx context.Context, msg *mail.Msg) error
	log  *slog.Logger
}

func NewEmail(conf EmailConfig, log *slog.Logger) *Email {
	if conf.From == "" {
		conf.From = conf.Username
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 10 * time.Second
	}
	e := &Email{
		conf: conf,
		log:  log.With(sl.Module("notify.email")),
	}
	e.send = e.dialAndSend
	return e
}

func (e *Email) Name() string {
	return "email"
}

func (e *Email) Send(ctx context.Context, msg *Message) error {
	if msg.Registrant.Email == "" {
		return ErrSkipped
	}
	m, err := e.compose(msg)
	if err != nil {
		return err
	}
	if err = e.send(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	e.log.Debug("email sent", slog.String("to", msg.Registrant.Email))
	return nil
}

func (e *Email) compose(msg *Message) (*mail.Msg, error) {
	qr, err := qrcode.Encode(msg.Registrant.TicketCode, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("qr code: %w", err)
	}
	body, err := renderEmail(msg, ticketImage)
	if err != nil {
		return nil, fmt.Errorf("render email: %w", err)
	}

	m := mail.NewMsg()
	if err = m.FromFormat(e.conf.FromName, e.conf.From); err != nil {
		return nil, fmt.Errorf("from address: %w", err)
	}
	if err = m.To(msg.Registrant.Email); err != nil {
		return nil, fmt.Errorf("to address: %w", err)
	}
	m.Subject(fmt.Sprintf("Your %s Ticket %s", msg.Event.Name, msg.Registrant.TicketCode))
	m.SetBodyString(mail.TypeTextHTML, body)
	if err = m.EmbedReader(ticketImage, bytes.NewReader(qr)); err != nil {
		return nil, fmt.Errorf("embed ticket: %w", err)
	}
	return m, nil
}

// dialAndSend opens a fresh connection per message; mail.Client is not safe for concurrent use.
func (e *Email) dialAndSend(ctx context.Context, m *mail.Msg) error {
	client, err := mail.NewClient(e.conf.Host,
		mail.WithPort(e.conf.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(e.conf.Username),
		mail.WithPassword(e.conf.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(e.conf.Timeout),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}
