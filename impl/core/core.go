package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"ticketdesk/entity"
	"ticketdesk/impl/tickets"
	"ticketdesk/internal/database"
	"ticketdesk/internal/metrics"
	"ticketdesk/internal/notify"
	"ticketdesk/lib/phone"
	"ticketdesk/lib/sl"
	"time"

	"github.com/google/uuid"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("duplicate registrant")
	ErrSoldOut    = errors.New("sold out")
)

// UserError carries the text shown to the caller next to its sentinel.
type UserError struct {
	kind    error
	message string
}

func (e *UserError) Error() string {
	return e.message
}

func (e *UserError) Unwrap() error {
	return e.kind
}

func userError(kind error, message string) error {
	return &UserError{kind: kind, message: message}
}

type Repository interface {
	CreateRegistrant(ctx context.Context, registrant *entity.Registrant) error
	FindRegistrantByEmail(ctx context.Context, email string) (*entity.Registrant, error)
	CountRegistrants(ctx context.Context) (int64, error)
	DeleteRegistrants(ctx context.Context) (int64, error)
}

type Allocator interface {
	ClaimTicket(ctx context.Context) (int, error)
	Left(ctx context.Context) (left, total int, err error)
	Reset(ctx context.Context) error
}

type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

type Dispatcher interface {
	Enqueue(msg *notify.Message) bool
	Channels() []string
}

type AuthService interface {
	OperatorByToken(token string) (*entity.Operator, error)
}

type Core struct {
	repo         Repository
	tickets      Allocator
	phone        PhoneNormalizer
	dispatcher   Dispatcher
	auth         AuthService
	metrics      *metrics.Metrics
	event        entity.Event
	requireEmail bool
	now          func() time.Time
	log          *slog.Logger
}

func New(repo Repository, tickets Allocator, phone PhoneNormalizer, log *slog.Logger) *Core {
	return &Core{
		repo:    repo,
		tickets: tickets,
		phone:   phone,
		now:     time.Now,
		log:     log.With(sl.Module("core")),
	}
}

func (c *Core) SetDispatcher(dispatcher Dispatcher) {
	c.dispatcher = dispatcher
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetMetrics(m *metrics.Metrics) {
	c.metrics = m
}

func (c *Core) SetEvent(event entity.Event) {
	c.event = event
}

func (c *Core) SetRequireEmail(require bool) {
	c.requireEmail = require
}

func (c *Core) AuthenticateByToken(token string) (*entity.Operator, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.OperatorByToken(token)
}

// Register runs validate, normalize, check, claim, persist, enqueue; nothing is retried.
func (c *Core) Register(ctx context.Context, req *entity.RegisterRequest) (*entity.Registration, error) {
	registration, err := c.register(ctx, req)
	c.metrics.Registration(resultOf(err))
	return registration, err
}

func (c *Core) register(ctx context.Context, req *entity.RegisterRequest) (*entity.Registration, error) {
	err := req.Validate()
	if req.Name == "" || req.Phone == "" || (c.requireEmail && req.Email == "") {
		return nil, userError(ErrValidation, "All fields are required")
	}
	if err != nil {
		return nil, userError(ErrValidation, fmt.Sprintf("Invalid input: %s", err))
	}

	log := c.log.With(sl.Phone(req.Phone))

	normalized, err := c.phone.Normalize(req.Phone)
	if err != nil {
		log.Debug("phone rejected", sl.Err(err))
		if errors.Is(err, phone.ErrPhoneLength) {
			return nil, userError(ErrValidation, "Phone number must be 8-15 digits long after country code")
		}
		return nil, userError(ErrValidation, "Invalid phone number")
	}

	if req.Email != "" {
		_, err = c.repo.FindRegistrantByEmail(ctx, req.Email)
		switch {
		case err == nil:
			return nil, userError(ErrDuplicate, "This email is already registered")
		case !errors.Is(err, database.ErrNotFound):
			return nil, fmt.Errorf("find registrant: %w", err)
		}
	}

	number, err := c.tickets.ClaimTicket(ctx)
	if errors.Is(err, tickets.ErrExhausted) {
		log.Info("registration refused: sold out")
		return nil, userError(ErrSoldOut, "No tickets left, event is fully booked")
	}
	if err != nil {
		return nil, err
	}

	registrant := &entity.Registrant{
		Id:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		Phone:        normalized,
		TicketNumber: number,
		TicketCode:   entity.TicketCode(number),
		CreatedAt:    c.now().UTC(),
	}
	log = log.With(slog.String("ticket", registrant.TicketCode))

	// the claimed number cannot be returned to the pool from here on
	if err = c.repo.CreateRegistrant(ctx, registrant); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			log.Warn("ticket orphaned by concurrent duplicate", sl.Err(err))
			return nil, userError(ErrDuplicate, "This email is already registered")
		}
		log.Error("ticket orphaned: registrant not saved", sl.Err(err))
		return nil, fmt.Errorf("save registrant: %w", err)
	}
	log.Info("registered", slog.Int("number", number))

	c.dispatch(registrant)

	return &entity.Registration{
		Success:    true,
		TicketCode: registrant.TicketCode,
		Message:    c.successMessage(registrant),
	}, nil
}

func (c *Core) dispatch(registrant *entity.Registrant) {
	if c.dispatcher == nil {
		return
	}
	c.dispatcher.Enqueue(&notify.Message{
		Id:         registrant.Id,
		Registrant: *registrant,
		Event:      c.event,
	})
}

func (c *Core) successMessage(registrant *entity.Registrant) string {
	var channels []string
	if c.dispatcher != nil {
		for _, name := range c.dispatcher.Channels() {
			switch name {
			case "email":
				if registrant.Email != "" {
					channels = append(channels, "email")
				}
			case "sms":
				channels = append(channels, "SMS")
			case "whatsapp":
				channels = append(channels, "WhatsApp")
			}
		}
	}
	if len(channels) == 0 {
		return fmt.Sprintf("Registration successful!\nYour ticket code is %s.\nKeep it safe.", registrant.TicketCode)
	}
	return fmt.Sprintf("Registration successful! Your ticket (%s) is confirmed.\nWe're sending it to your %s right now, check in a minute.",
		registrant.TicketCode, strings.Join(channels, " & "))
}

func (c *Core) TicketsLeft(ctx context.Context) (*entity.TicketsLeft, error) {
	left, total, err := c.tickets.Left(ctx)
	if err != nil {
		return nil, err
	}
	c.metrics.SetTicketsLeft(left)
	return &entity.TicketsLeft{Left: left, Total: total}, nil
}

func (c *Core) Summary(ctx context.Context) (*entity.Summary, error) {
	left, err := c.TicketsLeft(ctx)
	if err != nil {
		return nil, err
	}
	count, err := c.repo.CountRegistrants(ctx)
	if err != nil {
		return nil, fmt.Errorf("count registrants: %w", err)
	}
	return &entity.Summary{Registrants: count, Left: left.Left, Total: left.Total}, nil
}

// Reset deletes every registrant and zeroes the counter; total stays as stored.
func (c *Core) Reset(ctx context.Context, by string) (int64, error) {
	deleted, err := c.repo.DeleteRegistrants(ctx)
	if err != nil {
		return 0, fmt.Errorf("delete registrants: %w", err)
	}
	if err = c.tickets.Reset(ctx); err != nil {
		return deleted, err
	}
	c.log.Warn("registrations reset",
		slog.String("by", by),
		slog.Int64("deleted", deleted))
	return deleted, nil
}

func resultOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrSoldOut):
		return "sold_out"
	default:
		return "error"
	}
}
