package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"ticketdesk/entity"
	"ticketdesk/internal/config"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")

	// ErrDuplicateEmail is the ErrDuplicate raised by the unique email index only.
	ErrDuplicateEmail = fmt.Errorf("%w: email", ErrDuplicate)
)

// Store is the durable side of the allocator and the registration workflow.
// ClaimTicket must be a single atomic conditional increment: it returns the new
// value when current < total and ErrNotFound when nothing matched.
type Store interface {
	GetCounter(ctx context.Context, key string) (*entity.Counter, error)
	EnsureCounter(ctx context.Context, key string, total int) (bool, error)
	ClaimTicket(ctx context.Context, key string) (int, error)
	SetCounterCurrent(ctx context.Context, key string, current, total int) error

	CreateRegistrant(ctx context.Context, registrant *entity.Registrant) error
	FindRegistrantByEmail(ctx context.Context, email string) (*entity.Registrant, error)
	CountRegistrants(ctx context.Context) (int64, error)
	DeleteRegistrants(ctx context.Context) (int64, error)

	Close(ctx context.Context) error
}

// New opens the store selected in the configuration.
func New(ctx context.Context, conf *config.Config, log *slog.Logger) (Store, error) {
	switch conf.Store {
	case config.StoreMongo:
		return NewMongoClient(ctx, conf, log)
	case config.StoreMySql:
		return NewSQLClient(ctx, conf, log)
	case config.StoreMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store %q", conf.Store)
	}
}
