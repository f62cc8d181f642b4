package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"ticketdesk/entity"
	"ticketdesk/internal/database"
	"ticketdesk/lib/sl"
)

// ErrExhausted is the normal terminal outcome once every ticket has been claimed.
var ErrExhausted = errors.New("tickets exhausted")

type Store interface {
	GetCounter(ctx context.Context, key string) (*entity.Counter, error)
	EnsureCounter(ctx context.Context, key string, total int) (bool, error)
	ClaimTicket(ctx context.Context, key string) (int, error)
	SetCounterCurrent(ctx context.Context, key string, current, total int) error
}

// Allocator hands out ticket numbers from the durable counter.
// It holds no allocation state itself; atomicity belongs to the store.
type Allocator struct {
	store   Store
	key     string
	total   int
	ensured atomic.Bool
	mutex   sync.Mutex
	log     *slog.Logger
}

func New(store Store, key string, total int, log *slog.Logger) *Allocator {
	return &Allocator{
		store: store,
		key:   key,
		total: total,
		log:   log.With(sl.Module("impl.tickets")),
	}
}

// Init creates the counter when absent and logs its state.
func (a *Allocator) Init(ctx context.Context) error {
	if err := a.ensure(ctx); err != nil {
		return err
	}
	counter, err := a.store.GetCounter(ctx, a.key)
	if err != nil {
		return fmt.Errorf("read counter: %w", err)
	}
	if counter.Total != a.total {
		a.log.Warn("stored total differs from configuration",
			slog.Int("stored", counter.Total),
			slog.Int("configured", a.total))
	}
	a.log.Info("counter loaded",
		slog.String("key", a.key),
		slog.Int("current", counter.Current),
		slog.Int("total", counter.Total))
	return nil
}

func (a *Allocator) ensure(ctx context.Context) error {
	if a.ensured.Load() {
		return nil
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.ensured.Load() {
		return nil
	}
	created, err := a.store.EnsureCounter(ctx, a.key, a.total)
	if err != nil {
		return fmt.Errorf("ensure counter: %w", err)
	}
	if created {
		a.log.Info("counter initialized", slog.String("key", a.key), slog.Int("total", a.total))
	}
	a.ensured.Store(true)
	return nil
}

// ClaimTicket returns the post-increment counter value or ErrExhausted.
// A counter record that disappeared after start is recreated once instead of reported as sold out.
func (a *Allocator) ClaimTicket(ctx context.Context) (int, error) {
	if err := a.ensure(ctx); err != nil {
		return 0, err
	}
	number, err := a.store.ClaimTicket(ctx, a.key)
	if errors.Is(err, database.ErrNotFound) {
		var missing bool
		if missing, err = a.counterMissing(ctx); err != nil {
			return 0, err
		}
		if !missing {
			return 0, ErrExhausted
		}
		if err = a.recreate(ctx); err != nil {
			return 0, err
		}
		number, err = a.store.ClaimTicket(ctx, a.key)
		if errors.Is(err, database.ErrNotFound) {
			return 0, ErrExhausted
		}
	}
	if err != nil {
		return 0, fmt.Errorf("claim ticket: %w", err)
	}
	return number, nil
}

// counterMissing tells an unmatched claim on a full counter from one on a deleted record.
func (a *Allocator) counterMissing(ctx context.Context) (bool, error) {
	_, err := a.store.GetCounter(ctx, a.key)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, database.ErrNotFound):
		return true, nil
	default:
		return false, fmt.Errorf("read counter: %w", err)
	}
}

func (a *Allocator) recreate(ctx context.Context) error {
	a.log.Warn("counter record missing, recreating", slog.String("key", a.key))
	a.ensured.Store(false)
	return a.ensure(ctx)
}

func (a *Allocator) Left(ctx context.Context) (left, total int, err error) {
	if err = a.ensure(ctx); err != nil {
		return 0, 0, err
	}
	counter, err := a.store.GetCounter(ctx, a.key)
	if errors.Is(err, database.ErrNotFound) {
		if err = a.recreate(ctx); err != nil {
			return 0, 0, err
		}
		counter, err = a.store.GetCounter(ctx, a.key)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read counter: %w", err)
	}
	return counter.Left(), counter.Total, nil
}

// Reset puts current back to zero; total is left as stored.
func (a *Allocator) Reset(ctx context.Context) error {
	if err := a.store.SetCounterCurrent(ctx, a.key, 0, a.total); err != nil {
		return fmt.Errorf("reset counter: %w", err)
	}
	a.ensured.Store(true)
	return nil
}
