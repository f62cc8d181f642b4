package database

import (
	"context"
	"fmt"
	"sync"
	"ticketdesk/entity"
)

// Memory is a process-local Store for local runs and tests.
// The mutex stands in for the atomicity a real database provides.
type Memory struct {
	mu          sync.Mutex
	counters    map[string]entity.Counter
	registrants map[string]entity.Registrant
	emails      map[string]string
	codes       map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		counters:    make(map[string]entity.Counter),
		registrants: make(map[string]entity.Registrant),
		emails:      make(map[string]string),
		codes:       make(map[string]string),
	}
}

func (m *Memory) Close(_ context.Context) error {
	return nil
}

func (m *Memory) GetCounter(_ context.Context, key string) (*entity.Counter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.counters[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &counter, nil
}

func (m *Memory) EnsureCounter(_ context.Context, key string, total int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.counters[key]; ok {
		return false, nil
	}
	m.counters[key] = entity.Counter{Key: key, Total: total}
	return true, nil
}

func (m *Memory) ClaimTicket(_ context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.counters[key]
	if !ok || counter.Current >= counter.Total {
		return 0, ErrNotFound
	}
	counter.Current++
	m.counters[key] = counter
	return counter.Current, nil
}

func (m *Memory) SetCounterCurrent(_ context.Context, key string, current, total int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	counter, ok := m.counters[key]
	if !ok {
		counter = entity.Counter{Key: key, Total: total}
	}
	counter.Current = current
	m.counters[key] = counter
	return nil
}

func (m *Memory) CreateRegistrant(_ context.Context, registrant *entity.Registrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.registrants[registrant.Id]; ok {
		return fmt.Errorf("insert registrant: %w", ErrDuplicate)
	}
	if _, ok := m.codes[registrant.TicketCode]; ok {
		return fmt.Errorf("insert registrant: %w", ErrDuplicate)
	}
	if registrant.Email != "" {
		if _, ok := m.emails[registrant.Email]; ok {
			return fmt.Errorf("insert registrant: %w", ErrDuplicateEmail)
		}
		m.emails[registrant.Email] = registrant.Id
	}
	m.codes[registrant.TicketCode] = registrant.Id
	m.registrants[registrant.Id] = *registrant
	return nil
}

func (m *Memory) FindRegistrantByEmail(_ context.Context, email string) (*entity.Registrant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.emails[email]
	if !ok {
		return nil, ErrNotFound
	}
	registrant := m.registrants[id]
	return &registrant, nil
}

func (m *Memory) CountRegistrants(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.registrants)), nil
}

func (m *Memory) DeleteRegistrants(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	deleted := int64(len(m.registrants))
	m.registrants = make(map[string]entity.Registrant)
	m.emails = make(map[string]string)
	m.codes = make(map[string]string)
	return deleted, nil
}
