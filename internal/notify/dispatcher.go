package notify

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"ticketdesk/lib/sl"
)

// Dispatcher delivers messages on a fixed pool of workers.
// Enqueue never blocks: when the queue is full the message is dropped.
type Dispatcher struct {
	channels []Channel
	queue    chan *Message
	wg       sync.WaitGroup
	mu       sync.RWMutex
	closed   bool
	observer Observer
	log      *slog.Logger
}

func NewDispatcher(workers, queueSize int, log *slog.Logger, channels ...Channel) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		channels: channels,
		queue:    make(chan *Message, queueSize),
		log:      log.With(sl.Module("notify")),
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	d.log.Info("dispatcher started",
		slog.Int("workers", workers),
		slog.Int("queue", queueSize),
		slog.Int("channels", len(channels)))
	return d
}

func (d *Dispatcher) SetObserver(observer Observer) {
	d.observer = observer
}

// Channels lists the names of the configured channels.
func (d *Dispatcher) Channels() []string {
	names := make([]string, 0, len(d.channels))
	for _, ch := range d.channels {
		names = append(names, ch.Name())
	}
	return names
}

func (d *Dispatcher) Enqueue(msg *Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.log.Warn("dispatcher stopped; message dropped", slog.String("id", msg.Id))
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		d.log.Warn("notification queue full; message dropped",
			slog.String("id", msg.Id),
			slog.String("ticket", msg.Registrant.TicketCode))
		return false
	}
}

// Stop closes the queue and waits for queued messages to be delivered.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("stop dispatcher: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for msg := range d.queue {
		for _, ch := range d.channels {
			d.deliver(ch, msg)
		}
	}
}

func (d *Dispatcher) deliver(ch Channel, msg *Message) {
	log := d.log.With(
		slog.String("channel", ch.Name()),
		slog.String("id", msg.Id),
		slog.String("ticket", msg.Registrant.TicketCode),
	)
	defer func() {
		if r := recover(); r != nil {
			log.Error("channel panic", slog.Any("panic", r))
			d.observe(ch.Name(), ResultFailed)
		}
	}()

	err := ch.Send(context.Background(), msg)
	result := resultOf(err)
	switch result {
	case ResultSent:
		log.Info("notification sent")
	case ResultSkipped:
		log.Debug("notification skipped", sl.Err(err))
	default:
		log.Error("notification failed", sl.Err(err))
	}
	d.observe(ch.Name(), result)
}

func (d *Dispatcher) observe(channel, result string) {
	if d.observer != nil {
		d.observer.NotificationSent(channel, result)
	}
}
