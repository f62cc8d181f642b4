package notify

import (
	"context"
	"errors"
	"ticketdesk/entity"
)

// ErrSkipped means the channel has nothing to deliver for this registrant.
var ErrSkipped = errors.New("skipped")

// Message is one confirmation for a freshly persisted registrant.
type Message struct {
	Id         string
	Registrant entity.Registrant
	Event      entity.Event
}

type Channel interface {
	Name() string
	Send(ctx context.Context, msg *Message) error
}

// Observer receives the outcome of every channel send.
type Observer interface {
	NotificationSent(channel, result string)
}

const (
	ResultSent     = "sent"
	ResultSkipped  = "skipped"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

func resultOf(err error) string {
	switch {
	case err == nil:
		return ResultSent
	case errors.Is(err, ErrSkipped):
		return ResultSkipped
	case errors.Is(err, ErrCircuitOpen):
		return ResultRejected
	default:
		return ResultFailed
	}
}
