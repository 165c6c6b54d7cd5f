package driver

import (
	"context"
	"errors"
	"time"

	"countdown/internal/countdown"
	"countdown/internal/message"
)

var ErrStopped = errors.New("driver stopped")

// Deliverer sends one payload. *webhook.Client implements it.
type Deliverer interface {
	Deliver(ctx context.Context, p message.Payload) ([]byte, error)
}

type Config struct {
	Target   time.Time
	Interval time.Duration
	// Clock defaults to countdown.SystemClock.
	Clock countdown.Clock
}

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event types published on the bus.
const (
	EventDelivered = "tick.delivered"
	EventFailed    = "tick.failed"
	EventPanic     = "tick.panic"
	EventStopped   = "driver.stopped"
)

// Outcome kinds carried by TickEvent.
const (
	KindDelivered = "delivered"
	KindRejected  = "rejected"
	KindTransport = "transport"
	KindError     = "error"
	KindPanic     = "panic"
)

// TickEvent is the Data of tick.* events.
type TickEvent struct {
	TickID     string              `json:"tick_id"`
	Seq        uint64              `json:"seq"`
	At         time.Time           `json:"at"`
	Kind       string              `json:"kind"`
	StatusCode int                 `json:"status_code,omitempty"`
	Error      string              `json:"error,omitempty"`
	Remaining  countdown.Remaining `json:"remaining"`
	Took       time.Duration       `json:"took"`
}

// StopEvent is the Data of driver.stopped.
type StopEvent struct {
	Reason string `json:"reason"`
	Ticks  uint64 `json:"ticks"`
}

const (
	StopReached  = "target reached"
	StopShutdown = "shutdown"
)
