// Package journal provides an optional, append-only audit trail of tick
// outcomes.
//
// It is write-only from the service's point of view: nothing is read back on
// restart, so the countdown itself stays stateless.
//
// Drivers:
//   - "file":   JSON Lines on an afero filesystem
//   - "sqlite": SQLite database file (modernc.org/sqlite, no cgo)
//   - "redis":  LPUSH onto a capped list
//
// An empty driver or "none" disables the journal.
package journal

import (
	"context"
	"errors"
	"time"
)

var ErrClosed = errors.New("journal closed")

// Record is one tick outcome. Keep it compact and schema-stable.
type Record struct {
	TickID     string    `json:"tick_id"`
	Seq        uint64    `json:"seq"`
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	Days       int64     `json:"days"`
	Clock      string    `json:"clock"`
	Reached    bool      `json:"reached"`
	TookMS     int64     `json:"took_ms"`
}

// Store is the minimal persistence API used by the recorder.
type Store interface {
	Append(ctx context.Context, r Record) error
	// Recent returns up to n records, newest first.
	Recent(ctx context.Context, n int) ([]Record, error)
	Close() error
}

// Config configures the journal.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Key      string
	MaxLen   int64
}
