package journal

import (
	"context"
	"time"

	"countdown/internal/driver"
	"countdown/internal/eventbus"
	logx "countdown/pkg/logx"
)

// appendTimeout bounds a single journal write so a stuck backend can't pile
// up behind the bus.
const appendTimeout = 5 * time.Second

// Recorder appends tick outcomes from the bus to a Store.
type Recorder struct {
	store Store
	log   logx.Logger
}

func NewRecorder(store Store, log logx.Logger) *Recorder {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Recorder{store: store, log: log}
}

// Run consumes events until ctx is done or the channel closes. On
// cancellation, events already buffered are still written.
// Journal failures are logged and never propagate to the schedule.
func (r *Recorder) Run(ctx context.Context, events <-chan eventbus.Event) error {
	for {
		select {
		case <-ctx.Done():
			r.drain(context.WithoutCancel(ctx), events)
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			te, ok := ev.Data.(driver.TickEvent)
			if !ok {
				continue
			}
			r.record(ctx, te)
		}
	}
}

func (r *Recorder) drain(ctx context.Context, events <-chan eventbus.Event) {
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if te, ok := ev.Data.(driver.TickEvent); ok {
				r.record(ctx, te)
			}
		default:
			return
		}
	}
}

func (r *Recorder) record(ctx context.Context, te driver.TickEvent) {
	rec := FromTick(te)
	actx, cancel := context.WithTimeout(ctx, appendTimeout)
	defer cancel()
	if err := r.store.Append(actx, rec); err != nil {
		r.log.Warn("journal append failed", logx.String("tick", te.TickID), logx.Err(err))
	}
}

// FromTick converts a driver tick event into a journal record.
func FromTick(te driver.TickEvent) Record {
	return Record{
		TickID:     te.TickID,
		Seq:        te.Seq,
		At:         te.At,
		Kind:       te.Kind,
		StatusCode: te.StatusCode,
		Error:      te.Error,
		Days:       te.Remaining.Days,
		Clock:      te.Remaining.Clock(),
		Reached:    te.Remaining.Reached,
		TookMS:     te.Took.Milliseconds(),
	}
}
