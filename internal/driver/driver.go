// Package driver runs the countdown pipeline on a fixed schedule.
//
// One tick computes the remaining time, formats the message and attempts a
// delivery. The driver runs a tick immediately on Start, then once per
// interval, and stops for good after the tick that sees the target reached.
//
// Ticks are wall-clock driven: a slow delivery does not delay the next
// firing, so ticks may overlap.
package driver

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"countdown/internal/countdown"
	"countdown/internal/eventbus"
	"countdown/internal/message"
	"countdown/internal/webhook"
	logx "countdown/pkg/logx"
)

type Driver struct {
	mu sync.Mutex

	cfg   Config
	clock countdown.Clock
	dl    Deliverer
	log   logx.Logger
	bus   eventbus.Bus

	state  State
	c      *cron.Cron
	halted context.Context // cron stop context, set once stopped
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	ticks atomic.Uint64
}

func New(cfg Config, dl Deliverer, log logx.Logger, bus eventbus.Bus) *Driver {
	if log.IsZero() {
		log = logx.Nop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = countdown.SystemClock{}
	}
	return &Driver{
		cfg:   cfg,
		clock: clock,
		dl:    dl,
		log:   log,
		bus:   bus,
		done:  make(chan struct{}),
	}
}

func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Done is closed once the driver is stopped (target reached or Stop).
func (d *Driver) Done() <-chan struct{} { return d.done }

// Ticks returns how many ticks have started.
func (d *Driver) Ticks() uint64 { return d.ticks.Load() }

// Start runs the first tick synchronously and then arms the repeating timer.
// It returns ErrStopped if the driver was already stopped.
func (d *Driver) Start(ctx context.Context) error {
	if d.dl == nil {
		return errors.New("driver: deliverer required")
	}
	if d.cfg.Interval <= 0 {
		return fmt.Errorf("driver: interval must be > 0, got %s", d.cfg.Interval)
	}

	d.mu.Lock()
	switch d.state {
	case StateStopped:
		d.mu.Unlock()
		return ErrStopped
	case StateRunning:
		d.mu.Unlock()
		return nil
	}
	d.state = StateRunning
	d.ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	d.log.Info("countdown started",
		logx.Time("target", d.cfg.Target),
		logx.Duration("interval", d.cfg.Interval),
	)

	if d.tick() {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning {
		return nil
	}
	d.c = cron.New(cron.WithLocation(d.cfg.Target.Location()))
	d.c.Schedule(fixedInterval{every: d.cfg.Interval}, cron.FuncJob(func() { d.tick() }))
	d.c.Start()
	d.log.Debug("timer armed", logx.Duration("every", d.cfg.Interval))
	return nil
}

// Stop cancels the timer and any in-flight delivery, then waits (bounded by
// ctx) for running ticks to unwind. If the target was already reached,
// deliveries still running get until ctx is done to finish before they are
// aborted.
func (d *Driver) Stop(ctx context.Context) {
	if halted := d.halt(StopShutdown); halted != nil {
		select {
		case <-halted.Done():
		case <-ctx.Done():
		}
	}
	d.mu.Lock()
	cancel := d.cancel
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// halt moves the driver to Stopped. It never blocks, so a tick may call it.
// Only a shutdown aborts in-flight deliveries; reaching the target just
// cancels the timer.
func (d *Driver) halt(reason string) context.Context {
	d.mu.Lock()
	if d.state == StateStopped {
		h := d.halted
		d.mu.Unlock()
		return h
	}
	d.state = StateStopped
	c := d.c
	d.c = nil
	cancel := d.cancel
	if c != nil {
		d.halted = c.Stop()
	}
	h := d.halted
	close(d.done)
	d.mu.Unlock()

	if reason == StopShutdown && cancel != nil {
		cancel()
	}

	n := d.ticks.Load()
	d.log.Info("countdown stopped", logx.String("reason", reason), logx.Uint64("ticks", n))
	d.publish(EventStopped, StopEvent{Reason: reason, Ticks: n})
	return h
}

// tick runs the pipeline once inside a catch-all boundary and reports
// whether it stopped the driver.
func (d *Driver) tick() (reached bool) {
	d.mu.Lock()
	if d.state != StateRunning {
		d.mu.Unlock()
		return false
	}
	ctx := d.ctx
	d.mu.Unlock()

	ev := TickEvent{TickID: uuid.NewString(), Seq: d.ticks.Add(1)}
	log := d.log.With(logx.String("tick", ev.TickID), logx.Uint64("seq", ev.Seq))
	start := time.Now()

	var rem countdown.Remaining
	defer func() {
		if r := recover(); r != nil {
			ev.Kind = KindPanic
			ev.Error = fmt.Sprint(r)
			ev.Took = time.Since(start)
			log.Error("tick panicked; schedule continues", logx.Any("panic", r), logx.Stack(string(debug.Stack())))
			d.publish(EventPanic, ev)
		}
		if rem.Reached {
			d.halt(StopReached)
			reached = true
		}
	}()

	ev.At = d.clock.Now()
	rem = countdown.Compute(ev.At, d.cfg.Target)
	ev.Remaining = rem
	p := message.Format(rem)

	body, err := d.dl.Deliver(ctx, p)
	ev.Took = time.Since(start)
	if err != nil {
		d.reportFailure(log, &ev, err)
		return rem.Reached
	}

	ev.Kind = KindDelivered
	ev.StatusCode = 200
	log.Info("countdown delivered",
		logx.Int64("days", rem.Days),
		logx.String("time", rem.Clock()),
		logx.Bool("reached", rem.Reached),
		logx.Int("resp_bytes", len(body)),
		logx.Duration("took", ev.Took),
	)
	d.publish(EventDelivered, ev)
	return rem.Reached
}

func (d *Driver) reportFailure(log logx.Logger, ev *TickEvent, err error) {
	ev.Error = err.Error()

	var rej *webhook.RemoteRejection
	var te *webhook.TransportError
	switch {
	case errors.As(err, &rej):
		ev.Kind = KindRejected
		ev.StatusCode = rej.StatusCode
		log.Error("webhook rejected delivery",
			logx.Int("status", rej.StatusCode),
			logx.String("body", string(rej.Body)),
		)
	case errors.As(err, &te):
		ev.Kind = KindTransport
		log.Error("webhook delivery failed", logx.Err(te.Err))
	default:
		ev.Kind = KindError
		log.Error("tick failed", logx.Err(err))
	}
	d.publish(EventFailed, *ev)
}

func (d *Driver) publish(typ string, data any) {
	if d.bus == nil {
		return
	}
	d.bus.Publish(eventbus.Event{Type: typ, Data: data})
}
