// Package app wires config, logging, delivery, the journal and the driver
// into one process lifecycle.
package app

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"countdown/internal/config"
	"countdown/internal/countdown"
	"countdown/internal/driver"
	"countdown/internal/eventbus"
	"countdown/internal/journal"
	"countdown/internal/runtime/supervisor"
	"countdown/internal/webhook"
	logx "countdown/pkg/logx"
)

const shutdownTimeout = 5 * time.Second

// Options selects what the app counts down to. Zero values use the
// compiled-in target and interval.
type Options struct {
	ConfigPath string
	WebhookURL string

	Target   time.Time
	Interval time.Duration
	Clock    countdown.Clock
}

type App struct {
	cfgm *config.Manager
	log  logx.Logger
	logs *logx.Service
	bus  eventbus.Bus

	store journal.Store
	drv   *driver.Driver

	notify atomic.Bool
}

func New(opts Options) (*App, error) {
	cfgm := config.NewManager(opts.ConfigPath)
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.WebhookURL) == "" {
		return nil, config.ErrMissingWebhook
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	fail := func(err error) (*App, error) {
		_ = logSvc.Close()
		return nil, err
	}

	wcfg, err := mapWebhookConfig(cfg, opts.WebhookURL)
	if err != nil {
		return fail(err)
	}
	client, err := webhook.New(wcfg, log.With(logx.String("comp", "webhook")))
	if err != nil {
		return fail(err)
	}

	var store journal.Store
	if jc, enabled, err := mapJournalConfig(cfg); err != nil {
		return fail(err)
	} else if enabled {
		st, err := journal.Open(jc, log.With(logx.String("comp", "journal")))
		if err != nil {
			return fail(err)
		}
		store = st
		log.Info("journal enabled", logx.String("driver", jc.Driver))
	}

	target := opts.Target
	if target.IsZero() {
		target = countdown.Target
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = countdown.Interval
	}

	bus := eventbus.New()
	drv := driver.New(driver.Config{
		Target:   target,
		Interval: interval,
		Clock:    opts.Clock,
	}, client, log.With(logx.String("comp", "driver")), bus)

	a := &App{
		cfgm:  cfgm,
		log:   log.With(logx.String("comp", "app")),
		logs:  logSvc,
		bus:   bus,
		store: store,
		drv:   drv,
	}
	a.notify.Store(cfg.Systemd.Notify)
	return a, nil
}

// Driver exposes the driver for state inspection.
func (a *App) Driver() *driver.Driver { return a.drv }

// Run starts the schedule and blocks until the target is reached or ctx is
// canceled, then shuts everything down. Both are clean exits.
func (a *App) Run(ctx context.Context) error {
	sup := supervisor.New(ctx, supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))))

	if a.store != nil {
		events, unsub := a.bus.Subscribe(64)
		rec := journal.NewRecorder(a.store, a.log.With(logx.String("comp", "journal")))
		sup.Go("journal.recorder", func(c context.Context) error {
			defer unsub()
			return rec.Run(c, events)
		})
	}

	a.cfgm.SetLogger(a.log.With(logx.String("comp", "config")))
	sub := a.cfgm.Subscribe(8)
	sup.Go0("config.apply", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		a.applyLoop(c, sub)
	})
	// Watch recreates its own fsnotify watcher on failure.
	sup.Go("config.watch", a.cfgm.Watch)

	if err := a.drv.Start(ctx); err != nil {
		a.shutdown(sup)
		return err
	}
	notifySystemd(a.notify.Load(), a.log, "READY=1")

	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested", logx.Any("cause", context.Cause(ctx)))
	case <-a.drv.Done():
	}

	a.shutdown(sup)
	return nil
}

func (a *App) shutdown(sup *supervisor.Supervisor) {
	notifySystemd(a.notify.Load(), a.log, "STOPPING=1")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.drv.Stop(ctx)
	if err := sup.Stop(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.log.Warn("background tasks did not stop cleanly", logx.Err(err))
	}
	if c := sup.Counters(); c.Active > 0 || c.Panics > 0 {
		a.log.Warn("background tasks at shutdown",
			logx.Int64("active", c.Active),
			logx.Uint64("started", c.Started),
			logx.Uint64("panics", c.Panics),
		)
	}
	if d := eventbus.Dropped(a.bus); d > 0 {
		a.log.Warn("events dropped by slow subscribers", logx.Uint64("dropped", d))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("journal close failed", logx.Err(err))
		}
	}
	a.log.Info("stopped", logx.Uint64("ticks", a.drv.Ticks()))
	_ = a.logs.Close()
}

// applyLoop applies hot-reloaded config. Logging changes take effect
// immediately; webhook and journal changes need a restart.
func (a *App) applyLoop(ctx context.Context, sub chan *config.Config) {
	last := a.cfgm.Get()
	for {
		select {
		case <-ctx.Done():
			return
		case cfg, ok := <-sub:
			if !ok {
				return
			}
			// Coalesce bursts.
			for drained := false; !drained; {
				select {
				case newer := <-sub:
					if newer != nil {
						cfg = newer
					}
				default:
					drained = true
				}
			}

			sections, attrs := config.SummarizeConfigChange(last, cfg)
			last = cfg
			if len(sections) == 0 {
				a.log.Debug("config reload received, but no effective changes detected")
				continue
			}
			fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
			a.log.Info("config reloaded", fields...)

			for _, s := range sections {
				switch s {
				case "logging":
					a.logs.Apply(mapLoggingConfig(cfg))
				case "webhook", "journal":
					a.log.Warn("config section changed; restart required for changes to take effect", logx.String("section", s))
				case "systemd":
					a.notify.Store(cfg.Systemd.Notify)
				}
			}
		}
	}
}
