package app

import (
	"strings"
	"time"

	"countdown/internal/config"
	"countdown/internal/journal"
	"countdown/internal/webhook"
	logx "countdown/pkg/logx"
)

const defaultUserAgent = "countdown/1"

func mapLoggingConfig(cfg *config.Config) logx.Config {
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.Console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapWebhookConfig(cfg *config.Config, url string) (webhook.Config, error) {
	timeout, err := config.Duration("webhook.timeout", cfg.Webhook.Timeout, 0)
	if err != nil {
		return webhook.Config{}, err
	}
	ua := strings.TrimSpace(cfg.Webhook.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	return webhook.Config{
		URL:        url,
		Timeout:    timeout,
		RatePerSec: cfg.Webhook.RatePerSec,
		UserAgent:  ua,
	}, nil
}

// mapJournalConfig reports enabled=false for an empty or "none" driver.
func mapJournalConfig(cfg *config.Config) (journal.Config, bool, error) {
	jc := cfg.Journal
	driver := strings.ToLower(strings.TrimSpace(jc.Driver))
	if driver == "" || driver == "none" {
		return journal.Config{}, false, nil
	}
	busy, err := config.Duration("journal.busy_timeout", jc.BusyTimeout, time.Second)
	if err != nil {
		return journal.Config{}, false, err
	}
	out := journal.Config{
		Driver:      driver,
		Path:        strings.TrimSpace(jc.Path),
		BusyTimeout: busy,
	}
	if r := jc.Redis; r != nil {
		out.Redis = journal.RedisConfig{
			Addr:     strings.TrimSpace(r.Addr),
			Password: r.Password,
			DB:       r.DB,
			Key:      strings.TrimSpace(r.Key),
			MaxLen:   r.MaxLen,
		}
	}
	return out, true, nil
}
