package config

import (
	"strings"

	logx "countdown/pkg/logx"
)

// SummarizeConfigChange returns a compact list of changed sections and
// safe structured fields for logging (never includes the redis password).
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 4)
	attrs := make([]logx.Field, 0, 8)

	if oldCfg.Logging != newCfg.Logging {
		changed = append(changed, "logging")
		attrs = append(attrs,
			logx.String("logging.level", newCfg.Logging.Level),
			logx.Bool("logging.console", newCfg.Logging.Console),
			logx.Bool("logging.file_enabled", newCfg.Logging.File.Enabled),
		)
	}

	if oldCfg.Webhook != newCfg.Webhook {
		changed = append(changed, "webhook")
		attrs = append(attrs,
			logx.String("webhook.timeout", strings.TrimSpace(newCfg.Webhook.Timeout)),
			logx.Int("webhook.rate_per_sec", newCfg.Webhook.RatePerSec),
		)
	}

	if journalChanged(oldCfg.Journal, newCfg.Journal) {
		changed = append(changed, "journal")
		attrs = append(attrs, logx.String("journal.driver", strings.TrimSpace(newCfg.Journal.Driver)))
	}

	if oldCfg.Systemd != newCfg.Systemd {
		changed = append(changed, "systemd")
		attrs = append(attrs, logx.Bool("systemd.notify", newCfg.Systemd.Notify))
	}

	return changed, attrs
}

func journalChanged(a, b JournalConfig) bool {
	if strings.TrimSpace(a.Driver) != strings.TrimSpace(b.Driver) ||
		strings.TrimSpace(a.Path) != strings.TrimSpace(b.Path) ||
		strings.TrimSpace(a.BusyTimeout) != strings.TrimSpace(b.BusyTimeout) {
		return true
	}
	if (a.Redis == nil) != (b.Redis == nil) {
		return true
	}
	return a.Redis != nil && *a.Redis != *b.Redis
}
