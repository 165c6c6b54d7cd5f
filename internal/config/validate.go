package config

import (
	"fmt"
	"strings"
	"time"

	logx "countdown/pkg/logx"
)

// Validate rejects configs that would fail later at wiring time.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := Duration("webhook.timeout", cfg.Webhook.Timeout, 0); err != nil {
		return err
	}
	if cfg.Webhook.RatePerSec < 0 {
		return fmt.Errorf("webhook.rate_per_sec must be >= 0")
	}
	if !logx.ValidLevel(cfg.Logging.Level) {
		return fmt.Errorf("logging.level: unknown level %q", cfg.Logging.Level)
	}

	j := cfg.Journal
	switch strings.ToLower(strings.TrimSpace(j.Driver)) {
	case "", "none":
	case "file":
		if strings.TrimSpace(j.Path) == "" {
			return fmt.Errorf("journal.path is required when journal.driver=file")
		}
	case "sqlite", "sqlite3":
		if strings.TrimSpace(j.Path) == "" {
			return fmt.Errorf("journal.path is required when journal.driver=sqlite")
		}
		if _, err := Duration("journal.busy_timeout", j.BusyTimeout, 0); err != nil {
			return err
		}
	case "redis":
		if j.Redis == nil || strings.TrimSpace(j.Redis.Addr) == "" {
			return fmt.Errorf("journal.redis.addr is required when journal.driver=redis")
		}
		if j.Redis.MaxLen < 0 {
			return fmt.Errorf("journal.redis.max_len must be >= 0")
		}
	default:
		return fmt.Errorf("unknown journal.driver: %s", j.Driver)
	}
	return nil
}

// Duration parses a Go duration string from config field name. Empty or
// zero yields def; negative values are rejected.
func Duration(name, raw string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a duration like \"15s\" or \"1m\"", name, raw)
	}
	switch {
	case d < 0:
		return 0, fmt.Errorf("%s: %s is negative", name, s)
	case d == 0:
		return def, nil
	}
	return d, nil
}
