package config

// Config is the optional runtime config file.
//
// The countdown target and tick interval are compiled in and deliberately
// absent here. The webhook URL comes from the environment only (see Env).
type Config struct {
	Webhook WebhookConfig `json:"webhook"`
	Logging LoggingConfig `json:"logging"`
	Journal JournalConfig `json:"journal"`
	Systemd SystemdConfig `json:"systemd"`
}

// WebhookConfig tunes delivery. All durations are Go duration strings.
//
// Defaults:
//   - timeout: "0s" (no client timeout; transport defaults apply)
//   - rate_per_sec: 1
type WebhookConfig struct {
	Timeout    string `json:"timeout,omitempty"`
	RatePerSec int    `json:"rate_per_sec,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// JournalConfig controls the optional delivery journal.
//
// Example:
//
//	"journal": { "driver": "sqlite", "path": "./countdown.db" }
type JournalConfig struct {
	Driver      string       `json:"driver,omitempty"` // none|file|sqlite|redis
	Path        string       `json:"path,omitempty"`
	BusyTimeout string       `json:"busy_timeout,omitempty"` // sqlite only
	Redis       *RedisConfig `json:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Key      string `json:"key,omitempty"`
	MaxLen   int64  `json:"max_len,omitempty"`
}

type SystemdConfig struct {
	// Notify sends sd_notify READY/STOPPING when running under systemd.
	Notify bool `json:"notify"`
}

// Default is used when no config file is given.
func Default() *Config {
	return &Config{
		Webhook: WebhookConfig{RatePerSec: 1},
		Logging: LoggingConfig{Level: "info", Console: true},
	}
}
