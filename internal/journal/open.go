package journal

import (
	"errors"
	"strings"

	"github.com/spf13/afero"

	logx "countdown/pkg/logx"
)

// Open initializes the configured store.
// It returns (nil, nil) if the journal is disabled.
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if driver == "" || driver == "none" {
		return nil, nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "file":
		return OpenFile(afero.NewOsFs(), cfg.Path, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg.Redis, log)
	default:
		return nil, errors.New("unknown journal driver: " + driver)
	}
}
