package app

import (
	"github.com/coreos/go-systemd/v22/daemon"

	logx "countdown/pkg/logx"
)

// sdNotify is swapped in tests.
var sdNotify = daemon.SdNotify

// notifySystemd sends state to the service manager. Outside systemd
// (no NOTIFY_SOCKET) it is a silent no-op.
func notifySystemd(enabled bool, log logx.Logger, state string) {
	if !enabled {
		return
	}
	sent, err := sdNotify(false, state)
	switch {
	case err != nil:
		log.Warn("sd_notify failed", logx.String("state", state), logx.Err(err))
	case !sent:
		log.Debug("sd_notify skipped; not running under systemd", logx.String("state", state))
	}
}
