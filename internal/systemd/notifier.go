// Package systemd reports service readiness and liveness to systemd.
// Every call is a no-op when the process is not run by systemd.
package systemd

import (
	"log/slog"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// Notifier sends sd_notify messages.
type Notifier struct {
	logger   *slog.Logger
	watchdog time.Duration
	notify   func(state string) (bool, error)
}

// NewNotifier creates a notifier and reads the watchdog interval, if any.
func NewNotifier(logger *slog.Logger) *Notifier {
	n := &Notifier{
		logger: logger,
		notify: func(state string) (bool, error) {
			return daemon.SdNotify(false, state)
		},
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil {
		logger.Warn("Failed to read systemd watchdog settings", "error", err)
	} else if interval > 0 {
		n.watchdog = interval
		logger.Info("systemd watchdog enabled", "interval", interval)
	}
	return n
}

// Ready reports that startup has completed.
func (n *Notifier) Ready() {
	n.send(daemon.SdNotifyReady)
}

// Stopping reports that shutdown has begun.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Alive pings the watchdog when it is enabled.
func (n *Notifier) Alive() {
	if n.watchdog > 0 {
		n.send(daemon.SdNotifyWatchdog)
	}
}

// WatchdogInterval returns the interval systemd expects pings within, or 0.
func (n *Notifier) WatchdogInterval() time.Duration {
	return n.watchdog
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(state)
	if err != nil {
		n.logger.Warn("Failed to notify systemd", "state", state, "error", err)
		return
	}
	if sent {
		n.logger.Debug("Notified systemd", "state", state)
	}
}
