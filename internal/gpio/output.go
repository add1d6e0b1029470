// Package gpio provides the two-level digital output capability used to drive
// indicator LEDs. Backends cover the Linux GPIO character device, the legacy
// sysfs interface and a logging stand-in for machines without GPIO hardware.
package gpio

// Output abstracts digital output lines identified by a numeric channel
// (the BCM/line offset on the GPIO chip).
type Output interface {
	// Configure acquires exclusive use of the channels as outputs.
	// All configured channels start inactive.
	Configure(channels ...int) error

	// Set drives a configured channel active (high) or inactive (low).
	Set(channel int, active bool) error

	// Close releases every configured channel. Safe to call more than once.
	Close() error

	// Name identifies the backend (cdev, sysfs, log).
	Name() string
}

// Backend names accepted by New.
const (
	BackendAuto  = "auto"
	BackendCdev  = "cdev"
	BackendSysfs = "sysfs"
	BackendLog   = "log"
)

// levelName renders a level the way GPIO tooling prints it.
func levelName(active bool) string {
	if active {
		return "HIGH"
	}
	return "LOW"
}
