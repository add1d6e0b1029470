package signal

import (
	"errors"
	"log/slog"

	"github.com/smazurov/gridlight/internal/logging"
)

// Status is the indicator category derived from the latest signal value.
type Status string

// Status categories.
const (
	StatusRed    Status = "red"    // Congestion or low renewable share
	StatusYellow Status = "yellow" // Average renewable share
	StatusGreen  Status = "green"  // High renewable share
	StatusError  Status = "error"  // Missing, malformed or unknown signal
)

// Signal values published by the endpoint.
const (
	ValueCongestion = -1
	ValueLow        = 0
	ValueAverage    = 1
	ValueHigh       = 2
)

var statusBySignal = map[int]Status{
	ValueCongestion: StatusRed,
	ValueLow:        StatusRed,
	ValueAverage:    StatusYellow,
	ValueHigh:       StatusGreen,
}

// StatusFor maps a single signal value to its status.
func StatusFor(value int) Status {
	if s, ok := statusBySignal[value]; ok {
		return s
	}
	return StatusError
}

// Classifier maps payloads to statuses and logs why a payload was rejected.
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a classifier. A nil logger uses the "signal" module logger.
func NewClassifier(logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = logging.GetLogger("signal")
	}
	return &Classifier{logger: logger}
}

// Classify returns the status for the last element of the payload's signal
// series. It never fails: every problem, including a panic while inspecting
// the payload, yields StatusError.
func (c *Classifier) Classify(p *Payload) (status Status) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Error parsing JSON data", "panic", r)
			status = StatusError
		}
	}()

	value, err := p.Latest()
	switch {
	case errors.Is(err, ErrSignalMissing):
		c.logger.Warn("Signal data not found")
		return StatusError
	case errors.Is(err, ErrSignalUnknown):
		c.logger.Warn("Unknown signal value", "error", err)
		return StatusError
	case err != nil:
		c.logger.Error("Error parsing JSON data", "error", err)
		return StatusError
	}

	status = StatusFor(value)
	if status == StatusError {
		c.logger.Warn("Unknown signal value", "signal", value)
	}
	return status
}
