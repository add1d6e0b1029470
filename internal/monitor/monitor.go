// Package monitor runs the poll loop: fetch the grid signal, classify it and
// drive the indicator, once per interval, until the context is cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/metrics"
	"github.com/smazurov/gridlight/internal/signal"
)

// PollInterval is the fixed delay between iterations.
const PollInterval = time.Second

// Fetcher retrieves the current signal payload.
type Fetcher interface {
	Fetch(ctx context.Context) (*signal.Payload, error)
}

// Classifier maps a payload to a status.
type Classifier interface {
	Classify(p *signal.Payload) signal.Status
}

// Indicator is the output side of the loop.
type Indicator interface {
	Setup() error
	AllOff()
	ShowRed()
	ShowYellow()
	ShowGreen()
	Close() error
}

// Watchdog is pinged after every completed iteration.
type Watchdog interface {
	Alive()
}

// Options wires a Monitor. Fetcher, Classifier and Indicator are required.
type Options struct {
	Fetcher    Fetcher
	Classifier Classifier
	Indicator  Indicator
	EventBus   *events.Bus
	Watchdog   Watchdog
	Logger     *slog.Logger
	Interval   time.Duration // zero means PollInterval
}

// Monitor is the control loop. It is not safe to call Run concurrently.
type Monitor struct {
	fetcher    Fetcher
	classifier Classifier
	indicator  Indicator
	eventBus   *events.Bus
	watchdog   Watchdog
	logger     *slog.Logger
	interval   time.Duration
}

// New creates a Monitor.
func New(opts *Options) *Monitor {
	interval := opts.Interval
	if interval <= 0 {
		interval = PollInterval
	}
	return &Monitor{
		fetcher:    opts.Fetcher,
		classifier: opts.Classifier,
		indicator:  opts.Indicator,
		eventBus:   opts.EventBus,
		watchdog:   opts.Watchdog,
		logger:     opts.Logger,
		interval:   interval,
	}
}

// Run configures the indicator outputs and polls until ctx is cancelled.
// Whatever way Run exits, including a panic in the loop body, the indicator
// is switched off and released exactly once. A cancelled context is a clean
// exit and returns nil.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.indicator.Setup(); err != nil {
		// Outputs may be partially acquired
		_ = m.indicator.Close()
		return fmt.Errorf("indicator setup: %w", err)
	}
	defer func() {
		m.logger.Info("Exiting, turning off all LEDs")
		_ = m.indicator.Close()
	}()

	m.logger.Info("Monitor started", "interval", m.interval)

	for {
		if ctx.Err() != nil {
			return nil
		}

		m.Step(ctx)

		if m.watchdog != nil {
			m.watchdog.Alive()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(m.interval):
		}
	}
}

// Step runs a single fetch, classify and actuate iteration and returns the
// status it acted on.
func (m *Monitor) Step(ctx context.Context) signal.Status {
	start := time.Now()
	payload, err := m.fetcher.Fetch(ctx)
	if err != nil {
		m.indicator.AllOff()
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			// Interrupted mid-request by shutdown, not a poll result
			m.logger.Debug("Fetch interrupted", "error", err)
			return signal.StatusError
		}
		metrics.ObserveFetch(metrics.ResultError, time.Since(start))
		m.logger.Warn("Failed to fetch data, turning off all LEDs", "error", err)
		m.record(signal.StatusError, nil, err)
		return signal.StatusError
	}
	metrics.ObserveFetch(metrics.ResultOK, time.Since(start))

	status := m.classifier.Classify(payload)
	switch status {
	case signal.StatusRed:
		m.indicator.ShowRed()
	case signal.StatusYellow:
		m.indicator.ShowYellow()
	case signal.StatusGreen:
		m.indicator.ShowGreen()
	default:
		m.logger.Warn("Unknown status, turning off all LEDs", "status", status)
		m.indicator.AllOff()
	}

	var value *int
	var classifyErr error
	if v, latestErr := payload.Latest(); latestErr == nil {
		value = &v
		metrics.SetSignalValue(v)
	} else {
		classifyErr = latestErr
	}
	if status == signal.StatusError && classifyErr == nil && value != nil {
		classifyErr = fmt.Errorf("%w: %d", signal.ErrSignalUnknown, *value)
	}
	m.record(status, value, classifyErr)
	return status
}

func (m *Monitor) record(status signal.Status, value *int, err error) {
	now := time.Now()
	metrics.SetStatus(string(status))
	metrics.MarkPoll(now)

	ev := events.StatusUpdatedEvent{
		Status:    string(status),
		Signal:    value,
		Timestamp: now.Format(time.RFC3339),
	}
	if err != nil {
		ev.Error = err.Error()
	}
	m.eventBus.Publish(ev)
}
