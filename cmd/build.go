// Package cmd holds the gridlight subcommands and the component wiring they
// share with the daemon.
package cmd

import (
	"github.com/smazurov/gridlight/internal/config"
	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/gpio"
	"github.com/smazurov/gridlight/internal/indicator"
	"github.com/smazurov/gridlight/internal/logging"
	"github.com/smazurov/gridlight/internal/signal"
)

// NewIndicator selects the GPIO backend and wraps it in an indicator
// controller. Nothing is acquired until Setup.
func NewIndicator(opts *config.Options, bus *events.Bus) *indicator.Controller {
	output := gpio.New(gpio.Config{
		Backend: opts.GPIOBackend,
		Chip:    opts.GPIOChip,
	}, logging.GetLogger("gpio"))

	pins := indicator.Pins{
		Red:    opts.GPIORedPin,
		Yellow: opts.GPIOYellowPin,
		Green:  opts.GPIOGreenPin,
	}
	return indicator.New(output, pins, bus, logging.GetLogger("indicator"))
}

// NewFetcher creates the signal fetcher for the fixed grid signal endpoint.
func NewFetcher(opts *config.Options) (*signal.Fetcher, error) {
	timeout, err := opts.FetchTimeout()
	if err != nil {
		return nil, err
	}
	return signal.NewFetcher("",
		signal.WithTimeout(timeout),
		signal.WithLogger(logging.GetLogger("signal")),
	), nil
}
