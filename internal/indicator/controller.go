// Package indicator drives the red/yellow/green status LEDs. At most one
// output is ever active: every transition first switches all outputs off.
package indicator

import (
	"log/slog"
	"sync"
	"time"

	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/gpio"
	"github.com/smazurov/gridlight/internal/metrics"
)

// State is the indicator output currently asserted.
type State string

// Indicator states.
const (
	StateOff    State = "off"
	StateRed    State = "red"
	StateYellow State = "yellow"
	StateGreen  State = "green"
)

// Pins maps each color to its output channel (BCM numbering).
type Pins struct {
	Red    int
	Yellow int
	Green  int
}

// DefaultPins is the wiring used by the reference build.
var DefaultPins = Pins{Red: 17, Yellow: 27, Green: 22}

var labels = map[State]string{
	StateRed:    "Red ON",
	StateYellow: "Yellow ON",
	StateGreen:  "Green ON",
}

var descriptions = map[State]string{
	StateRed:    "Low renewable energy",
	StateYellow: "Moderate renewable energy",
	StateGreen:  "High renewable energy",
}

// Controller owns the three indicator outputs exclusively.
type Controller struct {
	output    gpio.Output
	pins      Pins
	eventBus  *events.Bus
	logger    *slog.Logger
	mu        sync.Mutex
	state     State
	closeOnce sync.Once
	closeErr  error
}

// New creates a controller over output. eventBus may be nil.
func New(output gpio.Output, pins Pins, eventBus *events.Bus, logger *slog.Logger) *Controller {
	return &Controller{
		output:   output,
		pins:     pins,
		eventBus: eventBus,
		logger:   logger,
		state:    StateOff,
	}
}

// Setup acquires the three output channels. All start inactive.
func (c *Controller) Setup() error {
	if err := c.output.Configure(c.pins.Red, c.pins.Yellow, c.pins.Green); err != nil {
		return err
	}
	c.logger.Info("Indicator outputs configured",
		"backend", c.output.Name(),
		"red", c.pins.Red,
		"yellow", c.pins.Yellow,
		"green", c.pins.Green)
	return nil
}

// AllOff deactivates all three outputs.
func (c *Controller) AllOff() {
	c.mu.Lock()
	c.allOffLocked()
	c.mu.Unlock()

	c.publish(StateOff)
}

// ShowRed activates only the red output.
func (c *Controller) ShowRed() {
	c.show(StateRed, c.pins.Red)
}

// ShowYellow activates only the yellow output.
func (c *Controller) ShowYellow() {
	c.show(StateYellow, c.pins.Yellow)
}

// ShowGreen activates only the green output.
func (c *Controller) ShowGreen() {
	c.show(StateGreen, c.pins.Green)
}

// Show dispatches to the operation for state.
func (c *Controller) Show(state State) {
	switch state {
	case StateRed:
		c.ShowRed()
	case StateYellow:
		c.ShowYellow()
	case StateGreen:
		c.ShowGreen()
	default:
		c.AllOff()
	}
}

// State returns the output currently asserted.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Close switches all outputs off and releases them. Only the first call has
// any effect; later calls return the first result.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.AllOff()
		c.closeErr = c.output.Close()
		if c.closeErr != nil {
			c.logger.Warn("Failed to release indicator outputs", "error", c.closeErr)
		} else {
			c.logger.Info("Indicator outputs released")
		}
	})
	return c.closeErr
}

func (c *Controller) show(state State, pin int) {
	c.mu.Lock()
	c.allOffLocked()
	c.write(pin, true)
	c.state = state
	c.mu.Unlock()

	c.logger.Info(labels[state], "meaning", descriptions[state], "pin", pin)
	c.publish(state)
}

func (c *Controller) allOffLocked() {
	c.write(c.pins.Red, false)
	c.write(c.pins.Yellow, false)
	c.write(c.pins.Green, false)
	c.state = StateOff
}

// write is fire-and-forget: failures are logged and otherwise ignored.
func (c *Controller) write(pin int, active bool) {
	if err := c.output.Set(pin, active); err != nil {
		c.logger.Warn("Failed to set indicator output", "pin", pin, "active", active, "error", err)
	}
}

func (c *Controller) publish(state State) {
	metrics.SetIndicator(string(state))
	c.eventBus.Publish(events.IndicatorChangedEvent{
		State:       string(state),
		Description: descriptions[state],
		Timestamp:   time.Now().Format(time.RFC3339),
	})
}
