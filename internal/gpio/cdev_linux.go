//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// consumerName labels the requested lines in gpioinfo output.
const consumerName = "gridlight"

// cdev implements Output using the Linux GPIO character device.
type cdev struct {
	chip  string
	mu    sync.Mutex
	lines map[int]*gpiocdev.Line
}

// newCdev creates a character device output for chip (e.g. "gpiochip0").
func newCdev(chip string) *cdev {
	return &cdev{
		chip:  chip,
		lines: make(map[int]*gpiocdev.Line),
	}
}

// cdevAvailable reports whether the chip device node exists.
func cdevAvailable(chip string) bool {
	path := chip
	if !filepath.IsAbs(path) {
		path = filepath.Join("/dev", chip)
	}
	_, err := os.Stat(path)
	return err == nil
}

// Configure requests each line as an output driven low.
func (c *cdev) Configure(channels ...int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, ch := range channels {
		if _, ok := c.lines[ch]; ok {
			continue
		}
		line, err := gpiocdev.RequestLine(c.chip, ch,
			gpiocdev.AsOutput(0),
			gpiocdev.WithConsumer(consumerName))
		if err != nil {
			return fmt.Errorf("failed to request line %d on %s: %w", ch, c.chip, err)
		}
		c.lines[ch] = line
	}
	return nil
}

// Set drives the line value.
func (c *cdev) Set(channel int, active bool) error {
	c.mu.Lock()
	line, ok := c.lines[channel]
	c.mu.Unlock()
	if !ok {
		return fmt.Errorf("line %d is not configured", channel)
	}

	value := 0
	if active {
		value = 1
	}
	if err := line.SetValue(value); err != nil {
		return fmt.Errorf("failed to set line %d: %w", channel, err)
	}
	return nil
}

// Close reconfigures every line as an input and releases it.
func (c *cdev) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for ch, line := range c.lines {
		if err := line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("failed to reconfigure line %d: %w", ch, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close line %d: %w", ch, err))
		}
		delete(c.lines, ch)
	}
	return errors.Join(errs...)
}

// Name returns the backend name.
func (c *cdev) Name() string {
	return BackendCdev
}
