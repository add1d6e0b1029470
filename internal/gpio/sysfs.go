package gpio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

const sysfsGPIOPath = "/sys/class/gpio"

// exportSettle is how long to wait for udev to create the line directory
// after an export.
const exportSettle = 100 * time.Millisecond

// sysfs implements Output using the legacy Linux sysfs GPIO interface.
type sysfs struct {
	basePath string
	mu       sync.Mutex
	channels map[int]bool // channel -> exported by us
}

// newSysfs creates a sysfs output rooted at basePath.
func newSysfs(basePath string) *sysfs {
	if basePath == "" {
		basePath = sysfsGPIOPath
	}
	return &sysfs{
		basePath: basePath,
		channels: make(map[int]bool),
	}
}

func (s *sysfs) linePath(channel int, attr string) string {
	return filepath.Join(s.basePath, "gpio"+strconv.Itoa(channel), attr)
}

// Configure exports each channel if needed and sets it as a low output.
func (s *sysfs) Configure(channels ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range channels {
		exported := false
		lineDir := filepath.Join(s.basePath, "gpio"+strconv.Itoa(ch))

		if _, err := os.Stat(lineDir); os.IsNotExist(err) {
			exportPath := filepath.Join(s.basePath, "export")
			if writeErr := os.WriteFile(exportPath, []byte(strconv.Itoa(ch)), 0o200); writeErr != nil {
				return fmt.Errorf("failed to export GPIO %d: %w", ch, writeErr)
			}
			exported = true
			time.Sleep(exportSettle)

			if _, statErr := os.Stat(lineDir); statErr != nil {
				return fmt.Errorf("GPIO %d not found at %s after export: %w", ch, lineDir, statErr)
			}
		}

		// "low" sets the direction to output with an initial low level
		if err := os.WriteFile(s.linePath(ch, "direction"), []byte("low"), 0o644); err != nil {
			return fmt.Errorf("failed to set GPIO %d direction: %w", ch, err)
		}
		s.channels[ch] = exported
	}
	return nil
}

// Set writes the line value.
func (s *sysfs) Set(channel int, active bool) error {
	s.mu.Lock()
	_, ok := s.channels[channel]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("GPIO %d is not configured", channel)
	}

	value := "0"
	if active {
		value = "1"
	}
	if err := os.WriteFile(s.linePath(channel, "value"), []byte(value), 0o644); err != nil {
		return fmt.Errorf("failed to set GPIO %d value: %w", channel, err)
	}
	return nil
}

// Close returns every line to input and unexports the ones we exported.
func (s *sysfs) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for ch, exported := range s.channels {
		if err := os.WriteFile(s.linePath(ch, "direction"), []byte("in"), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("failed to release GPIO %d: %w", ch, err))
		}
		if exported {
			unexportPath := filepath.Join(s.basePath, "unexport")
			if err := os.WriteFile(unexportPath, []byte(strconv.Itoa(ch)), 0o200); err != nil {
				errs = append(errs, fmt.Errorf("failed to unexport GPIO %d: %w", ch, err))
			}
		}
		delete(s.channels, ch)
	}
	return errors.Join(errs...)
}

// Name returns the backend name.
func (s *sysfs) Name() string {
	return BackendSysfs
}
