package gpio

import (
	"slices"
	"sync"

	"github.com/smazurov/gridlight/internal/logging"
)

// stub implements Output by logging every write. It stands in for real
// hardware on development machines and never fails.
type stub struct {
	logger   logging.Logger
	mu       sync.Mutex
	channels []int
	levels   map[int]bool
}

// newStub creates a logging stand-in output.
func newStub(logger logging.Logger) *stub {
	return &stub{
		logger: logger,
		levels: make(map[int]bool),
	}
}

// Configure records the channels and marks them inactive.
func (s *stub) Configure(channels ...int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range channels {
		if !slices.Contains(s.channels, ch) {
			s.channels = append(s.channels, ch)
		}
		s.levels[ch] = false
	}
	s.logger.Debug("GPIO stand-in configured", "pins", channels)
	return nil
}

// Set logs the requested level; no hardware is touched.
func (s *stub) Set(channel int, active bool) error {
	s.mu.Lock()
	s.levels[channel] = active
	s.mu.Unlock()

	s.logger.Info("GPIO write (stand-in)", "pin", channel, "level", levelName(active))
	return nil
}

// Close forgets all channels.
func (s *stub) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.channels) > 0 {
		s.logger.Debug("GPIO stand-in released", "pins", s.channels)
	}
	s.channels = nil
	clear(s.levels)
	return nil
}

// Name returns the backend name.
func (s *stub) Name() string {
	return BackendLog
}

// level reports the last level written to channel.
func (s *stub) level(channel int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.levels[channel]
}
