package api

import (
	"sync"
	"time"

	"github.com/smazurov/gridlight/internal/api/models"
	"github.com/smazurov/gridlight/internal/events"
)

// statusTracker keeps the latest poll result and indicator state seen on
// the event bus.
type statusTracker struct {
	mu        sync.RWMutex
	status    events.StatusUpdatedEvent
	indicator events.IndicatorChangedEvent
	polledAt  time.Time
	now       func() time.Time
}

func newStatusTracker() *statusTracker {
	return &statusTracker{
		indicator: events.IndicatorChangedEvent{State: "off"},
		now:       time.Now,
	}
}

func (t *statusTracker) subscribe(bus *events.Bus) []func() {
	return []func(){
		bus.Subscribe(t.onStatus),
		bus.Subscribe(t.onIndicator),
	}
}

func (t *statusTracker) onStatus(e events.StatusUpdatedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = e
	t.polledAt = t.now()
}

func (t *statusTracker) onIndicator(e events.IndicatorChangedEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.indicator = e
}

func (t *statusTracker) snapshot() models.StatusData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return models.StatusData{
		Status:      t.status.Status,
		Signal:      t.status.Signal,
		Indicator:   t.indicator.State,
		Description: t.indicator.Description,
		LastUpdate:  t.status.Timestamp,
		LastError:   t.status.Error,
	}
}

// health reports "starting" before the first poll and "stale" once no poll
// has been seen for longer than staleAfter.
func (t *statusTracker) health(staleAfter time.Duration) models.HealthData {
	t.mu.RLock()
	defer t.mu.RUnlock()
	switch {
	case t.polledAt.IsZero():
		return models.HealthData{Status: "starting", Message: "Waiting for the first poll"}
	case t.now().Sub(t.polledAt) > staleAfter:
		return models.HealthData{Status: "stale", Message: "No poll since " + t.polledAt.Format(time.RFC3339)}
	default:
		return models.HealthData{Status: "ok", Message: "Polling normally"}
	}
}
