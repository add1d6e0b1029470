package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/gridlight/internal/api/models"
	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/version"
)

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

// waitFor polls cond since kelindar/event delivers asynchronously.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before deadline")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStatusBeforeFirstPoll(t *testing.T) {
	s := NewServer(&Options{EventBus: events.New()})
	defer s.Stop()

	rec := get(t, s.Handler(), "/api/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	got := decode[models.StatusData](t, rec)
	if got.Status != "" || got.Indicator != "off" || got.Signal != nil {
		t.Errorf("got %+v, want empty status with indicator off", got)
	}
}

func TestStatusTracksEvents(t *testing.T) {
	bus := events.New()
	s := NewServer(&Options{EventBus: bus})
	defer s.Stop()

	value := 2
	bus.Publish(events.IndicatorChangedEvent{State: "green", Description: "High renewable energy", Timestamp: "2025-01-27T10:30:00Z"})
	bus.Publish(events.StatusUpdatedEvent{Status: "green", Signal: &value, Timestamp: "2025-01-27T10:30:00Z"})

	var got models.StatusData
	waitFor(t, func() bool {
		got = decode[models.StatusData](t, get(t, s.Handler(), "/api/status"))
		return got.Status == "green" && got.Indicator == "green"
	})

	if got.Signal == nil || *got.Signal != 2 {
		t.Errorf("signal = %v, want 2", got.Signal)
	}
	if got.Description != "High renewable energy" || got.LastUpdate != "2025-01-27T10:30:00Z" {
		t.Errorf("unexpected status body %+v", got)
	}
}

func TestStatusReportsError(t *testing.T) {
	bus := events.New()
	s := NewServer(&Options{EventBus: bus})
	defer s.Stop()

	bus.Publish(events.StatusUpdatedEvent{Status: "error", Error: "signal data not found", Timestamp: "2025-01-27T10:30:01Z"})

	waitFor(t, func() bool {
		got := decode[models.StatusData](t, get(t, s.Handler(), "/api/status"))
		return got.Status == "error" && got.LastError == "signal data not found"
	})
}

func TestHealth(t *testing.T) {
	tracker := newStatusTracker()
	now := time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC)
	tracker.now = func() time.Time { return now }

	if got := tracker.health(time.Minute); got.Status != "starting" {
		t.Errorf("before first poll: status = %q, want starting", got.Status)
	}

	tracker.onStatus(events.StatusUpdatedEvent{Status: "red"})
	if got := tracker.health(time.Minute); got.Status != "ok" {
		t.Errorf("after poll: status = %q, want ok", got.Status)
	}

	now = now.Add(2 * time.Minute)
	if got := tracker.health(time.Minute); got.Status != "stale" {
		t.Errorf("after silence: status = %q, want stale", got.Status)
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := NewServer(&Options{})
	defer s.Stop()

	rec := get(t, s.Handler(), "/api/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d, want 200", rec.Code)
	}
	if got := decode[models.HealthData](t, rec); got.Status != "starting" {
		t.Errorf("health status = %q, want starting", got.Status)
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := NewServer(&Options{})
	defer s.Stop()

	got := decode[models.VersionData](t, get(t, s.Handler(), "/api/version"))
	if got.Version != version.Version || got.GoVersion == "" {
		t.Errorf("unexpected version body %+v", got)
	}
}

func TestMetricsRoute(t *testing.T) {
	s := NewServer(&Options{PrometheusHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("gridlight_signal_value 2\n"))
	})})
	defer s.Stop()

	rec := get(t, s.Handler(), "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "gridlight_signal_value") {
		t.Errorf("metrics: code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestMetricsRouteAbsentWithoutHandler(t *testing.T) {
	s := NewServer(&Options{})
	defer s.Stop()

	if rec := get(t, s.Handler(), "/metrics"); rec.Code != http.StatusNotFound {
		t.Errorf("metrics without handler: code = %d, want 404", rec.Code)
	}
}

func TestUnknownPathsReturnNotFound(t *testing.T) {
	s := NewServer(&Options{})
	defer s.Stop()

	for _, path := range []string{"/metrics", "/nope", "/status"} {
		if rec := get(t, s.Handler(), path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s: code = %d, want 404", path, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(&Options{})
	defer s.Stop()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/status", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight code = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}
}

func TestStopUnsubscribes(t *testing.T) {
	bus := events.New()
	s := NewServer(&Options{EventBus: bus})
	if err := s.Stop(); err != nil {
		t.Fatalf("Stop() error: %v", err)
	}

	bus.Publish(events.StatusUpdatedEvent{Status: "green"})
	time.Sleep(50 * time.Millisecond)

	if got := s.tracker.snapshot(); got.Status != "" {
		t.Errorf("status = %q after Stop, want empty", got.Status)
	}
}
