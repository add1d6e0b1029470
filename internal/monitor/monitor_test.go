package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/gridlight/internal/events"
	"github.com/smazurov/gridlight/internal/signal"
)

// scriptedFetcher returns the scripted results in order, repeating the last.
type scriptedFetcher struct {
	mu      sync.Mutex
	results []fetchResult
	calls   int
	block   bool // wait for ctx cancellation instead of returning
	started chan struct{}
}

type fetchResult struct {
	body string
	err  error
}

func (f *scriptedFetcher) Fetch(ctx context.Context) (*signal.Payload, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	block := f.block
	f.mu.Unlock()

	if block {
		if f.started != nil {
			select {
			case f.started <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return nil, &signal.FetchError{URL: "test", Cause: ctx.Err()}
	}

	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	if r.err != nil {
		return nil, &signal.FetchError{URL: "test", Cause: r.err}
	}
	return signal.NewPayload([]byte(r.body))
}

func (f *scriptedFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// countingClassifier wraps the real classifier and counts calls.
type countingClassifier struct {
	mu    sync.Mutex
	inner *signal.Classifier
	calls int
}

func newCountingClassifier() *countingClassifier {
	return &countingClassifier{inner: signal.NewClassifier(discardLogger())}
}

func (c *countingClassifier) Classify(p *signal.Payload) signal.Status {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.inner.Classify(p)
}

// fakeIndicator records the sequence of operations.
type fakeIndicator struct {
	mu       sync.Mutex
	ops      []string
	setupErr error
	panicOn  string
}

func (f *fakeIndicator) record(op string) {
	f.mu.Lock()
	f.ops = append(f.ops, op)
	panicOn := f.panicOn
	f.mu.Unlock()
	if op == panicOn {
		panic("indicator fault")
	}
}

func (f *fakeIndicator) Setup() error {
	f.record("setup")
	return f.setupErr
}
func (f *fakeIndicator) AllOff()     { f.record("off") }
func (f *fakeIndicator) ShowRed()    { f.record("red") }
func (f *fakeIndicator) ShowYellow() { f.record("yellow") }
func (f *fakeIndicator) ShowGreen()  { f.record("green") }
func (f *fakeIndicator) Close() error {
	f.record("close")
	return nil
}

func (f *fakeIndicator) snapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeIndicator) count(op string) int {
	n := 0
	for _, o := range f.snapshot() {
		if o == op {
			n++
		}
	}
	return n
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMonitor(f Fetcher, c Classifier, ind Indicator, interval time.Duration) *Monitor {
	return New(&Options{
		Fetcher:    f,
		Classifier: c,
		Indicator:  ind,
		Logger:     discardLogger(),
		Interval:   interval,
	})
}

func TestStep_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		result     fetchResult
		wantStatus signal.Status
		wantOp     string
	}{
		{"latest average", fetchResult{body: `{"signal":[0,0,1]}`}, signal.StatusYellow, "yellow"},
		{"latest low", fetchResult{body: `{"signal":[2,1,0]}`}, signal.StatusRed, "red"},
		{"congestion", fetchResult{body: `{"signal":[-1]}`}, signal.StatusRed, "red"},
		{"high", fetchResult{body: `{"signal":[2]}`}, signal.StatusGreen, "green"},
		{"empty series", fetchResult{body: `{"signal":[]}`}, signal.StatusError, "off"},
		{"unknown value", fetchResult{body: `{"signal":[7]}`}, signal.StatusError, "off"},
		{"transport failure", fetchResult{err: errors.New("connection refused")}, signal.StatusError, "off"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := &fakeIndicator{}
			m := newTestMonitor(&scriptedFetcher{results: []fetchResult{tt.result}}, newCountingClassifier(), ind, 0)

			if got := m.Step(context.Background()); got != tt.wantStatus {
				t.Errorf("Step() = %q, want %q", got, tt.wantStatus)
			}
			ops := ind.snapshot()
			if len(ops) != 1 || ops[0] != tt.wantOp {
				t.Errorf("indicator ops = %v, want [%s]", ops, tt.wantOp)
			}
		})
	}
}

func TestStep_FetchFailureSkipsClassifier(t *testing.T) {
	classifier := newCountingClassifier()
	ind := &fakeIndicator{}
	m := newTestMonitor(&scriptedFetcher{results: []fetchResult{{err: errors.New("dns failure")}}}, classifier, ind, 0)

	m.Step(context.Background())

	if classifier.calls != 0 {
		t.Errorf("classifier called %d times after fetch failure, want 0", classifier.calls)
	}
	if ind.count("off") != 1 {
		t.Errorf("indicator ops = %v, want a single all-off", ind.snapshot())
	}
}

func TestStep_PublishesStatus(t *testing.T) {
	bus := events.New()
	received := make(chan events.StatusUpdatedEvent, 1)
	unsub := bus.Subscribe(func(e events.StatusUpdatedEvent) {
		received <- e
	})
	defer unsub()

	m := New(&Options{
		Fetcher:    &scriptedFetcher{results: []fetchResult{{body: `{"signal":[1,2]}`}}},
		Classifier: newCountingClassifier(),
		Indicator:  &fakeIndicator{},
		EventBus:   bus,
		Logger:     discardLogger(),
	})
	m.Step(context.Background())

	select {
	case e := <-received:
		if e.Status != "green" || e.Signal == nil || *e.Signal != 2 || e.Error != "" {
			t.Errorf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("no StatusUpdatedEvent published")
	}
}

func TestStep_ShutdownDuringFetchPublishesNothing(t *testing.T) {
	bus := events.New()
	received := make(chan events.StatusUpdatedEvent, 1)
	unsub := bus.Subscribe(func(e events.StatusUpdatedEvent) {
		received <- e
	})
	defer unsub()

	ind := &fakeIndicator{}
	m := New(&Options{
		Fetcher:    &scriptedFetcher{block: true},
		Classifier: newCountingClassifier(),
		Indicator:  ind,
		EventBus:   bus,
		Logger:     discardLogger(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := m.Step(ctx); got != signal.StatusError {
		t.Errorf("Step() = %q, want error", got)
	}

	if ind.count("off") != 1 {
		t.Errorf("indicator ops = %v, want a single all-off", ind.snapshot())
	}
	select {
	case e := <-received:
		t.Errorf("unexpected StatusUpdatedEvent %+v after cancelled fetch", e)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestRun_RetriesAfterFetchFailure(t *testing.T) {
	fetcher := &scriptedFetcher{results: []fetchResult{
		{err: errors.New("connection reset")},
		{body: `{"signal":[2]}`},
	}}
	ind := &fakeIndicator{}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for ind.count("green") == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("loop never recovered, ops = %v", ind.snapshot())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	ops := ind.snapshot()
	if ops[0] != "setup" || ops[1] != "off" || ops[2] != "green" {
		t.Errorf("ops = %v, want setup, off, green, ...", ops)
	}
	if fetcher.callCount() < 2 {
		t.Errorf("fetch called %d times, want at least 2", fetcher.callCount())
	}
}

func TestRun_InterruptDuringWait(t *testing.T) {
	ind := &fakeIndicator{}
	fetcher := &scriptedFetcher{results: []fetchResult{{body: `{"signal":[2]}`}}}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	for ind.count("green") == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit after cancel")
	}

	if ind.count("close") != 1 {
		t.Errorf("close called %d times, want 1", ind.count("close"))
	}
	ops := ind.snapshot()
	if ops[len(ops)-1] != "close" {
		t.Errorf("last op = %q, want close", ops[len(ops)-1])
	}
	if fetcher.callCount() != 1 {
		t.Errorf("fetch called %d times, want 1", fetcher.callCount())
	}
}

func TestRun_InterruptDuringFetch(t *testing.T) {
	ind := &fakeIndicator{}
	fetcher := &scriptedFetcher{block: true, started: make(chan struct{}, 1)}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	<-fetcher.started
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not exit after cancel during fetch")
	}

	ops := ind.snapshot()
	if ops[len(ops)-1] != "close" || ind.count("close") != 1 {
		t.Errorf("ops = %v, want exactly one trailing close", ops)
	}
}

func TestRun_PanicStillCleansUp(t *testing.T) {
	ind := &fakeIndicator{panicOn: "green"}
	fetcher := &scriptedFetcher{results: []fetchResult{{body: `{"signal":[2]}`}}}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, time.Millisecond)

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = m.Run(context.Background())
	}()

	if ind.count("close") != 1 {
		t.Errorf("close called %d times after panic, want 1", ind.count("close"))
	}
}

func TestRun_SetupFailure(t *testing.T) {
	ind := &fakeIndicator{setupErr: errors.New("pin busy")}
	fetcher := &scriptedFetcher{results: []fetchResult{{body: `{"signal":[2]}`}}}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, time.Millisecond)

	if err := m.Run(context.Background()); err == nil {
		t.Fatal("Run() should fail when setup fails")
	}
	if fetcher.callCount() != 0 {
		t.Errorf("fetch called %d times after setup failure, want 0", fetcher.callCount())
	}
	if ind.count("close") != 1 {
		t.Errorf("close called %d times, want 1", ind.count("close"))
	}
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	ind := &fakeIndicator{}
	fetcher := &scriptedFetcher{results: []fetchResult{{body: `{"signal":[2]}`}}}
	m := newTestMonitor(fetcher, newCountingClassifier(), ind, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := m.Run(ctx); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if fetcher.callCount() != 0 {
		t.Errorf("fetch called %d times, want 0", fetcher.callCount())
	}
	if got := ind.snapshot(); len(got) != 2 || got[1] != "close" {
		t.Errorf("ops = %v, want [setup close]", got)
	}
}

type countingWatchdog struct {
	mu    sync.Mutex
	pings int
}

func (w *countingWatchdog) Alive() {
	w.mu.Lock()
	w.pings++
	w.mu.Unlock()
}

func TestRun_PingsWatchdog(t *testing.T) {
	wd := &countingWatchdog{}
	ind := &fakeIndicator{}
	m := New(&Options{
		Fetcher:    &scriptedFetcher{results: []fetchResult{{body: `{"signal":[1]}`}}},
		Classifier: newCountingClassifier(),
		Indicator:  ind,
		Watchdog:   wd,
		Logger:     discardLogger(),
		Interval:   time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_ = m.Run(ctx)

	wd.mu.Lock()
	defer wd.mu.Unlock()
	if wd.pings == 0 {
		t.Error("watchdog never pinged")
	}
}
