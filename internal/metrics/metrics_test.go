package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetIndicator(t *testing.T) {
	SetIndicator("yellow")

	for _, c := range Colors {
		want := 0.0
		if c == "yellow" {
			want = 1
		}
		if got := testutil.ToFloat64(indicatorActive.WithLabelValues(c)); got != want {
			t.Errorf("indicator %s = %v, want %v", c, got, want)
		}
	}

	SetIndicator("off")
	for _, c := range Colors {
		if got := testutil.ToFloat64(indicatorActive.WithLabelValues(c)); got != 0 {
			t.Errorf("indicator %s = %v after off, want 0", c, got)
		}
	}
}

func TestSetStatus(t *testing.T) {
	SetStatus("error")
	if got := testutil.ToFloat64(statusCurrent.WithLabelValues("error")); got != 1 {
		t.Errorf("status error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(statusCurrent.WithLabelValues("green")); got != 0 {
		t.Errorf("status green = %v, want 0", got)
	}
}

func TestSetSignalValue(t *testing.T) {
	SetSignalValue(-1)
	if got := testutil.ToFloat64(signalValue); got != -1 {
		t.Errorf("signal value = %v, want -1", got)
	}
}
