// Package metrics provides Prometheus metrics for the signal poller and indicator.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Colors tracked by the indicator gauge.
var Colors = []string{"red", "yellow", "green"}

// Statuses tracked by the status gauge.
var Statuses = []string{"red", "yellow", "green", "error"}

var (
	fetchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gridlight",
		Subsystem: "signal",
		Name:      "fetch_total",
		Help:      "Signal fetch attempts by result",
	}, []string{"result"})

	fetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gridlight",
		Subsystem: "signal",
		Name:      "fetch_duration_seconds",
		Help:      "Signal fetch latency",
		Buckets:   prometheus.DefBuckets,
	})

	signalValue = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridlight",
		Subsystem: "signal",
		Name:      "value",
		Help:      "Latest signal value received",
	})

	statusCurrent = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridlight",
		Subsystem: "signal",
		Name:      "status",
		Help:      "1 for the current classified status, 0 otherwise",
	}, []string{"status"})

	indicatorActive = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "gridlight",
		Subsystem: "indicator",
		Name:      "active",
		Help:      "1 when the indicator output of this color is active",
	}, []string{"color"})

	lastPoll = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gridlight",
		Subsystem: "monitor",
		Name:      "last_poll_timestamp_seconds",
		Help:      "Unix time of the last completed poll iteration",
	})
)

// ObserveFetch records one fetch attempt.
func ObserveFetch(result string, d time.Duration) {
	fetchTotal.WithLabelValues(result).Inc()
	fetchDuration.Observe(d.Seconds())
}

// SetSignalValue records the latest signal value.
func SetSignalValue(value int) {
	signalValue.Set(float64(value))
}

// SetStatus marks status as current and clears the others.
func SetStatus(status string) {
	for _, s := range Statuses {
		v := 0.0
		if s == status {
			v = 1
		}
		statusCurrent.WithLabelValues(s).Set(v)
	}
}

// SetIndicator marks color as the only active output. Any other value,
// such as "off", clears all colors.
func SetIndicator(color string) {
	for _, c := range Colors {
		v := 0.0
		if c == color {
			v = 1
		}
		indicatorActive.WithLabelValues(c).Set(v)
	}
}

// MarkPoll records the completion time of a poll iteration.
func MarkPoll(t time.Time) {
	lastPoll.Set(float64(t.Unix()))
}
