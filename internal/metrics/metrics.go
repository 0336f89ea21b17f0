package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder holds the bot's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry        *prometheus.Registry
	cycles          *prometheus.CounterVec
	cycleDuration   *prometheus.HistogramVec
	captureFailures *prometheus.CounterVec
	alerts          *prometheus.CounterVec
	contextUpdated  prometheus.Gauge
}

// New creates a recorder on its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		cycles: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartrelay_cycles_total",
				Help: "Cycles run, by mode and outcome",
			},
			[]string{"mode", "outcome"},
		),
		cycleDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "chartrelay_cycle_duration_seconds",
				Help:    "Wall time of a cycle from first capture to notification",
				Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120, 180, 300},
			},
			[]string{"mode"},
		),
		captureFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartrelay_capture_failures_total",
				Help: "Chart captures that failed, by timeframe",
			},
			[]string{"timeframe"},
		),
		alerts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chartrelay_alerts_total",
				Help: "Tactical alerts, by result (delivered or filtered)",
			},
			[]string{"result"},
		),
		contextUpdated: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "chartrelay_context_updated_timestamp_seconds",
				Help: "Unix time of the last successful market context save",
			},
		),
	}
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Recorder) ObserveCycle(mode, outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.cycles.WithLabelValues(mode, outcome).Inc()
	r.cycleDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (r *Recorder) CaptureFailed(timeframe string) {
	if r == nil {
		return
	}
	r.captureFailures.WithLabelValues(timeframe).Inc()
}

func (r *Recorder) Alert(delivered bool) {
	if r == nil {
		return
	}
	result := "filtered"
	if delivered {
		result = "delivered"
	}
	r.alerts.WithLabelValues(result).Inc()
}

func (r *Recorder) ContextSaved(t time.Time) {
	if r == nil {
		return
	}
	r.contextUpdated.Set(float64(t.Unix()))
}
