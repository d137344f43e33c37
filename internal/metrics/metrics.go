// Package metrics records encode outcomes in a private Prometheus
// registry. vidconv is a one-shot CLI, so nothing is served: the registry
// is written once to a node_exporter textfile at the end of a run.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Encode results, the values of the result label.
const (
	ResultSuccess = "success"
	ResultFailed  = "failed"  // ffmpeg exited non-zero.
	ResultInvalid = "invalid" // Rejected before ffmpeg started.
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EncodesTotal   *prometheus.CounterVec
	FailuresTotal  *prometheus.CounterVec
	EncodeDuration prometheus.Histogram
	EncodeFPS      prometheus.Histogram
}

// New creates the metrics on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		EncodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidconv_encodes_total",
				Help: "Total number of encodes by result",
			},
			[]string{"result"},
		),
		FailuresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vidconv_ffmpeg_failures_total",
				Help: "Total number of failed ffmpeg runs by classified reason",
			},
			[]string{"reason"},
		),
		EncodeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidconv_encode_duration_seconds",
				Help:    "Wall-clock duration of successful encodes in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),
		EncodeFPS: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "vidconv_encode_fps",
				Help:    "Average ffmpeg frame rate of successful encodes",
				Buckets: []float64{5, 15, 30, 60, 120, 240, 480},
			},
		),
	}
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveSuccess records a finished encode. fps is skipped when ffmpeg
// reported no samples.
func (m *Metrics) ObserveSuccess(wall time.Duration, fps float64) {
	if m == nil {
		return
	}
	m.EncodesTotal.WithLabelValues(ResultSuccess).Inc()
	m.EncodeDuration.Observe(wall.Seconds())
	if fps > 0 {
		m.EncodeFPS.Observe(fps)
	}
}

// ObserveFailure records a non-zero ffmpeg exit with its classified reason.
func (m *Metrics) ObserveFailure(reason string) {
	if m == nil {
		return
	}
	m.EncodesTotal.WithLabelValues(ResultFailed).Inc()
	m.FailuresTotal.WithLabelValues(reason).Inc()
}

// ObserveInvalid records an encode rejected before ffmpeg started.
func (m *Metrics) ObserveInvalid() {
	if m == nil {
		return
	}
	m.EncodesTotal.WithLabelValues(ResultInvalid).Inc()
}

// WriteTextfile writes the registry in text exposition format, atomically
// replacing path.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
