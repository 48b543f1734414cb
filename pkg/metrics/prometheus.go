package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	modelLoaded  *prometheus.GaugeVec
	retrainsDone *prometheus.CounterVec
}

// New registers the recorder on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the recorder on reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finadvisor",
				Subsystem: "analytics",
				Name:      "errors_total",
				Help:      "Analytics errors by kind",
			},
			[]string{"kind"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "finadvisor",
				Subsystem: "analytics",
				Name:      "duration_seconds",
				Help:      "Duration of analytics operations in seconds",
				Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"operation"},
		),
		modelLoaded: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "finadvisor",
				Subsystem: "registry",
				Name:      "model_loaded",
				Help:      "1 when a trained artifact is loaded for the model",
			},
			[]string{"model"},
		),
		retrainsDone: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "finadvisor",
				Subsystem: "registry",
				Name:      "retrains_total",
				Help:      "Completed retrain runs by final state",
			},
			[]string{"state"},
		),
	}
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// SetModelLoaded flips the loaded gauge for a model.
func (r *Recorder) SetModelLoaded(name string, loaded bool) {
	v := 0.0
	if loaded {
		v = 1
	}
	r.modelLoaded.WithLabelValues(name).Set(v)
}

// RecordRetrain counts a finished retrain run.
func (r *Recorder) RecordRetrain(state string) {
	r.retrainsDone.WithLabelValues(state).Inc()
}
