package web

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prediction outcomes used as the outcome label.
const (
	outcomeOK          = "ok"
	outcomeInvalid     = "invalid"
	outcomeUnavailable = "unavailable"
	outcomeError       = "error"
)

// Metrics are the collectors exported on /metrics.
type Metrics struct {
	Predictions *prometheus.CounterVec
	Latency     prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "examscore",
			Name:      "predictions_total",
			Help:      "Prediction requests by outcome.",
		}, []string{"outcome"}),
		Latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "examscore",
			Name:      "prediction_duration_seconds",
			Help:      "Time spent scoring one form submission.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	for _, c := range []prometheus.Collector{m.Predictions, m.Latency} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	for _, o := range []string{outcomeOK, outcomeInvalid, outcomeUnavailable, outcomeError} {
		m.Predictions.WithLabelValues(o)
	}
	return m, nil
}
