// Package metrics provides prometheus metrics for the prediction service
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PredictionMetrics contains Prometheus metrics for upload handling
type PredictionMetrics struct {
	registry *prometheus.Registry

	predictionsTotal   *prometheus.CounterVec
	predictionErrors   *prometheus.CounterVec
	predictionDuration prometheus.Histogram
	uploadSize         prometheus.Histogram
}

// NewPredictionMetrics creates and registers prediction metrics on registry
func NewPredictionMetrics(registry *prometheus.Registry) (*PredictionMetrics, error) {
	m := &PredictionMetrics{registry: registry}
	m.initMetrics()
	for _, collector := range m.collectors() {
		if err := registry.Register(collector); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *PredictionMetrics) initMetrics() {
	m.predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictions_total",
			Help: "Total number of predictions served, by label",
		},
		[]string{"label"},
	)

	m.predictionErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prediction_errors_total",
			Help: "Total number of failed prediction requests, by error kind",
		},
		[]string{"kind"}, // missing_file, empty_filename, invalid_filename, decode_failure, storage_failure
	)

	m.predictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "prediction_duration_seconds",
			Help:    "Time taken to validate, store and label an upload",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
	)

	m.uploadSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "upload_size_bytes",
			Help:    "Size of uploaded files in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8), // 1KiB to 16MiB
		},
	)
}

func (m *PredictionMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.predictionsTotal,
		m.predictionErrors,
		m.predictionDuration,
		m.uploadSize,
	}
}

// RecordPrediction counts a successful prediction
func (m *PredictionMetrics) RecordPrediction(label string, sizeBytes int, duration time.Duration) {
	m.predictionsTotal.WithLabelValues(label).Inc()
	m.uploadSize.Observe(float64(sizeBytes))
	m.predictionDuration.Observe(duration.Seconds())
}

// RecordError counts a failed prediction request
func (m *PredictionMetrics) RecordError(kind string) {
	m.predictionErrors.WithLabelValues(kind).Inc()
}

// Registry returns the registry the metrics were registered on
func (m *PredictionMetrics) Registry() *prometheus.Registry {
	return m.registry
}
