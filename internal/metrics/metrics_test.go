package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPredictionMetrics_Record(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := NewPredictionMetrics(registry)
	require.NoError(t, err)

	m.RecordPrediction("Black Rot", 2048, 15*time.Millisecond)
	m.RecordPrediction("Black Rot", 512, time.Millisecond)
	m.RecordError("decode_failure")

	assert.InDelta(t, 2, testutil.ToFloat64(m.predictionsTotal.WithLabelValues("Black Rot")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.predictionErrors.WithLabelValues("decode_failure")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.uploadSize))
	assert.Same(t, registry, m.Registry())
}

func TestNewPredictionMetrics_DuplicateRegistration(t *testing.T) {
	registry := prometheus.NewRegistry()
	_, err := NewPredictionMetrics(registry)
	require.NoError(t, err)

	_, err = NewPredictionMetrics(registry)
	assert.Error(t, err)
}
