package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOptimization(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorderWith(reg)

	rec.ObserveOptimization("truncate-fields", 2000, 500)
	rec.ObserveOptimization("truncate-fields", 100, 100)
	rec.ObserveOptimization("none", 50, 50)

	assert.InDelta(t, 2.0, testutil.ToFloat64(rec.optimizationsTotal.WithLabelValues("truncate-fields")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(rec.optimizationsTotal.WithLabelValues("none")), 1e-9)
	assert.InDelta(t, 1500.0, testutil.ToFloat64(rec.tokensSavedTotal), 1e-9)
}

func TestObserveOptimizationNeverNegative(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorderWith(reg)

	// Equal counts must not add a negative sample.
	rec.ObserveOptimization("none", 10, 10)
	assert.InDelta(t, 0.0, testutil.ToFloat64(rec.tokensSavedTotal), 1e-9)
}

func TestObserveSession(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := NewRecorderWith(reg)

	rec.ObserveSession("READY", 2, 0.85)
	rec.ObserveSession("ABANDONED", 0, 0.1)

	assert.InDelta(t, 1.0, testutil.ToFloat64(rec.sessionsTotal.WithLabelValues("READY")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(rec.sessionsTotal.WithLabelValues("ABANDONED")), 1e-9)

	count := testutil.CollectAndCount(rec.sessionRounds)
	require.Equal(t, 1, count, "histogram should be collectible")
}
