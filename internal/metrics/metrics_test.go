package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSearchMetrics(reg)
	require.NotNil(t, m)

	m.ObserveSearch(OutcomeOK, 5*time.Millisecond)
	m.ObserveSearch(OutcomeOK, time.Millisecond)
	m.ObserveSearch(OutcomeInvalid, time.Millisecond)
	m.AddScored(7)
	m.IncAbsentField()
	m.SetSegments(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.searches.WithLabelValues(OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues(OutcomeInvalid)))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.scored))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.absentSegments))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.segments))

	count, err := testutil.GatherAndCount(reg, "fastcos_search_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSearchMetrics_NilIsNoop(t *testing.T) {
	m := NewSearchMetrics(nil)
	assert.Nil(t, m)
	m.ObserveSearch(OutcomeOK, time.Second)
	m.AddScored(1)
	m.IncAbsentField()
	m.SetSegments(1)
}
