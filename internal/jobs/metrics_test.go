package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	assert.NoError(t, m.Track("cleanup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("cleanup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cleanup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cleanup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("cleanup")))
}

func TestCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddPurgedKeys(4)
	m.AddPurgedKeys(0)
	m.AddWarmedDashboards(2)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.purged))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.warmed))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.AddPurgedKeys(1)
	m.AddWarmedDashboards(1)
	assert.NoError(t, m.Track("noop").End(nil))
}
