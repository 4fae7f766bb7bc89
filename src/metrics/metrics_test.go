package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsRecord(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveRefresh("option_lhb_em", "batch", true, time.Second)
	m.ObserveRefresh("option_lhb_em", "batch", false, time.Second)
	m.ObserveWrites("option_lhb_em", 3, 2, 1)
	m.ObserveProvider("aktools", nil)
	m.ObserveProvider("aktools", errors.New("boom"))
	m.SetActiveTasks(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("option_lhb_em", "batch", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RefreshTotal.WithLabelValues("option_lhb_em", "batch", "failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RecordsWritten.WithLabelValues("option_lhb_em", "inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProviderRequests.WithLabelValues("aktools", "error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ActiveTasks))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRefresh("x", "single", true, 0)
		m.ObserveWrites("x", 1, 1, 1)
		m.ObserveProvider("p", nil)
		m.SetActiveTasks(1)
	})
}
