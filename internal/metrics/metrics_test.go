package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordCapacityLimitIterations(3)
		m.RecordConsistencyWarning(WarningShareSum)
		m.RecordInfeasibility(InfeasibleNoSlack)
		m.RecordFixedOutputScaled()
		m.ObservePeriod(time.Second)
	})
}

func TestCountersAreRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordConsistencyWarning(WarningCalibration)
	m.RecordConsistencyWarning(WarningCalibration)
	m.RecordInfeasibility(InfeasibleNotConverged)
	m.RecordFixedOutputScaled()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.consistencyWarnings.WithLabelValues(WarningCalibration)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.infeasibilities.WithLabelValues(InfeasibleNotConverged)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fixedOutputScaled))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestSeparateRegistriesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry())
		New(prometheus.NewRegistry())
	})
}
