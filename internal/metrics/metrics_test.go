package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserveApproval(t *testing.T) {
	before := testutil.ToFloat64(approvalsTotal.WithLabelValues(OutcomeApproved))
	ObserveApproval(true, 1.0, 10*time.Millisecond)
	ObserveApproval(false, -1.0, -time.Second)

	assert.Equal(t, before+1, testutil.ToFloat64(approvalsTotal.WithLabelValues(OutcomeApproved)))
	assert.GreaterOrEqual(t, testutil.ToFloat64(approvalsTotal.WithLabelValues(OutcomeRejected)), 1.0)
}

func TestObserveEdgeUpdate(t *testing.T) {
	okBefore := testutil.ToFloat64(edgeUpdatesTotal.WithLabelValues("signal", resultOK))
	errBefore := testutil.ToFloat64(edgeUpdatesTotal.WithLabelValues("signal", resultError))

	ObserveEdgeUpdate("signal", nil)
	ObserveEdgeUpdate("signal", errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(edgeUpdatesTotal.WithLabelValues("signal", resultOK)))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(edgeUpdatesTotal.WithLabelValues("signal", resultError)))
}
