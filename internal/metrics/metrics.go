// Package metrics exposes Prometheus collectors for approval learning.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeApproved labels approval events.
	OutcomeApproved = "approved"
	// OutcomeRejected labels rejection events.
	OutcomeRejected = "rejected"

	resultOK    = "ok"
	resultError = "error"
)

var (
	approvalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "approvals_total",
			Help:      "Total number of approval events recorded, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	edgeUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "counsel",
			Name:      "edge_updates_total",
			Help:      "Weight ledger edge updates, partitioned by source type and result.",
		},
		[]string{"source_type", "result"},
	)

	rewardValue = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "counsel",
			Name:      "reward",
			Help:      "Distribution of rewards derived from approval events.",
			Buckets:   []float64{-2, -1.5, -1, -0.5, 0, 0.5, 1, 1.5, 2},
		},
	)

	approvalDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "counsel",
			Name:      "approval_seconds",
			Help:      "Latency of recording an approval including ledger fan-out.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register attaches counsel collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		approvalsTotal,
		edgeUpdatesTotal,
		rewardValue,
		approvalDurationSeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveApproval records one approval event.
func ObserveApproval(approved bool, reward float64, duration time.Duration) {
	outcome := OutcomeRejected
	if approved {
		outcome = OutcomeApproved
	}
	approvalsTotal.WithLabelValues(outcome).Inc()
	rewardValue.Observe(reward)
	if duration < 0 {
		duration = 0
	}
	approvalDurationSeconds.Observe(duration.Seconds())
}

// ObserveEdgeUpdate records the result of one ledger edge update.
func ObserveEdgeUpdate(sourceType string, err error) {
	result := resultOK
	if err != nil {
		result = resultError
	}
	edgeUpdatesTotal.WithLabelValues(sourceType, result).Inc()
}
