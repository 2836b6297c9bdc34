package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/counsel/internal/learning"
	"github.com/lazypower/counsel/internal/metrics"
	"github.com/lazypower/counsel/internal/store"
	"go.uber.org/zap"
)

// ApprovalInput is one approval or rejection submitted for a decision.
type ApprovalInput struct {
	DecisionID           string
	Approved             bool
	ConfidenceAdjustment *float64
	Timestamp            *time.Time // wall clock when nil
}

// EdgeResult is the outcome of one ledger update.
type EdgeResult struct {
	Key    learning.EdgeKey
	Weight *store.LearningWeight // nil on failure
	Err    error
}

// ApprovalResult reports the persisted approval and how much of its
// learning landed. A partial ledger failure is not an error: the approval
// itself is already durable.
type ApprovalResult struct {
	Approval        *store.Approval
	Edges           []EdgeResult
	WeightsIntended int
	WeightsUpdated  int
}

// LearningApplied reports whether at least one edge absorbed the reward.
func (r *ApprovalResult) LearningApplied() bool {
	return r.WeightsUpdated > 0
}

// RecordApproval validates the event, persists it with its reward, and
// applies the reward to every edge the decision touches.
//
// Each edge is its own atomic unit. Failed edges are logged with their key
// so they can be replayed and do not roll back edges that succeeded.
func (e *Engine) RecordApproval(ctx context.Context, in ApprovalInput) (*ApprovalResult, error) {
	start := time.Now()

	if err := validateID("decision_id", in.DecisionID, false); err != nil {
		return nil, err
	}
	if err := learning.ValidateAdjustment(in.ConfidenceAdjustment); err != nil {
		return nil, err
	}

	decision, err := e.Store.GetDecision(ctx, in.DecisionID)
	if err != nil {
		return nil, err
	}

	approval := &store.Approval{
		ID:                   uuid.NewString(),
		DecisionID:           decision.ID,
		Approved:             in.Approved,
		ConfidenceAdjustment: in.ConfidenceAdjustment,
		Reward:               learning.Reward(in.Approved, in.ConfidenceAdjustment),
	}
	if in.Timestamp != nil {
		approval.Timestamp = in.Timestamp.UTC()
	}
	if err := e.Store.CreateApproval(ctx, approval); err != nil {
		return nil, err
	}

	edges := learning.DeriveEdges(learning.EdgeSource{
		DecisionID:     decision.ID,
		Objective:      decision.Objective,
		Recommendation: decision.Recommendation,
		Signals: learning.Signals{
			Financial:  decision.Signals.Financial,
			Risk:       decision.Signals.Risk,
			Complexity: decision.Signals.Complexity,
		},
	})

	results := e.applyEdges(ctx, approval, edges)

	res := &ApprovalResult{
		Approval:        approval,
		Edges:           results,
		WeightsIntended: len(edges),
	}
	for _, r := range results {
		if r.Err == nil {
			res.WeightsUpdated++
		}
	}

	metrics.ObserveApproval(approval.Approved, approval.Reward, time.Since(start))
	e.log.Info("approval recorded",
		zap.String("approval_id", approval.ID),
		zap.String("decision_id", approval.DecisionID),
		zap.Bool("approved", approval.Approved),
		zap.Float64("reward", approval.Reward),
		zap.Int("weights_updated", res.WeightsUpdated),
		zap.Int("weights_intended", res.WeightsIntended))
	return res, nil
}

// applyEdges fans the reward out to every edge concurrently and returns
// results in edge order.
func (e *Engine) applyEdges(ctx context.Context, approval *store.Approval, edges []learning.EdgeKey) []EdgeResult {
	results := make([]EdgeResult, len(edges))

	var wg sync.WaitGroup
	for i, key := range edges {
		wg.Add(1)
		go func(i int, key learning.EdgeKey) {
			defer wg.Done()
			w, err := e.Ledger.ApplyReward(ctx, store.WeightKey(key), approval.Reward, learning.LearningRate)
			results[i] = EdgeResult{Key: key, Weight: w, Err: err}
			metrics.ObserveEdgeUpdate(key.SourceType, err)
			if err != nil {
				e.log.Error("edge update failed",
					zap.String("approval_id", approval.ID),
					zap.String("source_type", key.SourceType),
					zap.String("source_id", key.SourceID),
					zap.String("target_type", key.TargetType),
					zap.String("target_value", key.TargetValue),
					zap.Float64("reward", approval.Reward),
					zap.Error(err))
			}
		}(i, key)
	}
	wg.Wait()

	return results
}
