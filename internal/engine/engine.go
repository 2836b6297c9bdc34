// Package engine records approvals, folds their rewards into the weight
// ledger, and serves the approval-biased decision ranking.
package engine

import (
	"context"

	"github.com/lazypower/counsel/internal/store"
	"go.uber.org/zap"
)

// Store is the persistence the engine needs for decisions and approvals.
type Store interface {
	CreateDecision(ctx context.Context, d *store.Decision) error
	GetDecision(ctx context.Context, id string) (*store.Decision, error)
	ListDecisions(ctx context.Context, f store.DecisionFilter, limit, offset int) ([]store.RankedDecision, int, error)
	CreateApproval(ctx context.Context, a *store.Approval) error
}

// Ledger applies one reward to one edge atomically.
type Ledger interface {
	ApplyReward(ctx context.Context, key store.WeightKey, reward, rate float64) (*store.LearningWeight, error)
}

// Engine orchestrates approval recording and ranking.
type Engine struct {
	Store  Store
	Ledger Ledger
	log    *zap.Logger
}

// New creates an Engine backed by db for both records and the ledger.
func New(db *store.DB, logger *zap.Logger) *Engine {
	return NewWith(db, db, logger)
}

// NewWith creates an Engine with separate record and ledger backends.
func NewWith(s Store, l Ledger, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		Store:  s,
		Ledger: l,
		log:    logger.Named("engine"),
	}
}
