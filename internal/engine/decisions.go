package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lazypower/counsel/internal/learning"
	"github.com/lazypower/counsel/internal/store"
	"go.uber.org/zap"
)

const (
	// MaxListLimit caps a ranking page.
	MaxListLimit = 1000
	maxIDLength  = 128
)

var validConfidence = map[string]bool{"HIGH": true, "MEDIUM": true, "LOW": true}

// DecisionInput is the payload of the decision creation path.
type DecisionInput struct {
	ID             string // optional; a uuid is generated when empty
	Objective      string
	Recommendation string
	Confidence     string
	Signals        store.Signals
	CreatedAt      time.Time // optional
}

// Page is one page of the ranking query.
type Page struct {
	Items  []store.RankedDecision
	Total  int
	Limit  int
	Offset int
}

// CreateDecision validates and persists a new immutable decision. The
// recommendation type is derived here once and stored with the record.
func (e *Engine) CreateDecision(ctx context.Context, in DecisionInput) (*store.Decision, error) {
	if err := validateID("id", in.ID, true); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Objective) == "" {
		return nil, &learning.ValidationError{Field: "objective", Message: "required"}
	}
	if strings.TrimSpace(in.Recommendation) == "" {
		return nil, &learning.ValidationError{Field: "recommendation", Message: "required"}
	}
	confidence := strings.ToUpper(strings.TrimSpace(in.Confidence))
	if !validConfidence[confidence] {
		return nil, &learning.ValidationError{Field: "confidence", Message: "must be one of HIGH, MEDIUM, LOW"}
	}

	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}

	d := &store.Decision{
		ID:                 id,
		Objective:          in.Objective,
		Recommendation:     in.Recommendation,
		RecommendationType: string(learning.ExtractRecommendationType(in.Recommendation)),
		Confidence:         confidence,
		Signals:            in.Signals,
		CreatedAt:          in.CreatedAt,
	}
	if err := e.Store.CreateDecision(ctx, d); err != nil {
		return nil, err
	}
	e.log.Info("decision created",
		zap.String("decision_id", d.ID),
		zap.String("recommendation_type", d.RecommendationType))
	return d, nil
}

// GetDecision returns a decision by id.
func (e *Engine) GetDecision(ctx context.Context, id string) (*store.Decision, error) {
	if err := validateID("id", id, false); err != nil {
		return nil, err
	}
	return e.Store.GetDecision(ctx, id)
}

// ListDecisions returns decisions ranked by accumulated approval weight.
// limit is clamped to [1, MaxListLimit] and offset to >= 0.
func (e *Engine) ListDecisions(ctx context.Context, f store.DecisionFilter, limit, offset int) (*Page, error) {
	limit = ClampLimit(limit)
	if offset < 0 {
		offset = 0
	}

	items, total, err := e.Store.ListDecisions(ctx, f, limit, offset)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []store.RankedDecision{}
	}
	return &Page{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// ClampLimit bounds a page size to [1, MaxListLimit].
func ClampLimit(limit int) int {
	if limit < 1 {
		return 1
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}

func validateID(field, id string, optional bool) error {
	switch {
	case id == "" && optional:
		return nil
	case strings.TrimSpace(id) == "":
		return &learning.ValidationError{Field: field, Message: "required"}
	case len(id) > maxIDLength:
		return &learning.ValidationError{Field: field, Message: "exceeds 128 bytes"}
	case strings.TrimSpace(id) != id:
		return &learning.ValidationError{Field: field, Message: "must not have surrounding whitespace"}
	}
	return nil
}
