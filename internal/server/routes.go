package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lazypower/counsel/internal/engine"
	"github.com/lazypower/counsel/internal/store"
)

const (
	defaultListLimit   = 50
	defaultRecordLimit = 100
)

type signalsJSON struct {
	Financial  string `json:"financial"`
	Risk       string `json:"risk"`
	Complexity string `json:"complexity"`
}

type decisionJSON struct {
	ID                 string      `json:"id"`
	Objective          string      `json:"objective"`
	Recommendation     string      `json:"recommendation"`
	RecommendationType string      `json:"recommendation_type"`
	Confidence         string      `json:"confidence"`
	Signals            signalsJSON `json:"signals"`
	CreatedAt          time.Time   `json:"created_at"`
	Weight             *float64    `json:"weight,omitempty"`
}

func toDecisionJSON(d *store.Decision) decisionJSON {
	return decisionJSON{
		ID:                 d.ID,
		Objective:          d.Objective,
		Recommendation:     d.Recommendation,
		RecommendationType: d.RecommendationType,
		Confidence:         d.Confidence,
		Signals:            signalsJSON(d.Signals),
		CreatedAt:          d.CreatedAt,
	}
}

type approvalJSON struct {
	ID                   string    `json:"id"`
	DecisionID           string    `json:"decision_id"`
	Approved             bool      `json:"approved"`
	ConfidenceAdjustment *float64  `json:"confidence_adjustment,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
	Reward               float64   `json:"reward"`
}

func toApprovalJSON(a *store.Approval) approvalJSON {
	return approvalJSON{
		ID:                   a.ID,
		DecisionID:           a.DecisionID,
		Approved:             a.Approved,
		ConfidenceAdjustment: a.ConfidenceAdjustment,
		Timestamp:            a.Timestamp,
		Reward:               a.Reward,
	}
}

func (s *Server) handleCreateDecision(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID             string      `json:"id"`
		Objective      string      `json:"objective"`
		Recommendation string      `json:"recommendation"`
		Confidence     string      `json:"confidence"`
		Signals        signalsJSON `json:"signals"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("body", "invalid json"))
		return
	}

	d, err := s.engine.CreateDecision(r.Context(), engine.DecisionInput{
		ID:             req.ID,
		Objective:      req.Objective,
		Recommendation: req.Recommendation,
		Confidence:     req.Confidence,
		Signals:        store.Signals(req.Signals),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDecisionJSON(d))
}

func (s *Server) handleGetDecision(w http.ResponseWriter, r *http.Request) {
	d, err := s.engine.GetDecision(r.Context(), chi.URLParam(r, "decisionID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDecisionJSON(d))
}

func (s *Server) handleListDecisions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit", defaultListLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := intParam(q.Get("offset"), "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	page, err := s.engine.ListDecisions(r.Context(), store.DecisionFilter{ObjectiveSubstring: q.Get("objective")}, limit, offset)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	data := make([]decisionJSON, len(page.Items))
	for i := range page.Items {
		data[i] = toDecisionJSON(&page.Items[i].Decision)
		data[i].Weight = &page.Items[i].Weight
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":   data,
		"total":  page.Total,
		"limit":  page.Limit,
		"offset": page.Offset,
	})
}

func (s *Server) handleListApprovals(w http.ResponseWriter, r *http.Request) {
	decisionID := chi.URLParam(r, "decisionID")
	if _, err := s.engine.GetDecision(r.Context(), decisionID); err != nil {
		s.writeError(w, r, err)
		return
	}

	approvals, err := s.db.ListApprovals(r.Context(), decisionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]approvalJSON, len(approvals))
	for i := range approvals {
		out[i] = toApprovalJSON(&approvals[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"decision_id": decisionID,
		"count":       len(out),
		"data":        out,
	})
}

func (s *Server) handleRecordApproval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DecisionID           string     `json:"decision_id"`
		Approved             *bool      `json:"approved"`
		ConfidenceAdjustment *float64   `json:"confidence_adjustment"`
		Timestamp            *time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("body", "invalid json"))
		return
	}
	if req.Approved == nil {
		s.writeError(w, r, badRequest("approved", "required"))
		return
	}

	res, err := s.engine.RecordApproval(r.Context(), engine.ApprovalInput{
		DecisionID:           req.DecisionID,
		Approved:             *req.Approved,
		ConfidenceAdjustment: req.ConfidenceAdjustment,
		Timestamp:            req.Timestamp,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":               res.Approval.ID,
		"decision_id":      res.Approval.DecisionID,
		"reward":           res.Approval.Reward,
		"timestamp":        res.Approval.Timestamp,
		"weights_updated":  res.WeightsUpdated,
		"weights_intended": res.WeightsIntended,
		"learning_applied": res.LearningApplied(),
	})
}

func (s *Server) handleGetApproval(w http.ResponseWriter, r *http.Request) {
	a, err := s.db.GetApproval(r.Context(), chi.URLParam(r, "approvalID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApprovalJSON(a))
}

func (s *Server) handleListWeights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit", defaultRecordLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	filter := store.WeightFilter{
		SourceType: q.Get("source_type"),
		SourceID:   q.Get("source_id"),
	}
	weights, err := s.db.ListWeights(r.Context(), filter, engine.ClampLimit(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	total, err := s.db.CountWeights(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	type weightJSON struct {
		SourceType  string    `json:"source_type"`
		SourceID    string    `json:"source_id"`
		TargetType  string    `json:"target_type"`
		TargetValue string    `json:"target_value"`
		Weight      float64   `json:"weight"`
		UpdateCount int       `json:"update_count"`
		CreatedAt   time.Time `json:"created_at"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
	out := make([]weightJSON, len(weights))
	for i, lw := range weights {
		out[i] = weightJSON{lw.SourceType, lw.SourceID, lw.TargetType, lw.TargetValue,
			lw.Weight, lw.UpdateCount, lw.CreatedAt, lw.UpdatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"count": len(out),
		"total": total,
		"data":  out,
	})
}

// intParam parses an optional integer query parameter.
func intParam(raw, name string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(name, "must be an integer")
	}
	return n, nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}
