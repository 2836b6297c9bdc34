package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lazypower/counsel/internal/engine"
	"github.com/lazypower/counsel/internal/store"
)

type planJSON struct {
	ID          string    `json:"id"`
	DecisionID  string    `json:"decision_id,omitempty"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type deploymentJSON struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"plan_id"`
	Environment string    `json:"environment"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	var req planJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("body", "invalid json"))
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeError(w, r, badRequest("name", "required"))
		return
	}

	p := &store.Plan{
		ID:          newID(req.ID),
		DecisionID:  req.DecisionID,
		Name:        req.Name,
		Description: req.Description,
	}
	if err := s.db.CreatePlan(r.Context(), p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, planJSON(*p))
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := s.db.GetPlan(r.Context(), chi.URLParam(r, "planID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planJSON(*p))
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), "limit", defaultRecordLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	plans, err := s.db.ListPlans(r.Context(), engine.ClampLimit(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]planJSON, len(plans))
	for i, p := range plans {
		out[i] = planJSON(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "data": out})
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeletePlan(r.Context(), chi.URLParam(r, "planID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreateDeployment(w http.ResponseWriter, r *http.Request) {
	var req deploymentJSON
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, badRequest("body", "invalid json"))
		return
	}
	if req.PlanID == "" {
		s.writeError(w, r, badRequest("plan_id", "required"))
		return
	}
	if strings.TrimSpace(req.Environment) == "" {
		s.writeError(w, r, badRequest("environment", "required"))
		return
	}

	d := &store.Deployment{
		ID:          newID(req.ID),
		PlanID:      req.PlanID,
		Environment: req.Environment,
		Status:      req.Status,
	}
	if err := s.db.CreateDeployment(r.Context(), d); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, deploymentJSON(*d))
}

func (s *Server) handleGetDeployment(w http.ResponseWriter, r *http.Request) {
	d, err := s.db.GetDeployment(r.Context(), chi.URLParam(r, "deploymentID"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deploymentJSON(*d))
}

func (s *Server) handleListDeployments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"), "limit", defaultRecordLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	deps, err := s.db.ListDeployments(r.Context(), q.Get("plan_id"), engine.ClampLimit(limit))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]deploymentJSON, len(deps))
	for i, d := range deps {
		out[i] = deploymentJSON(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(out), "data": out})
}

func (s *Server) handleDeleteDeployment(w http.ResponseWriter, r *http.Request) {
	if err := s.db.DeleteDeployment(r.Context(), chi.URLParam(r, "deploymentID")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
