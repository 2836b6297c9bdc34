package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lazypower/counsel/internal/engine"
	"github.com/lazypower/counsel/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the counsel HTTP API server.
type Server struct {
	db       *store.DB
	engine   *engine.Engine
	log      *zap.Logger
	router   chi.Router
	gatherer prometheus.Gatherer
	version  string
	started  time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithMetrics serves the given gatherer at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// New creates a new Server with the given database, engine and version string.
func New(db *store.DB, eng *engine.Engine, logger *zap.Logger, version string, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		db:      db,
		engine:  eng,
		log:     logger.Named("http"),
		version: version,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/decisions", s.handleCreateDecision)
		r.Get("/decisions", s.handleListDecisions)
		r.Get("/decisions/{decisionID}", s.handleGetDecision)
		r.Get("/decisions/{decisionID}/approvals", s.handleListApprovals)

		r.Post("/approvals", s.handleRecordApproval)
		r.Get("/approvals/{approvalID}", s.handleGetApproval)

		r.Get("/weights", s.handleListWeights)

		r.Post("/plans", s.handleCreatePlan)
		r.Get("/plans", s.handleListPlans)
		r.Get("/plans/{planID}", s.handleGetPlan)
		r.Delete("/plans/{planID}", s.handleDeletePlan)

		r.Post("/deployments", s.handleCreateDeployment)
		r.Get("/deployments", s.handleListDeployments)
		r.Get("/deployments/{deploymentID}", s.handleGetDeployment)
		r.Delete("/deployments/{deploymentID}", s.handleDeleteDeployment)
	})

	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
