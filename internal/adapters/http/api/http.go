// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/okian/sportplanner/internal/domain/model"
	"github.com/okian/sportplanner/internal/domain/proposal"
	"github.com/okian/sportplanner/internal/domain/session"
	"github.com/okian/sportplanner/internal/domain/types"
	"github.com/okian/sportplanner/pkg/logger"
)

const defaultRequestTimeout = 30 * time.Second

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	GenerateProposals(ctx context.Context, req proposal.Request) (*types.ProposalResponse, error)
	// ProposalsForTeam returns nil without error when the team is unknown.
	ProposalsForTeam(ctx context.Context, teamID int64) (*types.ProposalResponse, error)
	// RequestRefresh enqueues a background refresh. It fails with an error
	// matching ErrBackpressure when the queue is full.
	RequestRefresh(ctx context.Context, teamID int64) (uuid.UUID, error)

	Occurrences(ctx context.Context, scheduleID int64, from, to time.Time) ([]types.Occurrence, error)
	CreateSession(ctx context.Context, scheduleID int64, req session.Request) (*model.SessionPlan, error)

	// ResolveInterpretation returns nil without error when no override applies.
	ResolveInterpretation(ctx context.Context, conceptID int64, scope model.Scope) (*model.Interpretation, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps           Dependencies
	health         *HealthHandler
	stats          *StatsHandler
	allowedOrigins []string
	timeout        time.Duration
	log            logger.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS origins. Defaults to any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithRequestTimeout bounds each request.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, pinger Pinger, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		deps:           deps,
		health:         NewHealthHandler(pinger),
		stats:          NewStatsHandler(statsProvider),
		allowedOrigins: []string{"*"},
		timeout:        defaultRequestTimeout,
		log:            logger.Named("http"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with middleware and every route.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	s.Register(r)
	return r
}

// Register attaches all routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", s.health.HandleHealth)
	r.Get("/metrics", s.health.HandleMetrics)
	r.Get("/stats", s.stats.HandleStats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/proposals", s.handleGenerateProposals)
		r.Get("/teams/{teamId}/proposals", s.handleTeamProposals)
		r.Post("/teams/{teamId}/proposals/refresh", s.handleRefreshProposals)
		r.Get("/schedules/{scheduleId}/occurrences", s.handleOccurrences)
		r.Post("/schedules/{scheduleId}/sessions", s.handleCreateSession)
		r.Get("/concepts/{conceptId}/interpretation", s.handleResolveInterpretation)
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type refreshResponse struct {
	Status string    `json:"status"`
	JobID  uuid.UUID `json:"jobId"`
	TeamID int64     `json:"teamId"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the status matching err's kind. Server errors are
// logged and their detail withheld from the client.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		s.log.Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.Error(err),
		)
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// pathID reads a positive integer route parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.Invalid(name, "must be a positive integer")
	}
	return id, nil
}

// queryID reads an optional positive integer query parameter.
func queryID(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, model.Invalid(name, "must be a positive integer")
	}
	return &id, nil
}
