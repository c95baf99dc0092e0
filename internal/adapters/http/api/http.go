// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/okian/loftmatch/internal/adapters/loader"
	"github.com/okian/loftmatch/internal/domain/types"
	"github.com/okian/loftmatch/pkg/logger"
	"github.com/okian/loftmatch/pkg/report"
)

// DefaultMaxUploadBytes caps dataset uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 10 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	LoadDataset(ctx context.Context, name string, r io.Reader, format loader.Format) (types.DatasetSummary, error)
	Candidates(ctx context.Context, sessionID string) (types.Candidates, error)
	Score(ctx context.Context, req types.ScoreRequest) (report.Report, error)
	Matches(ctx context.Context, req types.MatchRequest) (types.Matches, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Option configures a Server.
type Option func(*Server)

// WithMaxUploadBytes limits the size of dataset uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger used for server-side failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes int64
	log            logger.Logger

	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	datasetsHandler *DatasetsHandler
	scoreHandler    *ScoreHandler
	matchesHandler  *MatchesHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes: DefaultMaxUploadBytes,
		log:            logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(statsProvider)
	s.datasetsHandler = NewDatasetsHandler(deps, s.maxUploadBytes, s.log)
	s.scoreHandler = NewScoreHandler(deps, s.log)
	s.matchesHandler = NewMatchesHandler(deps, s.log)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /datasets", MetricsMiddleware(s.datasetsHandler.HandleUpload, "datasets"))
	mux.HandleFunc("DELETE /datasets/{id}", MetricsMiddleware(s.datasetsHandler.HandleDelete, "datasets"))
	mux.HandleFunc("GET /datasets/{id}/candidates", MetricsMiddleware(s.datasetsHandler.HandleCandidates, "candidates"))
	mux.HandleFunc("POST /datasets/{id}/score", MetricsMiddleware(s.scoreHandler.HandleScore, "score"))
	mux.HandleFunc("POST /datasets/{id}/matches", MetricsMiddleware(s.matchesHandler.HandleMatches, "matches"))
}

type errorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Fields: missingFields(err)})
}

// writeDomainError maps err to its status and logs server-side failures.
func writeDomainError(ctx context.Context, log logger.Logger, w http.ResponseWriter, err error) {
	status, code := classify(err)
	if status >= http.StatusInternalServerError {
		log.Error(ctx, "request failed", logger.String("code", code), logger.Error(err))
	}
	writeError(w, status, code, err)
}
