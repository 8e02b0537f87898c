// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/octagon/internal/adapters/model"
	"github.com/okian/octagon/internal/domain/errs"
	"github.com/okian/octagon/internal/domain/types"
	"github.com/okian/octagon/pkg/logger"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PredictDependencies
	FighterDependencies
	OfficialDependencies
	ModelDependencies
	StatsProvider
}

// PredictDependencies runs predictions and explanations.
type PredictDependencies interface {
	Predict(ctx context.Context, req types.PredictRequest) (types.PredictionResponse, error)
	Explain(ctx context.Context, req types.PredictRequest) (types.ExplainResponse, error)
}

// ModelDependencies reports loaded classifiers.
type ModelDependencies interface {
	ModelStatus(ctx context.Context) ([]model.Status, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	predictHandler  *PredictHandler
	fighterHandler  *FighterHandler
	officialHandler *OfficialHandler
	modelHandler    *ModelHandler

	limiter *rateLimiter
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit shapes POST /predict and POST /explain with a token bucket.
// A non-positive rate disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(s *Server) {
		s.limiter = newRateLimiter(rps, burst)
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(deps),
		predictHandler:  NewPredictHandler(deps),
		fighterHandler:  NewFighterHandler(deps),
		officialHandler: NewOfficialHandler(deps),
		modelHandler:    NewModelHandler(deps),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	route := func(path, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(path, MetricsMiddleware(RequestIDMiddleware(h), endpoint))
	}
	limited := func(endpoint string, h http.HandlerFunc) http.HandlerFunc {
		if s.limiter == nil {
			return h
		}
		return s.limiter.middleware(h, endpoint)
	}

	route("/healthz", "healthz", s.healthHandler.HandleHealth)
	route("/stats", "stats", s.statsHandler.HandleStats)
	route("/predict", "predict", limited("predict", s.predictHandler.HandlePredict))
	route("/explain", "explain", limited("explain", s.predictHandler.HandleExplain))
	route("/fighters", "fighters_search", s.fighterHandler.HandleSearch)
	route("/fighters/", "fighter", s.fighterHandler.HandleGetFighter)
	route("/referees", "referees", s.officialHandler.HandleTopOfficials)
	route("/models/status", "models_status", s.modelHandler.HandleStatus)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err's kind onto a status code. Server-side failures are
// logged; their details are not echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusOf(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		logger.Get().Named("api").Error(r.Context(), "request failed",
			logger.String("path", r.URL.Path),
			logger.String("code", code),
			logger.Error(err),
		)
		var mismatch *errs.SchemaMismatchError
		if !errors.As(err, &mismatch) {
			msg = http.StatusText(status)
		}
	}
	writeJSON(w, status, types.ErrorResponse{Error: msg, Kind: code})
}

func statusOf(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_input"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrBusy), errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "busy"
	case errors.Is(err, errs.ErrSchemaMismatch):
		return http.StatusInternalServerError, "schema_mismatch"
	case errors.Is(err, errs.ErrUpstream):
		return http.StatusInternalServerError, "upstream_failure"
	}
	return http.StatusInternalServerError, "internal_error"
}

// decode reads a JSON body into dst.
func decode(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errs.WrapKind(op, ErrBadRequest, err)
	}
	return nil
}
