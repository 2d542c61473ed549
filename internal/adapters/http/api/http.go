// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/okian/edurank/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	UnitDependencies
	TeacherDependencies
	StudentDependencies
}

// Route names used as metric labels.
const (
	routeHealth         = "healthz"
	routeMetrics        = "metrics"
	routeStats          = "stats"
	routeUnitBoard      = "unit_leaderboard"
	routeUnitStudent    = "unit_student"
	routeTeacherRanking = "teacher_rankings"
	routeStudentSummary = "student_summary"
)

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	unitHandler    *UnitHandler
	teacherHandler *TeacherHandler
	studentHandler *StudentHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		unitHandler:    NewUnitHandler(deps),
		teacherHandler: NewTeacherHandler(deps),
		studentHandler: NewStudentHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, routeHealth))
	mux.HandleFunc("GET /metrics", MetricsMiddleware(s.healthHandler.HandleHealth, routeMetrics))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, routeStats))

	mux.HandleFunc("GET /units/{kind}/{id}/leaderboard", MetricsMiddleware(s.unitHandler.HandleLeaderboard, routeUnitBoard))
	mux.HandleFunc("GET /units/{kind}/{id}/students/{sid}", MetricsMiddleware(s.unitHandler.HandleStudentSummary, routeUnitStudent))
	mux.HandleFunc("GET /teachers/{id}/rankings", MetricsMiddleware(s.teacherHandler.HandleRankings, routeTeacherRanking))
	mux.HandleFunc("GET /students/{id}/summary", MetricsMiddleware(s.studentHandler.HandleSummary, routeStudentSummary))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
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
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates engine error kinds into HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrInvariantViolation):
		writeError(w, http.StatusUnprocessableEntity, "invariant_violation", err)
	case errors.Is(err, model.ErrLimitExceeded):
		writeError(w, http.StatusUnprocessableEntity, "limit_exceeded", err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// pathUUID parses a path wildcard as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, badRequest("invalid %s: %v", name, err)
	}
	return id, nil
}

// queryUUID parses an optional query parameter. An absent value yields
// uuid.Nil.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, badRequest("invalid %s: %v", name, err)
	}
	return id, nil
}
