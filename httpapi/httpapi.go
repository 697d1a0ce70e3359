// Package httpapi exposes the orchestration runtime over HTTP: one endpoint
// to run a turn, and read endpoints for inspecting a plan, its event trace,
// a tenant's persona/policy document, and ad hoc memory search. Routing uses
// the standard library's method-and-path ServeMux patterns rather than a
// generated transport layer; request/response bodies are plain JSON via
// encoding/json.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"goa.design/clue/log"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/orchestrator"
	"github.com/Shubhamnegi/agent-core/repo"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// Server wires the orchestrator and read-side repositories to a set of HTTP
// handlers.
type Server struct {
	Orchestrator *orchestrator.Orchestrator
	Plans        repo.PlanRepository
	Events       repo.EventRepository
	Souls        repo.SoulRepository
	MemoryRepo   repo.MemoryRepository
	Logger       telemetry.Logger
}

// NewMux builds the routed handler. Every mounted pattern logs through
// goa.design/clue/log's request middleware.
func (s *Server) NewMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /agent/run", s.handleRun)
	mux.HandleFunc("GET /agent/plans/{plan_id}", s.handleGetPlan)
	mux.HandleFunc("GET /agent/plans/{plan_id}/trace", s.handleGetTrace)
	mux.HandleFunc("PUT /agent/souls/{tenant_id}", s.handlePutSoul)
	mux.HandleFunc("GET /agent/memory/query", s.handleQueryMemory)

	var handler http.Handler = mux
	return log.HTTP(context.Background())(handler)
}

type runRequestBody struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var body runRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, http.StatusBadRequest, domain.NewFailure(domain.KindPlanValidation, "invalid_json", "request body is not valid JSON"))
		return
	}
	if body.TenantID == "" || body.UserID == "" || body.SessionID == "" || body.Message == "" {
		writeFailure(w, http.StatusBadRequest, domain.NewFailure(domain.KindPlanValidation, "missing_field", "tenant_id, user_id, session_id and message are all required"))
		return
	}

	result, err := s.Orchestrator.Run(r.Context(), orchestrator.RunRequest{
		TenantID:  body.TenantID,
		UserID:    body.UserID,
		SessionID: body.SessionID,
		Message:   body.Message,
	})
	if err != nil {
		s.handleError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("plan_id")
	plan, err := s.Plans.Load(r.Context(), planID)
	if err != nil {
		s.handleError(w, r.Context(), err)
		return
	}
	if plan == nil {
		writeFailure(w, http.StatusNotFound, domain.NewFailure(domain.KindInternal, "plan_not_found", "no plan with that id"))
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleGetTrace(w http.ResponseWriter, r *http.Request) {
	planID := r.PathValue("plan_id")
	events, err := s.Events.ByPlan(r.Context(), planID)
	if err != nil {
		s.handleError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"plan_id": planID, "events": events})
}

func (s *Server) handlePutSoul(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant_id")
	var soul domain.Soul
	if err := json.NewDecoder(r.Body).Decode(&soul); err != nil {
		writeFailure(w, http.StatusBadRequest, domain.NewFailure(domain.KindPlanValidation, "invalid_json", "request body is not valid JSON"))
		return
	}
	soul.TenantID = tenantID
	soul.UpdatedAt = time.Now().UTC()
	if err := s.Souls.Upsert(r.Context(), &soul); err != nil {
		s.handleError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, &soul)
}

func (s *Server) handleQueryMemory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tenantID, userID, sessionID, query := q.Get("tenant_id"), q.Get("user_id"), q.Get("session_id"), q.Get("query")
	scope := domain.MemoryScope(q.Get("scope"))
	if scope == "" {
		scope = domain.ScopeSession
	}
	topK := 5
	if raw := q.Get("top_k"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			topK = n
		}
	}
	if tenantID == "" || query == "" {
		writeFailure(w, http.StatusBadRequest, domain.NewFailure(domain.KindPlanValidation, "missing_field", "tenant_id and query are required"))
		return
	}

	results, err := s.MemoryRepo.Search(r.Context(), tenantID, userID, sessionID, query, scope, topK)
	if err != nil {
		s.handleError(w, r.Context(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"query": query, "scope": scope, "results": results, "count": len(results)})
}

func (s *Server) handleError(w http.ResponseWriter, ctx context.Context, err error) {
	var failure *domain.Failure
	if errors.As(err, &failure) {
		status := http.StatusInternalServerError
		if failure.Kind.IsPlanValidationOrReplanExhaustion() {
			status = http.StatusUnprocessableEntity
		} else if failure.Kind == domain.KindPolicyBlocked {
			status = http.StatusForbidden
		}
		writeFailure(w, status, failure)
		return
	}
	s.logger().Error(ctx, "httpapi_unhandled_error", "error", err.Error())
	writeFailure(w, http.StatusInternalServerError, domain.NewFailure(domain.KindInternal, "internal_error", "an unexpected error occurred"))
}

func (s *Server) logger() telemetry.Logger {
	if s.Logger == nil {
		return telemetry.NoopLogger{}
	}
	return s.Logger
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFailure(w http.ResponseWriter, status int, failure *domain.Failure) {
	writeJSON(w, status, failure)
}
