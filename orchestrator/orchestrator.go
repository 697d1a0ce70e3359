// Package orchestrator runs the per-request algorithm: ensure the session
// exists, derive this turn's policy flags from the user message, stream
// the coordinator/sub-agent graph for one turn while mirroring every event
// to the event log and folding memory-usage metadata, then select,
// sanitize, and disclosure-prefix the user-facing response before
// persisting the session.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/Shubhamnegi/agent-core/reqctx"
	"github.com/Shubhamnegi/agent-core/repo"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// Orchestrator wires the agent graph to the repositories a request needs.
type Orchestrator struct {
	Graph      *agentgraph.Graph
	Sessions   repo.SessionRepository
	Events     repo.EventRepository
	MemoryRepo repo.MemoryRepository
	CommConfig string
	Logger     telemetry.Logger
	Metrics    telemetry.Metrics
	Tracer     telemetry.Tracer

	// Plans and Engine back the structured plan/step/replan path (see
	// planrun.go). Both are optional: Run skips that path entirely when
	// either is nil, so callers driving only the conversational turn (most
	// existing tests) are unaffected.
	Plans        repo.PlanRepository
	Engine       engine.Engine
	MaxPlanSteps int
	MaxReplans   int

	engineOnce sync.Once
	engineErr  error
}

// RunRequest is one inbound POST /agent/run call.
type RunRequest struct {
	TenantID  string
	UserID    string
	SessionID string
	Message   string
}

// RunResult is the shape returned to the HTTP layer on success.
type RunResult struct {
	Status   string `json:"status"`
	Response string `json:"response"`
	PlanID   string `json:"plan_id"`
}

// Run executes the full per-request algorithm for one inbound message.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	session, created, err := o.Sessions.EnsureExists(ctx, req.TenantID, req.UserID, req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: ensure session: %w", err)
	}
	isFirstTurn := created

	planID := newPlanID()
	allowMemory, requireMemoryPrecheck := policy.DeriveFlags(req.Message, isFirstTurn)

	trace := &domain.TraceContext{
		PlanID:                planID,
		TenantID:              req.TenantID,
		UserID:                req.UserID,
		SessionID:             req.SessionID,
		AllowMemory:           allowMemory,
		RequireMemoryPrecheck: requireMemoryPrecheck,
		RequirePlannerFirst:   isFirstTurn,
	}
	taskID := planID + ":" + uuid.NewString()[:8]

	rt := &reqctx.ToolRuntime{
		TenantID:                req.TenantID,
		UserID:                  req.UserID,
		SessionID:               req.SessionID,
		PlanID:                  planID,
		TaskID:                  taskID,
		MemoryRepo:              o.MemoryRepo,
		CommunicationConfigPath: o.CommConfig,
	}
	defer reqctx.Release(rt)
	ctx = reqctx.WithToolRuntime(ctx, rt)

	messages := []model.Message{{Role: model.RoleUser, Content: req.Message}}
	events, results, errs := o.Graph.Coordinator().Stream(ctx, trace, taskID, messages)

	var observations []responseObservation
	var usage MemoryUsage
	anyToolFailed := false
	var pending []domain.Event
	for ev := range events {
		pending = append(pending, ev)
		if obs, ok := observeResponse(ev); ok {
			observations = append(observations, obs)
		}
		if toolCallFailed(ev) {
			anyToolFailed = true
		}
		usage = MergeMemoryUsage(usage, ev)
	}
	if len(pending) > 0 && o.Events != nil {
		if err := o.Events.Append(ctx, pending...); err != nil {
			o.logger().Error(ctx, "orchestrator_event_append_failed", "error", err.Error(), "plan_id", planID)
		}
	}

	var response string
	select {
	case result := <-results:
		response = result.FinalText
	case streamErr := <-errs:
		response = SelectResponse(observations, anyToolFailed)
		if streamErr != nil {
			o.logger().Warn(ctx, "orchestrator_turn_degraded", "error", streamErr.Error(), "plan_id", planID)
		}
	}

	response = Sanitize(response)
	memoryDisabled := !allowMemory && !usage.Used
	response = Disclosure(response, memoryDisabled, usage, time.Now().UTC())

	session.UpdatedAt = time.Now().UTC()
	if err := o.Sessions.Persist(ctx, session); err != nil {
		o.logger().Error(ctx, "orchestrator_session_persist_failed", "error", err.Error(), "plan_id", planID)
	}

	plan, planErr := o.runPlan(ctx, req, planID)
	if planErr != nil {
		var failure *domain.Failure
		if errors.As(planErr, &failure) {
			// Any shaped failure from the plan path (plan validation,
			// replan-budget exhaustion, or another kind such as a memory
			// lock timeout) is surfaced to the HTTP boundary as the whole
			// request's outcome rather than the conversational response
			// computed above.
			return nil, planErr
		}
		o.logger().Error(ctx, "orchestrator_plan_execution_failed", "error", planErr.Error(), "plan_id", planID)
	}

	status := "complete"
	if plan != nil {
		status = string(plan.Status)
	}
	return &RunResult{Status: status, Response: response, PlanID: planID}, nil
}

func (o *Orchestrator) logger() telemetry.Logger {
	if o.Logger == nil {
		return telemetry.NoopLogger{}
	}
	return o.Logger
}

func newPlanID() string {
	return "plan_adk_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
