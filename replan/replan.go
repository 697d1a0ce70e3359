// Package replan owns bounded replanning policy and plan-merge behavior,
// grounded on the original replan_manager.py: replanning mixes a policy
// decision (attempt budget, failure shape) with plan-state mutation, kept
// here as a single use case rather than scattered across the orchestrator.
package replan

import (
	"context"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/planfsm"
	"github.com/Shubhamnegi/agent-core/repo"
)

// Planner produces a revised tail of steps given what already completed and
// why the failed step didn't succeed. The orchestrator package's
// planningAgent (orchestrator/planner.go) implements this by prompting its
// model with the completed-step history.
type Planner interface {
	Replan(ctx context.Context, plan *domain.Plan, completedSteps []domain.PlanStep, failedStep domain.PlanStep, reason string, maxSteps int) ([]domain.PlanStep, error)
}

// Manager enforces the max_replans budget and merges a revised plan tail
// back into the running plan.
type Manager struct {
	planner    Planner
	plans      repo.PlanRepository
	events     repo.EventRepository
	maxSteps   int
	maxReplans int
}

// NewManager constructs a Manager. maxReplans <= 0 means "use the plan's
// own MaxReplans field", matching per-tenant overrides of the process-wide
// default.
func NewManager(planner Planner, plans repo.PlanRepository, events repo.EventRepository, maxSteps, maxReplans int) *Manager {
	return &Manager{planner: planner, plans: plans, events: events, maxSteps: maxSteps, maxReplans: maxReplans}
}

// ReplanOrFail attempts a surgical replan of the failed step's remaining
// work. If the plan has exhausted its replan budget it marks the plan
// failed, persists it, and returns a domain.Failure carrying the completed
// steps and last failure for the caller to surface verbatim.
func (m *Manager) ReplanOrFail(ctx context.Context, plan *domain.Plan, failedStep domain.PlanStep, trigger string) error {
	budget := plan.MaxReplans
	if m.maxReplans > 0 {
		budget = m.maxReplans
	}
	if plan.ReplanCount >= budget {
		return m.exhaust(ctx, plan, failedStep)
	}

	plan.ReplanCount++
	now := time.Now().UTC()
	if err := planfsm.TransitionPlan(plan, domain.PlanReplanning, now); err != nil {
		return err
	}

	completed := plan.CompletedSteps()
	remaining := remainingExcept(plan.Steps, failedStep.StepIndex)

	reason := failedStep.FailureReason
	if reason == "" {
		reason = domain.TriggerStepFailed
	}

	if err := m.events.Append(ctx, domain.Event{
		Type:      domain.EventReplanTriggered,
		TenantID:  plan.TenantID,
		SessionID: plan.SessionID,
		PlanID:    plan.PlanID,
		TaskID:    failedStep.TaskID,
		Payload: map[string]any{
			"attempt":     plan.ReplanCount,
			"failed_step": failedStep.StepIndex,
			"reason":      reason,
		},
		Timestamp: now,
	}); err != nil {
		return err
	}

	revisedSteps, err := m.planner.Replan(ctx, plan, completed, failedStep, reason, m.maxSteps)
	if err != nil {
		return err
	}
	if err := planfsm.ValidateSteps(revisedSteps, m.maxSteps); err != nil {
		return err
	}

	plan.ReplanHistory = append(plan.ReplanHistory, domain.ReplanEvent{
		Attempt:    plan.ReplanCount,
		Trigger:    trigger,
		FailedStep: failedStep.StepIndex,
		Reason:     reason,
		RevisedAt:  now,
	})
	plan.Steps = mergeSteps(completed, revisedSteps, remaining)
	if err := planfsm.TransitionPlan(plan, domain.PlanExecuting, now); err != nil {
		return err
	}
	return m.plans.Save(ctx, plan)
}

func (m *Manager) exhaust(ctx context.Context, plan *domain.Plan, failedStep domain.PlanStep) error {
	now := time.Now().UTC()
	if err := planfsm.TransitionPlan(plan, domain.PlanFailed, now); err != nil {
		return err
	}
	if err := m.plans.Save(ctx, plan); err != nil {
		return err
	}

	completed := plan.CompletedSteps()
	completedSummaries := make([]map[string]any, len(completed))
	for i, s := range completed {
		completedSummaries[i] = map[string]any{
			"step_index": s.StepIndex,
			"task":       s.Task,
			"status":     string(s.Status),
			"memory_key": s.MemoryKey,
		}
	}
	lastFailureReason := failedStep.FailureReason
	if lastFailureReason == "" {
		lastFailureReason = "unknown_failure"
	}
	return domain.NewFailure(domain.KindReplanLimitReached, "max_replan_attempts_reached",
		"max replan attempts reached").
		WithDetails(map[string]any{
			"completed_steps": completedSummaries,
			"last_failure": map[string]any{
				"step":   failedStep.StepIndex,
				"reason": lastFailureReason,
			},
		})
}

func remainingExcept(steps []domain.PlanStep, excludeIndex int) []domain.PlanStep {
	var out []domain.PlanStep
	for _, s := range steps {
		if s.Status == domain.StepComplete || s.StepIndex == excludeIndex {
			continue
		}
		out = append(out, s)
	}
	return out
}

func mergeSteps(completed, revised, remaining []domain.PlanStep) []domain.PlanStep {
	merged := make([]domain.PlanStep, 0, len(completed)+len(revised)+len(remaining))
	merged = append(merged, completed...)
	merged = append(merged, revised...)
	merged = append(merged, remaining...)
	return merged
}
