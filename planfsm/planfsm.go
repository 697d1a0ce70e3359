// Package planfsm owns the only code paths allowed to mutate a
// domain.PlanStep's Status, StartedAt, FinishedAt and TaskID, and a
// domain.Plan's Status. It is grounded on the original plan_validator.py
// (ValidateSteps) and the implicit step/plan status transitions the
// replan_manager.py and orchestrator drive by hand; here they are made
// explicit as a legal-transition table rather than left as scattered
// assignments.
package planfsm

import (
	"strings"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
)

// forbiddenSkillTokens blocks a planner from spawning nested sub-agents,
// grounded on plan_validator.py's _FORBIDDEN_SKILL_TOKENS.
var forbiddenSkillTokens = []string{"subagent", "spawn_subagent", "create_subagent", "agent/run"}

// ValidateSteps enforces the structural invariants a freshly planned or
// replanned step list must satisfy before a Plan can adopt it: non-empty,
// within maxSteps, and no step names a skill that would spawn a nested
// sub-agent.
func ValidateSteps(steps []domain.PlanStep, maxSteps int) error {
	if len(steps) == 0 {
		return domain.NewFailure(domain.KindPlanValidation, "planner_returned_empty_plan",
			"planner returned an empty plan")
	}
	if maxSteps > 0 && len(steps) > maxSteps {
		return domain.NewFailure(domain.KindPlanValidation, "plan_infeasible_over_max_steps",
			"plan exceeds the maximum allowed number of steps").
			WithDetails(map[string]any{"max_steps": maxSteps, "actual_steps": len(steps)})
	}
	for _, step := range steps {
		for _, skill := range step.Skills {
			normalized := strings.ToLower(strings.TrimSpace(skill))
			for _, token := range forbiddenSkillTokens {
				if strings.Contains(normalized, token) {
					return domain.NewFailure(domain.KindPlanValidation, "subagent_spawning_not_allowed",
						"plan step names a skill that would spawn a nested sub-agent").
						WithDetails(map[string]any{"step_index": step.StepIndex, "skill": skill})
				}
			}
		}
	}
	return nil
}

// stepTransitions is the legal StepStatus -> StepStatus table. A step may
// always be re-dispatched from pending (the status a step holds before a
// task_id is assigned) and moves forward one way once running.
var stepTransitions = map[domain.StepStatus][]domain.StepStatus{
	domain.StepPending:  {domain.StepRunning},
	domain.StepRunning:  {domain.StepComplete, domain.StepFailed},
	domain.StepComplete: {},
	domain.StepFailed:   {domain.StepRunning}, // a failed step may be retried by the same or a revised plan
}

// Transition moves step to next, stamping TaskID/StartedAt/FinishedAt as
// appropriate, or returns an error if the transition isn't legal.
func Transition(step *domain.PlanStep, next domain.StepStatus, taskID string, now time.Time) error {
	allowed := stepTransitions[step.Status]
	ok := false
	for _, candidate := range allowed {
		if candidate == next {
			ok = true
			break
		}
	}
	if !ok {
		return domain.NewFailure(domain.KindInternal, "illegal_step_transition",
			"illegal step status transition").
			WithDetails(map[string]any{"from": string(step.Status), "to": string(next), "step_index": step.StepIndex})
	}

	switch next {
	case domain.StepRunning:
		step.TaskID = taskID
		step.StartedAt = &now
	case domain.StepComplete, domain.StepFailed:
		step.FinishedAt = &now
	}
	step.Status = next
	return nil
}

// planTransitions is the legal PlanStatus -> PlanStatus table.
var planTransitions = map[domain.PlanStatus][]domain.PlanStatus{
	domain.PlanPending:    {domain.PlanPlanning},
	domain.PlanPlanning:   {domain.PlanExecuting, domain.PlanFailed},
	domain.PlanExecuting:  {domain.PlanReplanning, domain.PlanComplete, domain.PlanFailed},
	domain.PlanReplanning: {domain.PlanExecuting, domain.PlanFailed},
	domain.PlanComplete:   {},
	domain.PlanFailed:     {},
}

// TransitionPlan moves plan.Status to next, stamping CompletedAt when next
// is PlanComplete.
func TransitionPlan(plan *domain.Plan, next domain.PlanStatus, now time.Time) error {
	allowed := planTransitions[plan.Status]
	ok := false
	for _, candidate := range allowed {
		if candidate == next {
			ok = true
			break
		}
	}
	if !ok {
		return domain.NewFailure(domain.KindInternal, "illegal_plan_transition",
			"illegal plan status transition").
			WithDetails(map[string]any{"from": string(plan.Status), "to": string(next), "plan_id": plan.PlanID})
	}
	if next == domain.PlanComplete {
		plan.CompletedAt = &now
	}
	plan.Status = next
	return nil
}
