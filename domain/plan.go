// Package domain holds the core entities, enums and invariants of the
// agent-core orchestration runtime: plans and their steps, memory records,
// event records, and the shaped failure objects propagated to the HTTP
// boundary. Types here carry no I/O; persistence and transport live in repo,
// memorystore, eventlog and httpapi.
package domain

import "time"

// StepStatus enumerates the legal states of a PlanStep. Transitions between
// states are enforced by planfsm, not by this package.
type StepStatus string

const (
	StepPending  StepStatus = "pending"
	StepRunning  StepStatus = "running"
	StepComplete StepStatus = "complete"
	StepFailed   StepStatus = "failed"
)

// PlanStatus enumerates the legal states of a Plan.
type PlanStatus string

const (
	PlanPending     PlanStatus = "pending"
	PlanPlanning    PlanStatus = "planning"
	PlanExecuting   PlanStatus = "executing"
	PlanReplanning  PlanStatus = "replanning"
	PlanComplete    PlanStatus = "complete"
	PlanFailed      PlanStatus = "failed"
)

// ReturnSpec gates a step's output: Shape maps a field name to a type label
// (see domain.TypeLabel* constants) and Reason documents why the step needs
// that shape, surfaced to planners on replan.
type ReturnSpec struct {
	Shape  map[string]string `json:"shape"`
	Reason string             `json:"reason,omitempty"`
}

// PlanStep is a single typed sub-task within a Plan. planfsm.Transition is
// the only code path allowed to mutate Status, StartedAt, FinishedAt and
// TaskID.
type PlanStep struct {
	StepIndex      int        `json:"step_index"`
	Task           string     `json:"task"`
	Skills         []string   `json:"skills"`
	ReturnSpec     ReturnSpec `json:"return_spec"`
	InputFromStep  *int       `json:"input_from_step,omitempty"`
	Status         StepStatus `json:"status"`
	TaskID         string     `json:"task_id,omitempty"`
	MemoryKey      string     `json:"memory_key,omitempty"`
	Validated      bool       `json:"validated"`
	FailureReason  string     `json:"failure_reason,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

// ReplanEvent records one bounded-replan attempt.
type ReplanEvent struct {
	Attempt    int       `json:"attempt"`
	Trigger    string    `json:"trigger"`
	FailedStep int       `json:"failed_step"`
	Reason     string    `json:"reason"`
	RevisedAt  time.Time `json:"revised_at"`
}

// Replan trigger kinds.
const (
	TriggerStepFailed         = "step_failed"
	TriggerInsufficient       = "insufficient"
	TriggerContractViolation  = "contract_violation"
)

// Plan is the root aggregate owning its Steps and ReplanHistory exclusively.
// No other entity mutates a Plan's steps directly.
type Plan struct {
	PlanID        string        `json:"plan_id"`
	TenantID      string        `json:"tenant_id"`
	UserID        string        `json:"user_id"`
	SessionID     string        `json:"session_id"`
	Status        PlanStatus    `json:"status"`
	Steps         []PlanStep    `json:"steps"`
	ReplanCount   int           `json:"replan_count"`
	ReplanHistory []ReplanEvent `json:"replan_history"`
	MaxReplans    int           `json:"max_replans"`
	CreatedAt     time.Time     `json:"created_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
}

// NextPendingStepIndex returns the index of the first step whose status is
// not complete, or len(Steps) if every step is complete. Used to resume
// execution after a replan merge.
func (p *Plan) NextPendingStepIndex() int {
	for i, s := range p.Steps {
		if s.Status != StepComplete {
			return i
		}
	}
	return len(p.Steps)
}

// StepByIndex returns a pointer to the step with the given StepIndex, or nil
// if no such step exists. StepIndex is 1-based and unique within a plan, so
// this is a direct scan rather than a slice index lookup.
func (p *Plan) StepByIndex(stepIndex int) *PlanStep {
	for i := range p.Steps {
		if p.Steps[i].StepIndex == stepIndex {
			return &p.Steps[i]
		}
	}
	return nil
}

// CompletedSteps returns the steps with Status == StepComplete, in plan
// order, used by the replan manager to build the merged plan.
func (p *Plan) CompletedSteps() []PlanStep {
	var out []PlanStep
	for _, s := range p.Steps {
		if s.Status == StepComplete {
			out = append(out, s)
		}
	}
	return out
}

// CheckInvariants validates the plan-level invariants
// replan_count equals the length of replan history, status=complete implies
// completed_at is set and at least one step is complete, and replan_count
// never exceeds max_replans.
func (p *Plan) CheckInvariants() error {
	if p.ReplanCount != len(p.ReplanHistory) {
		return NewFailure(KindPlanValidation, "replan_count_mismatch",
			"replan_count does not match replan_history length")
	}
	if p.Status == PlanComplete {
		if p.CompletedAt == nil {
			return NewFailure(KindPlanValidation, "plan_complete_missing_completed_at",
				"completed plan missing completed_at")
		}
		anyComplete := false
		for _, s := range p.Steps {
			if s.Status == StepComplete {
				anyComplete = true
				break
			}
		}
		if !anyComplete {
			return NewFailure(KindPlanValidation, "plan_complete_no_step_complete",
				"completed plan has no complete step")
		}
	}
	if p.MaxReplans > 0 && p.ReplanCount > p.MaxReplans {
		return NewFailure(KindReplanLimitReached, "replan_count_exceeds_max",
			"replan_count exceeds max_replans")
	}
	return nil
}
