package replan

import (
	"context"
	"testing"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/eventlog"
	"github.com/Shubhamnegi/agent-core/repo/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlanner struct {
	steps []domain.PlanStep
	err   error
}

func (f *fakePlanner) Replan(_ context.Context, _ *domain.Plan, _ []domain.PlanStep, _ domain.PlanStep, _ string, _ int) ([]domain.PlanStep, error) {
	return f.steps, f.err
}

func basePlan() *domain.Plan {
	return &domain.Plan{
		PlanID:     "plan-1",
		TenantID:   "t",
		SessionID:  "s",
		Status:     domain.PlanExecuting,
		MaxReplans: 3,
		Steps: []domain.PlanStep{
			{StepIndex: 1, Status: domain.StepComplete},
			{StepIndex: 2, Status: domain.StepFailed, FailureReason: "tool_error"},
			{StepIndex: 3, Status: domain.StepPending},
		},
	}
}

func TestManager_ReplanOrFail_MergesRevisedSteps(t *testing.T) {
	planner := &fakePlanner{steps: []domain.PlanStep{{StepIndex: 2, Status: domain.StepPending, Task: "retry with fallback"}}}
	plans := inmem.NewPlanStore()
	events := eventlog.NewInMemory()
	mgr := NewManager(planner, plans, events, 10, 0)

	plan := basePlan()
	failedStep := plan.Steps[1]

	require.NoError(t, mgr.ReplanOrFail(context.Background(), plan, failedStep, domain.TriggerStepFailed))

	assert.Equal(t, domain.PlanExecuting, plan.Status)
	assert.Equal(t, 1, plan.ReplanCount)
	require.Len(t, plan.ReplanHistory, 1)
	assert.Equal(t, "retry with fallback", plan.Steps[1].Task)

	persisted, err := plans.Load(context.Background(), "plan-1")
	require.NoError(t, err)
	require.NotNil(t, persisted)
	assert.Equal(t, 1, persisted.ReplanCount)

	planEvents, err := events.ByPlan(context.Background(), "plan-1")
	require.NoError(t, err)
	assert.Len(t, planEvents, 1)
	assert.Equal(t, domain.EventReplanTriggered, planEvents[0].Type)
}

func TestManager_ReplanOrFail_ExhaustsBudget(t *testing.T) {
	planner := &fakePlanner{}
	plans := inmem.NewPlanStore()
	events := eventlog.NewInMemory()
	mgr := NewManager(planner, plans, events, 10, 1)

	plan := basePlan()
	plan.ReplanCount = 1
	failedStep := plan.Steps[1]

	err := mgr.ReplanOrFail(context.Background(), plan, failedStep, domain.TriggerStepFailed)
	require.Error(t, err)
	var failure *domain.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, domain.KindReplanLimitReached, failure.Kind)
	assert.Equal(t, domain.PlanFailed, plan.Status)

	details := failure.Details
	require.NotNil(t, details)
	completed, ok := details["completed_steps"].([]map[string]any)
	require.True(t, ok)
	assert.Len(t, completed, 1)
}

func TestManager_ReplanOrFail_RejectsInvalidRevisedPlan(t *testing.T) {
	planner := &fakePlanner{steps: nil}
	plans := inmem.NewPlanStore()
	events := eventlog.NewInMemory()
	mgr := NewManager(planner, plans, events, 10, 0)

	plan := basePlan()
	failedStep := plan.Steps[1]
	err := mgr.ReplanOrFail(context.Background(), plan, failedStep, domain.TriggerStepFailed)
	require.Error(t, err)
	var failure *domain.Failure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, domain.KindPlanValidation, failure.Kind)
}
