package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextPendingStepIndex(t *testing.T) {
	p := &Plan{Steps: []PlanStep{
		{StepIndex: 1, Status: StepComplete},
		{StepIndex: 2, Status: StepRunning},
		{StepIndex: 3, Status: StepPending},
	}}
	assert.Equal(t, 1, p.NextPendingStepIndex())

	p.Steps[1].Status = StepComplete
	p.Steps[2].Status = StepComplete
	assert.Equal(t, 3, p.NextPendingStepIndex())
}

func TestCheckInvariants_ReplanCountMismatch(t *testing.T) {
	p := &Plan{ReplanCount: 2, ReplanHistory: nil}
	err := p.CheckInvariants()
	require.Error(t, err)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, KindPlanValidation, f.Kind)
}

func TestCheckInvariants_CompleteRequiresCompletedAtAndStep(t *testing.T) {
	p := &Plan{Status: PlanComplete, Steps: []PlanStep{{StepIndex: 1, Status: StepRunning}}}
	err := p.CheckInvariants()
	require.Error(t, err)

	now := time.Now()
	p.CompletedAt = &now
	err = p.CheckInvariants()
	require.Error(t, err, "still no complete step")

	p.Steps[0].Status = StepComplete
	assert.NoError(t, p.CheckInvariants())
}

func TestCheckInvariants_ReplanExceedsMax(t *testing.T) {
	p := &Plan{MaxReplans: 1, ReplanCount: 2, ReplanHistory: []ReplanEvent{{}, {}}}
	err := p.CheckInvariants()
	require.Error(t, err)
	var f *Failure
	require.ErrorAs(t, err, &f)
	assert.Equal(t, KindReplanLimitReached, f.Kind)
}

func TestValidateLabel(t *testing.T) {
	assert.NoError(t, ValidateLabel("aws_cost_pref"))
	assert.Error(t, ValidateLabel("bad:label"))
}

func TestNamespacedKey(t *testing.T) {
	assert.Equal(t, "t1:s1:task1:pref", NamespacedKey("t1", "s1", "task1", "pref"))
}
