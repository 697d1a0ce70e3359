package inmem

import (
	"context"
	"testing"

	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartWorkflow_ExecutesActivityAndReturnsResult(t *testing.T) {
	eng := New()
	ctx := context.Background()

	err := eng.RegisterActivity(ctx, engine.ActivityDefinition{
		Name: "double",
		Handler: func(_ context.Context, input any) (any, error) {
			n := input.(int)
			return n * 2, nil
		},
	})
	require.NoError(t, err)

	err = eng.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "doubler",
		Handler: func(wctx engine.WorkflowContext, input any) (any, error) {
			var out int
			if err := wctx.ExecuteActivity(wctx.Context(), engine.ActivityRequest{Name: "double", Input: input}, &out); err != nil {
				return nil, err
			}
			return out, nil
		},
	})
	require.NoError(t, err)

	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "run-1", Workflow: "doubler", Input: 21})
	require.NoError(t, err)

	var result int
	require.NoError(t, handle.Wait(ctx, &result))
	assert.Equal(t, 42, result)
}

func TestStartWorkflow_UnregisteredWorkflowFails(t *testing.T) {
	eng := New()
	_, err := eng.StartWorkflow(context.Background(), engine.WorkflowStartRequest{Workflow: "missing"})
	assert.Error(t, err)
}

func TestExecuteActivity_UnregisteredActivityFails(t *testing.T) {
	eng := New()
	ctx := context.Background()

	err := eng.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "calls_missing",
		Handler: func(wctx engine.WorkflowContext, _ any) (any, error) {
			return nil, wctx.ExecuteActivity(wctx.Context(), engine.ActivityRequest{Name: "missing"}, nil)
		},
	})
	require.NoError(t, err)

	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "run-1", Workflow: "calls_missing"})
	require.NoError(t, err)
	assert.Error(t, handle.Wait(ctx, nil))
}

func TestRegisterWorkflow_RejectsDuplicateName(t *testing.T) {
	eng := New()
	ctx := context.Background()
	def := engine.WorkflowDefinition{Name: "dup", Handler: func(engine.WorkflowContext, any) (any, error) { return nil, nil }}

	require.NoError(t, eng.RegisterWorkflow(ctx, def))
	assert.Error(t, eng.RegisterWorkflow(ctx, def))
}

func TestRegisterActivity_RejectsInvalidDefinition(t *testing.T) {
	eng := New()
	err := eng.RegisterActivity(context.Background(), engine.ActivityDefinition{})
	assert.Error(t, err)
}

func TestWorkflowHandle_WaitHonorsContextCancellation(t *testing.T) {
	eng := New()
	ctx := context.Background()
	started := make(chan struct{})
	block := make(chan struct{})

	err := eng.RegisterWorkflow(ctx, engine.WorkflowDefinition{
		Name: "blocks",
		Handler: func(wctx engine.WorkflowContext, _ any) (any, error) {
			close(started)
			<-block
			return nil, nil
		},
	})
	require.NoError(t, err)

	handle, err := eng.StartWorkflow(ctx, engine.WorkflowStartRequest{ID: "run-1", Workflow: "blocks"})
	require.NoError(t, err)

	<-started
	waitCtx, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, handle.Wait(waitCtx, nil), context.Canceled)
	close(block)
}
