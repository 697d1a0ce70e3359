package agentgraph

import (
	"context"
	"testing"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient returns one queued Result per Generate call, in order.
type scriptedClient struct {
	results []*model.Result
	calls   int
}

func (c *scriptedClient) Generate(_ context.Context, _ []model.Message, _ []model.ToolDef) (*model.Result, error) {
	if c.calls >= len(c.results) {
		return &model.Result{Text: "done"}, nil
	}
	r := c.results[c.calls]
	c.calls++
	return r, nil
}

type stubExecutor struct {
	result map[string]any
	err    error
}

func (s stubExecutor) Execute(context.Context, string, string, map[string]any) (map[string]any, error) {
	return s.result, s.err
}

func newTestGraph(t *testing.T, models map[string]*scriptedClient, exec ToolExecutor) *Graph {
	t.Helper()
	specialists := make(map[string]Specialist, len(models))
	for role, c := range models {
		specialists[role] = Specialist{Name: role, Client: c}
	}
	g, err := Build(Config{Specialists: specialists, Executor: exec})
	require.NoError(t, err)
	return g
}

func drain(t *testing.T, events <-chan domain.Event, results <-chan TurnResult, errs <-chan error) (TurnResult, error, []domain.Event) {
	t.Helper()
	var collected []domain.Event
	for ev := range events {
		collected = append(collected, ev)
	}
	select {
	case res := <-results:
		return res, nil, collected
	case err := <-errs:
		return TurnResult{}, err, collected
	}
}

func TestStream_CoordinatorRespondsDirectly(t *testing.T) {
	models := map[string]*scriptedClient{
		policy.Coordinator:  {results: []*model.Result{{Text: "hello there"}}},
		policy.Memory:       {},
		policy.Planner:      {},
		policy.Executor:     {},
		policy.Communicator: {},
	}
	g := newTestGraph(t, models, stubExecutor{})

	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1"}
	events, results, errs := g.Coordinator().Stream(context.Background(), trace, "task-1", []model.Message{{Role: model.RoleUser, Content: "hi"}})
	result, err, collected := drain(t, events, results, errs)

	require.NoError(t, err)
	assert.Equal(t, "hello there", result.FinalText)
	require.Len(t, collected, 2)
	assert.Equal(t, domain.EventADKPrompt, collected[0].Type)
	assert.Equal(t, domain.EventADKLLMResponse, collected[1].Type)
}

func TestStream_TransferToMemoryFromNonCoordinatorIsVetoed(t *testing.T) {
	models := map[string]*scriptedClient{
		policy.Coordinator: {results: []*model.Result{
			{ToolCall: &model.ToolCall{Name: TransferToolName, Args: map[string]any{"agent_name": policy.Planner}}},
		}},
		policy.Memory:  {},
		policy.Planner: {results: []*model.Result{{ToolCall: &model.ToolCall{Name: TransferToolName, Args: map[string]any{"agent_name": policy.Memory}}}}},
		policy.Executor:     {},
		policy.Communicator: {},
	}
	g := newTestGraph(t, models, stubExecutor{})
	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1"}

	events, results, errs := g.Coordinator().Stream(context.Background(), trace, "task-1", []model.Message{{Role: model.RoleUser, Content: "hi"}})
	result, err, _ := drain(t, events, results, errs)

	// The planner's transfer to memory is vetoed (only the coordinator may
	// transfer to memory); the planner's subsequent default reply ends the
	// turn through the implicit-handoff-to-coordinator path.
	require.NoError(t, err)
	assert.Equal(t, "done", result.FinalText)
	assert.False(t, trace.MemoryPrecheckSeen)
}

func TestStream_MemoryToolBlockedOutsideMemoryAgent(t *testing.T) {
	models := map[string]*scriptedClient{
		policy.Coordinator: {results: []*model.Result{
			{ToolCall: &model.ToolCall{Name: "write_memory", Args: map[string]any{"return_spec": map[string]any{}}}},
			{Text: "finished"},
		}},
		policy.Memory:       {},
		policy.Planner:      {},
		policy.Executor:     {},
		policy.Communicator: {},
	}
	g := newTestGraph(t, models, stubExecutor{result: map[string]any{"ok": true}})
	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1"}

	events, results, errs := g.Coordinator().Stream(context.Background(), trace, "task-1", []model.Message{{Role: model.RoleUser, Content: "hi"}})
	result, err, _ := drain(t, events, results, errs)

	require.NoError(t, err)
	assert.Equal(t, "finished", result.FinalText)
}

func TestStream_ToolExecutionErrorIsNormalizedAndFedBack(t *testing.T) {
	models := map[string]*scriptedClient{
		policy.Coordinator: {results: []*model.Result{{Text: "hi"}}},
		policy.Memory: {results: []*model.Result{
			{ToolCall: &model.ToolCall{Name: "write_memory", Args: map[string]any{"return_spec": map[string]any{}}}},
			{ToolCall: &model.ToolCall{Name: TransferToolName, Args: map[string]any{"agent_name": policy.Coordinator}}},
		}},
		policy.Planner:      {},
		policy.Executor:     {},
		policy.Communicator: {},
	}
	coordinator := models[policy.Coordinator]
	coordinator.results = []*model.Result{
		{ToolCall: &model.ToolCall{Name: TransferToolName, Args: map[string]any{"agent_name": policy.Memory}}},
		{Text: "closed out"},
	}
	g := newTestGraph(t, models, stubExecutor{err: assertError("boom")})
	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1", AllowMemory: true}

	events, results, errs := g.Coordinator().Stream(context.Background(), trace, "task-1", []model.Message{{Role: model.RoleUser, Content: "hi"}})
	result, err, _ := drain(t, events, results, errs)

	require.NoError(t, err)
	assert.Equal(t, "closed out", result.FinalText)
	assert.True(t, trace.MemoryPrecheckSeen)
}

type assertError string

func (e assertError) Error() string { return string(e) }
