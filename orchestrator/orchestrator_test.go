package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/Shubhamnegi/agent-core/repo"
)

// singleReplyClient always answers with a fixed text result, regardless of
// the prompt or tools offered; it never emits a tool call.
type singleReplyClient struct {
	text string
}

func (c singleReplyClient) Generate(_ context.Context, _ []model.Message, _ []model.ToolDef) (*model.Result, error) {
	return &model.Result{Text: c.text}, nil
}

type fakeSessions struct {
	existing map[string]*domain.Session
	persisted []*domain.Session
}

func (f *fakeSessions) EnsureExists(_ context.Context, tenantID, userID, sessionID string) (*domain.Session, bool, error) {
	if f.existing == nil {
		f.existing = map[string]*domain.Session{}
	}
	key := tenantID + ":" + userID + ":" + sessionID
	if sess, ok := f.existing[key]; ok {
		return sess, false, nil
	}
	sess := &domain.Session{TenantID: tenantID, UserID: userID, SessionID: sessionID}
	f.existing[key] = sess
	return sess, true, nil
}

func (f *fakeSessions) Persist(_ context.Context, sess *domain.Session) error {
	f.persisted = append(f.persisted, sess)
	return nil
}

type fakeEvents struct {
	appended []domain.Event
}

func (f *fakeEvents) Append(_ context.Context, events ...domain.Event) error {
	f.appended = append(f.appended, events...)
	return nil
}

func (f *fakeEvents) ByPlan(_ context.Context, _ string) ([]domain.Event, error) { return nil, nil }
func (f *fakeEvents) Retain(_ context.Context, _ int) (int, error)              { return 0, nil }

func newTestOrchestrator(t *testing.T, coordinatorText string) (*Orchestrator, *fakeSessions, *fakeEvents) {
	t.Helper()
	graph, err := agentgraph.Build(agentgraph.Config{
		Specialists: map[string]agentgraph.Specialist{
			policy.Coordinator:  {Name: policy.Coordinator, Client: singleReplyClient{text: coordinatorText}},
			policy.Planner:      {Name: policy.Planner, Client: singleReplyClient{text: "planning"}},
			policy.Executor:     {Name: policy.Executor, Client: singleReplyClient{text: "executing"}},
			policy.Memory:       {Name: policy.Memory, Client: singleReplyClient{text: "recalling"}},
			policy.Communicator: {Name: policy.Communicator, Client: singleReplyClient{text: "notifying"}},
		},
		Executor: noopExecutor{},
	})
	require.NoError(t, err)

	sessions := &fakeSessions{}
	events := &fakeEvents{}
	return &Orchestrator{
		Graph:    graph,
		Sessions: sessions,
		Events:   events,
	}, sessions, events
}

type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _, _ string, _ map[string]any) (map[string]any, error) {
	return map[string]any{"status": "ok"}, nil
}

func TestRun_ReturnsCoordinatorFinalResponseAndPersistsSession(t *testing.T) {
	orch, sessions, events := newTestOrchestrator(t, "here is your summary")

	result, err := orch.Run(context.Background(), RunRequest{
		TenantID: "tenant-1", UserID: "user-1", SessionID: "session-1", Message: "what's my balance?",
	})
	require.NoError(t, err)
	assert.Equal(t, "complete", result.Status)
	assert.Contains(t, result.Response, "here is your summary")
	assert.NotEmpty(t, result.PlanID)

	require.Len(t, sessions.persisted, 1)
	assert.Equal(t, "session-1", sessions.persisted[0].SessionID)
	assert.NotEmpty(t, events.appended)
}

func TestRun_SecondTurnOnSameSessionIsNotFirstTurn(t *testing.T) {
	orch, sessions, _ := newTestOrchestrator(t, "ok")
	ctx := context.Background()

	_, err := orch.Run(ctx, RunRequest{TenantID: "t", UserID: "u", SessionID: "s", Message: "hi"})
	require.NoError(t, err)
	_, err = orch.Run(ctx, RunRequest{TenantID: "t", UserID: "u", SessionID: "s", Message: "hi again"})
	require.NoError(t, err)

	assert.Len(t, sessions.persisted, 2)
}

var _ repo.SessionRepository = (*fakeSessions)(nil)
var _ repo.EventRepository = (*fakeEvents)(nil)
