package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/orchestrator"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/Shubhamnegi/agent-core/repo"
)

var (
	_ repo.SessionRepository = (*fakeSessions)(nil)
	_ repo.EventRepository   = (*fakeEvents)(nil)
	_ repo.PlanRepository    = (*fakePlans)(nil)
	_ repo.SoulRepository    = (*fakeSouls)(nil)
)

type fixedClient struct{ text string }

func (c fixedClient) Generate(_ context.Context, _ []model.Message, _ []model.ToolDef) (*model.Result, error) {
	return &model.Result{Text: c.text}, nil
}

type noopExecutor struct{}

func (noopExecutor) Execute(_ context.Context, _, _ string, _ map[string]any) (map[string]any, error) {
	return map[string]any{"status": "ok"}, nil
}

type fakeSessions struct{ existing map[string]*domain.Session }

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
func (f *fakeSessions) Persist(_ context.Context, _ *domain.Session) error { return nil }

type fakeEvents struct {
	byPlan map[string][]domain.Event
}

func (f *fakeEvents) Append(_ context.Context, events ...domain.Event) error {
	if f.byPlan == nil {
		f.byPlan = map[string][]domain.Event{}
	}
	for _, ev := range events {
		f.byPlan[ev.PlanID] = append(f.byPlan[ev.PlanID], ev)
	}
	return nil
}
func (f *fakeEvents) ByPlan(_ context.Context, planID string) ([]domain.Event, error) {
	return f.byPlan[planID], nil
}
func (f *fakeEvents) Retain(_ context.Context, _ int) (int, error) { return 0, nil }

type fakePlans struct {
	plans map[string]*domain.Plan
}

func (f *fakePlans) Save(_ context.Context, plan *domain.Plan) error {
	if f.plans == nil {
		f.plans = map[string]*domain.Plan{}
	}
	f.plans[plan.PlanID] = plan
	return nil
}
func (f *fakePlans) Load(_ context.Context, planID string) (*domain.Plan, error) {
	return f.plans[planID], nil
}

type fakeSouls struct{ souls map[string]*domain.Soul }

func (f *fakeSouls) Upsert(_ context.Context, soul *domain.Soul) error {
	if f.souls == nil {
		f.souls = map[string]*domain.Soul{}
	}
	f.souls[soul.TenantID] = soul
	return nil
}
func (f *fakeSouls) Get(_ context.Context, tenantID string) (*domain.Soul, error) {
	return f.souls[tenantID], nil
}

func newTestServer(t *testing.T) (*Server, *fakeEvents, *fakePlans) {
	t.Helper()
	graph, err := agentgraph.Build(agentgraph.Config{
		Specialists: map[string]agentgraph.Specialist{
			policy.Coordinator:  {Name: policy.Coordinator, Client: fixedClient{text: "all set"}},
			policy.Planner:      {Name: policy.Planner, Client: fixedClient{text: "planning"}},
			policy.Executor:     {Name: policy.Executor, Client: fixedClient{text: "executing"}},
			policy.Memory:       {Name: policy.Memory, Client: fixedClient{text: "recalling"}},
			policy.Communicator: {Name: policy.Communicator, Client: fixedClient{text: "notifying"}},
		},
		Executor: noopExecutor{},
	})
	require.NoError(t, err)

	events := &fakeEvents{}
	plans := &fakePlans{}
	orch := &orchestrator.Orchestrator{
		Graph:    graph,
		Sessions: &fakeSessions{},
		Events:   events,
	}
	return &Server{Orchestrator: orch, Plans: plans, Events: events, Souls: &fakeSouls{}}, events, plans
}

func TestHandleRun_ReturnsCompleteResponse(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{
		"tenant_id": "t1", "user_id": "u1", "session_id": "s1", "message": "hello",
	})
	req := httptest.NewRequest(http.MethodPost, "/agent/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.NewMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out orchestrator.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "complete", out.Status)
	assert.Contains(t, out.Response, "all set")
	assert.NotEmpty(t, out.PlanID)
}

func TestHandleRun_MissingFieldReturnsBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"tenant_id": "t1"})
	req := httptest.NewRequest(http.MethodPost, "/agent/run", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.NewMux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGetPlan_NotFoundReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/agent/plans/plan_adk_missing", nil)
	rec := httptest.NewRecorder()

	srv.NewMux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleGetPlan_ReturnsStoredPlan(t *testing.T) {
	srv, _, plans := newTestServer(t)
	plans.Save(context.Background(), &domain.Plan{PlanID: "plan_adk_1", TenantID: "t1"})

	req := httptest.NewRequest(http.MethodGet, "/agent/plans/plan_adk_1", nil)
	rec := httptest.NewRecorder()
	srv.NewMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var plan domain.Plan
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &plan))
	assert.Equal(t, "plan_adk_1", plan.PlanID)
}

func TestHandleGetTrace_ReturnsAppendedEvents(t *testing.T) {
	srv, events, _ := newTestServer(t)
	events.Append(context.Background(), domain.Event{Type: domain.EventADKPrompt, PlanID: "plan_adk_2"})

	req := httptest.NewRequest(http.MethodGet, "/agent/plans/plan_adk_2/trace", nil)
	rec := httptest.NewRecorder()
	srv.NewMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "plan_adk_2", out["plan_id"])
}

func TestHandlePutSoul_UpsertsAndReturnsSoul(t *testing.T) {
	srv, _, _ := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"persona": "friendly and concise"})
	req := httptest.NewRequest(http.MethodPut, "/agent/souls/tenant-7", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	srv.NewMux().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var soul domain.Soul
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &soul))
	assert.Equal(t, "tenant-7", soul.TenantID)
	assert.Equal(t, "friendly and concise", soul.Persona)
}

func TestHandleQueryMemory_MissingQueryReturnsBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/agent/memory/query?tenant_id=t1", nil)
	rec := httptest.NewRecorder()

	srv.NewMux().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
