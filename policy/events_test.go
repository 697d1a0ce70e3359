package policy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPromptEvent_CarriesTraceIdentity(t *testing.T) {
	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1", PlanID: "p1"}
	now := time.Unix(0, 0)
	evt := NewPromptEvent(trace, "task-1", "do the thing", now)

	assert.Equal(t, domain.EventADKPrompt, evt.Type)
	assert.Equal(t, "t1", evt.TenantID)
	assert.Equal(t, "s1", evt.SessionID)
	assert.Equal(t, "p1", evt.PlanID)
	assert.Equal(t, "task-1", evt.TaskID)
	assert.Equal(t, "do the thing", evt.Payload["prompt"])
}

func TestNewLLMResponseEvent_CarriesTraceIdentity(t *testing.T) {
	trace := &domain.TraceContext{TenantID: "t1", SessionID: "s1", PlanID: "p1"}
	evt := NewLLMResponseEvent(trace, "task-1", "the answer", time.Unix(0, 0))

	assert.Equal(t, domain.EventADKLLMResponse, evt.Type)
	assert.Equal(t, "the answer", evt.Payload["response"])
}

func TestInstrumentToolCall_ReturnsResultOnSuccess(t *testing.T) {
	result, err := InstrumentToolCall(context.Background(), telemetry.NoopTracer{}, telemetry.NoopMetrics{}, "read_memory",
		func(ctx context.Context) (map[string]any, error) {
			return map[string]any{"status": "ok"}, nil
		})

	require.NoError(t, err)
	assert.Equal(t, "ok", result["status"])
}

func TestInstrumentToolCall_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := InstrumentToolCall(context.Background(), telemetry.NoopTracer{}, telemetry.NoopMetrics{}, "exec_python",
		func(ctx context.Context) (map[string]any, error) {
			return nil, boom
		})

	assert.ErrorIs(t, err, boom)
}
