package tools

import (
	"context"
	"testing"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/memorystore/lock"
	"github.com/Shubhamnegi/agent-core/reqctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRuntime(t *testing.T) (context.Context, *reqctx.ToolRuntime) {
	t.Helper()
	store, err := memorystore.New(memorystore.Options{
		Backend: memorystore.NewInMemoryBackend(),
		Locker:  lock.NewInMemory(time.Second),
	})
	require.NoError(t, err)

	rt := &reqctx.ToolRuntime{TenantID: "t1", UserID: "u1", SessionID: "s1", PlanID: "plan-1", MemoryRepo: store}
	return reqctx.WithToolRuntime(context.Background(), rt), rt
}

func TestWriteMemory_NotConfiguredWithoutRuntime(t *testing.T) {
	result := WriteMemory(context.Background(), "k", map[string]any{"a": 1}, map[string]string{"a": "integer"})
	assert.Equal(t, "not_configured", result["status"])
}

func TestWriteMemory_WritesAndReadMemoryRoundTrips(t *testing.T) {
	ctx, _ := newTestRuntime(t)

	result := WriteMemory(ctx, "notes", map[string]any{"summary": "ok"}, map[string]string{"summary": "string"})
	require.Equal(t, "ok", result["status"])
	namespacedKey := result["namespaced_key"].(string)

	read := ReadMemory(ctx, namespacedKey)
	assert.Equal(t, "ok", read["status"])
	assert.Equal(t, "ok", read["data"].(map[string]any)["summary"])
}

func TestSaveUserMemory_RejectsInvalidJSON(t *testing.T) {
	ctx, _ := newTestRuntime(t)
	result := SaveUserMemory(ctx, "prefs", "{not json", "")
	assert.Equal(t, "failed", result["status"])
	assert.Equal(t, "invalid_memory_json", result["reason"])
}

func TestSaveUserMemory_SkipsExactDuplicate(t *testing.T) {
	ctx, _ := newTestRuntime(t)

	first := SaveUserMemory(ctx, "prefs", `{"memory_text": "likes dark mode"}`, "")
	require.Equal(t, "ok", first["status"])

	second := SaveUserMemory(ctx, "prefs-2", `{"memory_text": "likes dark mode"}`, "")
	assert.Equal(t, "duplicate_skipped", second["status"])
}

func TestSearchRelevantMemory_FindsWrittenRecord(t *testing.T) {
	ctx, _ := newTestRuntime(t)
	WriteMemory(ctx, "topic", map[string]any{"memory_text": "deploy pipeline notes"}, nil)

	result := SearchRelevantMemory(ctx, "deploy pipeline", domain.ScopeSession, 5)
	assert.Equal(t, "ok", result["status"])
	assert.GreaterOrEqual(t, result["count"], 1)
}
