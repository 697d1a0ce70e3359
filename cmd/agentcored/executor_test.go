package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/memorystore/lock"
	"github.com/Shubhamnegi/agent-core/reqctx"
)

func newExecutorTestContext(t *testing.T) context.Context {
	t.Helper()
	store, err := memorystore.New(memorystore.Options{
		Backend: memorystore.NewInMemoryBackend(),
		Locker:  lock.NewInMemory(time.Second),
	})
	require.NoError(t, err)
	rt := &reqctx.ToolRuntime{TenantID: "t1", UserID: "u1", SessionID: "s1", PlanID: "plan-1", MemoryRepo: store}
	return reqctx.WithToolRuntime(context.Background(), rt)
}

func TestCallBuiltin_WriteMemoryThenReadMemoryRoundTrips(t *testing.T) {
	ctx := newExecutorTestContext(t)
	e := newToolExecutor(nil)

	writeResult, handled := e.callBuiltin(ctx, "write_memory", map[string]any{
		"key":         "notes",
		"data":        map[string]any{"summary": "ok"},
		"return_spec": map[string]any{"summary": "string"},
	})
	require.True(t, handled)
	require.Equal(t, "ok", writeResult["status"])
	namespacedKey, ok := writeResult["namespaced_key"].(string)
	require.True(t, ok)

	readResult, handled := e.callBuiltin(ctx, "read_memory", map[string]any{"namespaced_key": namespacedKey})
	require.True(t, handled)
	assert.Equal(t, "ok", readResult["status"])
}

func TestCallBuiltin_SearchRelevantMemoryDefaultsToSessionScope(t *testing.T) {
	ctx := newExecutorTestContext(t)
	e := newToolExecutor(nil)

	result, handled := e.callBuiltin(ctx, "search_relevant_memory", map[string]any{"query": "anything"})
	require.True(t, handled)
	assert.Equal(t, "ok", result["status"])
}

func TestCallBuiltin_WriteTempReadLinesCleanupTempFileRoundTrip(t *testing.T) {
	e := newToolExecutor(nil)
	ctx := context.Background()

	writeResult, handled := e.callBuiltin(ctx, "write_temp", map[string]any{"data": "line one\nline two\n"})
	require.True(t, handled)
	fileID, ok := writeResult["file_id"].(string)
	require.True(t, ok)
	require.NotEmpty(t, fileID)

	readResult, handled := e.callBuiltin(ctx, "read_lines", map[string]any{"file_id": fileID, "start": 0, "n": 10})
	require.True(t, handled)
	assert.Contains(t, readResult, "lines")

	cleanupResult, handled := e.callBuiltin(ctx, "cleanup_temp_file", map[string]any{"file_id": fileID})
	require.True(t, handled)
	assert.Equal(t, true, cleanupResult["removed"])
}

func TestCallBuiltin_SweepTempFiles(t *testing.T) {
	e := newToolExecutor(nil)
	result, handled := e.callBuiltin(context.Background(), "sweep_temp_files", nil)
	require.True(t, handled)
	assert.Contains(t, result, "removed")
}

func TestCallBuiltin_SendSlackMessageNotConfiguredWithoutRuntime(t *testing.T) {
	e := newToolExecutor(nil)
	result, handled := e.callBuiltin(context.Background(), "send_slack_message", map[string]any{
		"channel": "#general",
		"text":    "hello",
	})
	require.True(t, handled)
	assert.Equal(t, "not_configured", result["status"])
}

func TestCallBuiltin_SendEmailNotConfiguredWithoutRuntime(t *testing.T) {
	e := newToolExecutor(nil)
	result, handled := e.callBuiltin(context.Background(), "send_email", map[string]any{
		"to_emails": "a@example.com",
		"subject":   "hi",
	})
	require.True(t, handled)
	assert.Equal(t, "not_configured", result["status"])
}

func TestCallBuiltin_UnknownToolNameIsNotHandled(t *testing.T) {
	e := newToolExecutor(nil)
	result, handled := e.callBuiltin(context.Background(), "some_unregistered_tool", nil)
	assert.False(t, handled)
	assert.Nil(t, result)
}

func TestExecute_FallsThroughToMCPWhenMCPNotConfigured(t *testing.T) {
	e := newToolExecutor(nil)
	result, err := e.Execute(context.Background(), "planner", "discover_skills", nil)
	require.NoError(t, err)
	assert.Equal(t, "failed", result["status"])
	assert.Equal(t, "mcp_not_configured", result["reason"])
}

func TestStringArg_ReturnsEmptyForMissingOrWrongType(t *testing.T) {
	assert.Equal(t, "", stringArg(map[string]any{}, "key"))
	assert.Equal(t, "", stringArg(map[string]any{"key": 5}, "key"))
	assert.Equal(t, "value", stringArg(map[string]any{"key": "value"}, "key"))
}

func TestIntArg_HandlesIntFloatAndDefault(t *testing.T) {
	assert.Equal(t, 5, intArg(map[string]any{"key": 5}, "key", 1))
	assert.Equal(t, 7, intArg(map[string]any{"key": float64(7)}, "key", 1))
	assert.Equal(t, 1, intArg(map[string]any{}, "key", 1))
}

func TestBoolArg_FalseWhenMissingOrWrongType(t *testing.T) {
	assert.False(t, boolArg(map[string]any{}, "key"))
	assert.False(t, boolArg(map[string]any{"key": "true"}, "key"))
	assert.True(t, boolArg(map[string]any{"key": true}, "key"))
}

func TestMapArg_NilWhenMissingOrWrongType(t *testing.T) {
	assert.Nil(t, mapArg(map[string]any{}, "key"))
	inner := map[string]any{"a": 1}
	assert.Equal(t, inner, mapArg(map[string]any{"key": inner}, "key"))
}

func TestStringMapArg_DropsNonStringValuesAndHandlesMissing(t *testing.T) {
	assert.Nil(t, stringMapArg(map[string]any{}, "key"))
	raw := map[string]any{"a": "string", "b": 5}
	out := stringMapArg(map[string]any{"key": raw}, "key")
	assert.Equal(t, map[string]string{"a": "string"}, out)
}

func TestIsOpenAIModelName_MatchesKnownPrefixes(t *testing.T) {
	assert.True(t, isOpenAIModelName("gpt-4o"))
	assert.True(t, isOpenAIModelName("o1-preview"))
	assert.True(t, isOpenAIModelName("o3-mini"))
	assert.True(t, isOpenAIModelName("o4-mini"))
	assert.False(t, isOpenAIModelName("claude-3-5-sonnet-latest"))
	assert.False(t, isOpenAIModelName(""))
}
