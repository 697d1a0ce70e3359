// Package tools implements the model-facing tool adapters a specialist's
// model can call mid-step: memory read/write/search, sandboxed extraction
// of oversized tool output, and outbound communication. Each adapter
// resolves its dependencies from the reqctx.ToolRuntime bound to its
// context rather than taking them as constructor arguments, mirroring the
// original's get_tool_runtime_context() lookup at the top of every tool
// function.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/reqctx"
	"github.com/google/uuid"
)

// notConfigured is the shape every adapter returns when no reqctx.ToolRuntime
// or no memory port was bound for this call, mirroring write_memory's
// {"status": "not_configured", "reason": "memory_repository_not_configured"}.
func notConfigured(key string) map[string]any {
	return map[string]any{
		"status": "not_configured",
		"reason": "memory_repository_not_configured",
		"key":    key,
	}
}

// newTaskID derives a task id scoped to planID, mirroring _new_task_id's
// f"{plan_id}:{uuid4().hex[:8]}".
func newTaskID(planID string) string {
	return fmt.Sprintf("%s:%s", planID, uuid.NewString()[:8])
}

// WriteMemory persists session-scoped structured data under key, validated
// against returnSpec, grounded on write_memory.
func WriteMemory(ctx context.Context, key string, data map[string]any, returnSpec map[string]string) map[string]any {
	rt := reqctx.FromContext(ctx)
	if rt == nil || rt.MemoryRepo == nil {
		return notConfigured(key)
	}

	namespacedKey, err := rt.MemoryRepo.Write(ctx, domain.MemoryWriteRequest{
		TenantID:   rt.TenantID,
		SessionID:  rt.SessionID,
		TaskID:     newTaskID(rt.PlanID),
		Label:      key,
		Value:      data,
		ReturnSpec: returnSpec,
		Scope:      domain.ScopeSession,
	})
	if err != nil {
		return toolFailure(err, key)
	}
	return map[string]any{
		"status":         "ok",
		"namespaced_key": namespacedKey,
		"scope":          string(domain.ScopeSession),
		"data":           data,
	}
}

// ReadMemory reads a previously written record by its full namespaced key,
// grounded on read_memory.
func ReadMemory(ctx context.Context, namespacedKey string) map[string]any {
	rt := reqctx.FromContext(ctx)
	if rt == nil || rt.MemoryRepo == nil {
		return notConfigured(namespacedKey)
	}

	record, err := rt.MemoryRepo.Read(ctx, namespacedKey, false)
	if err != nil {
		return toolFailure(err, namespacedKey)
	}
	if record == nil {
		return map[string]any{"status": "not_found", "key": namespacedKey, "data": nil}
	}
	return map[string]any{"status": "ok", "key": namespacedKey, "data": record.Value}
}

// SaveUserMemory parses memoryJSON as a JSON object and persists it as
// durable cross-session user memory, skipping the write if an
// exact-fingerprint duplicate already exists, grounded on
// save_user_memory.
func SaveUserMemory(ctx context.Context, key, memoryJSON, returnSpecJSON string) map[string]any {
	return saveScopedMemory(ctx, key, memoryJSON, returnSpecJSON, domain.ScopeUser, "user_memory")
}

// SaveActionMemory is SaveUserMemory's session-scoped counterpart,
// grounded on save_action_memory.
func SaveActionMemory(ctx context.Context, key, memoryJSON, returnSpecJSON string) map[string]any {
	return saveScopedMemory(ctx, key, memoryJSON, returnSpecJSON, domain.ScopeSession, "action_memory")
}

func saveScopedMemory(ctx context.Context, key, memoryJSON, returnSpecJSON string, scope domain.MemoryScope, memoryType string) map[string]any {
	rt := reqctx.FromContext(ctx)
	if rt == nil || rt.MemoryRepo == nil {
		return notConfigured(key)
	}

	parsedMemory, ok := parseJSONObject(memoryJSON)
	if !ok {
		return map[string]any{"status": "failed", "reason": "invalid_memory_json", "key": key}
	}

	effectiveSpec := memorystore.DeriveReturnSpec(parsedMemory)
	if returnSpecJSON != "" {
		if parsedSpec, ok := parseJSONStringMap(returnSpecJSON); ok {
			effectiveSpec = parsedSpec
		}
	}

	if store, ok := rt.MemoryRepo.(interface {
		FindDuplicate(ctx context.Context, tenantID, userID, sessionID string, parsedMemory map[string]any, scope domain.MemoryScope) string
	}); ok {
		if duplicate := store.FindDuplicate(ctx, rt.TenantID, rt.UserID, rt.SessionID, parsedMemory, scope); duplicate != "" {
			return map[string]any{
				"status":         "duplicate_skipped",
				"memory_type":    memoryType,
				"scope":          string(scope),
				"namespaced_key": duplicate,
				"reason":         "similar_memory_exists",
			}
		}
	}

	namespacedKey, err := rt.MemoryRepo.Write(ctx, domain.MemoryWriteRequest{
		TenantID:   rt.TenantID,
		SessionID:  rt.SessionID,
		TaskID:     newTaskID(rt.PlanID),
		Label:      key,
		Value:      parsedMemory,
		ReturnSpec: effectiveSpec,
		Scope:      scope,
	})
	if err != nil {
		return toolFailure(err, key)
	}
	return map[string]any{
		"status":         "ok",
		"memory_type":    memoryType,
		"scope":          string(scope),
		"namespaced_key": namespacedKey,
	}
}

// SearchRelevantMemory runs a top-k query over stored memory, grounded on
// search_relevant_memory.
func SearchRelevantMemory(ctx context.Context, query string, scope domain.MemoryScope, topK int) map[string]any {
	rt := reqctx.FromContext(ctx)
	if rt == nil || rt.MemoryRepo == nil {
		return map[string]any{
			"status":  "not_configured",
			"reason":  "memory_repository_not_configured",
			"query":   query,
			"results": []domain.MemoryRecord{},
		}
	}

	results, err := rt.MemoryRepo.Search(ctx, rt.TenantID, rt.UserID, rt.SessionID, query, scope, topK)
	if err != nil {
		return toolFailure(err, query)
	}
	return map[string]any{
		"status":  "ok",
		"query":   query,
		"scope":   string(scope),
		"results": results,
		"count":   len(results),
	}
}

func toolFailure(err error, key string) map[string]any {
	if failure, ok := err.(*domain.Failure); ok {
		return map[string]any{
			"status": "failed",
			"reason": failure.Reason,
			"code":   failure.Code,
			"key":    key,
		}
	}
	return map[string]any{"status": "failed", "reason": err.Error(), "key": key}
}

func parseJSONObject(raw string) (map[string]any, bool) {
	if raw == "" {
		return nil, false
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

func parseJSONStringMap(raw string) (map[string]string, bool) {
	if raw == "" {
		return nil, false
	}
	var parsed map[string]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}
