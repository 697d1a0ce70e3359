// Package reqctx carries the per-request, per-task runtime context tool
// adapters need (tenant/session identity, the memory port, the embedder,
// communication config) through a plain context.Context value, using the
// same context-key idiom as WithWorkflowContext/WorkflowContextFromContext.
package reqctx

import (
	"context"

	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/repo"
)

type toolRuntimeCtxKey struct{}

// ToolRuntime is the tool-facing view of an in-flight step: who it's
// running for and which ports it may call through.
type ToolRuntime struct {
	TenantID                string
	UserID                  string
	SessionID               string
	PlanID                  string
	TaskID                  string
	MemoryRepo              repo.MemoryRepository
	Embedder                memorystore.Embedder
	CommunicationConfigPath string
}

// WithToolRuntime returns a child context carrying rt. Orchestrator.Run
// calls this once per request before streaming the turn; tool adapters
// recover it with FromContext.
func WithToolRuntime(ctx context.Context, rt *ToolRuntime) context.Context {
	return context.WithValue(ctx, toolRuntimeCtxKey{}, rt)
}

// FromContext extracts the ToolRuntime bound to ctx, or nil if none was
// bound. Tool adapters must treat a nil result as "not configured" rather
// than panicking, mirroring the original's context is None guard.
func FromContext(ctx context.Context) *ToolRuntime {
	v := ctx.Value(toolRuntimeCtxKey{})
	if v == nil {
		return nil
	}
	rt, ok := v.(*ToolRuntime)
	if !ok {
		return nil
	}
	return rt
}

// Release clears rt's fields so a held pointer can no longer be used to
// reach the memory repository, embedder, or request identity after the
// request that created it has ended. The context it was bound to is
// already gone once the request's handler returns; Release exists so the
// "destroyed at request end" invariant is independently verifiable (e.g.
// in tests) instead of depending on garbage collection timing.
func Release(rt *ToolRuntime) {
	if rt == nil {
		return
	}
	*rt = ToolRuntime{}
}
