package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/mcpresolver"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/Shubhamnegi/agent-core/tools"
)

// toolExecutor implements agentgraph.ToolExecutor: it dispatches every
// built-in tool name to the tools package directly and falls through to a
// dialed MCP caller for anything else (planner skill discovery, executor
// skills), dialing each configured endpoint at most once per process.
type toolExecutor struct {
	mcp *mcpresolver.ResolvedConfig

	mu      sync.Mutex
	callers map[string]mcpresolver.Caller
}

func newToolExecutor(mcp *mcpresolver.ResolvedConfig) *toolExecutor {
	return &toolExecutor{mcp: mcp, callers: make(map[string]mcpresolver.Caller)}
}

func (e *toolExecutor) Execute(ctx context.Context, agent, toolName string, args map[string]any) (map[string]any, error) {
	if result, handled := e.callBuiltin(ctx, toolName, args); handled {
		return result, nil
	}
	return e.callMCP(ctx, agent, toolName, args)
}

func (e *toolExecutor) callBuiltin(ctx context.Context, toolName string, args map[string]any) (map[string]any, bool) {
	switch toolName {
	case "write_memory":
		return tools.WriteMemory(ctx, stringArg(args, "key"), mapArg(args, "data"), stringMapArg(args, "return_spec")), true
	case "read_memory":
		return tools.ReadMemory(ctx, stringArg(args, "namespaced_key")), true
	case "save_user_memory":
		return tools.SaveUserMemory(ctx, stringArg(args, "key"), stringArg(args, "memory_json"), stringArg(args, "return_spec_json")), true
	case "save_action_memory":
		return tools.SaveActionMemory(ctx, stringArg(args, "key"), stringArg(args, "memory_json"), stringArg(args, "return_spec_json")), true
	case "search_relevant_memory":
		scope := domain.ScopeSession
		if s, ok := args["scope"].(string); ok && domain.MemoryScope(s) == domain.ScopeUser {
			scope = domain.ScopeUser
		}
		topK := intArg(args, "top_k", 5)
		return tools.SearchRelevantMemory(ctx, stringArg(args, "query"), scope, topK), true
	case "send_slack_message":
		return tools.SendSlackMessage(ctx,
			stringArg(args, "channel"), stringArg(args, "text"), stringArg(args, "blocks_json"),
			stringArg(args, "file_path"), stringArg(args, "file_name"), stringArg(args, "thread_ts")), true
	case "read_slack_messages":
		return tools.ReadSlackMessages(ctx, stringArg(args, "channel"), intArg(args, "limit", 20), boolArg(args, "include_files")), true
	case "send_email":
		return tools.SendEmailSMTP(ctx,
			stringArg(args, "to_emails"), stringArg(args, "subject"), stringArg(args, "body_text"), stringArg(args, "body_html"),
			stringArg(args, "cc_emails"), stringArg(args, "bcc_emails"), stringArg(args, "attachment_paths_json")), true
	case "write_temp":
		return tools.WriteTemp(stringArg(args, "data")), true
	case "read_lines":
		return tools.ReadLines(stringArg(args, "file_id"), intArg(args, "start", 0), intArg(args, "n", 100)), true
	case "cleanup_temp_file":
		return tools.CleanupTempFile(stringArg(args, "file_id")), true
	case "sweep_temp_files":
		return tools.SweepTempFiles(), true
	case "handle_large_response":
		return tools.HandleLargeResponse(ctx, stringArg(args, "response"), stringMapArg(args, "return_spec"), stringArg(args, "extraction_script")), true
	default:
		return nil, false
	}
}

// callMCP routes a tool call not handled built-in to whichever configured
// MCP endpoint advertises it: the planner endpoint for the planner role,
// every non-planner endpoint otherwise.
func (e *toolExecutor) callMCP(ctx context.Context, agent, toolName string, args map[string]any) (map[string]any, error) {
	if e.mcp == nil {
		return map[string]any{"status": "failed", "reason": "mcp_not_configured"}, nil
	}

	var candidates []mcpresolver.ResolvedEndpoint
	if agent == policy.Planner {
		ep, err := e.mcp.PlannerEndpointResolved()
		if err != nil {
			return map[string]any{"status": "failed", "reason": err.Error()}, nil
		}
		candidates = []mcpresolver.ResolvedEndpoint{ep}
	} else {
		candidates = e.mcp.ExecutorEndpoints(nil)
	}

	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("executor: marshal args for %q: %w", toolName, err)
	}

	var lastErr error
	for _, ep := range candidates {
		caller, err := e.caller(ctx, ep)
		if err != nil {
			lastErr = err
			continue
		}
		resp, err := caller.CallTool(ctx, mcpresolver.CallRequest{Tool: toolName, Payload: payload})
		if err != nil {
			lastErr = err
			continue
		}
		return map[string]any{"status": "ok", "result": json.RawMessage(resp.Result), "structured": json.RawMessage(resp.Structured)}, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("executor: no endpoint advertises tool %q", toolName)
	}
	return map[string]any{"status": "failed", "reason": lastErr.Error()}, nil
}

func (e *toolExecutor) caller(ctx context.Context, ep mcpresolver.ResolvedEndpoint) (mcpresolver.Caller, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.callers[ep.Name]; ok {
		return c, nil
	}
	c, err := mcpresolver.Dial(ctx, ep)
	if err != nil {
		return nil, err
	}
	e.callers[ep.Name] = c
	return c, nil
}

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return ""
}

func intArg(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

func mapArg(args map[string]any, key string) map[string]any {
	if v, ok := args[key].(map[string]any); ok {
		return v
	}
	return nil
}

func stringMapArg(args map[string]any, key string) map[string]string {
	raw, ok := args[key].(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
