// Package model defines the single opaque LLM capability the orchestration
// engine depends on: generate(prompt, tools) -> (text |
// tool_call). Three concrete backends are provided in model/anthropic,
// model/openai and model/bedrock; cmd/agentcored picks an anthropic or
// openai client per sub-agent role from agent_models.json and hands them to
// agentgraph.
package model

import "context"

// Role is the conversation-turn vocabulary the orchestrator actually needs:
// system priming, user turns, assistant replies, and tool results fed back
// for the next turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn in the conversation passed to Generate.
type Message struct {
	Role    Role
	Content string
	// ToolName/ToolResult are set when Role == RoleTool, carrying a prior
	// tool call's result back to the model.
	ToolName   string
	ToolResult string
}

// ToolDef describes one tool the model may call, matching the
// policy.ToolMetadata vocabulary used for the allowlist.
type ToolDef struct {
	Name        string
	Description string
	Schema      map[string]any
}

// ToolCall is the model's request to invoke a tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

// Result is exactly one of Text (final or intermediate natural-language
// output) or ToolCall (a request to invoke a tool) — the "(text | tool_call)"
// union.
type Result struct {
	Text     string
	ToolCall *ToolCall
	// Usage carries provider-reported token counts, when available, for
	// telemetry; it is not part of the orchestration contract.
	Usage Usage
}

// Usage captures token accounting reported by the provider, if any.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// IsToolCall reports whether the result is a tool call rather than text.
func (r *Result) IsToolCall() bool { return r != nil && r.ToolCall != nil }

// Client is the provider-agnostic capability: given a prompt (the message
// history) and the set of tools available this turn, return either text or
// a tool call.
type Client interface {
	Generate(ctx context.Context, messages []Message, tools []ToolDef) (*Result, error)
}
