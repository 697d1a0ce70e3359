package agentgraph

import (
	"context"
	"fmt"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
)

// Coordinator drives a single turn across the graph: it starts in the
// coordinator role and runs model calls, transfers, and tool calls until
// the active agent produces a final text response with no pending tool
// call, or a step budget is exhausted.
type Coordinator struct {
	graph *Graph
}

// TurnResult is the outcome of one Stream call.
type TurnResult struct {
	FinalText string
	Usage     model.Usage
}

// Stream runs the coordinator/specialist loop for one turn, emitting a
// domain.Event for every prompt, LLM response, transfer, and tool call onto
// the returned channel. The channel is closed and the result/error
// delivered once the turn completes; callers should range over events
// before consulting the result.
func (c *Coordinator) Stream(ctx context.Context, trace *domain.TraceContext, taskID string, messages []model.Message) (<-chan domain.Event, <-chan TurnResult, <-chan error) {
	events := make(chan domain.Event, 16)
	results := make(chan TurnResult, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(events)
		defer close(results)
		defer close(errs)

		result, err := c.run(ctx, trace, taskID, messages, events)
		if err != nil {
			errs <- err
			return
		}
		results <- result
	}()

	return events, results, errs
}

func (c *Coordinator) run(ctx context.Context, trace *domain.TraceContext, taskID string, messages []model.Message, events chan<- domain.Event) (TurnResult, error) {
	active := policy.Coordinator
	history := append([]model.Message(nil), messages...)

	for step := 0; step < c.graph.maxTurnSteps; step++ {
		specialist, ok := c.graph.Specialist(active)
		if !ok {
			return TurnResult{}, fmt.Errorf("agentgraph: unknown active agent %q", active)
		}

		prompt := promptText(history)
		now := time.Now().UTC()
		promptEvent := policy.NewPromptEvent(trace, taskID, prompt, now)
		promptEvent.Payload["author"] = active
		events <- promptEvent

		res, err := specialist.Client.Generate(ctx, c.withSystemPrompt(specialist, history), specialist.Tools)
		if err != nil {
			return TurnResult{}, fmt.Errorf("agentgraph: %s generate: %w", active, err)
		}
		respEvent := policy.NewLLMResponseEvent(trace, taskID, responseText(res), time.Now().UTC())
		respEvent.Payload["author"] = active
		respEvent.Payload["is_final"] = !res.IsToolCall()
		events <- respEvent

		if !res.IsToolCall() {
			if active != policy.Coordinator {
				// A specialist replying with plain text instead of
				// transferring back is treated as an implicit handoff:
				// the text becomes a tool result the coordinator reacts
				// to next iteration.
				history = append(history, model.Message{Role: model.RoleAssistant, Content: res.Text})
				history = append(history, model.Message{Role: model.RoleTool, ToolName: TransferToolName, ToolResult: res.Text})
				active = policy.Coordinator
				continue
			}
			return TurnResult{FinalText: res.Text, Usage: res.Usage}, nil
		}

		history = append(history, model.Message{Role: model.RoleAssistant, Content: res.Text})

		call := res.ToolCall
		if call.Name == TransferToolName {
			dest, ok := transferDestination(call.Args)
			if !ok {
				history = append(history, toolResultMessage(call.Name, map[string]any{"status": "blocked", "reason": "transfer_to_agent requires agent_name"}))
				continue
			}
			if failure := policy.CheckTransfer(active, dest, trace); failure != nil {
				history = append(history, toolResultMessage(call.Name, failureResult(failure)))
				continue
			}
			policy.OnTransferSucceeded(trace, dest)
			events <- transferEvent(trace, taskID, active, dest)
			active = dest
			history = append(history, toolResultMessage(call.Name, map[string]any{"status": "transferred", "agent": dest}))
			continue
		}

		events <- toolCallEvent(trace, taskID, active, call.Name, call.Args)

		if failure := policy.CheckToolCall(active, call.Name, call.Args); failure != nil {
			response := failureResult(failure)
			history = append(history, toolResultMessage(call.Name, response))
			events <- toolResponseEvent(trace, taskID, active, call.Name, response)
			continue
		}

		result, toolErr := policy.InstrumentToolCall(ctx, c.graph.tracer, c.graph.metrics, call.Name, func(toolCtx context.Context) (map[string]any, error) {
			return c.graph.executor.Execute(toolCtx, active, call.Name, call.Args)
		})
		if active == policy.Planner {
			policy.OnPlannerToolCall(trace, call.Name)
			if call.Name == "find_relevant_skill" {
				policy.OnFindRelevantSkillResponse(trace, fmt.Sprintf("%v", result))
			}
		}
		if toolErr != nil {
			response := policy.NormalizeToolError(call.Name, toolErr)
			history = append(history, toolResultMessage(call.Name, response))
			events <- toolResponseEvent(trace, taskID, active, call.Name, response)
			continue
		}
		response := policy.WrapToolResult(call.Name, result)
		history = append(history, toolResultMessage(call.Name, response))
		events <- toolResponseEvent(trace, taskID, active, call.Name, response)
	}

	return TurnResult{}, fmt.Errorf("agentgraph: turn exceeded %d steps without a final response", c.graph.maxTurnSteps)
}

// withSystemPrompt prepends the active specialist's system prompt to the
// running history without mutating the caller's slice.
func (c *Coordinator) withSystemPrompt(s Specialist, history []model.Message) []model.Message {
	if s.SystemPrompt == "" {
		return history
	}
	out := make([]model.Message, 0, len(history)+1)
	out = append(out, model.Message{Role: model.RoleSystem, Content: s.SystemPrompt})
	out = append(out, history...)
	return out
}

func toolResultMessage(toolName string, result map[string]any) model.Message {
	return model.Message{Role: model.RoleTool, ToolName: toolName, ToolResult: fmt.Sprintf("%v", result)}
}

func transferEvent(trace *domain.TraceContext, taskID, src, dest string) domain.Event {
	return domain.Event{
		Type:      domain.EventADKEvent,
		TenantID:  trace.TenantID,
		SessionID: trace.SessionID,
		PlanID:    trace.PlanID,
		TaskID:    taskID,
		Payload:   map[string]any{"kind": "transfer", "from": src, "to": dest},
		Timestamp: time.Now().UTC(),
	}
}

func toolCallEvent(trace *domain.TraceContext, taskID, author, name string, args map[string]any) domain.Event {
	return domain.Event{
		Type:      domain.EventADKEvent,
		TenantID:  trace.TenantID,
		SessionID: trace.SessionID,
		PlanID:    trace.PlanID,
		TaskID:    taskID,
		Payload:   map[string]any{"kind": "function_call", "author": author, "name": name, "args": args},
		Timestamp: time.Now().UTC(),
	}
}

func toolResponseEvent(trace *domain.TraceContext, taskID, author, name string, response map[string]any) domain.Event {
	return domain.Event{
		Type:      domain.EventADKEvent,
		TenantID:  trace.TenantID,
		SessionID: trace.SessionID,
		PlanID:    trace.PlanID,
		TaskID:    taskID,
		Payload:   map[string]any{"kind": "function_response", "author": author, "name": name, "response": response},
		Timestamp: time.Now().UTC(),
	}
}

func promptText(history []model.Message) string {
	if len(history) == 0 {
		return ""
	}
	return history[len(history)-1].Content
}

func responseText(res *model.Result) string {
	if res == nil {
		return ""
	}
	if res.IsToolCall() {
		return fmt.Sprintf("tool_call:%s", res.ToolCall.Name)
	}
	return res.Text
}
