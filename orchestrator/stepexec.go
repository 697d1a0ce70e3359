package orchestrator

import (
	"context"
	"fmt"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
)

// stepExecutionResult is the outcome of running one domain.PlanStep against
// the executor specialist: either a tool result (status "ok"), a plain-text
// reply with nothing to validate (status "insufficient"), or a dispatch/tool
// error (status "failed").
type stepExecutionResult struct {
	Status string
	Data   map[string]any
	Reason string
}

// stepExecutor runs a single plan step directly against the executor
// specialist and its tool dispatcher, bypassing the coordinator's transfer
// loop: by the time a step reaches execution, the planner has already
// chosen its skills, so there is nothing left to transfer through.
type stepExecutor struct {
	graph *agentgraph.Graph
}

func (e *stepExecutor) executeStep(ctx context.Context, step domain.PlanStep) stepExecutionResult {
	specialist, ok := e.graph.Specialist(policy.Executor)
	if !ok {
		return stepExecutionResult{Status: "failed", Reason: "executor_specialist_not_configured"}
	}

	messages := []model.Message{{Role: model.RoleUser, Content: fmt.Sprintf("Execute this step: %s (skills: %v)", step.Task, step.Skills)}}
	if specialist.SystemPrompt != "" {
		messages = append([]model.Message{{Role: model.RoleSystem, Content: specialist.SystemPrompt}}, messages...)
	}

	res, err := specialist.Client.Generate(ctx, messages, specialist.Tools)
	if err != nil {
		return stepExecutionResult{Status: "failed", Reason: err.Error()}
	}
	if !res.IsToolCall() {
		return stepExecutionResult{Status: "insufficient", Reason: res.Text}
	}

	data, toolErr := e.graph.ToolExecutor().Execute(ctx, policy.Executor, res.ToolCall.Name, res.ToolCall.Args)
	if toolErr != nil {
		return stepExecutionResult{Status: "failed", Reason: toolErr.Error()}
	}
	if status, _ := data["status"].(string); status == "failed" || status == "blocked" {
		reason, _ := data["reason"].(string)
		if reason == "" {
			reason = "tool_reported_" + status
		}
		return stepExecutionResult{Status: "failed", Reason: reason}
	}
	return stepExecutionResult{Status: "ok", Data: data}
}
