package orchestrator

import (
	"context"
	"fmt"

	"github.com/Shubhamnegi/agent-core/agentgraph"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
)

// proposePlanToolName is the structured tool forced on the planner specialist
// so its output decodes directly into []domain.PlanStep instead of being
// parsed out of free text.
const proposePlanToolName = "propose_plan"

func proposePlanTool() model.ToolDef {
	return model.ToolDef{
		Name:        proposePlanToolName,
		Description: "Propose an ordered list of typed steps that accomplish the request.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"steps": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"task":   map[string]any{"type": "string"},
							"skills": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							"return_spec": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"shape":  map[string]any{"type": "object"},
									"reason": map[string]any{"type": "string"},
								},
							},
							"input_from_step": map[string]any{"type": "integer"},
						},
						"required": []string{"task"},
					},
				},
			},
			"required": []string{"steps"},
		},
	}
}

// planningAgent asks the planner specialist for an initial or revised step
// list, implementing replan.Planner on top of the same model.Client the
// coordinator graph already binds to the planner role.
type planningAgent struct {
	graph *agentgraph.Graph
}

func newPlanningAgent(graph *agentgraph.Graph) *planningAgent {
	return &planningAgent{graph: graph}
}

// CreatePlan asks the planner specialist to propose an initial step list for
// message, bounded to maxSteps.
func (p *planningAgent) CreatePlan(ctx context.Context, message string, maxSteps int) ([]domain.PlanStep, error) {
	specialist, ok := p.graph.Specialist(policy.Planner)
	if !ok {
		return nil, fmt.Errorf("orchestrator: planner specialist not configured")
	}
	prompt := fmt.Sprintf("Propose a plan of at most %d step(s) for this request: %s", maxSteps, message)
	return p.requestSteps(ctx, specialist, prompt)
}

// Replan implements replan.Planner: asks the planner specialist for a
// revised tail of steps given what already completed and why the failed
// step didn't succeed.
func (p *planningAgent) Replan(ctx context.Context, plan *domain.Plan, completedSteps []domain.PlanStep, failedStep domain.PlanStep, reason string, maxSteps int) ([]domain.PlanStep, error) {
	specialist, ok := p.graph.Specialist(policy.Planner)
	if !ok {
		return nil, fmt.Errorf("orchestrator: planner specialist not configured")
	}
	prompt := fmt.Sprintf(
		"Step %d (%s) did not complete: %s. %d step(s) already completed. Propose a revised tail of at most %d step(s) to finish the plan.",
		failedStep.StepIndex, failedStep.Task, reason, len(completedSteps), maxSteps,
	)
	return p.requestSteps(ctx, specialist, prompt)
}

func (p *planningAgent) requestSteps(ctx context.Context, specialist agentgraph.Specialist, prompt string) ([]domain.PlanStep, error) {
	messages := []model.Message{{Role: model.RoleUser, Content: prompt}}
	if specialist.SystemPrompt != "" {
		messages = append([]model.Message{{Role: model.RoleSystem, Content: specialist.SystemPrompt}}, messages...)
	}
	res, err := specialist.Client.Generate(ctx, messages, []model.ToolDef{proposePlanTool()})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: planner generate: %w", err)
	}
	if !res.IsToolCall() || res.ToolCall.Name != proposePlanToolName {
		// The planner didn't use the structured protocol; fall back to a
		// single catch-all step so planfsm.ValidateSteps still has a
		// non-empty plan to validate instead of rejecting the turn outright.
		return []domain.PlanStep{{StepIndex: 1, Task: res.Text, Status: domain.StepPending}}, nil
	}
	return decodePlanSteps(res.ToolCall.Args)
}

func decodePlanSteps(args map[string]any) ([]domain.PlanStep, error) {
	raw, ok := args["steps"].([]any)
	if !ok || len(raw) == 0 {
		return nil, domain.NewFailure(domain.KindPlanValidation, "planner_returned_empty_plan",
			"planner returned an empty plan")
	}
	steps := make([]domain.PlanStep, 0, len(raw))
	for i, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		step := domain.PlanStep{StepIndex: i + 1, Task: stringField(obj, "task"), Status: domain.StepPending}
		step.Skills = stringSliceField(obj, "skills")
		if rs, ok := obj["return_spec"].(map[string]any); ok {
			step.ReturnSpec.Reason = stringField(rs, "reason")
			step.ReturnSpec.Shape = stringMapField(rs, "shape")
		}
		if v, ok := obj["input_from_step"].(float64); ok {
			idx := int(v)
			step.InputFromStep = &idx
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, domain.NewFailure(domain.KindPlanValidation, "planner_returned_empty_plan",
			"planner returned an empty plan")
	}
	return steps, nil
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}

func stringSliceField(obj map[string]any, key string) []string {
	raw, ok := obj[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func stringMapField(obj map[string]any, key string) map[string]string {
	raw, ok := obj[key].(map[string]any)
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
