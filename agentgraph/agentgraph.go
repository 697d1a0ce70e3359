// Package agentgraph builds the coordinator/sub-agent graph: one
// coordinator and up to four specialists (planner, executor, memory,
// communicator), each bound to a model.Client chosen per role, and drives
// a single turn's prompt/tool-call/transfer loop between them. It owns the
// mechanics of running models and enforcing policy.CheckToolCall/
// CheckTransfer in place of execution; the per-request plan/replan
// algorithm that consumes its event stream lives in orchestrator.
package agentgraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
	"github.com/Shubhamnegi/agent-core/policy"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// TransferToolName is the builtin tool every specialist's model sees for
// handing the turn to another agent.
const TransferToolName = "transfer_to_agent"

// ToolExecutor runs a non-transfer tool call on behalf of the active agent.
// Implementations dispatch to the memory repository, MCP callers, or the
// builtin tool functions depending on toolName.
type ToolExecutor interface {
	Execute(ctx context.Context, agent, toolName string, args map[string]any) (map[string]any, error)
}

// Specialist is one role in the graph: a model bound to a system prompt and
// the toolset that role's requests are allowed to see.
type Specialist struct {
	Name         string
	Client       model.Client
	SystemPrompt string
	Tools        []model.ToolDef
}

// Config builds a Graph. Specialists must contain an entry for every role
// (coordinator, memory, planner, executor, communicator); Build returns an
// error otherwise.
type Config struct {
	Specialists map[string]Specialist
	Executor    ToolExecutor
	Logger      telemetry.Logger
	Metrics     telemetry.Metrics
	Tracer      telemetry.Tracer
	// MaxTurnSteps bounds how many model calls one Stream invocation may
	// make before it gives up and returns an error, guarding against a
	// transfer or tool-call cycle between sub-agents.
	MaxTurnSteps int
}

// Graph holds the constructed specialists and shared instrumentation.
type Graph struct {
	mu          sync.RWMutex
	specialists map[string]Specialist
	executor    ToolExecutor

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	maxTurnSteps int
}

// Build validates and assembles a Graph from cfg.
func Build(cfg Config) (*Graph, error) {
	for _, role := range []string{policy.Coordinator, policy.Memory, policy.Planner, policy.Executor, policy.Communicator} {
		if _, ok := cfg.Specialists[role]; !ok {
			return nil, fmt.Errorf("agentgraph: missing specialist for role %q", role)
		}
	}
	logger, metrics, tracer := cfg.Logger, cfg.Metrics, cfg.Tracer
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	maxSteps := cfg.MaxTurnSteps
	if maxSteps <= 0 {
		maxSteps = 50
	}
	return &Graph{
		specialists:  cfg.Specialists,
		executor:     cfg.Executor,
		logger:       logger,
		metrics:      metrics,
		tracer:       tracer,
		maxTurnSteps: maxSteps,
	}, nil
}

// Specialist returns the named role's configuration.
func (g *Graph) Specialist(name string) (Specialist, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	s, ok := g.specialists[name]
	return s, ok
}

// Coordinator returns the entry point for driving one turn of the graph.
func (g *Graph) Coordinator() *Coordinator {
	return &Coordinator{graph: g}
}

// ToolExecutor returns the graph's tool dispatcher, for callers that need to
// run a specialist's tool call outside the coordinator's transfer loop (the
// plan/step execution path in orchestrator).
func (g *Graph) ToolExecutor() ToolExecutor {
	return g.executor
}

func transferDestination(args map[string]any) (string, bool) {
	raw, ok := args["agent_name"]
	if !ok {
		raw, ok = args["agent"]
	}
	if !ok {
		return "", false
	}
	dest, ok := raw.(string)
	return dest, ok
}

func failureResult(f *domain.Failure) map[string]any {
	return map[string]any{
		"status": f.Status,
		"reason": f.Reason,
		"code":   f.Code,
	}
}
