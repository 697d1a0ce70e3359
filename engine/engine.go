// Package engine defines the durable-workflow-backend abstraction the
// runtime orchestrator runs its per-request algorithm through: register a
// workflow once at process boot, then start one execution per inbound
// request. Two adapters are provided: engine/inmem (synchronous,
// non-durable, for tests and local runs) and engine/temporal (backed by
// go.temporal.io/sdk for crash-safe replay of in-flight requests).
//
// Only the surface the orchestrator's sequential per-request algorithm
// actually needs is kept: workflow registration/start, activity execution
// for every suspension point (repository calls, LLM calls, MCP tool calls),
// and a handle to wait for the final result. Signals, child workflows and
// query handlers are dropped; nothing in the orchestration algorithm pauses
// for external input or spawns nested workflows.
package engine

import (
	"context"
	"time"

	"github.com/Shubhamnegi/agent-core/telemetry"
)

type (
	// Engine abstracts workflow registration and execution so the
	// in-memory and Temporal adapters are interchangeable.
	Engine interface {
		RegisterWorkflow(ctx context.Context, def WorkflowDefinition) error
		RegisterActivity(ctx context.Context, def ActivityDefinition) error
		StartWorkflow(ctx context.Context, req WorkflowStartRequest) (WorkflowHandle, error)
	}

	// WorkflowDefinition binds a workflow handler to a logical name.
	WorkflowDefinition struct {
		Name    string
		Handler WorkflowFunc
	}

	// WorkflowFunc is the orchestrator's per-request algorithm, run once per
	// StartWorkflow call. It must be deterministic under the Temporal
	// adapter: the only non-deterministic work (LLM calls, tool calls,
	// repository I/O) happens inside ExecuteActivity.
	WorkflowFunc func(ctx WorkflowContext, input any) (any, error)

	// WorkflowContext exposes engine operations to a running workflow.
	WorkflowContext interface {
		Context() context.Context
		WorkflowID() string
		ExecuteActivity(ctx context.Context, req ActivityRequest, result any) error
		Logger() telemetry.Logger
		Metrics() telemetry.Metrics
		Tracer() telemetry.Tracer
		Now() time.Time
	}

	// ActivityDefinition registers an activity handler.
	ActivityDefinition struct {
		Name    string
		Handler ActivityFunc
		Options ActivityOptions
	}

	// ActivityFunc performs side-effecting work (LLM calls, MCP tool calls,
	// repository I/O) on behalf of a workflow.
	ActivityFunc func(ctx context.Context, input any) (any, error)

	// ActivityOptions configures retry/timeout behavior for an activity.
	ActivityOptions struct {
		RetryPolicy RetryPolicy
		Timeout     time.Duration
	}

	// WorkflowStartRequest describes how to launch one workflow execution.
	WorkflowStartRequest struct {
		ID       string
		Workflow string
		Input    any
	}

	// ActivityRequest describes one activity invocation from a workflow.
	ActivityRequest struct {
		Name        string
		Input       any
		RetryPolicy RetryPolicy
		Timeout     time.Duration
	}

	// WorkflowHandle lets callers wait for a started workflow's result.
	WorkflowHandle interface {
		Wait(ctx context.Context, result any) error
	}

	// RetryPolicy defines retry semantics shared by workflows and activities.
	RetryPolicy struct {
		MaxAttempts        int
		InitialInterval    time.Duration
		BackoffCoefficient float64
	}
)
