// Package temporal backs engine.Engine with go.temporal.io/sdk so an
// in-flight request survives process restarts: the orchestrator's
// per-request algorithm runs as a Temporal workflow and every suspension
// point (repository call, LLM call, MCP tool call) runs as a Temporal
// activity, replayed deterministically on worker recovery.
package temporal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/Shubhamnegi/agent-core/telemetry"
)

// Options configures the Temporal engine adapter.
type Options struct {
	// Client is a pre-configured Temporal client; required.
	Client client.Client
	// TaskQueue is the queue every registered workflow/activity runs on.
	TaskQueue string
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Tracer    telemetry.Tracer
}

// Engine implements engine.Engine on top of a Temporal client and worker.
type Engine struct {
	client    client.Client
	taskQueue string
	w         worker.Worker

	logger  telemetry.Logger
	metrics telemetry.Metrics
	tracer  telemetry.Tracer

	mu         sync.Mutex
	started    bool
	workflows  map[string]engine.WorkflowDefinition
	activities map[string]engine.ActivityDefinition
}

// New constructs a Temporal-backed Engine. Call Start after every
// RegisterWorkflow/RegisterActivity call at process boot.
func New(opts Options) (*Engine, error) {
	if opts.Client == nil {
		return nil, errors.New("temporal engine: client is required")
	}
	if opts.TaskQueue == "" {
		return nil, errors.New("temporal engine: task queue is required")
	}
	logger, metrics, tracer := opts.Logger, opts.Metrics, opts.Tracer
	if logger == nil {
		logger = telemetry.NoopLogger{}
	}
	if metrics == nil {
		metrics = telemetry.NoopMetrics{}
	}
	if tracer == nil {
		tracer = telemetry.NoopTracer{}
	}
	return &Engine{
		client:     opts.Client,
		taskQueue:  opts.TaskQueue,
		w:          worker.New(opts.Client, opts.TaskQueue, worker.Options{}),
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		workflows:  make(map[string]engine.WorkflowDefinition),
		activities: make(map[string]engine.ActivityDefinition),
	}, nil
}

// Start launches the underlying Temporal worker.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	e.started = true
	return e.w.Start()
}

// Stop gracefully shuts down the worker.
func (e *Engine) Stop() {
	e.w.Stop()
}

func (e *Engine) RegisterWorkflow(_ context.Context, def engine.WorkflowDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("invalid workflow definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.workflows[def.Name]; dup {
		return fmt.Errorf("workflow %q already registered", def.Name)
	}
	e.workflows[def.Name] = def
	e.w.RegisterWorkflowWithOptions(e.workflowShim(def), workflow.RegisterOptions{Name: def.Name})
	return nil
}

func (e *Engine) RegisterActivity(_ context.Context, def engine.ActivityDefinition) error {
	if def.Name == "" || def.Handler == nil {
		return errors.New("invalid activity definition")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, dup := e.activities[def.Name]; dup {
		return fmt.Errorf("activity %q already registered", def.Name)
	}
	e.activities[def.Name] = def
	e.w.RegisterActivityWithOptions(activityFunc(def.Handler), activity.RegisterOptions{Name: def.Name})
	return nil
}

// activityFunc is engine.ActivityFunc registered as a bare function value:
// Temporal resolves the activity's parameter and return types by reflection,
// and the default JSON data converter decodes activity input into a generic
// map/slice/scalar for an empty-interface parameter, which covers the
// string/float/bool/map-shaped payloads every activity in this runtime
// exchanges (tool args, memory records, LLM messages).
type activityFunc func(ctx context.Context, input any) (any, error)

func (e *Engine) workflowShim(def engine.WorkflowDefinition) func(workflow.Context, any) (any, error) {
	return func(ctx workflow.Context, input any) (any, error) {
		wctx := &workflowContext{ctx: ctx, eng: e}
		return def.Handler(wctx, input)
	}
}

func (e *Engine) StartWorkflow(ctx context.Context, req engine.WorkflowStartRequest) (engine.WorkflowHandle, error) {
	e.mu.Lock()
	_, ok := e.workflows[req.Workflow]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("workflow %q not registered", req.Workflow)
	}
	run, err := e.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:        req.ID,
		TaskQueue: e.taskQueue,
	}, req.Workflow, req.Input)
	if err != nil {
		return nil, err
	}
	return &workflowHandle{run: run}, nil
}

type workflowHandle struct {
	run client.WorkflowRun
}

func (h *workflowHandle) Wait(ctx context.Context, result any) error {
	return h.run.Get(ctx, result)
}

// workflowContext adapts Temporal's replay-aware workflow.Context to
// engine.WorkflowContext.
type workflowContext struct {
	ctx workflow.Context
	eng *Engine
}

func (w *workflowContext) Context() context.Context {
	return context.Background()
}

func (w *workflowContext) WorkflowID() string {
	return workflow.GetInfo(w.ctx).WorkflowExecution.ID
}

func (w *workflowContext) Logger() telemetry.Logger   { return w.eng.logger }
func (w *workflowContext) Metrics() telemetry.Metrics { return w.eng.metrics }
func (w *workflowContext) Tracer() telemetry.Tracer   { return w.eng.tracer }

func (w *workflowContext) Now() time.Time { return workflow.Now(w.ctx) }

func (w *workflowContext) ExecuteActivity(ctx context.Context, req engine.ActivityRequest, result any) error {
	actCtx := workflow.WithActivityOptions(w.ctx, workflow.ActivityOptions{
		StartToCloseTimeout: req.Timeout,
		RetryPolicy:         retryPolicy(req.RetryPolicy),
	})
	return workflow.ExecuteActivity(actCtx, req.Name, req.Input).Get(actCtx, result)
}

func retryPolicy(rp engine.RetryPolicy) *temporal.RetryPolicy {
	if rp.MaxAttempts == 0 && rp.InitialInterval == 0 && rp.BackoffCoefficient == 0 {
		return nil
	}
	return &temporal.RetryPolicy{
		InitialInterval:    rp.InitialInterval,
		BackoffCoefficient: rp.BackoffCoefficient,
		MaximumAttempts:    int32(rp.MaxAttempts),
	}
}
