package orchestrator

import (
	"context"
	"fmt"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/engine"
	"github.com/Shubhamnegi/agent-core/memorystore"
	"github.com/Shubhamnegi/agent-core/planfsm"
	"github.com/Shubhamnegi/agent-core/replan"
	"github.com/Shubhamnegi/agent-core/repo"
)

const runPlanWorkflowName = "run_plan"
const executeStepActivityName = "execute_step"

// runPlanInput is the run_plan workflow's input: everything the workflow
// needs to build and drive a plan for one request.
type runPlanInput struct {
	Request    RunRequest
	PlanID     string
	MaxSteps   int
	MaxReplans int
}

// executeStepInput is the execute_step activity's input.
type executeStepInput struct {
	Step domain.PlanStep
}

// ensureEngineRegistered registers the run_plan workflow and its execute_step
// activity on o.Engine exactly once. Safe to call on every request.
func (o *Orchestrator) ensureEngineRegistered(ctx context.Context) error {
	o.engineOnce.Do(func() {
		if o.Engine == nil {
			return
		}
		if err := o.Engine.RegisterWorkflow(ctx, engine.WorkflowDefinition{Name: runPlanWorkflowName, Handler: o.runPlanWorkflow}); err != nil {
			o.engineErr = fmt.Errorf("orchestrator: register %s workflow: %w", runPlanWorkflowName, err)
			return
		}
		if err := o.Engine.RegisterActivity(ctx, engine.ActivityDefinition{Name: executeStepActivityName, Handler: o.executeStepActivity}); err != nil {
			o.engineErr = fmt.Errorf("orchestrator: register %s activity: %w", executeStepActivityName, err)
			return
		}
		// The Temporal adapter needs its worker started once registration
		// is complete; the in-memory adapter has nothing to start.
		if s, ok := o.Engine.(interface{ Start() error }); ok {
			if err := s.Start(); err != nil {
				o.engineErr = fmt.Errorf("orchestrator: start engine worker: %w", err)
			}
		}
	})
	return o.engineErr
}

// executeStepActivity wraps stepExecutor.executeStep as an engine.ActivityFunc:
// the model call, tool dispatch and any side effect they cause happen here,
// the one non-deterministic boundary run_plan's workflow handler defers to.
func (o *Orchestrator) executeStepActivity(ctx context.Context, input any) (any, error) {
	in, ok := input.(executeStepInput)
	if !ok {
		return nil, fmt.Errorf("orchestrator: %s received unexpected input type %T", executeStepActivityName, input)
	}
	exec := &stepExecutor{graph: o.Graph}
	return exec.executeStep(ctx, in.Step), nil
}

// runPlanWorkflow is the engine.WorkflowFunc that builds a domain.Plan from
// the planner's output, drives every step through planfsm, validates each
// completed step's output against its return_spec, and invokes
// replan.Manager on failure, insufficiency or contract violation. One
// execute_step activity runs per step; everything else (plan construction,
// transitions, contract checks, replan decisions) is plain workflow logic.
func (o *Orchestrator) runPlanWorkflow(wctx engine.WorkflowContext, input any) (any, error) {
	in, ok := input.(runPlanInput)
	if !ok {
		return nil, fmt.Errorf("orchestrator: %s received unexpected input type %T", runPlanWorkflowName, input)
	}
	ctx := wctx.Context()
	req := in.Request

	planner := newPlanningAgent(o.Graph)
	steps, err := planner.CreatePlan(ctx, req.Message, in.MaxSteps)
	if err != nil {
		return nil, err
	}
	if err := planfsm.ValidateSteps(steps, in.MaxSteps); err != nil {
		return nil, err
	}

	now := wctx.Now()
	plan := &domain.Plan{
		PlanID:     in.PlanID,
		TenantID:   req.TenantID,
		UserID:     req.UserID,
		SessionID:  req.SessionID,
		Status:     domain.PlanPending,
		Steps:      steps,
		MaxReplans: in.MaxReplans,
		CreatedAt:  now,
	}
	if err := planfsm.TransitionPlan(plan, domain.PlanPlanning, now); err != nil {
		return nil, err
	}
	if err := planfsm.TransitionPlan(plan, domain.PlanExecuting, now); err != nil {
		return nil, err
	}
	if err := o.Plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("orchestrator: save plan: %w", err)
	}
	o.appendEvent(ctx, domain.Event{
		Type: domain.EventPlanPersisted, TenantID: req.TenantID, SessionID: req.SessionID, PlanID: plan.PlanID,
		Payload: map[string]any{"steps": len(plan.Steps), "status": string(plan.Status)}, Timestamp: now,
	})

	mgr := replan.NewManager(planner, o.Plans, eventAppender{o}, in.MaxSteps, in.MaxReplans)

	stepIndex := plan.NextPendingStepIndex()
	for stepIndex < len(plan.Steps) {
		step := &plan.Steps[stepIndex]
		startNow := wctx.Now()
		taskID := fmt.Sprintf("%s:step%d", plan.PlanID, step.StepIndex)
		if err := planfsm.Transition(step, domain.StepRunning, taskID, startNow); err != nil {
			return plan, err
		}
		o.appendEvent(ctx, domain.Event{
			Type: domain.EventStepStarted, TenantID: req.TenantID, SessionID: req.SessionID, PlanID: plan.PlanID, TaskID: step.TaskID,
			Payload: map[string]any{"step_index": step.StepIndex, "skills": step.Skills}, Timestamp: startNow,
		})
		if err := o.Plans.Save(ctx, plan); err != nil {
			return plan, fmt.Errorf("orchestrator: save plan: %w", err)
		}

		var result stepExecutionResult
		if err := wctx.ExecuteActivity(ctx, engine.ActivityRequest{Name: executeStepActivityName, Input: executeStepInput{Step: *step}}, &result); err != nil {
			result = stepExecutionResult{Status: "failed", Reason: err.Error()}
		}

		switch result.Status {
		case "ok":
			if violation := memorystore.MatchesReturnSpec(result.Data, step.ReturnSpec.Shape); violation != nil {
				if err := o.failStep(ctx, wctx, plan, step, "contract_violation", domain.EventStepContractViolation,
					map[string]any{"step_index": step.StepIndex, "reason": violation.Error()}); err != nil {
					return plan, err
				}
				if err := mgr.ReplanOrFail(ctx, plan, *step, domain.TriggerContractViolation); err != nil {
					return plan, err
				}
				stepIndex = plan.NextPendingStepIndex()
				continue
			}

			namespacedKey, writeErr := o.MemoryRepo.Write(ctx, repo.MemoryWriteRequest{
				TenantID: req.TenantID, SessionID: req.SessionID, TaskID: step.TaskID,
				Label: fmt.Sprintf("step_%d_output", step.StepIndex), Value: result.Data,
				ReturnSpec: step.ReturnSpec.Shape, Scope: domain.ScopeSession,
			})
			if writeErr != nil {
				return plan, fmt.Errorf("orchestrator: write step output: %w", writeErr)
			}
			finishNow := wctx.Now()
			if err := planfsm.Transition(step, domain.StepComplete, step.TaskID, finishNow); err != nil {
				return plan, err
			}
			step.Validated = true
			step.MemoryKey = namespacedKey
			o.appendEvent(ctx, domain.Event{
				Type: domain.EventStepComplete, TenantID: req.TenantID, SessionID: req.SessionID, PlanID: plan.PlanID, TaskID: step.TaskID,
				Payload: map[string]any{"step_index": step.StepIndex, "memory_key": namespacedKey}, Timestamp: finishNow,
			})
			if err := o.Plans.Save(ctx, plan); err != nil {
				return plan, fmt.Errorf("orchestrator: save plan: %w", err)
			}
			stepIndex++

		case "insufficient":
			if err := o.failStep(ctx, wctx, plan, step, result.Reason, domain.EventStepInsufficient,
				map[string]any{"step_index": step.StepIndex, "reason": step.FailureReason}); err != nil {
				return plan, err
			}
			if err := mgr.ReplanOrFail(ctx, plan, *step, domain.TriggerInsufficient); err != nil {
				return plan, err
			}
			stepIndex = plan.NextPendingStepIndex()

		default:
			reason := result.Reason
			if reason == "" {
				reason = "unknown_failure"
			}
			if err := o.failStep(ctx, wctx, plan, step, reason, domain.EventStepFailed,
				map[string]any{"step_index": step.StepIndex, "reason": reason}); err != nil {
				return plan, err
			}
			if err := mgr.ReplanOrFail(ctx, plan, *step, domain.TriggerStepFailed); err != nil {
				return plan, err
			}
			stepIndex = plan.NextPendingStepIndex()
		}
	}

	finishNow := wctx.Now()
	if err := planfsm.TransitionPlan(plan, domain.PlanComplete, finishNow); err != nil {
		return plan, err
	}
	if err := o.Plans.Save(ctx, plan); err != nil {
		return plan, fmt.Errorf("orchestrator: save plan: %w", err)
	}
	return plan, nil
}

// failStep transitions step to Failed, records the reason, and appends the
// matching event. planfsm only owns Status/StartedAt/FinishedAt/TaskID, so
// FailureReason is set directly here.
func (o *Orchestrator) failStep(ctx context.Context, wctx engine.WorkflowContext, plan *domain.Plan, step *domain.PlanStep, reason string, eventType domain.EventType, payload map[string]any) error {
	now := wctx.Now()
	if err := planfsm.Transition(step, domain.StepFailed, step.TaskID, now); err != nil {
		return err
	}
	step.FailureReason = reason
	o.appendEvent(ctx, domain.Event{
		Type: eventType, TenantID: plan.TenantID, SessionID: plan.SessionID, PlanID: plan.PlanID, TaskID: step.TaskID,
		Payload: payload, Timestamp: now,
	})
	return o.Plans.Save(ctx, plan)
}

func (o *Orchestrator) appendEvent(ctx context.Context, ev domain.Event) {
	if o.Events == nil {
		return
	}
	if err := o.Events.Append(ctx, ev); err != nil {
		o.logger().Warn(ctx, "orchestrator_plan_event_append_failed", "error", err.Error(), "plan_id", ev.PlanID)
	}
}

// eventAppender adapts Orchestrator.appendEvent to replan.Manager's
// repo.EventRepository dependency so a failed Append doesn't abort a
// replan decision, matching the best-effort event mirroring used elsewhere
// in Run.
type eventAppender struct {
	o *Orchestrator
}

func (a eventAppender) Append(ctx context.Context, events ...domain.Event) error {
	for _, ev := range events {
		a.o.appendEvent(ctx, ev)
	}
	return nil
}

func (a eventAppender) ByPlan(ctx context.Context, planID string) ([]domain.Event, error) {
	if a.o.Events == nil {
		return nil, nil
	}
	return a.o.Events.ByPlan(ctx, planID)
}

func (a eventAppender) Retain(ctx context.Context, olderThan int) (int, error) {
	if a.o.Events == nil {
		return 0, nil
	}
	return a.o.Events.Retain(ctx, olderThan)
}

// runPlan builds and drives the structured plan for one request through
// o.Engine, returning nil (no error) when either Plans or Engine isn't
// configured so callers that don't wire the structured-plan path (tests
// exercising only the conversational turn) are unaffected.
func (o *Orchestrator) runPlan(ctx context.Context, req RunRequest, planID string) (*domain.Plan, error) {
	if o.Plans == nil || o.Engine == nil {
		return nil, nil
	}
	if err := o.ensureEngineRegistered(ctx); err != nil {
		return nil, err
	}

	handle, err := o.Engine.StartWorkflow(ctx, engine.WorkflowStartRequest{
		ID:       planID,
		Workflow: runPlanWorkflowName,
		Input:    runPlanInput{Request: req, PlanID: planID, MaxSteps: o.MaxPlanSteps, MaxReplans: o.MaxReplans},
	})
	if err != nil {
		return nil, fmt.Errorf("orchestrator: start %s workflow: %w", runPlanWorkflowName, err)
	}

	var plan *domain.Plan
	if err := handle.Wait(ctx, &plan); err != nil {
		return nil, err
	}
	return plan, nil
}
