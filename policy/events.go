package policy

import (
	"context"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/telemetry"
	"go.opentelemetry.io/otel/codes"
)

// NewPromptEvent and NewLLMResponseEvent build the two event classes the
// policy/trace engine persists around every LLM call.
func NewPromptEvent(trace *domain.TraceContext, taskID, prompt string, now time.Time) domain.Event {
	return domain.Event{
		Type:      domain.EventADKPrompt,
		TenantID:  trace.TenantID,
		SessionID: trace.SessionID,
		PlanID:    trace.PlanID,
		TaskID:    taskID,
		Payload:   map[string]any{"prompt": prompt},
		Timestamp: now,
	}
}

func NewLLMResponseEvent(trace *domain.TraceContext, taskID, response string, now time.Time) domain.Event {
	return domain.Event{
		Type:      domain.EventADKLLMResponse,
		TenantID:  trace.TenantID,
		SessionID: trace.SessionID,
		PlanID:    trace.PlanID,
		TaskID:    taskID,
		Payload:   map[string]any{"response": response},
		Timestamp: now,
	}
}

// InstrumentToolCall wraps a tool invocation with a trace span and
// duration/outcome metrics. The coordinator calls it only for tool calls
// that passed CheckToolCall; vetoed calls and transfers get no span. fn
// runs with the span's context so nested calls (memory writes, MCP calls)
// attach to the same trace.
func InstrumentToolCall(ctx context.Context, tracer telemetry.Tracer, metrics telemetry.Metrics, toolName string, fn func(context.Context) (map[string]any, error)) (map[string]any, error) {
	spanCtx, span := tracer.Start(ctx, "tool."+toolName)
	defer span.End()

	start := time.Now()
	result, err := fn(spanCtx)
	metrics.RecordTimer("tool.duration", time.Since(start), "tool", toolName)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		metrics.IncCounter("tool.error", 1, "tool", toolName)
		return result, err
	}
	metrics.IncCounter("tool.call", 1, "tool", toolName)
	return result, nil
}
