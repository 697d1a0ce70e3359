package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/policy"
)

func llmResponseEvent(author string, isFinal bool, text string) domain.Event {
	return domain.Event{
		Type:    domain.EventADKLLMResponse,
		Payload: map[string]any{"author": author, "is_final": isFinal, "response": text},
	}
}

func TestObserveResponse_IgnoresEventsWithoutAuthor(t *testing.T) {
	_, ok := observeResponse(domain.Event{Type: domain.EventADKLLMResponse, Payload: map[string]any{}})
	assert.False(t, ok)
}

func TestObserveResponse_ExtractsTuple(t *testing.T) {
	obs, ok := observeResponse(llmResponseEvent(policy.Coordinator, true, "hello"))
	assert.True(t, ok)
	assert.Equal(t, responseObservation{Author: policy.Coordinator, IsFinal: true, Text: "hello"}, obs)
}

func TestToolCallFailed_TrueForFailedOrBlockedStatus(t *testing.T) {
	failed := domain.Event{Type: domain.EventADKEvent, Payload: map[string]any{
		"kind": "function_response", "response": map[string]any{"status": "failed"},
	}}
	blocked := domain.Event{Type: domain.EventADKEvent, Payload: map[string]any{
		"kind": "function_response", "response": map[string]any{"status": "blocked"},
	}}
	ok := domain.Event{Type: domain.EventADKEvent, Payload: map[string]any{
		"kind": "function_response", "response": map[string]any{"status": "ok"},
	}}
	assert.True(t, toolCallFailed(failed))
	assert.True(t, toolCallFailed(blocked))
	assert.False(t, toolCallFailed(ok))
}

func TestSelectResponse_PrefersLastCoordinatorFinal(t *testing.T) {
	observations := []responseObservation{
		{Author: policy.Planner, IsFinal: false, Text: "planning..."},
		{Author: policy.Coordinator, IsFinal: true, Text: "first final"},
		{Author: policy.Executor, IsFinal: false, Text: "running tool"},
		{Author: policy.Coordinator, IsFinal: true, Text: "second final"},
	}
	assert.Equal(t, "second final", SelectResponse(observations, false))
}

func TestSelectResponse_ToolFailureMessageWhenNoCoordinatorFinalAndToolFailed(t *testing.T) {
	observations := []responseObservation{
		{Author: policy.Executor, IsFinal: false, Text: "attempting tool"},
	}
	assert.Equal(t, fixedToolFailureMessage, SelectResponse(observations, true))
}

func TestSelectResponse_NoFinalTextMessageWhenNoCoordinatorFinalAndNoToolFailure(t *testing.T) {
	observations := []responseObservation{
		{Author: policy.Executor, IsFinal: false, Text: "attempting tool"},
	}
	assert.Equal(t, fixedNoFinalTextMessage, SelectResponse(observations, false))
}

func TestSelectResponse_LastTextWhenOnlyPlannerRan(t *testing.T) {
	observations := []responseObservation{
		{Author: policy.Planner, IsFinal: false, Text: "drafting plan"},
		{Author: policy.Planner, IsFinal: false, Text: "plan ready"},
	}
	assert.Equal(t, "plan ready", SelectResponse(observations, false))
}

func TestSelectResponse_PlaceholderWhenNothingRan(t *testing.T) {
	assert.Equal(t, fixedPlaceholderMessage, SelectResponse(nil, false))
}
