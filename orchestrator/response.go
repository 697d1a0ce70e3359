package orchestrator

import (
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/policy"
)

const (
	fixedToolFailureMessage = "I ran into an issue completing one of the steps and couldn't finish this request."
	fixedNoFinalTextMessage = "I wasn't able to produce a final response for this request."
	fixedPlaceholderMessage = "I don't have a response for this request."
)

// responseObservation is one (author, is_final, text) tuple drawn from an
// adk.llm_response event.
type responseObservation struct {
	Author  string
	IsFinal bool
	Text    string
}

// observeResponse extracts a responseObservation from an LLM-response
// event, reporting false if the event carries no authored text (older
// events emitted before the author/is_final tags existed, or a different
// event type entirely).
func observeResponse(event domain.Event) (responseObservation, bool) {
	if event.Type != domain.EventADKLLMResponse {
		return responseObservation{}, false
	}
	author, _ := event.Payload["author"].(string)
	if author == "" {
		return responseObservation{}, false
	}
	isFinal, _ := event.Payload["is_final"].(bool)
	text, _ := event.Payload["response"].(string)
	return responseObservation{Author: author, IsFinal: isFinal, Text: text}, true
}

// toolCallFailed reports whether event is a function_response carrying a
// failed or blocked status.
func toolCallFailed(event domain.Event) bool {
	if event.Type != domain.EventADKEvent {
		return false
	}
	if kind, _ := event.Payload["kind"].(string); kind != "function_response" {
		return false
	}
	response, ok := event.Payload["response"].(map[string]any)
	if !ok {
		return false
	}
	status, _ := response["status"].(string)
	return status == "failed" || status == "blocked"
}

// SelectResponse applies the response-selection rule to the accumulated
// observations from one turn: the last coordinator final reply wins; failing
// that, if any non-planner author was observed, a fixed tool-failure or
// no-final-text message is returned depending on whether any tool call
// failed, so executor or communicator intermediate text is never surfaced
// directly; if only the planner was observed, its last non-empty text is
// returned; with no observations at all, a fixed placeholder is returned.
func SelectResponse(observations []responseObservation, anyToolFailed bool) string {
	var lastCoordinatorFinal string
	haveCoordinatorFinal := false
	anyNonPlanner := false
	var lastText string
	ran := false

	for _, o := range observations {
		ran = true
		if o.Text != "" {
			lastText = o.Text
		}
		if o.Author == policy.Coordinator && o.IsFinal {
			lastCoordinatorFinal = o.Text
			haveCoordinatorFinal = true
		}
		if o.Author != policy.Planner {
			anyNonPlanner = true
		}
	}

	if haveCoordinatorFinal {
		return lastCoordinatorFinal
	}
	if anyNonPlanner {
		if anyToolFailed {
			return fixedToolFailureMessage
		}
		return fixedNoFinalTextMessage
	}
	if ran {
		return lastText
	}
	return fixedPlaceholderMessage
}
