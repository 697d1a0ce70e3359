package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Shubhamnegi/agent-core/domain"
)

// MemoryUsage is the monotonically merged view of how much saved memory
// influenced one turn: whether any search returned results, the most
// recent record timestamp seen, and a short human-readable summary of
// what was recalled.
type MemoryUsage struct {
	Used      bool
	CreatedAt time.Time
	Summary   string
}

// AgeDays reports how many whole days old the used memory is, relative to
// now. Only meaningful when Used is true.
func (m MemoryUsage) AgeDays(now time.Time) int {
	if m.CreatedAt.IsZero() {
		return 0
	}
	return int(now.Sub(m.CreatedAt).Hours() / 24)
}

// MergeMemoryUsage folds one event into the running usage summary. Only
// search_relevant_memory function_response events with count>0 contribute;
// every other event is returned unchanged. Used, once true, stays true;
// CreatedAt always advances to the latest record seen; Summary is set once
// from the first event that yields a non-empty one.
func MergeMemoryUsage(usage MemoryUsage, event domain.Event) MemoryUsage {
	if event.Type != domain.EventADKEvent {
		return usage
	}
	if kind, _ := event.Payload["kind"].(string); kind != "function_response" {
		return usage
	}
	if name, _ := event.Payload["name"].(string); name != "search_relevant_memory" {
		return usage
	}
	response, ok := event.Payload["response"].(map[string]any)
	if !ok {
		return usage
	}
	count, _ := response["count"].(int)
	if count <= 0 {
		return usage
	}
	usage.Used = true

	records, _ := response["results"].([]domain.MemoryRecord)
	for _, rec := range records {
		if rec.CreatedAt.After(usage.CreatedAt) {
			usage.CreatedAt = rec.CreatedAt
		}
		if usage.Summary == "" {
			if s := recordSummary(rec); s != "" {
				usage.Summary = s
			}
		}
	}
	return usage
}

// recordSummary derives the human-readable summary spec for one memory
// record: memory_text when present, else a semicolon-joined
// "domain: …; intent: …; entities: a, b, …" built from the first five
// entities. blob_json, when present as a string field, is decoded first so
// its nested fields participate the same way.
func recordSummary(rec domain.MemoryRecord) string {
	value := rec.Value
	if blob, ok := value["blob_json"].(string); ok && blob != "" {
		var decoded map[string]any
		if err := json.Unmarshal([]byte(blob), &decoded); err == nil {
			value = decoded
		}
	}
	if text, ok := value["memory_text"].(string); ok && text != "" {
		return text
	}

	var parts []string
	if d, ok := value["domain"].(string); ok && d != "" {
		parts = append(parts, "domain: "+d)
	}
	if intent, ok := value["intent"].(string); ok && intent != "" {
		parts = append(parts, "intent: "+intent)
	}
	if entities := entityStrings(value["entities"]); len(entities) > 0 {
		if len(entities) > 5 {
			entities = entities[:5]
		}
		parts = append(parts, "entities: "+strings.Join(entities, ", "))
	}
	return strings.Join(parts, "; ")
}

func entityStrings(raw any) []string {
	items, ok := raw.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}
