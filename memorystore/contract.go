package memorystore

import (
	"strings"

	"github.com/Shubhamnegi/agent-core/domain"
)

// MatchesReturnSpec validates data against a minimal type-label contract:
// every field named in shape must be present in data and match its declared
// type label. It deliberately stops short of full JSON Schema validation,
// grounded on the original in-memory adapter's _matches_return_spec_contract/
// _matches_expected_type — enough to catch silently malformed memory writes
// without requiring callers to author a schema document for every key.
func MatchesReturnSpec(data map[string]any, shape map[string]string) error {
	for field, expected := range shape {
		value, ok := data[field]
		if !ok {
			return domain.NewFailure(domain.KindContractViolation, "contract_violation",
				"return_spec field \""+field+"\" is missing from the written value")
		}
		if !matchesExpectedType(value, expected) {
			return domain.NewFailure(domain.KindContractViolation, "contract_violation",
				"return_spec field \""+field+"\" does not match declared type \""+expected+"\"")
		}
	}
	return nil
}

func matchesExpectedType(value any, expected string) bool {
	normalized := strings.ToLower(strings.TrimSpace(expected))
	switch {
	case normalized == domain.TypeLabelString:
		_, ok := value.(string)
		return ok
	case normalized == domain.TypeLabelInt || normalized == domain.TypeLabelInteger:
		return isInteger(value)
	case normalized == domain.TypeLabelFloat || normalized == domain.TypeLabelNumber:
		return isNumber(value)
	case normalized == domain.TypeLabelBool || normalized == domain.TypeLabelBoolean:
		_, ok := value.(bool)
		return ok
	case strings.HasPrefix(normalized, domain.TypeLabelArray):
		_, ok := value.([]any)
		return ok
	case normalized == domain.TypeLabelObject || normalized == domain.TypeLabelDict || normalized == domain.TypeLabelMap:
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

// isInteger treats any whole-valued JSON number as an integer: values
// decoded from JSON arrive as float64 (or json.Number), never as Go's int,
// so "integer" must accept 3.0 as well as 3.
func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int32, int64:
		return true
	case float64:
		return v == float64(int64(v))
	default:
		return false
	}
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}
