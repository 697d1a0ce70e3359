package memorystore

import (
	"context"
	"strings"

	"github.com/Shubhamnegi/agent-core/canonjson"
	"github.com/Shubhamnegi/agent-core/domain"
)

// Fingerprint returns the canonical JSON encoding of value, used to compare
// two memory payloads for exact equality regardless of key order.
func Fingerprint(value map[string]any) (string, error) {
	return canonjson.Fingerprint(value)
}

// DeriveReturnSpec infers a type-label shape contract from a parsed memory
// payload when the caller supplies no explicit return_spec, grounded on
// _derive_return_spec/_infer_type.
func DeriveReturnSpec(data map[string]any) map[string]string {
	spec := make(map[string]string, len(data))
	for field, value := range data {
		spec[field] = inferTypeLabel(value)
	}
	return spec
}

func inferTypeLabel(value any) string {
	switch v := value.(type) {
	case bool:
		return domain.TypeLabelBoolean
	case float64:
		if v == float64(int64(v)) {
			return domain.TypeLabelInteger
		}
		return domain.TypeLabelNumber
	case int, int32, int64:
		return domain.TypeLabelInteger
	case []any:
		return domain.TypeLabelArray
	case map[string]any:
		return domain.TypeLabelObject
	default:
		return domain.TypeLabelString
	}
}

// FindDuplicate searches scope for an existing record whose value has the
// same canonical fingerprint as parsedMemory, returning its namespaced key
// if one is found. It is used by save_user_memory/save_action_memory to
// silently skip writes of content already stored, grounded on
// _find_duplicate_memory. A search failure is treated as "no duplicate"
// rather than surfaced as an error, matching the original's broad except.
func (s *Store) FindDuplicate(ctx context.Context, tenantID, userID, sessionID string, parsedMemory map[string]any, scope domain.MemoryScope) string {
	queryText, _ := parsedMemory["memory_text"].(string)
	if strings.TrimSpace(queryText) == "" {
		queryText, _ = Fingerprint(parsedMemory)
	}

	candidates, err := s.Search(ctx, tenantID, userID, sessionID, queryText, scope, 10)
	if err != nil {
		return ""
	}

	targetFP, err := Fingerprint(parsedMemory)
	if err != nil {
		return ""
	}
	for _, candidate := range candidates {
		candidateFP, err := Fingerprint(candidate.Value)
		if err != nil || candidateFP != targetFP {
			continue
		}
		if candidate.NamespacedKey != "" {
			return candidate.NamespacedKey
		}
	}
	return ""
}
