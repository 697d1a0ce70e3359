package policy

import "strings"

var memoryDisableMarkers = []string{
	"don't use memory",
	"do not use memory",
	"dont use memory",
	"without memory",
	"ignore memory",
	"skip memory",
	"no memory",
}

var memoryLookupMarkers = []string{
	"check memory",
	"from memory",
	"search memory",
	"what do you remember",
	"based on my preference",
	"my preference",
	"remembered",
	"recall",
}

// DeriveFlags computes the per-turn policy flags from the user's message:
// memory_disabled_by_user short-circuits requires_memory_precheck to false
// regardless of first-turn status or lookup markers.
func DeriveFlags(message string, isFirstTurn bool) (allowMemory, requireMemoryPrecheck bool) {
	lowered := strings.ToLower(message)
	disabled := containsAny(lowered, memoryDisableMarkers)
	if disabled {
		return false, false
	}
	precheck := isFirstTurn || containsAny(lowered, memoryLookupMarkers)
	return true, precheck
}

func containsAny(haystack string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(haystack, marker) {
			return true
		}
	}
	return false
}
