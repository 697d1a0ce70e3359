package orchestrator

import (
	"fmt"
	"time"
)

// staleAfterDays is the age at which used memory gets an explicit
// staleness caveat appended to its disclosure note.
const staleAfterDays = 30

// Disclosure prepends the memory-usage note the user sees above the final
// response: a flat refusal note when memory was disabled for this turn, an
// attribution note (with an optional staleness caveat) when memory was
// used, or the response unchanged otherwise.
func Disclosure(response string, memoryDisabled bool, usage MemoryUsage, now time.Time) string {
	switch {
	case memoryDisabled:
		return "Note: I did not use memory for this response because you asked to skip memory.\n\n" + response
	case usage.Used:
		note := fmt.Sprintf("Note: I used saved memory from %s to tailor this response. Applied memory: %s.",
			usage.CreatedAt.Format(time.RFC3339), usage.Summary)
		if age := usage.AgeDays(now); age >= staleAfterDays {
			note += fmt.Sprintf(" Memory may be stale (saved about %d days ago).", age)
		}
		return note + "\n\n" + response
	default:
		return response
	}
}
