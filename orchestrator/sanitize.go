package orchestrator

import "regexp"

// internalToolConstraintPattern matches the internal phrasing models
// sometimes echo back when they explain why they can't call a tool
// directly; it is replaced with language a user is meant to see.
var internalToolConstraintPattern = regexp.MustCompile(
	`(?i)I (?:don't|do not) have (?:direct )?access to (?:a|the) tool (?:called|named) [\x60"'][A-Za-z0-9_]+[\x60"']`,
)

// getToolIdentifierPattern matches a backticked get_* tool identifier that
// leaked into user-facing text.
var getToolIdentifierPattern = regexp.MustCompile("`get_[A-Za-z0-9_]+`")

// Sanitize removes internal tool-plumbing language from a response before
// it reaches the user: the specific internal tool-constraint sentence is
// replaced with generic phrasing, and any backticked get_* identifier is
// replaced with "the requested comparison".
func Sanitize(response string) string {
	response = internalToolConstraintPattern.ReplaceAllString(response, "I'm not able to run that comparison directly")
	response = getToolIdentifierPattern.ReplaceAllString(response, "the requested comparison")
	return response
}
