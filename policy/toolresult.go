package policy

// WrapToolResult attaches tool_name to a dict-shaped tool result, leaving
// any other result type untouched. The original mutates the dict in
// place; this returns a new map so callers never share state with a
// cached/retried result.
func WrapToolResult(toolName string, result map[string]any) map[string]any {
	if result == nil {
		return nil
	}
	wrapped := make(map[string]any, len(result)+1)
	for k, v := range result {
		wrapped[k] = v
	}
	wrapped["tool_name"] = toolName
	return wrapped
}

// NormalizeToolError converts an uncaught tool error into the shaped
// {status:"failed", tool_name, reason} result the coordinator streams back
// to the model instead of raising.
func NormalizeToolError(toolName string, err error) map[string]any {
	return map[string]any{
		"status":    "failed",
		"tool_name": toolName,
		"reason":    err.Error(),
	}
}
