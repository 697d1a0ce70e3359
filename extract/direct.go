package extract

import "encoding/json"

// projectDirectResponse mirrors _project_direct_response: parse the model's
// text as a JSON object and pull out only the required fields, defaulting
// missing ones to nil so the caller's contract check can flag them. If the
// response isn't a JSON object at all, it's returned wrapped under a
// "raw_text" field so callers that asked for exactly that field still get a
// match.
func projectDirectResponse(response string, requiredFields []string) map[string]any {
	parsed, ok := tryParseJSONObject(response)
	if !ok {
		if len(requiredFields) == 1 && requiredFields[0] == "raw_text" {
			return map[string]any{"raw_text": response}
		}
		return map[string]any{"raw_text": response}
	}
	if len(requiredFields) == 0 {
		return parsed
	}
	out := make(map[string]any, len(requiredFields))
	for _, field := range requiredFields {
		out[field] = parsed[field]
	}
	return out
}

// tryParseJSONObject reports whether response decodes as a JSON object
// (not an array, string, or scalar), mirroring the original's
// json.loads + isinstance(parsed, dict) guard.
func tryParseJSONObject(response string) (map[string]any, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}
