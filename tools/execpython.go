package tools

import (
	"context"

	"github.com/Shubhamnegi/agent-core/extract"
)

// Registry backs the exec_python tool's write_temp/read_lines/exec_python/
// cleanup_temp_file surface for a process. One Registry is shared across
// all steps; HandleLargeResponse owns its own request-scoped temp file.
var execPythonRegistry = extract.NewRegistry(0)

// WriteTemp spills data to the shared temp registry and returns its
// file_id, grounded on write_temp.
func WriteTemp(data string) map[string]any {
	fileID := execPythonRegistry.WriteTemp(data)
	return map[string]any{"file_id": fileID}
}

// ReadLines reads up to n lines of a previously spilled file, grounded on
// read_lines.
func ReadLines(fileID string, start, n int) map[string]any {
	lines := execPythonRegistry.ReadLines(fileID, start, n)
	return map[string]any{"lines": lines}
}

// CleanupTempFile removes a spilled file's entry, grounded on
// cleanup_temp_file.
func CleanupTempFile(fileID string) map[string]any {
	return map[string]any{"removed": execPythonRegistry.Cleanup(fileID)}
}

// SweepTempFiles removes entries past their TTL, grounded on
// sweep_temp_files.
func SweepTempFiles() map[string]any {
	return map[string]any{"removed": execPythonRegistry.Sweep()}
}

// HandleLargeResponse is the model-facing entry point a specialist's tool
// list exposes for reducing an oversized upstream response to the fields
// its step's return spec requires, grounded on handle_large_response.
func HandleLargeResponse(ctx context.Context, response string, returnSpec map[string]string, extractionScript string) map[string]any {
	result := extract.HandleLargeResponse(ctx, execPythonRegistry, response, returnSpec, extract.Options{ExtractionScript: extractionScript})
	out := map[string]any{
		"status":         result.Status,
		"strategy":       result.Strategy,
		"large_response": result.LargeResponse,
		"content_length": result.ContentLength,
	}
	if result.Data != nil {
		out["data"] = result.Data
	}
	if len(result.Sample) > 0 {
		out["sample"] = result.Sample
	}
	if result.ScriptHash != "" {
		out["script_hash"] = result.ScriptHash
	}
	if result.Reason != "" {
		out["reason"] = result.Reason
	}
	return out
}
