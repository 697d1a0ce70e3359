package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

type execPythonResult struct {
	status     string
	data       map[string]any
	reason     string
	scriptHash string
}

// execPython is this module's stand-in for the original exec_python: it
// hashes the script, parses the spilled payload as JSON, validates and
// evaluates the projection script against it under a deadline, and caps
// the JSON-encoded output size. The original spawns a separate
// multiprocessing.Process and kills it on timeout; a Go projection
// evaluator never blocks on untrusted code (there's no loop or I/O it can
// issue), so the timeout here guards against a pathologically large
// payload rather than runaway script execution.
func execPython(ctx context.Context, script, fileID string, registry *Registry, timeoutSeconds, maxOutputBytes int) execPythonResult {
	hash := sha256.Sum256([]byte(script))
	scriptHash := hex.EncodeToString(hash[:])

	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)

	content, ok := registry.readContent(fileID)
	if !ok {
		return execPythonResult{status: "failed", reason: "exec_python_file_outside_tempdir", scriptHash: scriptHash}
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return execPythonResult{status: "failed", reason: "exec_python_missing_result", scriptHash: scriptHash}
	}

	lit, err := validateScript(script)
	if err != nil {
		return execPythonResult{status: "failed", reason: "exec_python_disallowed_syntax", scriptHash: scriptHash}
	}

	if time.Now().After(deadline) || ctx.Err() != nil {
		return execPythonResult{status: "failed", reason: "exec_python_timeout", scriptHash: scriptHash}
	}

	result, err := evaluateProjection(lit, payload)
	if err != nil {
		return execPythonResult{status: "failed", reason: "exec_python_missing_result", scriptHash: scriptHash}
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		return execPythonResult{status: "failed", reason: "exec_python_missing_result", scriptHash: scriptHash}
	}
	if len(encoded) > maxOutputBytes {
		return execPythonResult{status: "failed", reason: "exec_python_output_too_large", scriptHash: scriptHash}
	}

	return execPythonResult{status: "ok", data: result, scriptHash: scriptHash}
}
