// Package extract normalizes a model's (possibly huge) text response into
// the fields a step's ReturnSpec requires. Small responses are projected
// directly out of parsed JSON; large responses are spilled to a temp file
// and reduced by a short, sandboxed extraction script, grounded on the
// original write_temp/read_lines/exec_python/handle_large_response
// pipeline. Python's ast.parse + exec sandbox has no direct Go analogue —
// this module's stand-in is sandbox.go's go/parser-based script validator
// plus a restricted literal-projection interpreter, since Go offers no
// safe runtime eval of arbitrary code.
package extract

import (
	"context"
	"fmt"

	"github.com/Shubhamnegi/agent-core/domain"
)

const (
	DefaultThresholdBytes  = 50 * 1024
	DefaultTimeoutSeconds  = 30
	DefaultOutputLimitByte = 500 * 1024
	StrategyDirect         = "direct"
	StrategyExecPython     = "write_temp_read_lines_exec_python"
)

// Result is the normalized shape every handle_large_response-equivalent
// call returns, whichever strategy it took.
type Result struct {
	Status        string         `json:"status"`
	Strategy      string         `json:"strategy"`
	LargeResponse bool           `json:"large_response"`
	ContentLength int            `json:"content_length"`
	Data          map[string]any `json:"data,omitempty"`
	Sample        []string       `json:"sample,omitempty"`
	ScriptHash    string         `json:"script_hash,omitempty"`
	Reason        string         `json:"reason,omitempty"`
}

// Options configures HandleLargeResponse's thresholds.
type Options struct {
	ThresholdBytes   int
	TimeoutSeconds   int
	MaxOutputBytes   int
	ExtractionScript string
}

// HandleLargeResponse picks direct JSON projection for small responses and
// temp-file + sandboxed-script extraction for large ones, grounded on
// handle_large_response.
func HandleLargeResponse(ctx context.Context, registry *Registry, response string, returnSpec map[string]string, opts Options) Result {
	threshold := opts.ThresholdBytes
	if threshold <= 0 {
		threshold = DefaultThresholdBytes
	}
	timeoutSeconds := opts.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = DefaultTimeoutSeconds
	}
	maxOutput := opts.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultOutputLimitByte
	}

	requiredFields := make([]string, 0, len(returnSpec))
	for field := range returnSpec {
		requiredFields = append(requiredFields, field)
	}

	contentLength := len(response)
	if contentLength < threshold {
		return Result{
			Status:        "ok",
			Strategy:      StrategyDirect,
			LargeResponse: false,
			ContentLength: contentLength,
			Data:          projectDirectResponse(response, requiredFields),
		}
	}

	fileID := registry.WriteTemp(response)
	sample := registry.ReadLines(fileID, 0, 20)
	script := opts.ExtractionScript
	if script == "" {
		script = defaultExtractionScript(requiredFields)
	}

	execResult := execPython(ctx, script, fileID, registry, timeoutSeconds, maxOutput)
	registry.Cleanup(fileID)

	if execResult.status != "ok" {
		return Result{
			Status:        "failed",
			Strategy:      StrategyExecPython,
			LargeResponse: true,
			ContentLength: contentLength,
			Sample:        sample,
			ScriptHash:    execResult.scriptHash,
			Reason:        firstNonEmpty(execResult.reason, "exec_python_failed"),
		}
	}

	if !matchesRequiredFields(execResult.data, requiredFields) {
		return Result{
			Status:        "failed",
			Strategy:      StrategyExecPython,
			LargeResponse: true,
			ContentLength: contentLength,
			Sample:        sample,
			ScriptHash:    execResult.scriptHash,
			Reason:        "extraction_contract_violation",
		}
	}

	return Result{
		Status:        "ok",
		Strategy:      StrategyExecPython,
		LargeResponse: true,
		ContentLength: contentLength,
		Sample:        sample,
		ScriptHash:    execResult.scriptHash,
		Data:          execResult.data,
	}
}

func matchesRequiredFields(data map[string]any, requiredFields []string) bool {
	if data == nil {
		return false
	}
	if len(data) != len(requiredFields) {
		return false
	}
	for _, field := range requiredFields {
		if _, ok := data[field]; !ok {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ToFailure converts a failed Result to the closed domain.ErrorKind
// vocabulary the orchestrator surfaces on the failure boundary.
func (r Result) ToFailure() *domain.Failure {
	if r.Status == "ok" {
		return nil
	}
	kind := domain.KindToolFailure
	switch r.Reason {
	case "exec_python_timeout":
		kind = domain.KindExecPythonTimeout
	case "exec_python_disallowed_syntax", "exec_python_disallowed_call":
		kind = domain.KindExecPythonDisallowed
	case "exec_python_output_too_large":
		kind = domain.KindExecPythonOutputTooBig
	case "exec_python_file_outside_tempdir":
		kind = domain.KindExecPythonOutsideTmp
	case "exec_python_missing_result":
		kind = domain.KindExecPythonMissingResult
	case "extraction_contract_violation":
		kind = domain.KindContractViolation
	}
	return domain.NewFailure(kind, r.Reason, fmt.Sprintf("large response extraction failed: %s", r.Reason))
}

// defaultExtractionScript mirrors _default_extraction_script: a flat
// field->payload[field] projection, generated when the caller doesn't
// supply its own script.
func defaultExtractionScript(requiredFields []string) string {
	return fmt.Sprintf("map[string]any{%s}", fieldsToProjection(requiredFields))
}

func fieldsToProjection(fields []string) string {
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q: payload[%q]", f, f)
	}
	return out
}
