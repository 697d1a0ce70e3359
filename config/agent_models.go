package config

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/Shubhamnegi/agent-core/telemetry"
)

// AgentRoles enumerates the five sub-agent roles that can be pinned to a
// specific model independently of the process-wide default.
var AgentRoles = [...]string{"coordinator", "planner", "executor", "memory", "communicator"}

// ResolveAgentModels returns a complete role->model map: every role in
// AgentRoles defaults to defaultModel, then any override present in the
// agent_models.json file at path replaces that role's entry. A missing or
// malformed file is tolerated — role resolution falls back to defaultModel
// for every role rather than failing process boot.
func ResolveAgentModels(ctx context.Context, path, defaultModel string, log telemetry.Logger) map[string]string {
	resolved := make(map[string]string, len(AgentRoles))
	for _, role := range AgentRoles {
		resolved[role] = defaultModel
	}
	for role, modelName := range loadAgentModelOverrides(ctx, path, log) {
		resolved[role] = modelName
	}
	return resolved
}

func loadAgentModelOverrides(ctx context.Context, path string, log telemetry.Logger) map[string]string {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		log.Warn(ctx, "agent_models_config_missing", "path", path)
		return nil
	}
	if err != nil {
		log.Error(ctx, "agent_models_config_unreadable", "path", path, "error", err.Error())
		return nil
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		log.Error(ctx, "agent_models_config_invalid_json", "path", path, "error", err.Error())
		return nil
	}

	out := make(map[string]string)
	for _, role := range AgentRoles {
		v, ok := decoded[role]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			out[role] = trimmed
		}
	}
	return out
}
