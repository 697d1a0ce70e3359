package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// AuthHeaderRule describes one header to attach to outbound MCP requests:
// its value comes from the inbound request header named RequestHeader if
// present, else from the environment variable named Env.
type AuthHeaderRule struct {
	Name          string `json:"name"`
	RequestHeader string `json:"request_header,omitempty"`
	Env           string `json:"env,omitempty"`
}

// MCPEndpoint is one entry in mcp_config.json's "endpoints" array.
type MCPEndpoint struct {
	Name              string            `json:"name"`
	Transport         string            `json:"transport,omitempty"`
	URL               string            `json:"url,omitempty"`
	URLEnv            string            `json:"url_env,omitempty"`
	Command           string            `json:"command,omitempty"`
	Args              []string          `json:"args,omitempty"`
	StdioEnv          map[string]string `json:"stdio_env,omitempty"`
	PlannerToolFilter []string          `json:"planner_tool_filter,omitempty"`
	AuthHeaders       []AuthHeaderRule  `json:"auth_headers,omitempty"`
}

// MCPConfig is the decoded shape of mcp_config.json.
type MCPConfig struct {
	PlannerEndpoint string        `json:"planner_endpoint"`
	Endpoints       []MCPEndpoint `json:"endpoints"`
}

// LoadMCPConfig reads and decodes the MCP endpoint config file at path.
func LoadMCPConfig(path string) (MCPConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return MCPConfig{}, fmt.Errorf("read mcp config %s: %w", path, err)
	}
	var cfg MCPConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return MCPConfig{}, fmt.Errorf("decode mcp config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultSkillServiceEndpoint is the fallback endpoint used when no
// mcp_config.json is configured but AGENT_SKILL_SERVICE_URL is set, for
// local/dev convenience.
func DefaultSkillServiceEndpoint() MCPEndpoint {
	return MCPEndpoint{
		Name:              "skill_service",
		URLEnv:            "AGENT_SKILL_SERVICE_URL",
		PlannerToolFilter: []string{"find_relevant_skill", "load_instructions"},
		AuthHeaders: []AuthHeaderRule{
			{Name: "x-api-key", RequestHeader: "x-skill-service-key", Env: "AGENT_SKILL_SERVICE_KEY"},
		},
	}
}
