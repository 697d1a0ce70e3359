// Package config loads process configuration from the environment, using
// the same envOr/envIntOr/envDurationOr helpers the registry command uses,
// plus the three JSON side-files that shape runtime behavior without a
// restart: mcp_config.json (MCP endpoint resolution), agent_models.json
// (per-role model overrides) and communication_config.json (Slack/SMTP tool
// settings).
package config

import (
	"os"
	"strconv"
	"time"
)

// Settings holds the process-wide configuration, mirroring the environment
// variable surface of the original agent-core Settings object one-for-one
// (AGENT_-prefixed names, same defaults).
type Settings struct {
	AppName       string
	Environment   string
	LogLevel      string
	RuntimeEngine string
	ModelName     string
	MaxPlanSteps  int
	MaxReplans    int

	OpenSearchURL      string
	RedisURL           string
	SkillServiceURL    string
	SkillServiceKey    string
	MCPConfigPath      string
	AgentModelsPath    string
	CommConfigPath     string
	ReplanEngine       string
	TemporalHostPort   string
	TemporalNamespace  string
	TemporalTaskQueue  string
	EventRetentionDays int
}

// Load builds Settings from the environment, applying the same defaults as
// the original Python Settings object.
func Load() Settings {
	return Settings{
		AppName:       envOr("AGENT_APP_NAME", "agent-core"),
		Environment:   envOr("AGENT_ENVIRONMENT", "local"),
		LogLevel:      envOr("AGENT_LOG_LEVEL", "INFO"),
		RuntimeEngine: envOr("AGENT_RUNTIME_ENGINE", "adk_scaffold"),
		ModelName:     envOr("AGENT_MODEL_NAME", "models/gemini-flash-lite-latest"),
		MaxPlanSteps:  envIntOr("AGENT_MAX_PLAN_STEPS", 10),
		MaxReplans:    envIntOr("AGENT_MAX_REPLANS", 3),

		OpenSearchURL:      envOr("AGENT_OPENSEARCH_URL", "http://localhost:9200"),
		RedisURL:           envOr("AGENT_REDIS_URL", "redis://localhost:6379/0"),
		SkillServiceURL:    envOr("AGENT_SKILL_SERVICE_URL", "http://localhost:8081"),
		SkillServiceKey:    os.Getenv("AGENT_SKILL_SERVICE_KEY"),
		MCPConfigPath:      envOr("AGENT_MCP_CONFIG_PATH", "config/mcp_config.json"),
		AgentModelsPath:    envOr("AGENT_AGENT_MODELS_PATH", "config/agent_models.json"),
		CommConfigPath:     envOr("AGENT_COMM_CONFIG_PATH", "config/communication_config.json"),
		ReplanEngine:       envOr("AGENT_REPLAN_ENGINE", "inmem"),
		TemporalHostPort:   envOr("AGENT_TEMPORAL_HOST_PORT", "localhost:7233"),
		TemporalNamespace:  envOr("AGENT_TEMPORAL_NAMESPACE", "default"),
		TemporalTaskQueue:  envOr("AGENT_TEMPORAL_TASK_QUEUE", "agent-core-replan"),
		EventRetentionDays: envIntOr("AGENT_EVENT_RETENTION_DAYS", 30),
	}
}

func envOr(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envIntOr(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envDurationOr(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
