package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Shubhamnegi/agent-core/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"AGENT_APP_NAME", "AGENT_MAX_PLAN_STEPS", "AGENT_REDIS_URL"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	s := Load()
	assert.Equal(t, "agent-core", s.AppName)
	assert.Equal(t, 10, s.MaxPlanSteps)
	assert.Equal(t, "redis://localhost:6379/0", s.RedisURL)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("AGENT_MAX_REPLANS", "7")
	s := Load()
	assert.Equal(t, 7, s.MaxReplans)
}

func TestResolveAgentModels_DefaultsWithoutFile(t *testing.T) {
	got := ResolveAgentModels(context.Background(), "", "default-model", telemetry.NoopLogger{})
	for _, role := range AgentRoles {
		assert.Equal(t, "default-model", got[role])
	}
}

func TestResolveAgentModels_OverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agent_models.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"planner":"planner-model","executor":"","unknown_role":"x"}`), 0o644))

	got := ResolveAgentModels(context.Background(), path, "default-model", telemetry.NoopLogger{})
	assert.Equal(t, "planner-model", got["planner"])
	assert.Equal(t, "default-model", got["executor"])
	assert.Equal(t, "default-model", got["coordinator"])
}

func TestResolveAgentModels_MissingFileIsTolerated(t *testing.T) {
	got := ResolveAgentModels(context.Background(), "/nonexistent/agent_models.json", "default-model", telemetry.NoopLogger{})
	assert.Equal(t, "default-model", got["memory"])
}

func TestLoadMCPConfig_DecodesEndpoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcp_config.json")
	body := `{"planner_endpoint":"skill_service","endpoints":[{"name":"skill_service","transport":"streamable_http","url_env":"AGENT_SKILL_SERVICE_URL"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := LoadMCPConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "skill_service", cfg.PlannerEndpoint)
	require.Len(t, cfg.Endpoints, 1)
	assert.Equal(t, "streamable_http", cfg.Endpoints[0].Transport)
}

func TestLoadCommunicationConfig_MissingFileReturnsZeroValue(t *testing.T) {
	cfg := LoadCommunicationConfig("/nonexistent/communication_config.json")
	assert.Equal(t, CommunicationConfig{}, cfg)
}

func TestResolveSecret_PrefersExplicit(t *testing.T) {
	t.Setenv("TEST_SECRET_ENV", "from-env")
	assert.Equal(t, "explicit", ResolveSecret("explicit", "TEST_SECRET_ENV"))
	assert.Equal(t, "from-env", ResolveSecret("", "TEST_SECRET_ENV"))
}
