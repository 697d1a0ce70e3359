package mcpresolver

import (
	"net/http"
	"testing"

	"github.com/Shubhamnegi/agent-core/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_URLFromLiteralAndEnv(t *testing.T) {
	t.Setenv("TEST_MCP_URL", "https://mcp.example.com/rpc")
	cfg := config.MCPConfig{
		PlannerEndpoint: "skills",
		Endpoints: []config.MCPEndpoint{
			{Name: "skills", URL: "https://literal.example.com/rpc"},
			{Name: "other", URLEnv: "TEST_MCP_URL"},
		},
	}

	resolved, err := Resolve(cfg, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "https://literal.example.com/rpc", resolved.Endpoints["skills"].URL)
	assert.Equal(t, "https://mcp.example.com/rpc", resolved.Endpoints["other"].URL)
}

func TestResolve_MissingURLFails(t *testing.T) {
	cfg := config.MCPConfig{Endpoints: []config.MCPEndpoint{{Name: "broken"}}}
	_, err := Resolve(cfg, http.Header{})
	assert.Error(t, err)
}

func TestResolve_StdioRequiresCommand(t *testing.T) {
	cfg := config.MCPConfig{Endpoints: []config.MCPEndpoint{{Name: "broken", Transport: "stdio"}}}
	_, err := Resolve(cfg, http.Header{})
	assert.Error(t, err)
}

func TestResolve_AuthHeaderPrefersRequestHeaderOverEnv(t *testing.T) {
	t.Setenv("TEST_MCP_KEY", "env-value")
	cfg := config.MCPConfig{
		Endpoints: []config.MCPEndpoint{{
			Name: "skills",
			URL:  "https://example.com",
			AuthHeaders: []config.AuthHeaderRule{
				{Name: "x-api-key", RequestHeader: "x-skill-service-key", Env: "TEST_MCP_KEY"},
			},
		}},
	}
	headers := http.Header{"X-Skill-Service-Key": []string{"request-value"}}

	resolved, err := Resolve(cfg, headers)
	require.NoError(t, err)
	assert.Equal(t, "request-value", resolved.Endpoints["skills"].Headers.Get("x-api-key"))
}

func TestResolve_AuthHeaderFallsBackToEnv(t *testing.T) {
	t.Setenv("TEST_MCP_KEY2", "env-value")
	cfg := config.MCPConfig{
		Endpoints: []config.MCPEndpoint{{
			Name: "skills",
			URL:  "https://example.com",
			AuthHeaders: []config.AuthHeaderRule{
				{Name: "x-api-key", RequestHeader: "x-skill-service-key", Env: "TEST_MCP_KEY2"},
			},
		}},
	}

	resolved, err := Resolve(cfg, http.Header{})
	require.NoError(t, err)
	assert.Equal(t, "env-value", resolved.Endpoints["skills"].Headers.Get("x-api-key"))
}

func TestPlannerEndpointResolved_DefaultsFilter(t *testing.T) {
	cfg := config.MCPConfig{
		PlannerEndpoint: "skills",
		Endpoints:       []config.MCPEndpoint{{Name: "skills", URL: "https://example.com"}},
	}
	resolved, err := Resolve(cfg, http.Header{})
	require.NoError(t, err)

	ep, err := resolved.PlannerEndpointResolved()
	require.NoError(t, err)
	assert.Equal(t, []string{"find_relevant_skill", "load_instructions"}, ep.PlannerToolFilter)
}

func TestExecutorEndpoints_ExcludesPlannerAndRestrictsToSelectedSkills(t *testing.T) {
	cfg := config.MCPConfig{
		PlannerEndpoint: "skills",
		Endpoints: []config.MCPEndpoint{
			{Name: "skills", URL: "https://example.com"},
			{Name: "billing", URL: "https://example.com", PlannerToolFilter: []string{"get_aws_cost", "get_gcp_cost"}},
		},
	}
	resolved, err := Resolve(cfg, http.Header{})
	require.NoError(t, err)

	eps := resolved.ExecutorEndpoints([]string{"get_aws_cost"})
	require.Len(t, eps, 1)
	assert.Equal(t, "billing", eps[0].Name)
	assert.Equal(t, []string{"get_aws_cost"}, eps[0].PlannerToolFilter)
}

func TestToToolDefs_FiltersByName(t *testing.T) {
	tools := []ToolInfo{
		{Name: "find_relevant_skill", Description: "find"},
		{Name: "load_instructions", Description: "load"},
		{Name: "unrelated", Description: "nope"},
	}
	defs := ToToolDefs(tools, []string{"find_relevant_skill", "load_instructions"})
	require.Len(t, defs, 2)
	assert.Equal(t, "find_relevant_skill", defs[0].Name)
}

func TestNormalizeToolResult_PlainTextWrappedAsJSONString(t *testing.T) {
	text := "not json"
	resp, err := normalizeToolResult(toolsCallResult{Content: []contentItem{{Type: "text", Text: &text}}})
	require.NoError(t, err)
	assert.Equal(t, `"not json"`, string(resp.Result))
}

func TestNormalizeToolResult_JSONTextPassedThrough(t *testing.T) {
	text := `{"status":"ok"}`
	resp, err := normalizeToolResult(toolsCallResult{Content: []contentItem{{Type: "text", Text: &text}}})
	require.NoError(t, err)
	assert.JSONEq(t, text, string(resp.Result))
}
