// Package mcpresolver resolves mcp_config.json endpoint declarations into
// live MCP callers and builds the planner/executor toolsets the agent
// graph hands to its model clients, grounded on runtime_mcp_resolver.py's
// endpoint/auth-header resolution and the JSON-RPC transport shape of
// runtime/mcp (Caller, CallRequest/CallResponse, Error) and
// features/mcp/runtime (HTTP/stdio transports).
package mcpresolver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/Shubhamnegi/agent-core/config"
	"github.com/Shubhamnegi/agent-core/domain"
	"github.com/Shubhamnegi/agent-core/model"
)

// Caller invokes MCP tools on behalf of toolset adapters. It is implemented
// by transport-specific clients (HTTP, stdio).
type Caller interface {
	CallTool(ctx context.Context, req CallRequest) (CallResponse, error)
	ListTools(ctx context.Context) ([]ToolInfo, error)
	Close() error
}

// ToolInfo is one entry returned by the MCP tools/list method.
type ToolInfo struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// Error represents a JSON-RPC error returned by an MCP server.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

// CallRequest describes a single tool invocation issued by the runtime.
type CallRequest struct {
	Tool    string
	Payload json.RawMessage
}

// CallResponse captures the MCP tool result returned by the caller.
type CallResponse struct {
	Result     json.RawMessage
	Structured json.RawMessage
}

// ResolvedEndpoint is one endpoint from mcp_config.json with its URL and
// auth headers fully resolved against the current request and environment.
type ResolvedEndpoint struct {
	Name              string
	Transport         string
	URL               string
	Command           string
	Args              []string
	StdioEnv          map[string]string
	PlannerToolFilter []string
	Headers           http.Header
}

// ResolvedConfig is an mcp_config.json resolved for one request.
type ResolvedConfig struct {
	PlannerEndpoint string
	Endpoints       map[string]ResolvedEndpoint
}

// Resolve turns raw endpoint declarations into ResolvedEndpoint values: the
// endpoint URL comes from the literal url field or the environment variable
// named by url_env (stdio endpoints need only command); each auth header's
// value is the first of the matching inbound request header (case
// insensitive) or the named environment variable.
func Resolve(cfg config.MCPConfig, requestHeaders http.Header) (*ResolvedConfig, error) {
	resolved := &ResolvedConfig{PlannerEndpoint: cfg.PlannerEndpoint, Endpoints: make(map[string]ResolvedEndpoint, len(cfg.Endpoints))}
	for _, ep := range cfg.Endpoints {
		re, err := resolveEndpoint(ep, requestHeaders)
		if err != nil {
			return nil, err
		}
		resolved.Endpoints[ep.Name] = re
	}
	return resolved, nil
}

func resolveEndpoint(ep config.MCPEndpoint, requestHeaders http.Header) (ResolvedEndpoint, error) {
	transport := ep.Transport
	if transport == "" {
		transport = "streamable_http"
	}

	re := ResolvedEndpoint{
		Name:              ep.Name,
		Transport:         transport,
		Command:           ep.Command,
		Args:              ep.Args,
		StdioEnv:          ep.StdioEnv,
		PlannerToolFilter: ep.PlannerToolFilter,
		Headers:           make(http.Header),
	}

	switch transport {
	case "stdio":
		if ep.Command == "" {
			return ResolvedEndpoint{}, domain.NewFailure(domain.KindMCPStdioCommandMissing,
				"mcp_stdio_command_missing", fmt.Sprintf("endpoint %q: command is required for stdio transport", ep.Name))
		}
	case "streamable_http", "sse":
		url := ep.URL
		if url == "" && ep.URLEnv != "" {
			url = os.Getenv(ep.URLEnv)
		}
		if url == "" {
			return ResolvedEndpoint{}, domain.NewFailure(domain.KindMCPEndpointURLMissing,
				"mcp_endpoint_url_missing", fmt.Sprintf("endpoint %q: no url or url_env resolved to a value", ep.Name))
		}
		re.URL = url
	default:
		return ResolvedEndpoint{}, domain.NewFailure(domain.KindMCPTransportNotSupported,
			"mcp_transport_not_supported", fmt.Sprintf("endpoint %q: unsupported transport %q", ep.Name, transport))
	}

	for _, rule := range ep.AuthHeaders {
		value := lookupRequestHeader(requestHeaders, rule.RequestHeader)
		if value == "" && rule.Env != "" {
			value = os.Getenv(rule.Env)
		}
		if value != "" {
			re.Headers.Set(rule.Name, value)
		}
	}
	return re, nil
}

func lookupRequestHeader(headers http.Header, name string) string {
	if headers == nil || name == "" {
		return ""
	}
	return headers.Get(name)
}

// Endpoint looks up a resolved endpoint by name, returning a shaped not-found
// failure when absent.
func (c *ResolvedConfig) Endpoint(name string) (ResolvedEndpoint, error) {
	ep, ok := c.Endpoints[name]
	if !ok {
		return ResolvedEndpoint{}, domain.NewFailure(domain.KindMCPEndpointNotFound,
			"mcp_endpoint_not_found", fmt.Sprintf("no mcp endpoint named %q", name))
	}
	return ep, nil
}

// PlannerEndpointResolved returns the designated planner endpoint, falling
// back to its own PlannerToolFilter default of find_relevant_skill and
// load_instructions when the config left it unset.
func (c *ResolvedConfig) PlannerEndpointResolved() (ResolvedEndpoint, error) {
	ep, err := c.Endpoint(c.PlannerEndpoint)
	if err != nil {
		return ResolvedEndpoint{}, err
	}
	if len(ep.PlannerToolFilter) == 0 {
		ep.PlannerToolFilter = []string{"find_relevant_skill", "load_instructions"}
	}
	return ep, nil
}

// ExecutorEndpoints returns every configured endpoint other than the planner
// endpoint, each restricted to the subset of selectedSkills it advertises
// (empty selectedSkills means no restriction).
func (c *ResolvedConfig) ExecutorEndpoints(selectedSkills []string) []ResolvedEndpoint {
	var out []ResolvedEndpoint
	for name, ep := range c.Endpoints {
		if name == c.PlannerEndpoint {
			continue
		}
		if len(selectedSkills) > 0 {
			ep.PlannerToolFilter = intersect(toolNamesOf(ep), selectedSkills)
		}
		out = append(out, ep)
	}
	return out
}

func toolNamesOf(ep ResolvedEndpoint) []string { return ep.PlannerToolFilter }

func intersect(a, b []string) []string {
	allowed := make(map[string]bool, len(b))
	for _, s := range b {
		allowed[strings.ToLower(s)] = true
	}
	var out []string
	for _, s := range a {
		if allowed[strings.ToLower(s)] {
			out = append(out, s)
		}
	}
	return out
}

// ToToolDefs converts MCP tool listings into the model-facing ToolDef
// vocabulary, applying an optional name filter (empty means no filter).
func ToToolDefs(tools []ToolInfo, filter []string) []model.ToolDef {
	var allowed map[string]bool
	if len(filter) > 0 {
		allowed = make(map[string]bool, len(filter))
		for _, name := range filter {
			allowed[name] = true
		}
	}
	defs := make([]model.ToolDef, 0, len(tools))
	for _, t := range tools {
		if allowed != nil && !allowed[t.Name] {
			continue
		}
		defs = append(defs, model.ToolDef{Name: t.Name, Description: t.Description, Schema: t.InputSchema})
	}
	return defs
}
