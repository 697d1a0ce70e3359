package mcpresolver

import (
	"context"

	"github.com/Shubhamnegi/agent-core/domain"
)

// Dial opens a Caller for a resolved endpoint, picking the HTTP or stdio
// transport. sse is treated as streamable_http since both speak the same
// JSON-RPC-over-HTTP request/response shape at the resolver's level of
// abstraction; genuine server-sent event framing is a transport detail of
// the underlying *http.Client, not of this caller contract.
func Dial(ctx context.Context, ep ResolvedEndpoint) (Caller, error) {
	switch ep.Transport {
	case "stdio":
		return NewStdioCaller(ctx, ep.Command, ep.Args, ep.StdioEnv)
	case "streamable_http", "sse":
		return NewHTTPCaller(ctx, ep.URL, ep.Headers)
	default:
		return nil, domain.NewFailure(domain.KindMCPTransportNotSupported,
			"mcp_transport_not_supported", "unsupported transport: "+ep.Transport)
	}
}
