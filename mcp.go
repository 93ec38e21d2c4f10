// Package mcp is the root of the MCP client runtime for Go. It re-exports
// the entry points of the sub-packages so simple hosts need a single import:
//
//	c := mcp.NewClient(
//	    mcp.NewStdioCommandTransport("my-mcp-server", nil),
//	    client.WithClientInfo(protocol.Implementation{Name: "my-host", Version: "1.0.0"}),
//	)
//	if err := c.Connect(ctx); err != nil {
//	    // handle error
//	}
//	defer c.Close()
//
// The sub-packages:
//
//   - pkg/client: the session protocol engine and its blocking façade
//   - pkg/protocol: JSON-RPC envelopes and MCP payload types
//   - pkg/transport: the transport contract plus stdio and SSE bindings
//   - pkg/errors: the structured error taxonomy
//   - pkg/logging: the structured logging facade
//   - pkg/pagination: cursor drain helpers
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
package mcp

import (
	"github.com/modelctx/mcp-client-go/pkg/client"
	"github.com/modelctx/mcp-client-go/pkg/transport"
)

// Version is the runtime's own version, advertised as the default
// clientInfo during initialize.
const Version = "0.1.0"

// Direct access to the core components
var (
	// NewClient creates a new MCP session engine
	NewClient = client.New

	// NewStdioTransport creates a stdio transport over explicit streams
	NewStdioTransport = transport.NewStdioTransport

	// NewStdioCommandTransport spawns a server subprocess and pipes
	// envelopes through its stdin/stdout
	NewStdioCommandTransport = transport.NewStdioCommandTransport

	// NewSSETransport creates an HTTP POST + Server-Sent Events transport
	NewSSETransport = transport.NewSSETransport
)
