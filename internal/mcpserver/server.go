// Package mcpserver wraps the registry in an MCP server for the stdio and
// streamable-HTTP transports.
package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/lydakis/stability-mcp/internal/registry"
)

// New builds an MCP server exposing every registered tool.
func New(reg *registry.Registry, name, version string) *server.MCPServer {
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	for _, tool := range reg.Tools() {
		handler := tool.Handler
		s.AddTool(tool.Def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, req.GetArguments())
		})
	}
	return s
}

// ServeStdio blocks serving the protocol over stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// ServeHTTP blocks serving the streamable HTTP transport on addr.
func ServeHTTP(s *server.MCPServer, addr string) error {
	return server.NewStreamableHTTPServer(s).Start(addr)
}
