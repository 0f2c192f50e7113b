package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Definitions returns the MCP tool definitions derived from the registry's
// tool table.
func (r *Registry) Definitions() []mcp.Tool {
	specs := r.specs()
	defs := make([]mcp.Tool, 0, len(specs))
	for _, sp := range specs {
		opts := []mcp.ToolOption{mcp.WithDescription(sp.description)}
		for _, p := range sp.params {
			propOpts := []mcp.PropertyOption{mcp.Description(p.description)}
			if p.required {
				propOpts = append(propOpts, mcp.Required())
			}
			if len(p.enum) > 0 {
				propOpts = append(propOpts, mcp.Enum(p.enum...))
			}
			opts = append(opts, mcp.WithString(p.name, propOpts...))
		}
		defs = append(defs, mcp.NewTool(sp.name, opts...))
	}
	return defs
}

// NewServer creates an MCP server exposing the registry's tools, typically
// served over stdio for inspector tooling or desktop LLM clients.
func NewServer(r *Registry) *server.MCPServer {
	s := server.NewMCPServer(
		"pichat-"+r.node,
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(fmt.Sprintf(
			"This server controls chat node %s. It can display text on the "+
				"node's screen, send chat messages to its peer %s over MQTT, "+
				"report node status and broadcast the conversation subject.",
			r.node, r.peer)),
	)

	for _, def := range r.Definitions() {
		name := def.Name
		s.AddTool(def, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			out, err := r.Call(ctx, name, req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultText(out), nil
		})
	}
	return s
}

// ServeStdio blocks serving the MCP server on stdin/stdout.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}
