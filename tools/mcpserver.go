package tools

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterMCP publishes each tool on an MCP server, using the tool's
// parameter schema as the declared input schema. Handler failures are
// returned as MCP tool errors, never as protocol errors, so a client's
// model sees them the same way the local assistant does.
func RegisterMCP(srv *server.MCPServer, list ...ITool) error {
	for _, t := range list {
		rawSchema, err := json.Marshal(t.Parameters())
		if err != nil {
			return errors.Wrapf(err, "failed to marshal schema for tool %q", t.Name())
		}
		tool := mcp.NewToolWithRawSchema(t.Name(), t.Description(), rawSchema)

		handler := func(t ITool) server.ToolHandlerFunc {
			return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				args, err := json.Marshal(req.GetArguments())
				if err != nil {
					return mcp.NewToolResultError(err.Error()), nil
				}
				out, err := t.Call(ctx, string(args))
				if err != nil {
					return mcp.NewToolResultError(NewErrorResult(err).String()), nil
				}
				return mcp.NewToolResultText(out), nil
			}
		}(t)

		srv.AddTool(tool, handler)
	}
	return nil
}
