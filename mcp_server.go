package claudecode

import (
	"fmt"

	internalmcp "github.com/wagiedev/claude-code-sdk-go/internal/mcp"
)

// NewMCPServer builds an in-process MCP server. The CLI reaches its tools as
// mcp__<name>__<tool> through mcp_message control requests, so no separate
// process is started.
//
//	calc, err := claudecode.NewMCPServer("calc", "1.0.0", add)
//	if err != nil {
//	    return err
//	}
//
//	client.Connect(ctx,
//	    claudecode.WithMCPServers(map[string]claudecode.MCPServerConfig{"calc": calc}),
//	    claudecode.WithAllowedTools("mcp__calc__add"),
//	)
func NewMCPServer(name, version string, tools ...*MCPTool) (*MCPSdkServerConfig, error) {
	server := internalmcp.NewSDKServer(name, version)

	for _, tool := range tools {
		mcpTool := internalmcp.NewTool(tool.Name, tool.Description, tool.InputSchema)
		mcpTool.Annotations = tool.Annotations

		if err := server.AddTool(mcpTool, tool.Handler); err != nil {
			return nil, fmt.Errorf("add tool to server %s: %w", name, err)
		}
	}

	return &MCPSdkServerConfig{
		Type:     MCPServerTypeSDK,
		Name:     name,
		Instance: server,
	}, nil
}
