package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
)

// ProtocolVersion is the MCP protocol revision reported to the CLI.
const ProtocolVersion = "2024-11-05"

// JSON-RPC error codes used in mcp_message responses.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Router answers JSON-RPC messages the CLI tunnels to in-process servers
// through mcp_message control requests.
type Router struct {
	log     *slog.Logger
	servers map[string]ServerInstance
}

// NewRouter collects the in-process servers from a server configuration map.
// Configs that are not *SdkServerConfig, or whose Instance is not a ServerInstance,
// are left to the CLI.
func NewRouter(log *slog.Logger, configs map[string]ServerConfig) *Router {
	r := &Router{
		log:     log.With("component", "mcp_router"),
		servers: make(map[string]ServerInstance, len(configs)),
	}

	for name, cfg := range configs {
		sdkConfig, ok := cfg.(*SdkServerConfig)
		if !ok || sdkConfig == nil {
			continue
		}

		server, ok := sdkConfig.Instance.(ServerInstance)
		if !ok {
			continue
		}

		r.servers[name] = server
		r.log.Debug("Registered SDK MCP server", "server", name)
	}

	return r
}

// Len returns the number of in-process servers.
func (r *Router) Len() int {
	return len(r.servers)
}

// Names returns the in-process server names in sorted order.
func (r *Router) Names() []string {
	return slices.Sorted(maps.Keys(r.servers))
}

// Handle routes one JSON-RPC message to the named server and returns the
// control response payload wrapping the JSON-RPC reply.
func (r *Router) Handle(ctx context.Context, serverName string, message map[string]any) (map[string]any, error) {
	if message == nil {
		return nil, fmt.Errorf("missing message field in mcp_message request")
	}

	method, _ := message["method"].(string)
	params, _ := message["params"].(map[string]any)
	msgID := normalizeID(message["id"])

	r.log.Debug("Routing MCP message", "server", serverName, "method", method)

	server, exists := r.servers[serverName]
	if !exists {
		return errorReply(msgID, codeInvalidRequest, "MCP server not found: "+serverName), nil
	}

	switch method {
	case "initialize":
		return reply(msgID, map[string]any{
			"protocolVersion": ProtocolVersion,
			"capabilities":    capabilitiesOf(server),
			"serverInfo":      serverInfoOf(server),
		}), nil

	case "notifications/initialized":
		return reply(msgID, map[string]any{}), nil

	case "tools/list":
		return reply(msgID, map[string]any{"tools": server.ListTools()}), nil

	case "tools/call":
		if params == nil {
			return errorReply(msgID, codeInvalidParams, "Missing params for tools/call"), nil
		}

		toolName, _ := params["name"].(string)
		if toolName == "" {
			return errorReply(msgID, codeInvalidParams, "Missing tool name in params"), nil
		}

		arguments, _ := params["arguments"].(map[string]any)

		result, err := server.CallTool(ctx, toolName, arguments)
		if err != nil {
			return errorReply(msgID, codeInternalError, err.Error()), nil
		}

		return reply(msgID, result), nil

	default:
		return errorReply(msgID, codeMethodNotFound, "Method not found: "+method), nil
	}
}

// normalizeID keeps string ids and turns JSON numbers into ints.
func normalizeID(id any) any {
	if f, ok := id.(float64); ok {
		return int(f)
	}

	return id
}

func serverInfoOf(server ServerInstance) map[string]any {
	if p, ok := server.(interface{ ServerInfo() map[string]any }); ok {
		return p.ServerInfo()
	}

	return map[string]any{
		"name":    server.Name(),
		"version": server.Version(),
	}
}

func capabilitiesOf(server ServerInstance) map[string]any {
	if p, ok := server.(interface{ Capabilities() map[string]any }); ok {
		return p.Capabilities()
	}

	return map[string]any{"tools": map[string]any{}}
}

func reply(msgID any, result any) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      msgID,
			"result":  result,
		},
	}
}

func errorReply(msgID any, code int, message string) map[string]any {
	return map[string]any{
		"mcp_response": map[string]any{
			"jsonrpc": "2.0",
			"id":      msgID,
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
	}
}
