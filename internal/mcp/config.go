package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
)

// ServerType names the transport of an MCP server in --mcp-config.
type ServerType string

const (
	ServerTypeStdio ServerType = "stdio"
	ServerTypeSSE   ServerType = "sse"
	ServerTypeHTTP  ServerType = "http"
	// ServerTypeSDK marks a server hosted inside this process and reached
	// through mcp_message control requests.
	ServerTypeSDK ServerType = "sdk"
)

// ServerConfig is one entry of the mcpServers map passed to the CLI.
type ServerConfig interface {
	GetType() ServerType
}

var (
	_ ServerConfig = (*StdioServerConfig)(nil)
	_ ServerConfig = (*SSEServerConfig)(nil)
	_ ServerConfig = (*HTTPServerConfig)(nil)
	_ ServerConfig = (*SdkServerConfig)(nil)
)

// StdioServerConfig launches an external MCP server as a child of the CLI.
// Type may be left nil; the CLI treats a missing type as stdio.
type StdioServerConfig struct {
	Type    *ServerType       `json:"type,omitempty"`
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

func (c *StdioServerConfig) GetType() ServerType {
	if c.Type == nil {
		return ServerTypeStdio
	}

	return *c.Type
}

// SSEServerConfig points the CLI at a remote server speaking SSE.
type SSEServerConfig struct {
	Type    ServerType        `json:"type"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (c *SSEServerConfig) GetType() ServerType { return c.Type }

// HTTPServerConfig points the CLI at a remote streamable HTTP server.
type HTTPServerConfig struct {
	Type    ServerType        `json:"type"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (c *HTTPServerConfig) GetType() ServerType { return c.Type }

// ServerInstance is what the Router needs from an in-process server.
type ServerInstance interface {
	Name() string
	Version() string
	ListTools() []map[string]any
	CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error)
}

// SdkServerConfig registers an in-process server. Only Type and Name reach
// the CLI; Instance stays local and must implement ServerInstance to be
// routable.
type SdkServerConfig struct {
	Type     ServerType `json:"type"`
	Name     string     `json:"name"`
	Instance any        `json:"-"`
}

func (c *SdkServerConfig) GetType() ServerType { return c.Type }

// EncodeCLIConfig renders servers as the JSON document accepted by the CLI's
// --mcp-config flag: {"mcpServers": {...}}. Nil entries are rejected.
func EncodeCLIConfig(servers map[string]ServerConfig) (string, error) {
	for name, server := range servers {
		if server == nil {
			return "", fmt.Errorf("mcp server %q: nil config", name)
		}
	}

	data, err := json.Marshal(map[string]any{"mcpServers": maps.Clone(servers)})
	if err != nil {
		return "", fmt.Errorf("encode mcp config: %w", err)
	}

	return string(data), nil
}
