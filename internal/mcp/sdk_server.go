package mcp

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Compile-time verification that SDKServer implements ServerInstance.
var _ ServerInstance = (*SDKServer)(nil)

// SDKServer is an in-process tool server reached through mcp_message control requests.
//
// Tools are declared with the official MCP SDK types. Arguments are checked against
// the tool's input schema before the handler runs.
type SDKServer struct {
	name    string
	version string
	mu      sync.RWMutex
	tools   map[string]*sdkTool
}

// sdkTool holds tool metadata, its resolved input schema, and the handler.
type sdkTool struct {
	tool    *mcp.Tool
	schema  *jsonschema.Resolved
	handler mcp.ToolHandler
	listing map[string]any
}

// NewSDKServer creates an empty in-process server.
func NewSDKServer(name, version string) *SDKServer {
	return &SDKServer{
		name:    name,
		version: version,
		tools:   make(map[string]*sdkTool, 8),
	}
}

// AddTool registers a tool. It fails when the input schema cannot be resolved.
func (s *SDKServer) AddTool(tool *mcp.Tool, handler mcp.ToolHandler) error {
	entry := &sdkTool{
		tool:    tool,
		handler: handler,
	}

	if schema, ok := tool.InputSchema.(*jsonschema.Schema); ok && schema != nil {
		resolved, err := schema.Resolve(nil)
		if err != nil {
			return fmt.Errorf("resolve input schema for tool %s: %w", tool.Name, err)
		}

		entry.schema = resolved
	}

	entry.listing = toolListing(tool)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.tools[tool.Name] = entry

	return nil
}

// Name returns the server name.
func (s *SDKServer) Name() string {
	return s.name
}

// Version returns the server version.
func (s *SDKServer) Version() string {
	return s.version
}

// ServerInfo returns server information for the MCP initialize reply.
func (s *SDKServer) ServerInfo() map[string]any {
	return map[string]any{
		"name":    s.name,
		"version": s.version,
	}
}

// Capabilities returns server capabilities for the MCP initialize reply.
func (s *SDKServer) Capabilities() map[string]any {
	return map[string]any{
		"tools": map[string]any{},
	}
}

// ListTools returns tool metadata ordered by name.
func (s *SDKServer) ListTools() []map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]*sdkTool, 0, len(s.tools))
	for _, t := range s.tools {
		entries = append(entries, t)
	}

	slices.SortFunc(entries, func(a, b *sdkTool) int {
		return cmp.Compare(a.tool.Name, b.tool.Name)
	})

	result := make([]map[string]any, len(entries))
	for i, t := range entries {
		result[i] = t.listing
	}

	return result
}

// CallTool executes a tool by name. Unknown tools, invalid arguments and handler
// failures are reported inside the result with is_error set.
func (s *SDKServer) CallTool(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	s.mu.RLock()
	t, exists := s.tools[name]
	s.mu.RUnlock()

	if !exists {
		return errorContent("Tool not found: " + name), nil
	}

	if input == nil {
		input = map[string]any{}
	}

	if t.schema != nil {
		if err := t.schema.Validate(input); err != nil {
			//nolint:nilerr // validation failures are reported to the model, not the caller
			return errorContent("Invalid arguments: " + err.Error()), nil
		}
	}

	raw, err := json.Marshal(input)
	if err != nil {
		//nolint:nilerr // reported to the model
		return errorContent("Failed to marshal input: " + err.Error()), nil
	}

	result, err := t.handler(ctx, &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: raw},
	})
	if err != nil {
		//nolint:nilerr // reported to the model
		return errorContent("Tool execution failed: " + err.Error()), nil
	}

	return resultPayload(result), nil
}

// toolListing renders the tools/list entry for a tool.
func toolListing(tool *mcp.Tool) map[string]any {
	entry := map[string]any{
		"name":        tool.Name,
		"description": tool.Description,
	}

	if m := toMap(tool.InputSchema); m != nil {
		entry["inputSchema"] = m
	}

	if m := toMap(tool.Annotations); m != nil {
		entry["annotations"] = m
	}

	return entry
}

// toMap converts a JSON-serializable value into a generic map, or nil.
func toMap(v any) map[string]any {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	var m map[string]any
	if json.Unmarshal(data, &m) != nil {
		return nil
	}

	return m
}

func errorContent(text string) map[string]any {
	return map[string]any{
		"content":  []map[string]any{{"type": "text", "text": text}},
		"is_error": true,
	}
}

// resultPayload renders a tool result as the tools/call result object.
// Content kinds the CLI does not understand are dropped.
func resultPayload(result *mcp.CallToolResult) map[string]any {
	blocks := []map[string]any{}

	if result == nil {
		return map[string]any{"content": blocks}
	}

	for _, c := range result.Content {
		if block := contentBlock(c); block != nil {
			blocks = append(blocks, block)
		}
	}

	payload := map[string]any{"content": blocks}
	if result.IsError {
		payload["is_error"] = true
	}

	return payload
}

func contentBlock(c mcp.Content) map[string]any {
	switch v := c.(type) {
	case *mcp.TextContent:
		return map[string]any{"type": "text", "text": v.Text}
	case *mcp.ImageContent:
		return map[string]any{"type": "image", "data": v.Data, "mimeType": v.MIMEType}
	case *mcp.AudioContent:
		return map[string]any{"type": "audio", "data": v.Data, "mimeType": v.MIMEType}
	case *mcp.ResourceLink:
		return map[string]any{"type": "resource_link", "uri": v.URI, "name": v.Name}
	case *mcp.EmbeddedResource:
		if v.Resource == nil {
			return nil
		}

		return map[string]any{
			"type": "resource",
			"resource": map[string]any{
				"uri":      v.Resource.URI,
				"mimeType": v.Resource.MIMEType,
				"text":     v.Resource.Text,
			},
		}
	default:
		return nil
	}
}

// SimpleSchema creates an object schema from a property-name to Go-type map.
// Every property is required.
//
// Input format: {"a": "float64", "b": "string"}
func SimpleSchema(props map[string]string) *jsonschema.Schema {
	properties := make(map[string]*jsonschema.Schema, len(props))
	required := make([]string, 0, len(props))

	for name, goType := range props {
		properties[name] = goTypeToJSONSchema(goType)
		required = append(required, name)
	}

	slices.Sort(required)

	return &jsonschema.Schema{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// goTypeToJSONSchema converts a Go type string to a JSON Schema type.
func goTypeToJSONSchema(goType string) *jsonschema.Schema {
	switch goType {
	case "string":
		return &jsonschema.Schema{Type: "string"}
	case "int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64":
		return &jsonschema.Schema{Type: "integer"}
	case "float32", "float64", "float", "number":
		return &jsonschema.Schema{Type: "number"}
	case "bool", "boolean":
		return &jsonschema.Schema{Type: "boolean"}
	case "any", "object", "map[string]any":
		return &jsonschema.Schema{Type: "object"}
	}

	if itemType, ok := strings.CutPrefix(goType, "[]"); ok && itemType != "" {
		return &jsonschema.Schema{
			Type:  "array",
			Items: goTypeToJSONSchema(itemType),
		}
	}

	return &jsonschema.Schema{Type: "string"}
}

// TextResult creates a CallToolResult with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// ErrorResult creates a CallToolResult indicating an error.
func ErrorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
		IsError: true,
	}
}

// NewTool creates an mcp.Tool with the given parameters.
func NewTool(name, description string, inputSchema *jsonschema.Schema) *mcp.Tool {
	tool := &mcp.Tool{
		Name:        name,
		Description: description,
	}

	if inputSchema != nil {
		tool.InputSchema = inputSchema
	}

	return tool
}

// ParseArguments unmarshals CallToolRequest arguments into a map.
func ParseArguments(req *mcp.CallToolRequest) (map[string]any, error) {
	if req == nil || req.Params == nil || len(req.Params.Arguments) == 0 {
		return make(map[string]any), nil
	}

	var args map[string]any
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal arguments: %w", err)
	}

	return args, nil
}
