package claudecode

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	internalmcp "github.com/wagiedev/claude-code-sdk-go/internal/mcp"
)

// MCP SDK types used by in-process tools.
type (
	CallToolRequest    = mcp.CallToolRequest
	CallToolResult     = mcp.CallToolResult
	MCPToolHandler     = mcp.ToolHandler
	MCPToolAnnotations = mcp.ToolAnnotations

	// Schema is a JSON Schema. Tool arguments are validated against it before
	// the handler runs.
	Schema = jsonschema.Schema
)

// MCPTool is a tool served by an in-process MCP server.
type MCPTool struct {
	Name        string
	Description string
	InputSchema *Schema
	Handler     MCPToolHandler
	Annotations *MCPToolAnnotations
}

// MCPToolOption configures an MCPTool.
type MCPToolOption func(*MCPTool)

// WithAnnotations attaches behavior hints such as ReadOnlyHint.
func WithAnnotations(annotations *MCPToolAnnotations) MCPToolOption {
	return func(t *MCPTool) {
		t.Annotations = annotations
	}
}

// NewMCPTool declares a tool.
//
//	add := claudecode.NewMCPTool("add", "Add two numbers",
//	    claudecode.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(ctx context.Context, req *claudecode.CallToolRequest) (*claudecode.CallToolResult, error) {
//	        args, err := claudecode.ParseArguments(req)
//	        if err != nil {
//	            return claudecode.ErrorResult(err.Error()), nil
//	        }
//	        return claudecode.TextResult(fmt.Sprint(args["a"].(float64) + args["b"].(float64))), nil
//	    },
//	)
func NewMCPTool(name, description string, schema *Schema, handler MCPToolHandler, opts ...MCPToolOption) *MCPTool {
	t := &MCPTool{
		Name:        name,
		Description: description,
		InputSchema: schema,
		Handler:     handler,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// SimpleSchema builds an object schema from property names to Go type names.
// Every property is required.
//
//	SimpleSchema(map[string]string{"path": "string", "lines": "[]int"})
func SimpleSchema(props map[string]string) *Schema {
	return internalmcp.SimpleSchema(props)
}

// TextResult returns a successful result with one text item.
func TextResult(text string) *CallToolResult {
	return internalmcp.TextResult(text)
}

// ErrorResult returns a result the model sees as a tool failure.
func ErrorResult(message string) *CallToolResult {
	return internalmcp.ErrorResult(message)
}

// ParseArguments decodes the request arguments into a map.
func ParseArguments(req *CallToolRequest) (map[string]any, error) {
	return internalmcp.ParseArguments(req)
}
