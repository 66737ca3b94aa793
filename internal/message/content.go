// Package message provides message and content block types for Claude conversations.
package message

import "encoding/json"

// Block type constants.
const (
	BlockTypeText       = "text"
	BlockTypeThinking   = "thinking"
	BlockTypeToolUse    = "tool_use"
	BlockTypeToolResult = "tool_result"
)

// ContentBlock represents a block of content within a message.
type ContentBlock interface {
	BlockType() string
}

// Compile-time verification that all content block types implement ContentBlock.
var (
	_ ContentBlock = (*TextBlock)(nil)
	_ ContentBlock = (*ThinkingBlock)(nil)
	_ ContentBlock = (*ToolUseBlock)(nil)
	_ ContentBlock = (*ToolResultBlock)(nil)
	_ ContentBlock = (*UnknownBlock)(nil)
)

// TextBlock contains plain text content.
type TextBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// BlockType implements the ContentBlock interface.
func (b *TextBlock) BlockType() string { return BlockTypeText }

// ThinkingBlock contains Claude's thinking process.
type ThinkingBlock struct {
	Type      string `json:"type"`
	Thinking  string `json:"thinking"`
	Signature string `json:"signature"`
}

// BlockType implements the ContentBlock interface.
func (b *ThinkingBlock) BlockType() string { return BlockTypeThinking }

// ToolUseBlock represents Claude using a tool.
type ToolUseBlock struct {
	Type  string         `json:"type"`
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolUseBlock) BlockType() string { return BlockTypeToolUse }

// ToolResultBlock contains the result of a tool execution.
//
//nolint:tagliatelle // Claude CLI uses snake_case for JSON fields
type ToolResultBlock struct {
	Type      string            `json:"type"`
	ToolUseID string            `json:"tool_use_id"`
	Content   ToolResultContent `json:"content"`
	IsError   *bool             `json:"is_error,omitempty"`
}

// BlockType implements the ContentBlock interface.
func (b *ToolResultBlock) BlockType() string { return BlockTypeToolResult }

// UnknownBlock carries a content block whose type this package does not model.
// Raw holds the block exactly as received.
type UnknownBlock struct {
	Type string
	Raw  map[string]any
}

// BlockType implements the ContentBlock interface.
func (b *UnknownBlock) BlockType() string { return b.Type }

// MarshalJSON emits the original block.
func (b *UnknownBlock) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Raw)
}

// ToolResultContent is the content of a tool result: a string, a list of
// structured items, or absent.
type ToolResultContent struct {
	text  *string
	items []map[string]any
}

// NewToolResultText creates string tool result content.
func NewToolResultText(text string) ToolResultContent {
	return ToolResultContent{text: &text}
}

// NewToolResultItems creates structured tool result content.
func NewToolResultItems(items []map[string]any) ToolResultContent {
	if items == nil {
		items = []map[string]any{}
	}

	return ToolResultContent{items: items}
}

// IsSet reports whether the result carried any content.
func (c ToolResultContent) IsSet() bool {
	return c.text != nil || c.items != nil
}

// IsString reports whether the content was a string.
func (c ToolResultContent) IsString() bool {
	return c.text != nil
}

// String returns the string content, or "" when the content was not a string.
func (c ToolResultContent) String() string {
	if c.text != nil {
		return *c.text
	}

	return ""
}

// Items returns the structured content, or nil when the content was not a list.
func (c ToolResultContent) Items() []map[string]any {
	return c.items
}

// MarshalJSON implements json.Marshaler.
func (c ToolResultContent) MarshalJSON() ([]byte, error) {
	switch {
	case c.text != nil:
		return json.Marshal(*c.text)
	case c.items != nil:
		return json.Marshal(c.items)
	default:
		return []byte("null"), nil
	}
}
