package message

import (
	"fmt"
	"log/slog"

	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

// Parse converts a decoded frame into a typed Message.
//
// Every failure is a *errors.MessageParseError whose Data is the original frame.
// Unknown message types are rejected; unknown content block types become UnknownBlock.
func Parse(log *slog.Logger, data any) (Message, error) {
	log = log.With("component", "message_parser")

	obj, ok := data.(map[string]any)
	if !ok {
		log.Debug("Frame is not an object", "kind", jsonKind(data))

		return nil, &errors.MessageParseError{
			Message: "invalid message data type, expected mapping, got " + jsonKind(data),
			Err:     errors.ErrInvalidMessageData,
			Data:    data,
		}
	}

	rawType, ok := obj["type"]
	if !ok {
		log.Debug("Message missing 'type' field")

		return nil, &errors.MessageParseError{
			Message: "message missing 'type' field",
			Err:     errors.ErrMissingField,
			Data:    data,
		}
	}

	msgType, ok := rawType.(string)
	if !ok {
		log.Debug("Message 'type' field is not a string", "kind", jsonKind(rawType))

		return nil, &errors.MessageParseError{
			Message: "invalid 'type' field, expected string, got " + jsonKind(rawType),
			Err:     errors.ErrInvalidMessageData,
			Data:    data,
		}
	}

	log.Debug("Parsing message", "message_type", msgType)

	var (
		msg Message
		err *errors.MessageParseError
	)

	switch msgType {
	case TypeUser:
		msg, err = parseUserMessage(obj)
	case TypeAssistant:
		msg, err = parseAssistantMessage(obj)
	case TypeSystem:
		msg, err = parseSystemMessage(obj)
	case TypeResult:
		msg, err = parseResultMessage(obj)
	default:
		log.Debug("Unknown message type", "message_type", msgType)

		return nil, &errors.MessageParseError{
			Message: "unknown message type: " + msgType,
			Err:     errors.ErrUnknownMessageType,
			Data:    data,
		}
	}

	if err != nil {
		err.Data = data

		return nil, err
	}

	return msg, nil
}

// parseUserMessage parses a UserMessage. The wire format nests the content
// under "message"; uuid and parent_tool_use_id stay at the top level.
func parseUserMessage(data map[string]any) (*UserMessage, *errors.MessageParseError) {
	inner, perr := requireObject(TypeUser, data, "message")
	if perr != nil {
		return nil, perr
	}

	raw, ok := inner["content"]
	if !ok {
		return nil, missingField(TypeUser, "content")
	}

	msg := &UserMessage{Type: TypeUser}

	switch content := raw.(type) {
	case string:
		msg.Content = NewUserMessageContent(content)
	case []any:
		blocks, perr := parseContentBlocks(TypeUser, content)
		if perr != nil {
			return nil, perr
		}

		msg.Content = NewUserMessageContentBlocks(blocks)
	default:
		return nil, invalidField(TypeUser, "content")
	}

	msg.UUID = optionalString(data, "uuid")
	msg.ParentToolUseID = optionalString(data, "parent_tool_use_id")

	if result, ok := data["tool_use_result"].(map[string]any); ok {
		msg.ToolUseResult = result
	}

	return msg, nil
}

// parseAssistantMessage parses an AssistantMessage.
func parseAssistantMessage(data map[string]any) (*AssistantMessage, *errors.MessageParseError) {
	inner, perr := requireObject(TypeAssistant, data, "message")
	if perr != nil {
		return nil, perr
	}

	raw, ok := inner["content"]
	if !ok {
		return nil, missingField(TypeAssistant, "content")
	}

	var content []ContentBlock

	switch items := raw.(type) {
	case string:
		// Plain-text replies carry a bare string; keep it as a single text block.
		content = []ContentBlock{&TextBlock{Type: BlockTypeText, Text: items}}
	case []any:
		content, perr = parseContentBlocks(TypeAssistant, items)
		if perr != nil {
			return nil, perr
		}
	default:
		return nil, invalidField(TypeAssistant, "content")
	}

	model, perr := requireString(TypeAssistant, inner, "model")
	if perr != nil {
		return nil, perr
	}

	msg := &AssistantMessage{
		Type:            TypeAssistant,
		Content:         content,
		Model:           model,
		ParentToolUseID: optionalString(data, "parent_tool_use_id"),
	}

	// The CLI reports assistant errors at the top level, not inside "message".
	if errorVal, ok := data["error"].(string); ok {
		errType := AssistantMessageError(errorVal)
		msg.Error = &errType
	}

	return msg, nil
}

// parseSystemMessage parses a SystemMessage.
func parseSystemMessage(data map[string]any) (*SystemMessage, *errors.MessageParseError) {
	subtype, perr := requireString(TypeSystem, data, "subtype")
	if perr != nil {
		return nil, perr
	}

	msg := &SystemMessage{
		Type:    TypeSystem,
		Subtype: subtype,
		Data:    make(map[string]any, len(data)),
	}

	for k, v := range data {
		if k != "type" && k != "subtype" {
			msg.Data[k] = v
		}
	}

	return msg, nil
}

// parseResultMessage parses a ResultMessage.
func parseResultMessage(data map[string]any) (*ResultMessage, *errors.MessageParseError) {
	msg := &ResultMessage{Type: TypeResult}

	var perr *errors.MessageParseError

	if msg.Subtype, perr = requireString(TypeResult, data, "subtype"); perr != nil {
		return nil, perr
	}

	if msg.DurationMs, perr = requireInt(TypeResult, data, "duration_ms"); perr != nil {
		return nil, perr
	}

	if msg.DurationAPIMs, perr = requireInt(TypeResult, data, "duration_api_ms"); perr != nil {
		return nil, perr
	}

	if msg.IsError, perr = requireBool(TypeResult, data, "is_error"); perr != nil {
		return nil, perr
	}

	if msg.NumTurns, perr = requireInt(TypeResult, data, "num_turns"); perr != nil {
		return nil, perr
	}

	if msg.SessionID, perr = requireString(TypeResult, data, "session_id"); perr != nil {
		return nil, perr
	}

	if cost, ok := data["total_cost_usd"].(float64); ok {
		msg.TotalCostUSD = &cost
	}

	if usage, ok := data["usage"].(map[string]any); ok {
		msg.Usage = usage
	}

	msg.Result = optionalString(data, "result")
	msg.StructuredOutput = data["structured_output"]

	return msg, nil
}

// parseContentBlocks parses an array of content blocks.
func parseContentBlocks(msgType string, data []any) ([]ContentBlock, *errors.MessageParseError) {
	blocks := make([]ContentBlock, 0, len(data))

	for _, item := range data {
		blockData, ok := item.(map[string]any)
		if !ok {
			return nil, invalidField(msgType, "content")
		}

		block, perr := parseContentBlock(msgType, blockData)
		if perr != nil {
			return nil, perr
		}

		blocks = append(blocks, block)
	}

	return blocks, nil
}

// parseContentBlock parses a single content block.
func parseContentBlock(msgType string, data map[string]any) (ContentBlock, *errors.MessageParseError) {
	blockType, perr := requireString(msgType, data, "type")
	if perr != nil {
		return nil, perr
	}

	switch blockType {
	case BlockTypeText:
		text, perr := requireString(msgType, data, "text")
		if perr != nil {
			return nil, perr
		}

		return &TextBlock{Type: BlockTypeText, Text: text}, nil
	case BlockTypeThinking:
		thinking, perr := requireString(msgType, data, "thinking")
		if perr != nil {
			return nil, perr
		}

		signature, perr := requireString(msgType, data, "signature")
		if perr != nil {
			return nil, perr
		}

		return &ThinkingBlock{Type: BlockTypeThinking, Thinking: thinking, Signature: signature}, nil
	case BlockTypeToolUse:
		return parseToolUseBlock(msgType, data)
	case BlockTypeToolResult:
		return parseToolResultBlock(msgType, data)
	default:
		return &UnknownBlock{Type: blockType, Raw: data}, nil
	}
}

// parseToolUseBlock parses a ToolUseBlock.
func parseToolUseBlock(msgType string, data map[string]any) (*ToolUseBlock, *errors.MessageParseError) {
	id, perr := requireString(msgType, data, "id")
	if perr != nil {
		return nil, perr
	}

	name, perr := requireString(msgType, data, "name")
	if perr != nil {
		return nil, perr
	}

	input, perr := requireObject(msgType, data, "input")
	if perr != nil {
		return nil, perr
	}

	return &ToolUseBlock{Type: BlockTypeToolUse, ID: id, Name: name, Input: input}, nil
}

// parseToolResultBlock parses a ToolResultBlock. Content may be a string, a list
// of objects, or absent.
func parseToolResultBlock(msgType string, data map[string]any) (*ToolResultBlock, *errors.MessageParseError) {
	toolUseID, perr := requireString(msgType, data, "tool_use_id")
	if perr != nil {
		return nil, perr
	}

	block := &ToolResultBlock{Type: BlockTypeToolResult, ToolUseID: toolUseID}

	switch content := data["content"].(type) {
	case nil:
	case string:
		block.Content = NewToolResultText(content)
	case []any:
		items := make([]map[string]any, 0, len(content))

		for _, item := range content {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, invalidField(msgType, "content")
			}

			items = append(items, obj)
		}

		block.Content = NewToolResultItems(items)
	default:
		return nil, invalidField(msgType, "content")
	}

	if isError, ok := data["is_error"].(bool); ok {
		block.IsError = &isError
	}

	return block, nil
}

func missingField(msgType, field string) *errors.MessageParseError {
	return &errors.MessageParseError{
		Message: fmt.Sprintf("missing required field in %s message: %s", msgType, field),
		Err:     errors.ErrMissingField,
	}
}

func invalidField(msgType, field string) *errors.MessageParseError {
	return &errors.MessageParseError{
		Message: fmt.Sprintf("invalid field in %s message: %s", msgType, field),
		Err:     errors.ErrMissingField,
	}
}

func requireString(msgType string, data map[string]any, field string) (string, *errors.MessageParseError) {
	raw, ok := data[field]
	if !ok {
		return "", missingField(msgType, field)
	}

	s, ok := raw.(string)
	if !ok {
		return "", invalidField(msgType, field)
	}

	return s, nil
}

func requireInt(msgType string, data map[string]any, field string) (int, *errors.MessageParseError) {
	raw, ok := data[field]
	if !ok {
		return 0, missingField(msgType, field)
	}

	n, ok := raw.(float64)
	if !ok {
		return 0, invalidField(msgType, field)
	}

	return int(n), nil
}

func requireBool(msgType string, data map[string]any, field string) (bool, *errors.MessageParseError) {
	raw, ok := data[field]
	if !ok {
		return false, missingField(msgType, field)
	}

	b, ok := raw.(bool)
	if !ok {
		return false, invalidField(msgType, field)
	}

	return b, nil
}

func requireObject(msgType string, data map[string]any, field string) (map[string]any, *errors.MessageParseError) {
	raw, ok := data[field]
	if !ok {
		return nil, missingField(msgType, field)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, invalidField(msgType, field)
	}

	return obj, nil
}

func optionalString(data map[string]any, field string) *string {
	if s, ok := data[field].(string); ok {
		return &s
	}

	return nil
}

// jsonKind names the JSON kind of a decoded value.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "array"
	case string:
		return "string"
	case float64, int, int64:
		return "number"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
