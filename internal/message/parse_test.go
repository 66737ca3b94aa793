package message

import (
	"errors"
	"log/slog"
	"testing"

	sdkerrors "github.com/wagiedev/claude-code-sdk-go/internal/errors"

	"github.com/stretchr/testify/require"
)

func TestParseAssistantMessage(t *testing.T) {
	logger := slog.Default()

	tests := []struct {
		name           string
		data           map[string]any
		wantError      bool
		wantErrorValue AssistantMessageError
		wantModel      string
		wantContentLen int
		wantToolUseID  *string
	}{
		{
			name: "no error field",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": []any{
						map[string]any{"type": "text", "text": "hello"},
					},
					"model": "claude-sonnet-4-5-20250514",
				},
			},
			wantModel:      "claude-sonnet-4-5-20250514",
			wantContentLen: 1,
		},
		{
			name: "authentication_failed error",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": []any{},
					"model":   "claude-sonnet-4-5-20250514",
				},
				"error": "authentication_failed",
			},
			wantError:      true,
			wantErrorValue: AssistantMessageErrorAuthFailed,
			wantModel:      "claude-sonnet-4-5-20250514",
		},
		{
			name: "rate_limit error",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": []any{},
					"model":   "claude-opus-4-1",
				},
				"error": "rate_limit",
			},
			wantError:      true,
			wantErrorValue: AssistantMessageErrorRateLimit,
			wantModel:      "claude-opus-4-1",
		},
		{
			name: "error at top level not in nested message",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": []any{
						map[string]any{"type": "text", "text": "partial response"},
					},
					"model": "claude-sonnet-4-5-20250514",
					"error": "should_be_ignored",
				},
				"error":              "billing_error",
				"parent_tool_use_id": "tool-123",
			},
			wantError:      true,
			wantErrorValue: AssistantMessageErrorBilling,
			wantModel:      "claude-sonnet-4-5-20250514",
			wantContentLen: 1,
			wantToolUseID:  new("tool-123"),
		},
		{
			name: "plain string content",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"content": "hello",
					"model":   "claude-haiku-4-5",
				},
			},
			wantModel:      "claude-haiku-4-5",
			wantContentLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(logger, tt.data)
			require.NoError(t, err)

			assistant, ok := msg.(*AssistantMessage)
			require.True(t, ok, "expected *AssistantMessage")
			require.Equal(t, "assistant", assistant.Type)
			require.Equal(t, tt.wantModel, assistant.Model)
			require.Len(t, assistant.Content, tt.wantContentLen)

			if tt.wantError {
				require.NotNil(t, assistant.Error)
				require.Equal(t, tt.wantErrorValue, *assistant.Error)
			} else {
				require.Nil(t, assistant.Error)
			}

			if tt.wantToolUseID != nil {
				require.NotNil(t, assistant.ParentToolUseID)
				require.Equal(t, *tt.wantToolUseID, *assistant.ParentToolUseID)
			} else {
				require.Nil(t, assistant.ParentToolUseID)
			}
		})
	}
}

func TestParseAssistantContentBlocks(t *testing.T) {
	data := map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"model": "claude-sonnet-4-5-20250514",
			"content": []any{
				map[string]any{"type": "thinking", "thinking": "let me check", "signature": "sig-1"},
				map[string]any{"type": "text", "text": "Reading the file."},
				map[string]any{
					"type":  "tool_use",
					"id":    "toolu_01",
					"name":  "Read",
					"input": map[string]any{"file_path": "/tmp/a.txt"},
				},
			},
		},
	}

	msg, err := Parse(slog.Default(), data)
	require.NoError(t, err)

	assistant := msg.(*AssistantMessage)
	require.Len(t, assistant.Content, 3)

	thinking, ok := assistant.Content[0].(*ThinkingBlock)
	require.True(t, ok)
	require.Equal(t, "let me check", thinking.Thinking)
	require.Equal(t, "sig-1", thinking.Signature)

	text, ok := assistant.Content[1].(*TextBlock)
	require.True(t, ok)
	require.Equal(t, "Reading the file.", text.Text)

	toolUse, ok := assistant.Content[2].(*ToolUseBlock)
	require.True(t, ok)
	require.Equal(t, "toolu_01", toolUse.ID)
	require.Equal(t, "Read", toolUse.Name)
	require.Equal(t, map[string]any{"file_path": "/tmp/a.txt"}, toolUse.Input)
}

func TestParseUserMessage(t *testing.T) {
	logger := slog.Default()

	t.Run("string content", func(t *testing.T) {
		msg, err := Parse(logger, map[string]any{
			"type":    "user",
			"uuid":    "u-1",
			"message": map[string]any{"role": "user", "content": "hello"},
		})
		require.NoError(t, err)

		user := msg.(*UserMessage)
		require.True(t, user.Content.IsString())
		require.Equal(t, "hello", user.Content.String())
		require.Len(t, user.Content.Blocks(), 1)
		require.NotNil(t, user.UUID)
		require.Equal(t, "u-1", *user.UUID)
		require.Nil(t, user.ParentToolUseID)
	})

	t.Run("tool result blocks", func(t *testing.T) {
		msg, err := Parse(logger, map[string]any{
			"type":               "user",
			"parent_tool_use_id": "toolu_parent",
			"message": map[string]any{
				"role": "user",
				"content": []any{
					map[string]any{
						"type":        "tool_result",
						"tool_use_id": "toolu_01",
						"content":     "file contents",
						"is_error":    false,
					},
					map[string]any{
						"type":        "tool_result",
						"tool_use_id": "toolu_02",
						"content": []any{
							map[string]any{"type": "text", "text": "structured"},
						},
					},
					map[string]any{
						"type":        "tool_result",
						"tool_use_id": "toolu_03",
					},
				},
			},
		})
		require.NoError(t, err)

		user := msg.(*UserMessage)
		require.False(t, user.Content.IsString())
		require.NotNil(t, user.ParentToolUseID)
		require.Equal(t, "toolu_parent", *user.ParentToolUseID)

		blocks := user.Content.Blocks()
		require.Len(t, blocks, 3)

		first := blocks[0].(*ToolResultBlock)
		require.Equal(t, "toolu_01", first.ToolUseID)
		require.True(t, first.Content.IsString())
		require.Equal(t, "file contents", first.Content.String())
		require.NotNil(t, first.IsError)
		require.False(t, *first.IsError)

		second := blocks[1].(*ToolResultBlock)
		require.False(t, second.Content.IsString())
		require.Equal(t, []map[string]any{{"type": "text", "text": "structured"}}, second.Content.Items())
		require.Nil(t, second.IsError)

		third := blocks[2].(*ToolResultBlock)
		require.False(t, third.Content.IsSet())
	})
}

func TestParseSystemMessage(t *testing.T) {
	data := map[string]any{
		"type":       "system",
		"subtype":    "init",
		"session_id": "abc",
		"tools":      []any{"Read", "Write"},
	}

	msg, err := Parse(slog.Default(), data)
	require.NoError(t, err)

	system := msg.(*SystemMessage)
	require.Equal(t, "init", system.Subtype)
	require.Equal(t, map[string]any{
		"session_id": "abc",
		"tools":      []any{"Read", "Write"},
	}, system.Data)
}

func TestParseResultMessage(t *testing.T) {
	data := map[string]any{
		"type":            "result",
		"subtype":         "success",
		"duration_ms":     1500.0,
		"duration_api_ms": 1200.0,
		"is_error":        false,
		"num_turns":       2.0,
		"session_id":      "sess-1",
		"total_cost_usd":  0.0123,
		"usage":           map[string]any{"input_tokens": 10.0, "output_tokens": 20.0},
		"result":          "done",
	}

	msg, err := Parse(slog.Default(), data)
	require.NoError(t, err)

	result := msg.(*ResultMessage)
	require.Equal(t, "success", result.Subtype)
	require.Equal(t, 1500, result.DurationMs)
	require.Equal(t, 1200, result.DurationAPIMs)
	require.False(t, result.IsError)
	require.Equal(t, 2, result.NumTurns)
	require.Equal(t, "sess-1", result.SessionID)
	require.NotNil(t, result.TotalCostUSD)
	require.InDelta(t, 0.0123, *result.TotalCostUSD, 1e-9)
	require.Equal(t, 20.0, result.Usage["output_tokens"])
	require.NotNil(t, result.Result)
	require.Equal(t, "done", *result.Result)
}

func TestParseRejectsNonObjectFrames(t *testing.T) {
	tests := []struct {
		name string
		data any
		kind string
	}{
		{name: "array", data: []any{1.0, 2.0}, kind: "array"},
		{name: "string", data: "hello", kind: "string"},
		{name: "number", data: 42.0, kind: "number"},
		{name: "boolean", data: true, kind: "boolean"},
		{name: "null", data: nil, kind: "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(slog.Default(), tt.data)
			require.Nil(t, msg)
			require.ErrorIs(t, err, sdkerrors.ErrInvalidMessageData)

			parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, "invalid message data type, expected mapping, got "+tt.kind, parseErr.Message)
			require.Equal(t, tt.data, parseErr.Data)
		})
	}
}

func TestParseMissingType(t *testing.T) {
	data := map[string]any{"data": "no type here"}

	msg, err := Parse(slog.Default(), data)
	require.Nil(t, msg)

	parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
	require.True(t, ok, "expected *MessageParseError, got %T", err)
	require.Equal(t, "message missing 'type' field", parseErr.Message)
	require.Equal(t, data, parseErr.Data)
}

func TestParseAssistantStringContentIsTextBlock(t *testing.T) {
	msg, err := Parse(slog.Default(), map[string]any{
		"type":    "assistant",
		"message": map[string]any{"content": "hello", "model": "m"},
	})
	require.NoError(t, err)

	assistant := msg.(*AssistantMessage)
	require.Equal(t, []ContentBlock{&TextBlock{Type: BlockTypeText, Text: "hello"}}, assistant.Content)
}

func TestParseNonStringType(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantMsg string
	}{
		{"number", map[string]any{"type": 5.0}, "invalid 'type' field, expected string, got number"},
		{"null", map[string]any{"type": nil}, "invalid 'type' field, expected string, got null"},
		{"object", map[string]any{"type": map[string]any{}}, "invalid 'type' field, expected string, got object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(slog.Default(), tt.data)
			require.Nil(t, msg)
			require.ErrorIs(t, err, sdkerrors.ErrInvalidMessageData)
			require.NotErrorIs(t, err, sdkerrors.ErrMissingField)

			parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, tt.wantMsg, parseErr.Message)
			require.Equal(t, tt.data, parseErr.Data)
		})
	}
}

func TestParseUnknownMessageTypes(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
	}{
		{
			name: "rate_limit_event",
			data: map[string]any{
				"type":    "rate_limit_event",
				"status":  "allowed_warning",
				"message": "You are approaching your rate limit.",
			},
		},
		{
			name: "stream_event",
			data: map[string]any{
				"type":  "stream_event",
				"uuid":  "e-1",
				"event": map[string]any{"type": "content_block_delta"},
			},
		},
		{
			name: "arbitrary unknown type",
			data: map[string]any{
				"type": "some_future_event_type",
				"data": map[string]any{"key": "value"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(slog.Default(), tt.data)
			require.Nil(t, msg)
			require.ErrorIs(t, err, sdkerrors.ErrUnknownMessageType)

			parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, "unknown message type: "+tt.data["type"].(string), parseErr.Message)
			require.Equal(t, tt.data, parseErr.Data)
		})
	}
}

func TestParseMissingRequiredFields(t *testing.T) {
	completeResult := func() map[string]any {
		return map[string]any{
			"type":            "result",
			"subtype":         "success",
			"duration_ms":     1.0,
			"duration_api_ms": 1.0,
			"is_error":        false,
			"num_turns":       1.0,
			"session_id":      "s",
		}
	}

	without := func(m map[string]any, key string) map[string]any {
		delete(m, key)

		return m
	}

	tests := []struct {
		name    string
		data    map[string]any
		wantMsg string
	}{
		{
			name:    "user without message",
			data:    map[string]any{"type": "user"},
			wantMsg: "missing required field in user message: message",
		},
		{
			name:    "user without content",
			data:    map[string]any{"type": "user", "message": map[string]any{"role": "user"}},
			wantMsg: "missing required field in user message: content",
		},
		{
			name:    "assistant without message",
			data:    map[string]any{"type": "assistant"},
			wantMsg: "missing required field in assistant message: message",
		},
		{
			name: "assistant without model",
			data: map[string]any{
				"type":    "assistant",
				"message": map[string]any{"content": []any{}},
			},
			wantMsg: "missing required field in assistant message: model",
		},
		{
			name: "assistant tool_use without id",
			data: map[string]any{
				"type": "assistant",
				"message": map[string]any{
					"model": "m",
					"content": []any{
						map[string]any{"type": "tool_use", "name": "Read", "input": map[string]any{}},
					},
				},
			},
			wantMsg: "missing required field in assistant message: id",
		},
		{
			name:    "system without subtype",
			data:    map[string]any{"type": "system"},
			wantMsg: "missing required field in system message: subtype",
		},
		{
			name:    "result without subtype",
			data:    without(completeResult(), "subtype"),
			wantMsg: "missing required field in result message: subtype",
		},
		{
			name:    "result without duration_ms",
			data:    without(completeResult(), "duration_ms"),
			wantMsg: "missing required field in result message: duration_ms",
		},
		{
			name:    "result without duration_api_ms",
			data:    without(completeResult(), "duration_api_ms"),
			wantMsg: "missing required field in result message: duration_api_ms",
		},
		{
			name:    "result without is_error",
			data:    without(completeResult(), "is_error"),
			wantMsg: "missing required field in result message: is_error",
		},
		{
			name:    "result without num_turns",
			data:    without(completeResult(), "num_turns"),
			wantMsg: "missing required field in result message: num_turns",
		},
		{
			name:    "result without session_id",
			data:    without(completeResult(), "session_id"),
			wantMsg: "missing required field in result message: session_id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(slog.Default(), tt.data)
			require.Nil(t, msg)
			require.ErrorIs(t, err, sdkerrors.ErrMissingField)

			parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, tt.wantMsg, parseErr.Message)
			require.Equal(t, tt.data, parseErr.Data)
		})
	}
}

func TestParseWrongFieldKind(t *testing.T) {
	tests := []struct {
		name    string
		data    map[string]any
		wantMsg string
	}{
		{
			name:    "system subtype is a number",
			data:    map[string]any{"type": "system", "subtype": 3.0},
			wantMsg: "invalid field in system message: subtype",
		},
		{
			name:    "assistant content is a number",
			data:    map[string]any{"type": "assistant", "message": map[string]any{"content": 1.0, "model": "m"}},
			wantMsg: "invalid field in assistant message: content",
		},
		{
			name:    "user message is a string",
			data:    map[string]any{"type": "user", "message": "hi"},
			wantMsg: "invalid field in user message: message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(slog.Default(), tt.data)
			require.ErrorIs(t, err, sdkerrors.ErrMissingField)

			parseErr, ok := errors.AsType[*sdkerrors.MessageParseError](err)
			require.True(t, ok)
			require.Equal(t, tt.wantMsg, parseErr.Message)
		})
	}
}

func TestParseUnknownContentBlockType(t *testing.T) {
	// Unknown blocks are kept opaque while unknown message types are rejected.
	data := map[string]any{
		"type": "assistant",
		"message": map[string]any{
			"content": []any{
				map[string]any{
					"type":   "server_tool_use",
					"id":     "srv_1",
					"detail": map[string]any{"k": "v"},
				},
				map[string]any{
					"type": "text",
					"text": "normal text",
				},
			},
			"model": "claude-sonnet-4-5-20250514",
		},
	}

	msg, err := Parse(slog.Default(), data)
	require.NoError(t, err)

	assistant, ok := msg.(*AssistantMessage)
	require.True(t, ok, "expected *AssistantMessage")
	require.Len(t, assistant.Content, 2)

	unknown, ok := assistant.Content[0].(*UnknownBlock)
	require.True(t, ok, "expected *UnknownBlock")
	require.Equal(t, "server_tool_use", unknown.BlockType())
	require.Equal(t, "srv_1", unknown.Raw["id"])

	textBlock, ok := assistant.Content[1].(*TextBlock)
	require.True(t, ok, "expected *TextBlock")
	require.Equal(t, "normal text", textBlock.Text)
}
