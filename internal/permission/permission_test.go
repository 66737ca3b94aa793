package permission

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUpdateToDict_Minimal(t *testing.T) {
	update := &Update{
		Type: UpdateTypeSetMode,
	}

	got := update.ToDict()

	require.Equal(t, map[string]any{
		"type": string(UpdateTypeSetMode),
	}, got)
}

func TestUpdateToDict_Full(t *testing.T) {
	ruleContent := "allow all"
	behavior := BehaviorAllow
	mode := ModeAcceptEdits
	destination := UpdateDestProjectSettings

	update := &Update{
		Type: UpdateTypeAddRules,
		Rules: []*RuleValue{
			{
				ToolName:    "Read",
				RuleContent: &ruleContent,
			},
			{
				ToolName: "Write",
			},
		},
		Behavior:    &behavior,
		Mode:        &mode,
		Directories: []string{"/workspace", "/tmp"},
		Destination: &destination,
	}

	got := update.ToDict()

	require.Equal(t, map[string]any{
		"type":        string(UpdateTypeAddRules),
		"destination": string(UpdateDestProjectSettings),
		"rules": []map[string]any{
			{
				"toolName":    "Read",
				"ruleContent": "allow all",
			},
			{
				"toolName": "Write",
			},
		},
		"behavior":    string(BehaviorAllow),
		"mode":        string(ModeAcceptEdits),
		"directories": []string{"/workspace", "/tmp"},
	}, got)
}

func TestResultBehaviors(t *testing.T) {
	allow := &ResultAllow{}
	deny := &ResultDeny{}

	require.Equal(t, "allow", allow.GetBehavior())
	require.Equal(t, "deny", deny.GetBehavior())
}

func TestParseUpdate_RoundTripsToDict(t *testing.T) {
	wire := map[string]any{
		"type":        "addRules",
		"destination": "session",
		"behavior":    "allow",
		"rules": []any{
			map[string]any{"toolName": "Bash", "ruleContent": "git status"},
			"not a rule",
		},
		"directories": []any{"/repo", 3.0},
	}

	update := ParseUpdate(wire)
	require.Equal(t, UpdateTypeAddRules, update.Type)
	require.NotNil(t, update.Destination)
	require.Equal(t, UpdateDestSession, *update.Destination)
	require.Len(t, update.Rules, 1)
	require.Equal(t, "Bash", update.Rules[0].ToolName)
	require.Equal(t, []string{"/repo"}, update.Directories)

	require.Equal(t, map[string]any{
		"type":        "addRules",
		"destination": "session",
		"behavior":    "allow",
		"rules": []map[string]any{
			{"toolName": "Bash", "ruleContent": "git status"},
		},
		"directories": []string{"/repo"},
	}, update.ToDict())
}

func TestParseRequest(t *testing.T) {
	req, err := ParseRequest(map[string]any{
		"subtype":      "can_use_tool",
		"tool_name":    "Write",
		"input":        map[string]any{"file_path": "/tmp/x"},
		"blocked_path": "/tmp/x",
		"permission_suggestions": []any{
			map[string]any{"type": "setMode", "mode": "acceptEdits"},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Write", req.ToolName)
	require.Equal(t, map[string]any{"file_path": "/tmp/x"}, req.Input)
	require.NotNil(t, req.Context.BlockedPath)
	require.Len(t, req.Context.Suggestions, 1)
	require.Equal(t, ModeAcceptEdits, *req.Context.Suggestions[0].Mode)

	_, err = ParseRequest(map[string]any{"subtype": "can_use_tool"})
	require.Error(t, err)
}

func TestEncode(t *testing.T) {
	original := map[string]any{"command": "ls"}

	t.Run("allow echoes input", func(t *testing.T) {
		got, err := Encode(&ResultAllow{}, original)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"behavior": "allow", "updatedInput": original}, got)
	})

	t.Run("allow with updates", func(t *testing.T) {
		got, err := Encode(&ResultAllow{
			UpdatedInput:       map[string]any{"command": "ls -la"},
			UpdatedPermissions: []*Update{{Type: UpdateTypeSetMode}},
		}, original)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"command": "ls -la"}, got["updatedInput"])
		require.Equal(t, []map[string]any{{"type": "setMode"}}, got["updatedPermissions"])
	})

	t.Run("deny with interrupt", func(t *testing.T) {
		got, err := Encode(&ResultDeny{Message: "no", Interrupt: true}, original)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"behavior": "deny", "message": "no", "interrupt": true}, got)
	})

	t.Run("nil decision", func(t *testing.T) {
		_, err := Encode(nil, original)
		require.Error(t, err)
	})
}
