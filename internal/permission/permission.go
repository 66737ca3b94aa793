// Package permission provides tool permission types and their control-channel encoding.
package permission

import (
	"context"
	"fmt"
)

// Mode represents different permission handling modes.
type Mode string

const (
	// ModeDefault uses standard permission prompts.
	ModeDefault Mode = "default"
	// ModeAcceptEdits automatically accepts file edits.
	ModeAcceptEdits Mode = "acceptEdits"
	// ModePlan enables plan mode for implementation planning.
	ModePlan Mode = "plan"
	// ModeBypassPermissions bypasses all permission checks.
	ModeBypassPermissions Mode = "bypassPermissions"
)

// UpdateType represents the type of permission update.
type UpdateType string

const (
	// UpdateTypeAddRules adds new permission rules.
	UpdateTypeAddRules UpdateType = "addRules"
	// UpdateTypeReplaceRules replaces existing permission rules.
	UpdateTypeReplaceRules UpdateType = "replaceRules"
	// UpdateTypeRemoveRules removes permission rules.
	UpdateTypeRemoveRules UpdateType = "removeRules"
	// UpdateTypeSetMode sets the permission mode.
	UpdateTypeSetMode UpdateType = "setMode"
	// UpdateTypeAddDirectories adds accessible directories.
	UpdateTypeAddDirectories UpdateType = "addDirectories"
	// UpdateTypeRemoveDirectories removes accessible directories.
	UpdateTypeRemoveDirectories UpdateType = "removeDirectories"
)

// UpdateDestination represents where permission updates are stored.
type UpdateDestination string

const (
	// UpdateDestUserSettings stores in user-level settings.
	UpdateDestUserSettings UpdateDestination = "userSettings"
	// UpdateDestProjectSettings stores in project-level settings.
	UpdateDestProjectSettings UpdateDestination = "projectSettings"
	// UpdateDestLocalSettings stores in local-level settings.
	UpdateDestLocalSettings UpdateDestination = "localSettings"
	// UpdateDestSession stores in the current session only.
	UpdateDestSession UpdateDestination = "session"
)

// Behavior represents the permission behavior for a rule.
type Behavior string

const (
	// BehaviorAllow automatically allows the operation.
	BehaviorAllow Behavior = "allow"
	// BehaviorDeny automatically denies the operation.
	BehaviorDeny Behavior = "deny"
	// BehaviorAsk prompts the user for permission.
	BehaviorAsk Behavior = "ask"
)

// RuleValue represents a permission rule.
type RuleValue struct {
	ToolName    string
	RuleContent *string
}

// Update represents a permission update, either suggested by the CLI or
// returned by a callback.
type Update struct {
	Type        UpdateType
	Rules       []*RuleValue
	Behavior    *Behavior
	Mode        *Mode
	Directories []string
	Destination *UpdateDestination
}

// ToDict converts the Update to a CLI-compatible map.
func (p *Update) ToDict() map[string]any {
	result := make(map[string]any, 6)
	result["type"] = string(p.Type)

	if p.Destination != nil {
		result["destination"] = string(*p.Destination)
	}

	if len(p.Rules) > 0 {
		rules := make([]map[string]any, len(p.Rules))
		for i, rule := range p.Rules {
			ruleMap := map[string]any{
				"toolName": rule.ToolName,
			}
			if rule.RuleContent != nil {
				ruleMap["ruleContent"] = *rule.RuleContent
			}

			rules[i] = ruleMap
		}

		result["rules"] = rules
	}

	if p.Behavior != nil {
		result["behavior"] = string(*p.Behavior)
	}

	if p.Mode != nil {
		result["mode"] = string(*p.Mode)
	}

	if len(p.Directories) > 0 {
		result["directories"] = p.Directories
	}

	return result
}

// ParseUpdate reads an update in the CLI's camelCase wire form.
// Unknown or mistyped fields are ignored.
func ParseUpdate(data map[string]any) *Update {
	update := &Update{}

	if t, ok := data["type"].(string); ok {
		update.Type = UpdateType(t)
	}

	if d, ok := data["destination"].(string); ok {
		dest := UpdateDestination(d)
		update.Destination = &dest
	}

	if b, ok := data["behavior"].(string); ok {
		behavior := Behavior(b)
		update.Behavior = &behavior
	}

	if m, ok := data["mode"].(string); ok {
		mode := Mode(m)
		update.Mode = &mode
	}

	if rules, ok := data["rules"].([]any); ok {
		for _, r := range rules {
			ruleMap, ok := r.(map[string]any)
			if !ok {
				continue
			}

			rule := &RuleValue{}
			rule.ToolName, _ = ruleMap["toolName"].(string)

			if content, ok := ruleMap["ruleContent"].(string); ok {
				rule.RuleContent = &content
			}

			update.Rules = append(update.Rules, rule)
		}
	}

	if dirs, ok := data["directories"].([]any); ok {
		for _, d := range dirs {
			if dir, ok := d.(string); ok {
				update.Directories = append(update.Directories, dir)
			}
		}
	}

	return update
}

// Context provides context for tool permission callbacks.
type Context struct {
	Suggestions []*Update // Permission update suggestions from CLI
	BlockedPath *string   // Path that triggered the prompt, when the CLI reports one
}

// Request is a decoded can_use_tool control request.
type Request struct {
	ToolName string
	Input    map[string]any
	Context  *Context
}

// ParseRequest decodes the body of a can_use_tool control request.
func ParseRequest(body map[string]any) (*Request, error) {
	toolName, ok := body["tool_name"].(string)
	if !ok || toolName == "" {
		return nil, fmt.Errorf("can_use_tool request missing tool_name")
	}

	req := &Request{
		ToolName: toolName,
		Context:  &Context{},
	}

	req.Input, _ = body["input"].(map[string]any)
	if req.Input == nil {
		req.Input = map[string]any{}
	}

	if suggestions, ok := body["permission_suggestions"].([]any); ok {
		for _, s := range suggestions {
			if m, ok := s.(map[string]any); ok {
				req.Context.Suggestions = append(req.Context.Suggestions, ParseUpdate(m))
			}
		}
	}

	if path, ok := body["blocked_path"].(string); ok {
		req.Context.BlockedPath = &path
	}

	return req, nil
}

// Result is the interface for permission decision results.
type Result interface {
	GetBehavior() string
}

// Compile-time verification that permission result types implement Result.
var (
	_ Result = (*ResultAllow)(nil)
	_ Result = (*ResultDeny)(nil)
)

// ResultAllow represents an allow decision.
type ResultAllow struct {
	UpdatedInput       map[string]any // Modified input parameters
	UpdatedPermissions []*Update      // Permission updates to apply
}

// GetBehavior implements Result.
func (p *ResultAllow) GetBehavior() string { return string(BehaviorAllow) }

// ResultDeny represents a deny decision.
type ResultDeny struct {
	Message   string // Reason for denial
	Interrupt bool   // Whether to interrupt the session
}

// GetBehavior implements Result.
func (p *ResultDeny) GetBehavior() string { return string(BehaviorDeny) }

// Encode converts a decision into the control response payload the CLI expects.
// An allow without UpdatedInput echoes the original input back.
func Encode(decision Result, originalInput map[string]any) (map[string]any, error) {
	switch d := decision.(type) {
	case *ResultAllow:
		result := map[string]any{
			"behavior":     string(BehaviorAllow),
			"updatedInput": originalInput,
		}

		if d.UpdatedInput != nil {
			result["updatedInput"] = d.UpdatedInput
		}

		if d.UpdatedPermissions != nil {
			updates := make([]map[string]any, len(d.UpdatedPermissions))
			for i, u := range d.UpdatedPermissions {
				updates[i] = u.ToDict()
			}

			result["updatedPermissions"] = updates
		}

		return result, nil

	case *ResultDeny:
		result := map[string]any{
			"behavior": string(BehaviorDeny),
			"message":  d.Message,
		}

		if d.Interrupt {
			result["interrupt"] = true
		}

		return result, nil

	default:
		return nil, fmt.Errorf(
			"tool permission callback must return *ResultAllow or *ResultDeny, got %T",
			decision,
		)
	}
}

// Callback is called before each tool use for permission checking.
type Callback func(
	ctx context.Context,
	toolName string,
	input map[string]any,
	permCtx *Context,
) (Result, error)
