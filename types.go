package claudecode

import (
	"github.com/wagiedev/claude-code-sdk-go/internal/client"
	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/mcp"
	"github.com/wagiedev/claude-code-sdk-go/internal/message"
	"github.com/wagiedev/claude-code-sdk-go/internal/permission"
)

// ===== Options =====

// Options configures a session. Build one with the With* functional options.
type Options = config.Options

// ParseErrorPolicy decides what happens to a frame that is not a valid message.
type ParseErrorPolicy = config.ParseErrorPolicy

const (
	// ParseErrorFail ends the session stream with the parse error. This is the default.
	ParseErrorFail = config.ParseErrorFail
	// ParseErrorSkip logs and drops the frame.
	ParseErrorSkip = config.ParseErrorSkip
)

// ParseErrorPolicyFromString maps "fail" or "skip" to a policy. Empty selects ParseErrorFail.
func ParseErrorPolicyFromString(s string) (ParseErrorPolicy, error) {
	return config.ParseErrorPolicyFromString(s)
}

// ===== Session state =====

// State is the lifecycle state of a Client.
type State = client.State

const (
	StateDisconnected = client.StateDisconnected
	StateConnecting   = client.StateConnecting
	StateReady        = client.StateReady
	StateClosing      = client.StateClosing
	StateClosed       = client.StateClosed
	StateFailed       = client.StateFailed
)

// ===== Messages =====

// Message is implemented by UserMessage, AssistantMessage, SystemMessage and ResultMessage.
type Message = message.Message

// UserMessage is a user turn echoed by the CLI, including tool results.
type UserMessage = message.UserMessage

// UserMessageContent is either a plain string or a list of content blocks.
type UserMessageContent = message.UserMessageContent

// AssistantMessage is a model reply.
type AssistantMessage = message.AssistantMessage

// AssistantMessageError classifies a failed assistant turn.
type AssistantMessageError = message.AssistantMessageError

const (
	AssistantMessageErrorAuthFailed = message.AssistantMessageErrorAuthFailed
	AssistantMessageErrorBilling    = message.AssistantMessageErrorBilling
	AssistantMessageErrorRateLimit  = message.AssistantMessageErrorRateLimit
	AssistantMessageErrorInvalidReq = message.AssistantMessageErrorInvalidReq
	AssistantMessageErrorServer     = message.AssistantMessageErrorServer
	AssistantMessageErrorUnknown    = message.AssistantMessageErrorUnknown
)

// SystemMessage carries session metadata such as the init event.
type SystemMessage = message.SystemMessage

// ResultMessage ends a turn.
type ResultMessage = message.ResultMessage

// StreamingMessage is a user turn written to the CLI.
type StreamingMessage = message.StreamingMessage

// ===== Content blocks =====

// ContentBlock is one element of a message's content list.
type ContentBlock = message.ContentBlock

type (
	TextBlock         = message.TextBlock
	ThinkingBlock     = message.ThinkingBlock
	ToolUseBlock      = message.ToolUseBlock
	ToolResultBlock   = message.ToolResultBlock
	ToolResultContent = message.ToolResultContent

	// UnknownBlock preserves a content block of a type this package does not model.
	UnknownBlock = message.UnknownBlock
)

// ===== Permissions =====

// PermissionMode names how the CLI asks for tool permissions.
type PermissionMode = permission.Mode

const (
	PermissionModeDefault           = permission.ModeDefault
	PermissionModeAcceptEdits       = permission.ModeAcceptEdits
	PermissionModePlan              = permission.ModePlan
	PermissionModeBypassPermissions = permission.ModeBypassPermissions
)

type (
	PermissionUpdateType        = permission.UpdateType
	PermissionUpdateDestination = permission.UpdateDestination
	PermissionBehavior          = permission.Behavior
	PermissionRuleValue         = permission.RuleValue
	PermissionUpdate            = permission.Update
)

// ToolPermissionContext accompanies a can_use_tool request.
type ToolPermissionContext = permission.Context

// PermissionResult is returned by a ToolPermissionCallback.
type PermissionResult = permission.Result

// PermissionResultAllow lets the tool run, optionally with rewritten input.
type PermissionResultAllow = permission.ResultAllow

// PermissionResultDeny refuses the tool call.
type PermissionResultDeny = permission.ResultDeny

// ToolPermissionCallback decides whether the CLI may run a tool.
type ToolPermissionCallback = permission.Callback

// ===== MCP servers =====

// MCPServerType names how the CLI reaches an MCP server.
type MCPServerType = mcp.ServerType

const (
	MCPServerTypeStdio = mcp.ServerTypeStdio
	MCPServerTypeSSE   = mcp.ServerTypeSSE
	MCPServerTypeHTTP  = mcp.ServerTypeHTTP
	MCPServerTypeSDK   = mcp.ServerTypeSDK
)

type (
	MCPServerConfig      = mcp.ServerConfig
	MCPStdioServerConfig = mcp.StdioServerConfig
	MCPSSEServerConfig   = mcp.SSEServerConfig
	MCPHTTPServerConfig  = mcp.HTTPServerConfig

	// MCPSdkServerConfig registers an in-process server. Create one with NewMCPServer.
	MCPSdkServerConfig = mcp.SdkServerConfig
)
