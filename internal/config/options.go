package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wagiedev/claude-code-sdk-go/internal/mcp"
	"github.com/wagiedev/claude-code-sdk-go/internal/permission"
)

// ParseErrorPolicy decides what a session does with a frame that cannot be
// turned into a message.
type ParseErrorPolicy int

const (
	// ParseErrorFail surfaces the parse error to consumers and ends the session stream.
	ParseErrorFail ParseErrorPolicy = iota
	// ParseErrorSkip logs the frame at warn level, drops it and keeps reading.
	ParseErrorSkip
)

// String returns the policy name.
func (p ParseErrorPolicy) String() string {
	switch p {
	case ParseErrorFail:
		return "fail"
	case ParseErrorSkip:
		return "skip"
	default:
		return "unknown"
	}
}

// ParseErrorPolicyFromString maps "fail" or "skip" (case-insensitive) to a policy.
// An empty string selects ParseErrorFail.
func ParseErrorPolicyFromString(s string) (ParseErrorPolicy, error) {
	switch strings.ToLower(s) {
	case "", "fail":
		return ParseErrorFail, nil
	case "skip":
		return ParseErrorSkip, nil
	default:
		return ParseErrorFail, fmt.Errorf("unknown parse error policy %q", s)
	}
}

// Options configures a session with the Claude CLI.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// SystemPrompt is the system message to send to Claude.
	SystemPrompt string

	// Model specifies which Claude model to use (e.g., "claude-sonnet-4-5")
	Model string

	// PermissionMode controls how permissions are handled
	// Valid values: "acceptEdits", "bypassPermissions", "default", "plan"
	// Legacy aliases are normalized:
	// - "acceptAll" -> "bypassPermissions"
	// - "prompt" -> "default"
	PermissionMode string

	// MaxTurns limits the maximum number of conversation turns
	MaxTurns int

	// Cwd sets the working directory for the CLI process.
	// It must name an existing directory.
	Cwd string

	// CliPath is the explicit path to the claude CLI binary
	// If empty, the CLI will be searched in PATH
	CliPath string

	// Env provides additional environment variables for the CLI process
	Env map[string]string

	// AllowedTools is a list of pre-approved tools that can be used without prompting.
	AllowedTools []string

	// DisallowedTools is a list of tools that are explicitly blocked.
	DisallowedTools []string

	// ContinueConversation continues the most recent conversation.
	ContinueConversation bool

	// Resume is a session ID to resume from.
	Resume string

	// ExtraArgs provides arbitrary CLI flags to pass to the CLI.
	// If the value is nil, the flag is passed without a value (boolean flag).
	ExtraArgs map[string]*string

	// MaxBufferSize caps the bytes held while a stdout frame is incomplete.
	// If nil, 1MB is used.
	MaxBufferSize *int

	// Stderr is called with each line the CLI writes to stderr.
	Stderr func(string)

	// CanUseTool is called before each tool use for permission checking.
	// If nil, the CLI applies its own permission rules.
	CanUseTool permission.Callback

	// MCPServers configures MCP servers, keyed by server name.
	// In-process servers (*mcp.SdkServerConfig) are answered over the control channel.
	MCPServers map[string]mcp.ServerConfig

	// MCPConfig is a path to an MCP config file or a raw JSON string.
	// If set, this takes precedence over MCPServers for the CLI flag.
	MCPConfig string

	// PermissionPromptToolName names the tool the CLI routes permission prompts to.
	PermissionPromptToolName string

	// InitializeTimeout is the timeout for the initialize control request.
	// If nil, defaults to 60 seconds. Can also be set via CLAUDE_CODE_STREAM_CLOSE_TIMEOUT env var.
	InitializeTimeout *time.Duration

	// ControlRequestTimeout bounds interrupt, set_permission_mode and set_model.
	// If nil, defaults to 30 seconds.
	ControlRequestTimeout *time.Duration

	// ParseErrorPolicy selects the reaction to unparseable frames.
	ParseErrorPolicy ParseErrorPolicy

	// SkipVersionCheck disables the CLI version preflight.
	// Can also be set via CLAUDE_AGENT_SDK_SKIP_VERSION_CHECK env var.
	SkipVersionCheck bool

	// Transport allows injecting a custom transport implementation.
	// If nil, a CLITransport is created automatically.
	Transport Transport `json:"-"`

	// Process allows injecting the process handle behind the default CLITransport.
	// Ignored when Transport is set.
	Process Process `json:"-"`
}
