package claudecode

import (
	"log/slog"
	"time"
)

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions builds Options from opts.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic configuration =====

// WithLogger sets the logger. Without it the SDK is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSystemPrompt replaces the CLI's system prompt.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithModel selects the model, e.g. "sonnet" or "claude-sonnet-4-5".
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithPermissionMode sets the initial permission mode.
// Valid values: "default", "acceptEdits", "plan", "bypassPermissions".
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// WithMaxTurns limits the number of agentic turns per prompt.
func WithMaxTurns(maxTurns int) Option {
	return func(o *Options) {
		o.MaxTurns = maxTurns
	}
}

// WithCwd sets the working directory of the CLI process. It must exist.
func WithCwd(cwd string) Option {
	return func(o *Options) {
		o.Cwd = cwd
	}
}

// WithCliPath sets an explicit path to the claude binary.
func WithCliPath(path string) Option {
	return func(o *Options) {
		o.CliPath = path
	}
}

// WithEnv adds environment variables for the CLI process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// WithSkipVersionCheck disables the CLI version preflight.
func WithSkipVersionCheck(skip bool) Option {
	return func(o *Options) {
		o.SkipVersionCheck = skip
	}
}

// ===== Tools =====

// WithAllowedTools lists tools the CLI may use without asking.
func WithAllowedTools(tools ...string) Option {
	return func(o *Options) {
		o.AllowedTools = tools
	}
}

// WithDisallowedTools lists tools the CLI must not use.
func WithDisallowedTools(tools ...string) Option {
	return func(o *Options) {
		o.DisallowedTools = tools
	}
}

// WithCanUseTool routes every permission prompt to callback.
// It cannot be combined with WithPermissionPromptToolName.
func WithCanUseTool(callback ToolPermissionCallback) Option {
	return func(o *Options) {
		o.CanUseTool = callback
	}
}

// WithPermissionPromptToolName names an MCP tool that answers permission prompts.
func WithPermissionPromptToolName(name string) Option {
	return func(o *Options) {
		o.PermissionPromptToolName = name
	}
}

// ===== MCP =====

// WithMCPServers configures MCP servers. In-process servers created with
// NewMCPServer are served over the control channel.
func WithMCPServers(servers map[string]MCPServerConfig) Option {
	return func(o *Options) {
		o.MCPServers = servers
	}
}

// WithMCPConfig passes a JSON string or file path to --mcp-config.
// It takes precedence over WithMCPServers for the CLI flag.
func WithMCPConfig(config string) Option {
	return func(o *Options) {
		o.MCPConfig = config
	}
}

// ===== Conversation =====

// WithContinueConversation continues the most recent conversation.
func WithContinueConversation(cont bool) Option {
	return func(o *Options) {
		o.ContinueConversation = cont
	}
}

// WithResume resumes the conversation with the given session id.
func WithResume(sessionID string) Option {
	return func(o *Options) {
		o.Resume = sessionID
	}
}

// WithExtraArgs passes arbitrary flags to the CLI. A nil value emits a bare flag.
func WithExtraArgs(args map[string]*string) Option {
	return func(o *Options) {
		o.ExtraArgs = args
	}
}

// ===== Stream handling =====

// WithMaxBufferSize sets the largest frame, in bytes, the decoder will buffer.
// Defaults to 1MB.
func WithMaxBufferSize(size int) Option {
	return func(o *Options) {
		o.MaxBufferSize = &size
	}
}

// WithParseErrorPolicy selects what happens to frames that are not valid messages.
func WithParseErrorPolicy(policy ParseErrorPolicy) Option {
	return func(o *Options) {
		o.ParseErrorPolicy = policy
	}
}

// WithStderr receives each line the CLI writes to stderr.
func WithStderr(handler func(string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// ===== Timeouts =====

// WithInitializeTimeout bounds the initialize handshake.
// Defaults to CLAUDE_CODE_STREAM_CLOSE_TIMEOUT or 60s.
func WithInitializeTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.InitializeTimeout = &timeout
	}
}

// WithControlRequestTimeout bounds Interrupt, SetPermissionMode and SetModel.
// Defaults to 30s.
func WithControlRequestTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.ControlRequestTimeout = &timeout
	}
}

// ===== Injection =====

// WithTransport replaces the process transport. Used for tests and remote CLIs.
func WithTransport(transport Transport) Option {
	return func(o *Options) {
		o.Transport = transport
	}
}

// WithProcess launches the CLI through process instead of spawning the binary.
func WithProcess(process Process) Option {
	return func(o *Options) {
		o.Process = process
	}
}
