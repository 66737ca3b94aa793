package protocol

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/mcp"
	"github.com/wagiedev/claude-code-sdk-go/internal/permission"
)

const (
	// defaultInitializeTimeout bounds the initialize handshake.
	defaultInitializeTimeout = 60 * time.Second

	// initializeTimeoutEnv overrides the initialize timeout, in whole seconds.
	initializeTimeoutEnv = "CLAUDE_CODE_STREAM_CLOSE_TIMEOUT"
)

// Handlers answers the control requests the CLI sends to the SDK and performs
// the initialize handshake that announces them.
type Handlers struct {
	log        *slog.Logger
	controller *Controller
	options    *config.Options
	router     *mcp.Router

	initMu     sync.RWMutex
	initResult map[string]any
}

// NewHandlers builds the handler set for a session. options may be nil.
func NewHandlers(log *slog.Logger, controller *Controller, options *config.Options) *Handlers {
	var servers map[string]mcp.ServerConfig
	if options != nil {
		servers = options.MCPServers
	}

	return &Handlers{
		log:        log.With("component", "handlers"),
		controller: controller,
		options:    options,
		router:     mcp.NewRouter(log, servers),
	}
}

// Register installs the can_use_tool and mcp_message handlers on the controller.
// It must be called before Initialize.
func (h *Handlers) Register() {
	h.controller.RegisterHandler(SubtypeCanUseTool, h.HandleCanUseTool)
	h.controller.RegisterHandler(SubtypeMCPMessage, h.HandleMCPMessage)
}

// NeedsInitialization reports whether the CLI must be told about SDK-side
// callbacks before the first prompt.
func (h *Handlers) NeedsInitialization() bool {
	if h.router.Len() > 0 {
		return true
	}

	return h.options != nil && h.options.CanUseTool != nil
}

// MCPServerNames returns the in-process MCP server names.
func (h *Handlers) MCPServerNames() []string {
	return h.router.Names()
}

// Initialize performs the initialize handshake and stores the CLI's reply.
func (h *Handlers) Initialize(ctx context.Context) error {
	h.log.Debug("Sending initialize request")

	payload := map[string]any{
		"hooks": map[string]any{},
	}

	resp, err := h.controller.SendRequest(ctx, SubtypeInitialize, payload, h.initializeTimeout())
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	h.initMu.Lock()
	h.initResult = resp.Payload()
	h.initMu.Unlock()

	return nil
}

// initializeTimeout picks the timeout from options, then the environment, then the default.
func (h *Handlers) initializeTimeout() time.Duration {
	if h.options != nil && h.options.InitializeTimeout != nil {
		return *h.options.InitializeTimeout
	}

	if raw := os.Getenv(initializeTimeoutEnv); raw != "" {
		if seconds, err := strconv.Atoi(raw); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return defaultInitializeTimeout
}

// InitializationResult returns a copy of the initialize reply, or nil before
// the handshake completed.
func (h *Handlers) InitializationResult() map[string]any {
	h.initMu.RLock()
	defer h.initMu.RUnlock()

	if h.initResult == nil {
		return nil
	}

	return maps.Clone(h.initResult)
}

// HandleCanUseTool asks the permission callback whether a tool may run.
// Without a callback every tool is allowed unchanged.
func (h *Handlers) HandleCanUseTool(ctx context.Context, req *ControlRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	permReq, err := permission.ParseRequest(req.Request)
	if err != nil {
		return nil, err
	}

	if h.options == nil || h.options.CanUseTool == nil {
		return permission.Encode(&permission.ResultAllow{}, permReq.Input)
	}

	h.log.Debug("Checking tool permission", "tool", permReq.ToolName)

	decision, err := h.options.CanUseTool(ctx, permReq.ToolName, permReq.Input, permReq.Context)
	if err != nil {
		return nil, err
	}

	return permission.Encode(decision, permReq.Input)
}

// HandleMCPMessage forwards a tunnelled JSON-RPC message to an in-process server.
func (h *Handlers) HandleMCPMessage(ctx context.Context, req *ControlRequest) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	serverName, _ := req.Request["server_name"].(string)
	message, _ := req.Request["message"].(map[string]any)

	return h.router.Handle(ctx, serverName, message)
}
