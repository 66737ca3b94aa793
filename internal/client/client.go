package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
	"github.com/wagiedev/claude-code-sdk-go/internal/message"
	"github.com/wagiedev/claude-code-sdk-go/internal/protocol"
	"github.com/wagiedev/claude-code-sdk-go/internal/subprocess"
)

const (
	// defaultMessageBufferSize is the capacity of the parsed message queue.
	defaultMessageBufferSize = 100

	// defaultControlRequestTimeout bounds interrupt, set_permission_mode and set_model.
	defaultControlRequestTimeout = 30 * time.Second

	// defaultSessionID is used when Query is given no session id.
	defaultSessionID = "default"

	// permissionPromptToolStdio routes permission prompts over the control channel.
	permissionPromptToolStdio = "stdio"
)

var errCanUseToolConflict = stderrors.New("can_use_tool callback cannot be used with permission_prompt_tool_name")

// Client is one interactive session with the CLI.
//
// A single background loop reads and parses everything the CLI writes; Query,
// Interrupt and the other writers run on the caller's goroutine, so sending and
// receiving proceed concurrently.
type Client struct {
	log        *slog.Logger
	options    *config.Options
	transport  config.Transport
	controller *protocol.Controller
	handlers   *protocol.Handlers

	// Parsed messages, in stream order. Closed when the loop exits.
	messages chan message.Message

	errMu    sync.RWMutex
	fatalErr error

	eg     *errgroup.Group
	cancel context.CancelFunc

	mu    sync.Mutex
	state State
	done  chan struct{}

	// Set while Connect runs without holding mu.
	connecting   chan struct{}
	abortConnect func()

	// released is set once Disconnect has started tearing the session down.
	released bool
}

// New creates a disconnected client. Call Connect before anything else.
func New() *Client {
	return &Client{
		log:      slog.New(slog.DiscardHandler),
		messages: make(chan message.Message, defaultMessageBufferSize),
		done:     make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Connect starts the CLI and the background loop.
//
// Only valid from StateDisconnected. On failure everything acquired is released
// and the client returns to StateDisconnected. Returns *errors.CLIConnectionError
// for an unusable working directory or process, and *errors.CLINotFoundError
// when the binary cannot be located. A Disconnect issued while Connect is
// running aborts it with ErrClientClosed.
func (c *Client) Connect(ctx context.Context, options *config.Options) error {
	c.mu.Lock()

	switch c.state {
	case StateDisconnected:
	case StateConnecting, StateReady:
		c.mu.Unlock()

		return errors.ErrClientAlreadyConnected
	default:
		c.mu.Unlock()

		return errors.ErrClientClosed
	}

	opts := &config.Options{}
	if options != nil {
		copied := *options
		opts = &copied
	}

	if opts.Logger != nil {
		c.log = opts.Logger.With("component", "client")
	}

	// The session outlives the ctx passed to Connect; Disconnect ends it.
	lifeCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	setupCtx, cancelSetup := context.WithCancel(ctx)

	c.state = StateConnecting
	c.connecting = make(chan struct{})
	c.abortConnect = func() {
		cancelSetup()
		cancel()
	}

	c.mu.Unlock()

	c.log.Debug("Connecting")

	conn, err := c.connect(setupCtx, lifeCtx, opts)

	cancelSetup()

	c.mu.Lock()
	defer c.mu.Unlock()

	defer close(c.connecting)

	c.abortConnect = nil
	aborted := c.state != StateConnecting

	if err != nil {
		cancel()

		if aborted {
			c.state = StateClosed

			return fmt.Errorf("%w: %w", errors.ErrClientClosed, err)
		}

		c.state = StateDisconnected
		c.log.Warn("Connect failed", "error", err)

		return err
	}

	conn.cancel = cancel

	if aborted {
		conn.release()
		c.state = StateClosed

		return errors.ErrClientClosed
	}

	c.options = conn.options
	c.transport = conn.transport
	c.controller = conn.controller
	c.handlers = conn.handlers
	c.cancel = conn.cancel

	var egCtx context.Context

	c.eg, egCtx = errgroup.WithContext(lifeCtx)
	c.eg.Go(func() error {
		return c.readLoop(egCtx)
	})

	c.state = StateReady
	c.log.Info("Client connected")

	return nil
}

// connection is what a successful connect acquired.
type connection struct {
	options    *config.Options
	transport  config.Transport
	controller *protocol.Controller
	handlers   *protocol.Handlers
	cancel     context.CancelFunc
}

func (conn *connection) release() {
	conn.controller.Stop()
	_ = conn.transport.Close()

	conn.cancel()
}

// connect starts the transport and controller and performs the initialize
// handshake. ctx bounds setup only; lifeCtx bounds the process and the
// controller. Nothing is left running on error.
func (c *Client) connect(ctx, lifeCtx context.Context, options *config.Options) (*connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if options.CanUseTool != nil {
		if options.PermissionPromptToolName != "" {
			return nil, errCanUseToolConflict
		}

		options.PermissionPromptToolName = permissionPromptToolStdio
	}

	if err := validateWorkingDirectory(options.Cwd); err != nil {
		return nil, err
	}

	transport := options.Transport
	if transport == nil {
		transport = subprocess.NewCLITransport(c.log, options)
	}

	if err := transport.Start(lifeCtx); err != nil {
		return nil, fmt.Errorf("start transport: %w", err)
	}

	controller := protocol.NewController(c.log, transport)
	if err := controller.Start(lifeCtx); err != nil {
		_ = transport.Close()

		return nil, fmt.Errorf("start protocol controller: %w", err)
	}

	handlers := protocol.NewHandlers(c.log, controller, options)
	handlers.Register()

	if handlers.NeedsInitialization() {
		if err := handlers.Initialize(ctx); err != nil {
			controller.Stop()
			_ = transport.Close()

			return nil, fmt.Errorf("initialize session: %w", err)
		}
	}

	return &connection{
		options:    options,
		transport:  transport,
		controller: controller,
		handlers:   handlers,
	}, nil
}

// validateWorkingDirectory requires cwd, when set, to be an existing directory.
func validateWorkingDirectory(cwd string) error {
	if cwd == "" {
		return nil
	}

	info, err := os.Stat(cwd)
	if err != nil {
		return &errors.CLIConnectionError{
			Err: fmt.Errorf("%w: %s: %w", errors.ErrInvalidWorkingDirectory, cwd, err),
		}
	}

	if !info.IsDir() {
		return &errors.CLIConnectionError{
			Err: fmt.Errorf("%w: %s is not a directory", errors.ErrInvalidWorkingDirectory, cwd),
		}
	}

	return nil
}

// readLoop parses forwarded frames into messages. It is the only producer on
// c.messages and closes it on return.
func (c *Client) readLoop(ctx context.Context) error {
	defer c.log.Debug("Read loop stopped")
	defer close(c.messages)

	frames := c.controller.Messages()

	for {
		select {
		case frame, ok := <-frames:
			if !ok {
				if err := c.controller.FatalError(); err != nil {
					c.log.Error("Transport error", "error", err)
					c.fail(err)

					return err
				}

				c.log.Debug("CLI output ended")
				c.endOfStream()

				return nil
			}

			msg, err := message.Parse(c.log, frame)
			if err != nil {
				if c.options.ParseErrorPolicy == config.ParseErrorSkip {
					c.log.Warn("Skipping unparseable message", "error", err)

					continue
				}

				err = fmt.Errorf("parse message: %w", err)
				c.log.Error("Failed to parse message", "error", err)
				c.fail(err)

				return err
			}

			select {
			case c.messages <- msg:
			case <-c.done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}

		case <-c.done:
			return nil

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fail records the first fatal error and moves a ready session to StateFailed.
func (c *Client) fail(err error) {
	c.errMu.Lock()

	if c.fatalErr == nil {
		c.fatalErr = err
	}

	c.errMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateReady {
		c.state = StateFailed
	}
}

// endOfStream moves a ready session to StateClosed once the CLI's output has
// ended without error.
func (c *Client) endOfStream() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateReady {
		c.state = StateClosed
	}
}

func (c *Client) fatalError() error {
	c.errMu.RLock()
	defer c.errMu.RUnlock()

	return c.fatalErr
}

// requireReady returns nil in StateReady and a not-connected error otherwise.
func (c *Client) requireReady() error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()

	if state == StateReady {
		return nil
	}

	if state == StateFailed {
		return fmt.Errorf("%w: session failed: %w", errors.ErrClientNotConnected, c.fatalError())
	}

	return errors.ErrClientNotConnected
}

// Query writes a user prompt. It returns once the line is written; read the
// reply with ReceiveResponse. sessionID defaults to "default".
func (c *Client) Query(ctx context.Context, prompt string, sessionID ...string) error {
	if err := c.requireReady(); err != nil {
		return err
	}

	sid := defaultSessionID
	if len(sessionID) > 0 && sessionID[0] != "" {
		sid = sessionID[0]
	}

	data, err := json.Marshal(message.NewStreamingMessage(prompt, sid))
	if err != nil {
		return fmt.Errorf("marshal query: %w", err)
	}

	c.log.Debug("Sending query", "prompt_len", len(prompt), "session_id", sid)

	if err := c.transport.SendMessage(ctx, data); err != nil {
		return fmt.Errorf("send query: %w", err)
	}

	return nil
}

// Interrupt asks the CLI to stop the current turn and waits for it to confirm.
func (c *Client) Interrupt(ctx context.Context) error {
	if err := c.requireReady(); err != nil {
		return err
	}

	c.log.Info("Sending interrupt")

	if _, err := c.controller.SendRequest(ctx, protocol.SubtypeInterrupt, nil, c.controlTimeout()); err != nil {
		return fmt.Errorf("interrupt: %w", err)
	}

	return nil
}

// SetPermissionMode changes the permission mode for the rest of the session.
// Legacy aliases are normalized; unknown modes are rejected without contacting the CLI.
func (c *Client) SetPermissionMode(ctx context.Context, mode string) error {
	if err := c.requireReady(); err != nil {
		return err
	}

	resolved, err := config.ResolvePermissionMode(mode)
	if err != nil {
		return err
	}

	c.log.Info("Setting permission mode", "mode", resolved)

	payload := map[string]any{"mode": resolved}

	if _, err := c.controller.SendRequest(ctx, protocol.SubtypeSetPermissionMode, payload, c.controlTimeout()); err != nil {
		return fmt.Errorf("set permission mode to %q: %w", resolved, err)
	}

	return nil
}

// SetModel switches the model. nil selects the CLI default.
func (c *Client) SetModel(ctx context.Context, model *string) error {
	if err := c.requireReady(); err != nil {
		return err
	}

	c.log.Info("Setting model", "model", model)

	payload := map[string]any{"model": model}

	if _, err := c.controller.SendRequest(ctx, protocol.SubtypeSetModel, payload, c.controlTimeout()); err != nil {
		return fmt.Errorf("set model: %w", err)
	}

	return nil
}

// GetServerInfo returns the CLI's initialize reply, or nil when no handshake
// was needed or the client is not connected.
func (c *Client) GetServerInfo() map[string]any {
	c.mu.Lock()
	handlers := c.handlers
	c.mu.Unlock()

	if handlers == nil {
		return nil
	}

	return handlers.InitializationResult()
}

func (c *Client) controlTimeout() time.Duration {
	if c.options != nil && c.options.ControlRequestTimeout != nil {
		return *c.options.ControlRequestTimeout
	}

	return defaultControlRequestTimeout
}

// receive returns the next message, io.EOF at a clean end of stream, or the
// error that ended the session.
func (c *Client) receive(ctx context.Context) (message.Message, error) {
	select {
	case msg, ok := <-c.messages:
		if ok {
			return msg, nil
		}

		if err := c.eg.Wait(); err != nil && !stderrors.Is(err, context.Canceled) {
			return nil, err
		}

		if err := c.fatalError(); err != nil {
			return nil, err
		}

		return nil, io.EOF

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// canReceive reports whether the message queue may be drained.
func (c *Client) canReceive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.eg == nil {
		return false
	}

	switch c.state {
	case StateReady, StateFailed, StateClosing:
		return true
	case StateClosed:
		return !c.released
	default:
		return false
	}
}

// ReceiveMessages yields messages until the stream ends or the session closes.
// An error that ended the session is yielded once as the final element.
func (c *Client) ReceiveMessages(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		if !c.canReceive() {
			yield(nil, errors.ErrClientNotConnected)

			return
		}

		for {
			msg, err := c.receive(ctx)
			if stderrors.Is(err, io.EOF) {
				return
			}

			if !yield(msg, err) || err != nil {
				return
			}
		}
	}
}

// ReceiveResponse yields one turn: messages up to and including the next
// *message.ResultMessage. Messages after it stay queued for the next call.
func (c *Client) ReceiveResponse(ctx context.Context) iter.Seq2[message.Message, error] {
	return func(yield func(message.Message, error) bool) {
		for msg, err := range c.ReceiveMessages(ctx) {
			if !yield(msg, err) || err != nil {
				return
			}

			if _, ok := msg.(*message.ResultMessage); ok {
				return
			}
		}
	}
}

// Disconnect ends the session: the process is terminated, pending control
// requests fail with ErrConnectionClosed, and the background loop is awaited.
// It is a no-op on a client that was never connected or is already closed.
func (c *Client) Disconnect() error {
	c.mu.Lock()

	switch {
	case c.state == StateDisconnected, c.state == StateClosing, c.released:
		c.mu.Unlock()

		return nil

	case c.state == StateConnecting:
		abort, connecting := c.abortConnect, c.connecting
		c.state = StateClosing
		c.mu.Unlock()

		c.log.Info("Aborting connect")

		if abort != nil {
			abort()
		}

		<-connecting

		return nil

	case c.eg == nil:
		// Closed by an aborted Connect; nothing was kept.
		c.mu.Unlock()

		return nil
	}

	c.released = true

	if c.state != StateClosed {
		c.state = StateClosing
	}

	c.mu.Unlock()

	c.log.Info("Disconnecting")

	close(c.done)

	// Stop before closing the transport so no read races the process release.
	c.controller.Stop()

	closeErr := c.transport.Close()

	c.cancel()

	if err := c.eg.Wait(); err != nil && closeErr == nil && !stderrors.Is(err, context.Canceled) {
		c.log.Debug("Read loop ended with error", "error", err)
	}

	c.mu.Lock()
	c.state = StateClosed
	c.mu.Unlock()

	c.log.Info("Client disconnected")

	if closeErr != nil {
		return fmt.Errorf("close transport: %w", closeErr)
	}

	return nil
}
