package claudecode

import (
	"context"
	"iter"
)

// Client is an interactive session with one CLI process.
//
// Clients are single-use: after Disconnect, create a new one with NewClient.
// Query and the control methods may be called while another goroutine ranges
// over ReceiveMessages or ReceiveResponse.
//
//	client := claudecode.NewClient()
//	if err := client.Connect(ctx, claudecode.WithPermissionMode("acceptEdits")); err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Disconnect()
//
//	if err := client.Query(ctx, "What is 2+2?"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for msg, err := range client.ReceiveResponse(ctx) {
//	    // ...
//	}
type Client interface {
	// Connect starts the CLI. Returns CLINotFoundError when the binary cannot
	// be found and CLIConnectionError when it cannot be started.
	Connect(ctx context.Context, opts ...Option) error

	// Query sends a user prompt and returns once it is written.
	// sessionID defaults to "default".
	Query(ctx context.Context, prompt string, sessionID ...string) error

	// ReceiveMessages yields every message until the stream ends.
	// A terminal error, if any, is yielded last.
	ReceiveMessages(ctx context.Context) iter.Seq2[Message, error]

	// ReceiveResponse yields messages up to and including the next ResultMessage.
	ReceiveResponse(ctx context.Context) iter.Seq2[Message, error]

	// Interrupt stops the current turn and waits for the CLI to acknowledge it.
	Interrupt(ctx context.Context) error

	// SetPermissionMode changes the permission mode mid-session.
	SetPermissionMode(ctx context.Context, mode string) error

	// SetModel switches models mid-session. nil selects the default model.
	SetModel(ctx context.Context, model *string) error

	// GetServerInfo returns the initialize reply, or nil when no handshake ran.
	GetServerInfo() map[string]any

	// State reports the lifecycle state.
	State() State

	// Disconnect terminates the CLI. Safe to call more than once.
	Disconnect() error
}

// NewClient creates a disconnected client.
func NewClient() Client {
	return newClientImpl()
}
