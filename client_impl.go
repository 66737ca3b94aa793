package claudecode

import (
	"context"
	"iter"

	"github.com/wagiedev/claude-code-sdk-go/internal/client"
)

// clientWrapper adapts the internal session to the public interface.
type clientWrapper struct {
	impl *client.Client
}

var _ Client = (*clientWrapper)(nil)

func newClientImpl() Client {
	return &clientWrapper{impl: client.New()}
}

func (c *clientWrapper) Connect(ctx context.Context, opts ...Option) error {
	return c.impl.Connect(ctx, applyOptions(opts))
}

func (c *clientWrapper) Query(ctx context.Context, prompt string, sessionID ...string) error {
	return c.impl.Query(ctx, prompt, sessionID...)
}

func (c *clientWrapper) ReceiveMessages(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveMessages(ctx)
}

func (c *clientWrapper) ReceiveResponse(ctx context.Context) iter.Seq2[Message, error] {
	return c.impl.ReceiveResponse(ctx)
}

func (c *clientWrapper) Interrupt(ctx context.Context) error {
	return c.impl.Interrupt(ctx)
}

func (c *clientWrapper) SetPermissionMode(ctx context.Context, mode string) error {
	return c.impl.SetPermissionMode(ctx, mode)
}

func (c *clientWrapper) SetModel(ctx context.Context, model *string) error {
	return c.impl.SetModel(ctx, model)
}

func (c *clientWrapper) GetServerInfo() map[string]any {
	return c.impl.GetServerInfo()
}

func (c *clientWrapper) State() State {
	return c.impl.State()
}

func (c *clientWrapper) Disconnect() error {
	return c.impl.Disconnect()
}
