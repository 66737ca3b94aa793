package claudecode

import (
	"context"
	"fmt"
)

// WithClient connects a client, runs fn, and disconnects.
//
// fn's error is returned unchanged. A disconnect failure is logged and only
// returned when fn succeeded.
//
//	err := claudecode.WithClient(ctx, func(c claudecode.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        // ...
//	    }
//
//	    return nil
//	}, claudecode.WithLogger(log))
func WithClient(ctx context.Context, fn func(Client) error, opts ...Option) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	log := applyOptions(opts).Logger
	if log == nil {
		log = NopLogger()
	}

	client := NewClient()
	if err := client.Connect(ctx, opts...); err != nil {
		return fmt.Errorf("connect client: %w", err)
	}

	defer func() {
		if closeErr := client.Disconnect(); closeErr != nil {
			log.Warn("Failed to disconnect client", "error", closeErr)

			if err == nil {
				err = fmt.Errorf("disconnect client: %w", closeErr)
			}
		}
	}()

	return fn(client)
}
