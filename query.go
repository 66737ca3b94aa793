package claudecode

import (
	"context"
	"fmt"
	"iter"
)

// Query runs a single prompt in a fresh session and yields every message of
// the turn, ending with the ResultMessage.
//
// The CLI process is started when iteration begins and terminated when it
// ends, including when the loop breaks early. A failure to connect or send is
// yielded as the only element.
//
//	for msg, err := range claudecode.Query(ctx, "Summarize README.md") {
//	    if err != nil {
//	        return err
//	    }
//	    // ...
//	}
func Query(ctx context.Context, prompt string, opts ...Option) iter.Seq2[Message, error] {
	return func(yield func(Message, error) bool) {
		log := applyOptions(opts).Logger
		if log == nil {
			log = NopLogger()
		}

		log = log.With("component", "query")

		client := NewClient()
		if err := client.Connect(ctx, opts...); err != nil {
			yield(nil, err)

			return
		}

		defer func() {
			if err := client.Disconnect(); err != nil {
				log.Debug("Disconnect after query", "error", err)
			}
		}()

		if err := client.Query(ctx, prompt); err != nil {
			yield(nil, fmt.Errorf("send prompt: %w", err))

			return
		}

		for msg, err := range client.ReceiveResponse(ctx) {
			if !yield(msg, err) {
				return
			}
		}
	}
}
