// Package claudecode drives the Claude Code CLI over its stdio stream-json protocol.
//
// The CLI is started as a child process. Everything it writes is decoded into
// typed messages, and control requests (interrupt, permission mode and model
// changes) are correlated with their responses by request id.
//
// # One-shot queries
//
// Query runs a single turn and yields every message up to the result:
//
//	for msg, err := range claudecode.Query(ctx, "What is 2+2?",
//	    claudecode.WithMaxTurns(1),
//	) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    if m, ok := msg.(*claudecode.AssistantMessage); ok {
//	        for _, block := range m.Content {
//	            if text, ok := block.(*claudecode.TextBlock); ok {
//	                fmt.Println(text.Text)
//	            }
//	        }
//	    }
//	}
//
// # Sessions
//
// A Client keeps one CLI process for many turns. Sending and receiving may
// happen on different goroutines:
//
//	err := claudecode.WithClient(ctx, func(c claudecode.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	        // ...
//	    }
//
//	    return nil
//	}, claudecode.WithPermissionMode("acceptEdits"))
//
// # Errors
//
// Failures are typed and may be inspected with errors.Is and errors.AsType:
//
//	if notFound, ok := errors.AsType[*claudecode.CLINotFoundError](err); ok {
//	    log.Fatalf("claude CLI not installed, searched: %v", notFound.SearchedPaths)
//	}
//
// Decode failures (BufferSizeExceededError, TrailingDataError, CLIJSONDecodeError)
// all match ErrDecode.
package claudecode
