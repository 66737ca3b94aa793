// Package protocol implements the control channel multiplexed over the CLI's
// stdout and stdin.
//
// The Controller is the single reader of the transport. It resolves
// control_response frames through a Correlator, dispatches control_request
// frames from the CLI to registered handlers, and forwards every other frame
// in order on Messages().
//
// The Correlator issues ULID request ids and guarantees each pending request
// is resolved exactly once: by its response, a timeout, or connection loss.
//
// Example usage:
//
//	controller := protocol.NewController(log, transport)
//	controller.Start(ctx)
//
//	handlers := protocol.NewHandlers(log, controller, options)
//	handlers.Register()
//
//	resp, err := controller.SendRequest(ctx, protocol.SubtypeInterrupt, nil, 30*time.Second)
package protocol
