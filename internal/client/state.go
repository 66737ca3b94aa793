package client

// State is the lifecycle state of a Client.
type State int32

const (
	// StateDisconnected is the initial state, and the state after a failed Connect.
	StateDisconnected State = iota
	// StateConnecting is held while Connect starts the process and handshakes.
	StateConnecting
	// StateReady accepts Query, Interrupt and the other control operations.
	StateReady
	// StateClosing is held while Disconnect tears the session down.
	StateClosing
	// StateClosed is terminal. It is entered by Disconnect, or when the CLI's
	// output ends cleanly; queued messages can still be received until
	// Disconnect. Clients are single-use.
	StateClosed
	// StateFailed is entered when the stream fails to decode or parse, or the
	// process exits with an error. Only Disconnect and draining receives remain valid.
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
