package claudecode

import "github.com/wagiedev/claude-code-sdk-go/internal/errors"

// ClaudeSDKError is implemented by every typed error in this package.
type ClaudeSDKError = errors.ClaudeSDKError

// CLINotFoundError indicates the Claude CLI binary was not found.
type CLINotFoundError = errors.CLINotFoundError

// CLIConnectionError indicates the CLI could not be started or reached.
type CLIConnectionError = errors.CLIConnectionError

// ProcessError indicates the CLI exited unsuccessfully.
type ProcessError = errors.ProcessError

// MessageParseError indicates a decoded frame was not a valid message.
type MessageParseError = errors.MessageParseError

// CLIJSONDecodeError indicates the CLI wrote malformed JSON.
type CLIJSONDecodeError = errors.CLIJSONDecodeError

// BufferSizeExceededError indicates a single frame exceeded the buffer limit.
type BufferSizeExceededError = errors.BufferSizeExceededError

// TrailingDataError indicates the stream ended in the middle of a frame.
type TrailingDataError = errors.TrailingDataError

// ControlRequestError indicates an interrupt or other control request failed.
type ControlRequestError = errors.ControlRequestError

var (
	ErrClientNotConnected      = errors.ErrClientNotConnected
	ErrClientAlreadyConnected  = errors.ErrClientAlreadyConnected
	ErrClientClosed            = errors.ErrClientClosed
	ErrTransportNotConnected   = errors.ErrTransportNotConnected
	ErrInvalidWorkingDirectory = errors.ErrInvalidWorkingDirectory
	ErrStdinClosed             = errors.ErrStdinClosed

	// ErrDecode is matched by every stream decoding failure.
	ErrDecode = errors.ErrDecode

	ErrUnknownMessageType = errors.ErrUnknownMessageType
	ErrMissingField       = errors.ErrMissingField
	ErrInvalidMessageData = errors.ErrInvalidMessageData

	// ErrRequestTimeout, ErrConnectionClosed and ErrControlResponse are the
	// causes carried by ControlRequestError.
	ErrRequestTimeout   = errors.ErrRequestTimeout
	ErrConnectionClosed = errors.ErrConnectionClosed
	ErrControlResponse  = errors.ErrControlResponse
)
