package errors

import (
	"errors"
	"fmt"
)

// ClaudeSDKError is the base interface for all SDK errors.
type ClaudeSDKError interface {
	error
	IsClaudeSDKError() bool
}

// Compile-time verification that all error types implement ClaudeSDKError.
var (
	_ ClaudeSDKError = (*CLINotFoundError)(nil)
	_ ClaudeSDKError = (*CLIConnectionError)(nil)
	_ ClaudeSDKError = (*ProcessError)(nil)
	_ ClaudeSDKError = (*MessageParseError)(nil)
	_ ClaudeSDKError = (*CLIJSONDecodeError)(nil)
	_ ClaudeSDKError = (*BufferSizeExceededError)(nil)
	_ ClaudeSDKError = (*TrailingDataError)(nil)
	_ ClaudeSDKError = (*ControlRequestError)(nil)
)

// maxRawDataLen caps how much raw stream data is retained inside decode errors.
const maxRawDataLen = 512

// Sentinel errors for commonly checked conditions.
var (
	// ErrClientNotConnected indicates the client is not connected.
	ErrClientNotConnected = errors.New("client not connected")

	// ErrClientAlreadyConnected indicates the client is already connected.
	ErrClientAlreadyConnected = errors.New("client already connected")

	// ErrClientClosed indicates the client has been closed and cannot be reused.
	ErrClientClosed = errors.New("client closed: clients are single-use, create a new one with New()")

	// ErrTransportNotConnected indicates the transport is not connected.
	ErrTransportNotConnected = errors.New("transport not connected")

	// ErrInvalidWorkingDirectory indicates the configured working directory is unusable.
	ErrInvalidWorkingDirectory = errors.New("invalid working directory")

	// ErrRequestTimeout indicates a request timed out.
	ErrRequestTimeout = errors.New("request timeout")

	// ErrConnectionClosed indicates the session closed while a control request was pending.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrControlResponse indicates the CLI answered a control request with an error.
	ErrControlResponse = errors.New("control response error")

	// ErrControllerStopped indicates the protocol controller has stopped.
	ErrControllerStopped = errors.New("protocol controller stopped")

	// ErrStdinClosed indicates stdin was closed due to context cancellation.
	ErrStdinClosed = errors.New("stdin closed")

	// ErrOperationCancelled indicates an operation was cancelled via cancel request.
	ErrOperationCancelled = errors.New("operation cancelled")

	// ErrDecode is matched by every error that ends the frame stream.
	ErrDecode = errors.New("decode error")

	// ErrInvalidMessageData indicates a frame that is not a JSON object.
	ErrInvalidMessageData = errors.New("invalid message data type")

	// ErrMissingField indicates a message lacks a required field or has it with the wrong kind.
	ErrMissingField = errors.New("missing required field")

	// ErrUnknownMessageType indicates the message type is not recognized by the SDK.
	ErrUnknownMessageType = errors.New("unknown message type")
)

// CLINotFoundError indicates the Claude CLI binary was not found.
type CLINotFoundError struct {
	SearchedPaths []string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("claude CLI not found in: %v", e.SearchedPaths)
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLINotFoundError) IsClaudeSDKError() bool { return true }

// CLIConnectionError indicates failure to connect to the CLI.
type CLIConnectionError struct {
	Err error
}

func (e *CLIConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to CLI: %v", e.Err)
}

func (e *CLIConnectionError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLIConnectionError) IsClaudeSDKError() bool { return true }

// ProcessError indicates the CLI process failed.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("CLI process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("CLI process failed (exit %d): %s", e.ExitCode, e.Stderr)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *ProcessError) IsClaudeSDKError() bool { return true }

// MessageParseError indicates a decoded frame could not be turned into a Message.
// Data holds the original frame for diagnostics.
type MessageParseError struct {
	Message string
	Err     error
	Data    any
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("failed to parse message: %s", e.Message)
}

func (e *MessageParseError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *MessageParseError) IsClaudeSDKError() bool { return true }

// CLIJSONDecodeError indicates the stream contained malformed JSON.
// This error preserves the raw data that failed to parse.
type CLIJSONDecodeError struct {
	RawData string
	Err     error
}

func (e *CLIJSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from CLI: %v", e.Err)
}

func (e *CLIJSONDecodeError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrDecode.
func (e *CLIJSONDecodeError) Is(target error) bool { return target == ErrDecode }

// IsClaudeSDKError implements ClaudeSDKError.
func (e *CLIJSONDecodeError) IsClaudeSDKError() bool { return true }

// BufferSizeExceededError indicates an incomplete frame grew past the decoder limit.
type BufferSizeExceededError struct {
	Limit int
	Size  int
}

func (e *BufferSizeExceededError) Error() string {
	return fmt.Sprintf(
		"JSON message exceeded maximum buffer size of %d bytes (buffered %d bytes)",
		e.Limit, e.Size,
	)
}

// Is reports whether target is ErrDecode.
func (e *BufferSizeExceededError) Is(target error) bool { return target == ErrDecode }

// IsClaudeSDKError implements ClaudeSDKError.
func (e *BufferSizeExceededError) IsClaudeSDKError() bool { return true }

// TrailingDataError indicates the stream ended in the middle of a frame.
type TrailingDataError struct {
	RawData string
}

func (e *TrailingDataError) Error() string {
	return fmt.Sprintf("stream ended with incomplete JSON data: %q", e.RawData)
}

// Is reports whether target is ErrDecode.
func (e *TrailingDataError) Is(target error) bool { return target == ErrDecode }

// IsClaudeSDKError implements ClaudeSDKError.
func (e *TrailingDataError) IsClaudeSDKError() bool { return true }

// ControlRequestError indicates a control request did not succeed.
// Err is ErrControlResponse, ErrRequestTimeout or ErrConnectionClosed.
type ControlRequestError struct {
	RequestID string
	Subtype   string
	Message   string
	Err       error
}

func (e *ControlRequestError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("control request %s (%s) failed: %v: %s", e.RequestID, e.Subtype, e.Err, e.Message)
	}

	return fmt.Sprintf("control request %s (%s) failed: %v", e.RequestID, e.Subtype, e.Err)
}

func (e *ControlRequestError) Unwrap() error {
	return e.Err
}

// IsClaudeSDKError implements ClaudeSDKError.
func (e *ControlRequestError) IsClaudeSDKError() bool { return true }

// TruncateRaw shortens raw stream data for inclusion in an error.
func TruncateRaw(data []byte) string {
	if len(data) <= maxRawDataLen {
		return string(data)
	}

	return string(data[:maxRawDataLen]) + "..."
}
