// Package errors holds the error values returned by the session client.
//
// Failures fall into three groups: locating and running the CLI
// (CLINotFoundError, CLIConnectionError, ProcessError), reading its output
// (CLIJSONDecodeError, BufferSizeExceededError and TrailingDataError match
// ErrDecode; MessageParseError reports a well-formed frame that is not a
// valid message), and control requests (ControlRequestError). Sentinels cover lifecycle misuse such as
// ErrClientNotConnected. Match them with errors.Is or errors.AsType.
package errors
