// Package client implements the session state machine for one CLI process.
//
// A Client moves through Disconnected, Connecting, Ready, Closing and Closed,
// with Failed entered when the output stream cannot be decoded or parsed. It
// owns a protocol.Controller for control requests and a single background loop
// that parses forwarded frames into messages, so Query and the control
// operations may run while another goroutine ranges over ReceiveMessages.
package client
