// Package mcp hosts Model Context Protocol servers inside the client process.
//
// Servers listed in the session options with type "sdk" are advertised to the
// CLI by name only. When the model calls one of their tools the CLI sends an
// mcp_message control request carrying a JSON-RPC message; Router dispatches
// it to the matching SDKServer and wraps the JSON-RPC reply for the control
// response. External stdio, SSE and HTTP servers are passed through to the
// CLI in --mcp-config and never touch this package at runtime.
package mcp
