// Package subprocess runs the Claude CLI as a child process and exposes it as
// a config.Transport.
//
// ExecProcess spawns the binary with piped stdio. CLITransport drives any
// config.Process: it decodes stdout into JSON frames with a bounded buffer,
// forwards stderr lines to a callback, reports non-zero exits as
// *errors.ProcessError, and serializes writes to stdin.
package subprocess
