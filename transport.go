package claudecode

import "github.com/wagiedev/claude-code-sdk-go/internal/config"

// Transport carries frames between the client and the CLI. Inject one with
// WithTransport to bypass process management entirely.
type Transport = config.Transport

// Process is a started child program. Inject one with WithProcess to keep the
// default stream handling while controlling how the CLI is launched.
type Process = config.Process
