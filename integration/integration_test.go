//go:build integration

package integration

import (
	"errors"
	"strings"
	"testing"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

// skipIfCLINotInstalled skips the test when err says the CLI is missing.
func skipIfCLINotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*claudecode.CLINotFoundError](err); ok {
		t.Skip("Claude CLI not installed")
	}
}

func assistantText(msg claudecode.Message) string {
	m, ok := msg.(*claudecode.AssistantMessage)
	if !ok {
		return ""
	}

	var text strings.Builder

	for _, block := range m.Content {
		if b, ok := block.(*claudecode.TextBlock); ok {
			text.WriteString(b.Text)
		}
	}

	return text.String()
}
