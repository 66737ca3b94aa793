package main

import (
	"bytes"
	"context"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

// scriptedClient answers every prompt with a fixed assistant reply and result.
type scriptedClient struct {
	claudecode.Client

	prompts  []string
	sessions []string
}

func (c *scriptedClient) Query(_ context.Context, prompt string, sessionID ...string) error {
	c.prompts = append(c.prompts, prompt)
	c.sessions = append(c.sessions, sessionID...)

	return nil
}

func (c *scriptedClient) ReceiveResponse(context.Context) iter.Seq2[claudecode.Message, error] {
	prompt := c.prompts[len(c.prompts)-1]

	return func(yield func(claudecode.Message, error) bool) {
		if !yield(&claudecode.AssistantMessage{
			Content: []claudecode.ContentBlock{&claudecode.TextBlock{Text: "re: " + prompt}},
		}, nil) {
			return
		}

		yield(&claudecode.ResultMessage{Subtype: "success", DurationMs: 3, NumTurns: 1}, nil)
	}
}

func TestChat(t *testing.T) {
	client := &scriptedClient{}
	in := strings.NewReader("hello\n\n  second  \n/quit\nignored\n")

	var out bytes.Buffer

	require.NoError(t, chat(context.Background(), client, "sess-1", in, &out))
	require.Equal(t, []string{"hello", "second"}, client.prompts)
	require.Equal(t, []string{"sess-1", "sess-1"}, client.sessions)
	require.Contains(t, out.String(), "re: hello\n[success in 3ms, 1 turns]\n")
	require.Contains(t, out.String(), "re: second\n")
}

func TestChat_EndOfInput(t *testing.T) {
	client := &scriptedClient{}

	var out bytes.Buffer

	require.NoError(t, chat(context.Background(), client, "s", strings.NewReader("only\n"), &out))
	require.Equal(t, []string{"only"}, client.prompts)
}

func TestRender(t *testing.T) {
	cost := 0.0123
	apiErr := claudecode.AssistantMessageErrorRateLimit

	var out bytes.Buffer

	render(&out, &claudecode.AssistantMessage{
		Content: []claudecode.ContentBlock{
			&claudecode.TextBlock{Text: "Let me look."},
			&claudecode.ToolUseBlock{Name: "Read"},
		},
		Error: &apiErr,
	})
	render(&out, &claudecode.ResultMessage{Subtype: "success", DurationMs: 12, NumTurns: 2, TotalCostUSD: &cost})
	render(&out, &claudecode.SystemMessage{Subtype: "init"})

	require.Equal(t,
		"Let me look.\n[tool Read]\n[assistant error: rate_limit]\n[success in 12ms, 2 turns, $0.0123]\n",
		out.String())
}
