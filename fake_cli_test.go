package claudecode_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	claudecode "github.com/wagiedev/claude-code-sdk-go"
)

// fakeCLI is a Transport that behaves like a minimal CLI: it echoes each
// prompt as an assistant message followed by a result, acknowledges control
// requests, and can issue its own control requests to the SDK.
type fakeCLI struct {
	mu      sync.Mutex
	closed  bool
	ended   bool
	prompts []string
	control []map[string]any
	nextID  int

	frames  chan any
	errs    chan error
	replies chan map[string]any
}

var _ claudecode.Transport = (*fakeCLI)(nil)

func newFakeCLI() *fakeCLI {
	return &fakeCLI{
		frames:  make(chan any, 100),
		errs:    make(chan error, 1),
		replies: make(chan map[string]any, 10),
	}
}

func (f *fakeCLI) Start(context.Context) error { return nil }

func (f *fakeCLI) ReadMessages(context.Context) (<-chan any, <-chan error) {
	return f.frames, f.errs
}

func (f *fakeCLI) SendMessage(_ context.Context, data []byte) error {
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("fake cli: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return claudecode.ErrStdinClosed
	}

	switch msg["type"] {
	case "user":
		prompt, _ := msg["message"].(map[string]any)["content"].(string)
		f.prompts = append(f.prompts, prompt)

		f.emit(map[string]any{
			"type": "assistant",
			"message": map[string]any{
				"model":   "claude-test",
				"content": []any{map[string]any{"type": "text", "text": "echo: " + prompt}},
			},
		})
		f.emit(map[string]any{
			"type":            "result",
			"subtype":         "success",
			"duration_ms":     5.0,
			"duration_api_ms": 4.0,
			"is_error":        false,
			"num_turns":       float64(len(f.prompts)),
			"session_id":      msg["session_id"],
		})

	case "control_request":
		request, _ := msg["request"].(map[string]any)
		f.control = append(f.control, request)

		payload := map[string]any{}
		if request["subtype"] == "initialize" {
			payload["commands"] = []any{"/compact"}
		}

		f.emit(map[string]any{
			"type": "control_response",
			"response": map[string]any{
				"subtype":    "success",
				"request_id": msg["request_id"],
				"response":   payload,
			},
		})

	case "control_response":
		f.replies <- msg["response"].(map[string]any)
	}

	return nil
}

// emit queues a frame for the SDK. f.mu is held.
func (f *fakeCLI) emit(frame map[string]any) {
	if !f.ended {
		f.frames <- frame
	}
}

func (f *fakeCLI) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true

	return nil
}

func (f *fakeCLI) IsReady() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return !f.closed
}

func (f *fakeCLI) EndInput() error { return nil }

func (f *fakeCLI) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.closed
}

func (f *fakeCLI) controlRequests() []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]map[string]any(nil), f.control...)
}

// request sends a control request to the SDK and waits for its reply.
func (f *fakeCLI) request(t *testing.T, body map[string]any) map[string]any {
	t.Helper()

	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("cli-%d", f.nextID)
	f.emit(map[string]any{"type": "control_request", "request_id": id, "request": body})
	f.mu.Unlock()

	select {
	case reply := <-f.replies:
		require.Equal(t, id, reply["request_id"])

		return reply
	case <-time.After(2 * time.Second):
		t.Fatalf("no reply to %v", body["subtype"])

		return nil
	}
}
