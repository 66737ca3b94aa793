package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

// pipeProcess is a config.Process backed by in-memory pipes.
type pipeProcess struct {
	stdinR, stdoutR, stderrR *io.PipeReader
	stdinW, stdoutW, stderrW *io.PipeWriter

	waitErr    error
	exited     chan struct{}
	exitOnce   sync.Once
	terminated bool
	mu         sync.Mutex
}

func newPipeProcess() *pipeProcess {
	p := &pipeProcess{exited: make(chan struct{})}
	p.stdinR, p.stdinW = io.Pipe()
	p.stdoutR, p.stdoutW = io.Pipe()
	p.stderrR, p.stderrW = io.Pipe()

	return p
}

func (p *pipeProcess) Start(context.Context) error { return nil }
func (p *pipeProcess) Stdin() io.WriteCloser       { return p.stdinW }
func (p *pipeProcess) Stdout() io.Reader           { return p.stdoutR }
func (p *pipeProcess) Stderr() io.Reader           { return p.stderrR }

// exit closes the output pipes and lets Wait return err.
func (p *pipeProcess) exit(err error) {
	p.exitOnce.Do(func() {
		p.waitErr = err
		_ = p.stdoutW.Close()
		_ = p.stderrW.Close()
		close(p.exited)
	})
}

func (p *pipeProcess) Terminate() error {
	p.mu.Lock()
	p.terminated = true
	p.mu.Unlock()

	_ = p.stdinR.Close()
	p.exit(stderrors.New("signal: killed"))

	return nil
}

func (p *pipeProcess) Wait() error {
	<-p.exited

	return p.waitErr
}

func startPipeTransport(t *testing.T, opts *config.Options) (*CLITransport, *pipeProcess) {
	t.Helper()

	proc := newPipeProcess()
	opts.Process = proc

	transport := NewCLITransport(slog.Default(), opts)
	require.NoError(t, transport.Start(context.Background()))
	t.Cleanup(func() { _ = transport.Close() })

	return transport, proc
}

// collect drains both channels, returning the frames and the first error.
func collect(t *testing.T, frames <-chan any, errs <-chan error) ([]any, error) {
	t.Helper()

	var (
		got      []any
		firstErr error
	)

	timeout := time.After(5 * time.Second)

	for frames != nil || errs != nil {
		select {
		case f, ok := <-frames:
			if !ok {
				frames = nil

				continue
			}

			got = append(got, f)
		case err, ok := <-errs:
			if !ok {
				errs = nil

				continue
			}

			if firstErr == nil {
				firstErr = err
			}
		case <-timeout:
			t.Fatal("transport channels did not close")
		}
	}

	return got, firstErr
}

func TestReadMessages_ChunkedFrames(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{})

	frames, errs := transport.ReadMessages(context.Background())

	go func() {
		_, _ = proc.stdoutW.Write([]byte(`{"type":"system","subtype":"start"}` + "\n"))
		_, _ = proc.stdoutW.Write([]byte(`{"type":"system",`))
		_, _ = proc.stdoutW.Write([]byte(`"subtype":"end"}`))
		proc.exit(nil)
	}()

	got, err := collect(t, frames, errs)
	require.NoError(t, err)
	require.Equal(t, []any{
		map[string]any{"type": "system", "subtype": "start"},
		map[string]any{"type": "system", "subtype": "end"},
	}, got)
}

func TestReadMessages_BufferLimitFromOptions(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{MaxBufferSize: new(64)})

	frames, errs := transport.ReadMessages(context.Background())

	go func() {
		_, _ = proc.stdoutW.Write([]byte(`{"ok":true}` + "\n"))
		_, _ = proc.stdoutW.Write([]byte(`{"data":"` + strings.Repeat("x", 100)))
	}()

	got, err := collect(t, frames, errs)
	require.Len(t, got, 1)

	bufErr, ok := stderrors.AsType[*errors.BufferSizeExceededError](err)
	require.True(t, ok, "expected BufferSizeExceededError, got %v", err)
	require.Equal(t, 64, bufErr.Limit)
	require.ErrorIs(t, err, errors.ErrDecode)
}

func TestReadMessages_ProcessErrorIncludesCleanedStderr(t *testing.T) {
	var (
		mu    sync.Mutex
		lines []string
	)

	transport, proc := startPipeTransport(t, &config.Options{
		Stderr: func(line string) {
			mu.Lock()
			defer mu.Unlock()

			lines = append(lines, line)
		},
	})

	frames, errs := transport.ReadMessages(context.Background())

	go func() {
		_, _ = proc.stderrW.Write([]byte("Error: invalid api key\n12 | var a=b.c(d)\n    at main (cli.js:1:2)\n"))
		proc.exit(stderrors.New("exit status 1"))
	}()

	got, err := collect(t, frames, errs)
	require.Empty(t, got)

	procErr, ok := stderrors.AsType[*errors.ProcessError](err)
	require.True(t, ok, "expected ProcessError, got %v", err)
	require.Equal(t, "Error: invalid api key\n    at main (cli.js:1:2)", procErr.Stderr)
	require.Equal(t, -1, procErr.ExitCode)

	mu.Lock()
	defer mu.Unlock()

	require.Len(t, lines, 3)
}

func TestReadMessages_CloseSuppressesExitError(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{})

	frames, errs := transport.ReadMessages(context.Background())

	require.NoError(t, transport.Close())

	got, err := collect(t, frames, errs)
	require.Empty(t, got)
	require.NoError(t, err)

	proc.mu.Lock()
	defer proc.mu.Unlock()

	require.True(t, proc.terminated)
}

func TestSendMessage_NewlineTerminated(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{})

	lines := make(chan string, 2)

	go func() {
		scanner := bufio.NewScanner(proc.stdinR)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	require.NoError(t, transport.SendMessage(context.Background(), []byte(`{"a":1}`)))
	require.NoError(t, transport.SendMessage(context.Background(), []byte(`{"b":2}`+"\n")))

	require.Equal(t, `{"a":1}`, <-lines)
	require.Equal(t, `{"b":2}`, <-lines)
}

func TestSendMessage_ConcurrentWritesDoNotInterleave(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{})

	const writers = 20

	received := make(chan string, writers)

	go func() {
		scanner := bufio.NewScanner(proc.stdinR)
		for scanner.Scan() {
			received <- scanner.Text()
		}
	}()

	var wg sync.WaitGroup

	for i := range writers {
		wg.Go(func() {
			payload := `{"id":` + strconv.Itoa(i) + `,"pad":"` + strings.Repeat("p", 512) + `"}`
			if err := transport.SendMessage(context.Background(), []byte(payload)); err != nil {
				t.Error(err)
			}
		})
	}

	wg.Wait()

	for range writers {
		line := <-received
		require.True(t, strings.HasPrefix(line, `{"id":`) && strings.HasSuffix(line, `"}`), line)
	}
}

func TestSendMessage_States(t *testing.T) {
	t.Run("before start", func(t *testing.T) {
		transport := NewCLITransport(slog.Default(), &config.Options{})

		err := transport.SendMessage(context.Background(), []byte(`{}`))
		require.ErrorIs(t, err, errors.ErrTransportNotConnected)
		require.False(t, transport.IsReady())
	})

	t.Run("cancelled context", func(t *testing.T) {
		transport, _ := startPipeTransport(t, &config.Options{})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, transport.SendMessage(ctx, []byte(`{}`)), context.Canceled)
	})

	t.Run("after end input", func(t *testing.T) {
		transport, _ := startPipeTransport(t, &config.Options{})
		require.True(t, transport.IsReady())

		require.NoError(t, transport.EndInput())
		require.NoError(t, transport.EndInput())
		require.False(t, transport.IsReady())

		require.ErrorIs(t, transport.SendMessage(context.Background(), []byte(`{}`)), errors.ErrStdinClosed)
	})

	t.Run("close twice", func(t *testing.T) {
		transport, _ := startPipeTransport(t, &config.Options{})

		require.NoError(t, transport.Close())
		require.NoError(t, transport.Close())
	})
}

func TestSendMessage_CancelDuringBlockedWrite(t *testing.T) {
	// Nobody reads stdin, so the write blocks.
	transport, _ := startPipeTransport(t, &config.Options{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := transport.SendMessage(ctx, []byte(`{"blocked":true}`))
	require.ErrorIs(t, err, context.DeadlineExceeded)

	err = transport.SendMessage(context.Background(), []byte(`{}`))
	require.ErrorIs(t, err, errors.ErrStdinClosed)
}

func TestSendMessage_DoesNotMutateCallerSlice(t *testing.T) {
	transport, proc := startPipeTransport(t, &config.Options{})

	go func() { _, _ = io.Copy(io.Discard, proc.stdinR) }()

	original := make([]byte, 10, 20)
	copy(original, `{"test":1}`)

	require.NoError(t, transport.SendMessage(context.Background(), original))
	require.Equal(t, byte(0), original[:cap(original)][10])
}

func TestCleanStderr(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "plain", input: "Error: boom", want: "Error: boom"},
		{
			name:  "drops source excerpts",
			input: "Error: boom\n 41 | function x(){}\n42 | y()\n    at run (cli.js:9:3)",
			want:  "Error: boom\n    at run (cli.js:9:3)",
		},
		{name: "keeps pipes in prose", input: "a | b", want: "a | b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, cleanStderr(tt.input))
		})
	}
}

func TestStderrBuffer_SizeLimit(t *testing.T) {
	buf := &stderrBuffer{}
	line := strings.Repeat("e", 1024*1024)

	for range 12 {
		buf.appendLine(line)
	}

	require.LessOrEqual(t, len(buf.String()), maxStderrBufferSize+len(line)+1)
}
