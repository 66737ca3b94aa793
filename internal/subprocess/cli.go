package subprocess

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/wagiedev/claude-code-sdk-go/internal/cli"
	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
	"github.com/wagiedev/claude-code-sdk-go/internal/jsonstream"
)

const (
	// maxStderrBufferSize caps the stderr kept for ProcessError. The callback
	// still receives every line after the cap is reached.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB

	// maxStderrLineSize is the longest stderr line the scanner accepts.
	maxStderrLineSize = 1024 * 1024 // 1MB

	// writeAbandonTimeout bounds the wait for a write goroutine after stdin
	// was closed to unblock it.
	writeAbandonTimeout = time.Second
)

// CLITransport implements config.Transport over a config.Process.
//
// Stdout is decoded by jsonstream into frames; stderr is kept for diagnostics
// and never decoded.
type CLITransport struct {
	log            *slog.Logger
	options        *config.Options
	process        config.Process
	stdin          io.WriteCloser
	stderrCallback func(string)
	maxBufferSize  int

	mu          sync.Mutex // Protects stdin writes and the flags below
	closing     bool       // Close was called; exit errors are expected
	stdinClosed bool       // stdin was closed by EndInput, Close or a cancelled write
}

// Compile-time verification that CLITransport implements the Transport interface.
var _ config.Transport = (*CLITransport)(nil)

// NewCLITransport creates a transport for options.
//
// When options.Process is set it is used as-is. Otherwise Start discovers the
// claude binary (options.CliPath, PATH, then common install directories) and
// spawns it with the arguments from cli.BuildArgs.
func NewCLITransport(log *slog.Logger, options *config.Options) *CLITransport {
	maxBufferSize := jsonstream.DefaultMaxBufferSize
	if options.MaxBufferSize != nil && *options.MaxBufferSize > 0 {
		maxBufferSize = *options.MaxBufferSize
	}

	return &CLITransport{
		log:            log.With("component", "cli_transport"),
		options:        options,
		process:        options.Process,
		stderrCallback: options.Stderr,
		maxBufferSize:  maxBufferSize,
	}
}

// Start starts the process.
//
// Returns *errors.CLINotFoundError when the binary cannot be located and
// *errors.CLIConnectionError when the process cannot be started.
func (t *CLITransport) Start(ctx context.Context) error {
	if t.process == nil {
		process, err := t.spawnProcess(ctx)
		if err != nil {
			return err
		}

		t.process = process
	}

	if err := t.process.Start(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.stdin = t.process.Stdin()
	t.mu.Unlock()

	t.log.Info("CLI transport started", "max_buffer_size", t.maxBufferSize)

	return nil
}

// spawnProcess prepares an ExecProcess for the discovered CLI.
func (t *CLITransport) spawnProcess(ctx context.Context) (*ExecProcess, error) {
	cwd := t.options.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, &errors.CLIConnectionError{
				Err: fmt.Errorf("%w: %w", errors.ErrInvalidWorkingDirectory, err),
			}
		}

		cwd = wd
	}

	cliPath, err := cli.NewDiscoverer(&cli.Config{
		CliPath:          t.options.CliPath,
		SkipVersionCheck: t.options.SkipVersionCheck,
		Logger:           t.log,
	}).Discover(ctx)
	if err != nil {
		return nil, fmt.Errorf("discover CLI: %w", err)
	}

	args := cli.BuildArgs(t.options)
	t.log.Debug("Built command arguments", "cli_path", cliPath, "args", args, "cwd", cwd)

	return NewExecProcess(t.log, cliPath, args, cli.BuildEnvironment(t.options), cwd), nil
}

// ReadMessages decodes frames from stdout until it ends.
//
// A decode error, a cancelled ctx, or a non-zero exit (outside Close) is sent
// on the error channel before both channels are closed. Frames are handed over
// unbuffered, so every frame decoded before an error has been received by the
// time the error is.
func (t *CLITransport) ReadMessages(ctx context.Context) (<-chan any, <-chan error) {
	frames := make(chan any)
	errs := make(chan error, 1)

	stderrDone := make(chan struct{})
	stderr := &stderrBuffer{}

	go func() {
		defer close(stderrDone)

		t.readStderr(ctx, stderr)
	}()

	go func() {
		defer close(frames)
		defer close(errs)
		defer t.log.Debug("ReadMessages goroutine stopped")

		count := 0

		for frame, err := range jsonstream.Frames(t.process.Stdout(), t.maxBufferSize) {
			if err != nil {
				if t.isClosing() {
					return
				}

				t.log.Error("Failed to decode CLI output", "error", err, "frames", count)
				errs <- err

				return
			}

			count++

			select {
			case frames <- frame:
			case <-ctx.Done():
				errs <- ctx.Err()

				return
			}
		}

		select {
		case <-stderrDone:
		case <-ctx.Done():
		}

		t.log.Debug("CLI stdout closed, waiting for process", "frames", count)

		if err := t.process.Wait(); err != nil {
			if t.isClosing() {
				t.log.Debug("CLI process terminated during shutdown")

				return
			}

			exitCode := -1
			if exitErr, ok := stderrors.AsType[*exec.ExitError](err); ok {
				exitCode = exitErr.ExitCode()
			}

			output := cleanStderr(stderr.String())
			t.log.Error("CLI process exited with error", "exit_code", exitCode, "stderr", output)

			errs <- &errors.ProcessError{
				ExitCode: exitCode,
				Stderr:   output,
				Err:      err,
			}

			return
		}

		t.log.Info("CLI process exited successfully")
	}()

	return frames, errs
}

// readStderr forwards stderr lines to the callback and keeps a capped copy.
func (t *CLITransport) readStderr(ctx context.Context, buf *stderrBuffer) {
	r := t.process.Stderr()
	if r == nil {
		return
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxStderrLineSize)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()
		buf.appendLine(line)

		if t.stderrCallback != nil {
			t.stderrCallback(line)
		}
	}

	if err := scanner.Err(); err != nil {
		t.log.Debug("Stderr scanner error", "error", err)
	}
}

// SendMessage writes one newline-terminated frame to stdin.
//
// Writes are serialized. If ctx is cancelled while a write is blocked, stdin
// is closed to release it and later calls return ErrStdinClosed.
func (t *CLITransport) SendMessage(ctx context.Context, data []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdinClosed {
		return errors.ErrStdinClosed
	}

	if t.stdin == nil {
		return errors.ErrTransportNotConnected
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// Copy rather than append so the caller's backing array is never written.
	if len(data) == 0 || data[len(data)-1] != '\n' {
		line := make([]byte, len(data)+1)
		copy(line, data)
		line[len(data)] = '\n'
		data = line
	}

	t.log.Debug("Sending message to CLI", "data_len", len(data))

	done := make(chan error, 1)

	go func() {
		_, err := t.stdin.Write(data)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.log.Error("Failed to write message to CLI", "error", err)

			return fmt.Errorf("write to stdin: %w", err)
		}

		return nil

	case <-ctx.Done():
		t.log.Debug("Context cancelled during write, closing stdin")

		_ = t.stdin.Close()
		t.stdinClosed = true

		select {
		case <-done:
		case <-time.After(writeAbandonTimeout):
			t.log.Warn("Write goroutine did not exit after stdin close")
		}

		return ctx.Err()
	}
}

// IsReady reports whether the process is running and stdin is open.
func (t *CLITransport) IsReady() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.stdin != nil && !t.stdinClosed && !t.closing
}

// EndInput closes stdin. The CLI finishes pending work and exits.
func (t *CLITransport) EndInput() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stdin == nil || t.stdinClosed {
		return nil
	}

	t.log.Debug("Closing stdin pipe")

	t.stdinClosed = true

	return t.stdin.Close()
}

// Close terminates the process. It is safe to call more than once.
func (t *CLITransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closing = true

	if t.stdin != nil && !t.stdinClosed {
		_ = t.stdin.Close()
	}

	t.stdinClosed = true

	if t.process == nil {
		return nil
	}

	return t.process.Terminate()
}

func (t *CLITransport) isClosing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closing
}

// stderrBuffer accumulates stderr lines up to maxStderrBufferSize.
type stderrBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *stderrBuffer) appendLine(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() >= maxStderrBufferSize {
		return
	}

	if b.buf.Len() > 0 {
		b.buf.WriteByte('\n')
	}

	b.buf.WriteString(line)
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

// cleanStderr drops the minified source excerpts the CLI runtime prints with
// uncaught errors, keeping messages and stack frames.
func cleanStderr(stderr string) string {
	kept := make([]string, 0, 16)

	for line := range strings.SplitSeq(stderr, "\n") {
		if !isSourceContextLine(strings.TrimSpace(line)) {
			kept = append(kept, line)
		}
	}

	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// isSourceContextLine matches excerpt lines of the form "1234 | <code>".
func isSourceContextLine(line string) bool {
	prefix, _, found := strings.Cut(line, "|")
	if !found {
		return false
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return false
	}

	return strings.Trim(prefix, "0123456789") == ""
}
