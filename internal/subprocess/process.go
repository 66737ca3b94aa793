package subprocess

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"github.com/wagiedev/claude-code-sdk-go/internal/config"
	"github.com/wagiedev/claude-code-sdk-go/internal/errors"
)

// Compile-time verification that ExecProcess implements config.Process.
var _ config.Process = (*ExecProcess)(nil)

// ExecProcess runs the CLI as a child process with piped stdio.
type ExecProcess struct {
	log  *slog.Logger
	path string
	args []string
	env  []string
	dir  string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

// NewExecProcess prepares a process; nothing runs until Start.
func NewExecProcess(log *slog.Logger, path string, args, env []string, dir string) *ExecProcess {
	return &ExecProcess{
		log:  log.With("component", "exec_process"),
		path: path,
		args: args,
		env:  env,
		dir:  dir,
	}
}

// Start spawns the process. Pipe or spawn failures are *errors.CLIConnectionError.
func (p *ExecProcess) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	//nolint:gosec // G204: the CLI path and flags come from the caller's options
	cmd := exec.CommandContext(ctx, p.path, p.args...)
	cmd.Dir = p.dir
	cmd.Env = p.env

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stdin pipe: %w", err)}
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stdout pipe: %w", err)}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errors.CLIConnectionError{Err: fmt.Errorf("stderr pipe: %w", err)}
	}

	if err := cmd.Start(); err != nil {
		p.log.Error("Failed to start CLI process", "path", p.path, "error", err)

		return &errors.CLIConnectionError{Err: fmt.Errorf("start process: %w", err)}
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = stdout
	p.stderr = stderr

	p.log.Info("CLI process started", "pid", cmd.Process.Pid)

	return nil
}

// Stdin returns the write end of the child's stdin.
func (p *ExecProcess) Stdin() io.WriteCloser {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stdin
}

// Stdout returns the read end of the child's stdout.
func (p *ExecProcess) Stdout() io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stdout
}

// Stderr returns the read end of the child's stderr.
func (p *ExecProcess) Stderr() io.Reader {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stderr
}

// Terminate kills the process. It is a no-op before Start or after exit.
func (p *ExecProcess) Terminate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}

	p.log.Debug("Killing CLI process", "pid", p.cmd.Process.Pid)

	if err := p.cmd.Process.Kill(); err != nil && !stderrors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill CLI process (pid %d): %w", p.cmd.Process.Pid, err)
	}

	return nil
}

// Wait blocks until the process exits. Callers must finish reading stdout and
// stderr first.
func (p *ExecProcess) Wait() error {
	p.mu.Lock()
	cmd := p.cmd
	p.mu.Unlock()

	if cmd == nil {
		return errors.ErrTransportNotConnected
	}

	return cmd.Wait()
}
