package subprocess

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// gracePeriod is how long a cancelled process gets between the interrupt
// and the kill.
const gracePeriod = 100 * time.Millisecond

// ErrNotFound is returned when the program is not on PATH.
var ErrNotFound = errors.New("program not found")

// Runner executes programs. The zero value runs without a timeout.
type Runner struct {
	// Timeout bounds each run when the caller's context has no deadline.
	Timeout time.Duration
}

// New returns a Runner with the given default timeout.
func New(timeout time.Duration) *Runner {
	return &Runner{Timeout: timeout}
}

// Output runs name with args, feeding it input on stdin, and returns its
// stdout. input may be empty.
func (r *Runner) Output(ctx context.Context, input, name string, args ...string) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := r.command(ctx, name, args...)
	// Set up stdin before the process starts.
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := r.run(ctx, cmd, &stderr); err != nil {
		return nil, err
	}
	return stdout.Bytes(), nil
}

// Run runs name with args and waits for it to exit, discarding stdout. It
// suits programs that play audio themselves.
func (r *Runner) Run(ctx context.Context, input, name string, args ...string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var stderr bytes.Buffer
	cmd := r.command(ctx, name, args...)
	if input != "" {
		cmd.Stdin = strings.NewReader(input)
	}
	cmd.Stderr = &stderr

	return r.run(ctx, cmd, &stderr)
}

// LookPath resolves name on PATH.
func LookPath(name string) (string, error) {
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return p, nil
}

func (r *Runner) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok || r.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.Timeout)
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	// Try graceful shutdown first, then kill.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(os.Interrupt)
	}
	cmd.WaitDelay = gracePeriod
	return cmd
}

func (r *Runner) run(ctx context.Context, cmd *exec.Cmd, stderr *bytes.Buffer) error {
	start := time.Now()
	err := cmd.Run()
	log.Debug("subprocess finished", "cmd", cmd.Path, "args", cmd.Args[1:], "elapsed", time.Since(start), "error", err)

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("%s timed out: %w", cmd.Path, ctxErr)
		}
		return ctxErr
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, cmd.Path)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s failed: %w: %s", cmd.Path, err, msg)
		}
		return fmt.Errorf("%s failed: %w", cmd.Path, err)
	}
	return nil
}
