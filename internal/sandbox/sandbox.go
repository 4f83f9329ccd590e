package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klauern/botsync/internal/shell"
)

// ErrTimeout is returned by Await when a process outlives its timeout.
var ErrTimeout = errors.New("command timed out")

// Output is what a finished process produced.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Succeeded returns true if the process exited with status 0.
func (o *Output) Succeeded() bool {
	return o != nil && o.ExitCode == 0
}

// Diagnostic returns the most useful text for an error message: stderr,
// then stdout, then an empty string.
func (o *Output) Diagnostic() string {
	if o == nil {
		return ""
	}
	if s := strings.TrimSpace(o.Stderr); s != "" {
		return s
	}
	return strings.TrimSpace(o.Stdout)
}

// Process is a started script.
type Process interface {
	// Wait blocks until the script exits or ctx is done.
	Wait(ctx context.Context) (*Output, error)
}

// Runner starts scripts in a sandbox.
type Runner interface {
	// Start begins executing script. The process is bound to ctx and is
	// killed when ctx is done.
	Start(ctx context.Context, script shell.Script) (Process, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, script shell.Script) (Process, error)

// Start calls f.
func (f RunnerFunc) Start(ctx context.Context, script shell.Script) (Process, error) {
	return f(ctx, script)
}

// Await starts script on r and waits at most timeout for it to finish.
// The returned Output may be non-nil alongside an error when the process
// produced partial output before failing.
func Await(ctx context.Context, r Runner, script shell.Script, timeout time.Duration) (*Output, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	proc, err := r.Start(ctx, script)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return nil, fmt.Errorf("failed to start command: %w", err)
	}

	out, err := proc.Wait(ctx)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return out, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
	if err != nil {
		return out, fmt.Errorf("command failed: %w", err)
	}
	return out, nil
}
