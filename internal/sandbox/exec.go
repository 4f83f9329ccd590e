package sandbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/shell"
)

// DefaultShell is the interpreter scripts are handed to.
const DefaultShell = "sh"

// waitDelay bounds how long Wait blocks on output pipes held open by
// orphaned children after the shell itself was killed.
const waitDelay = 2 * time.Second

// ShellRunner runs scripts with `<prefix...> <shell> -c <script>`.
type ShellRunner struct {
	// Prefix is prepended to the shell invocation, e.g. docker exec -i name.
	// Scripts that write secrets read them from stdin, so the prefix must
	// forward it.
	Prefix []string

	// Shell is the interpreter. Defaults to DefaultShell.
	Shell string

	// WorkingDir is the directory the command starts in.
	WorkingDir string

	// Env is appended to the current environment.
	Env map[string]string
}

// NewLocal returns a runner executing scripts on the current host.
func NewLocal() *ShellRunner {
	return &ShellRunner{Shell: DefaultShell}
}

// NewExec returns a runner executing scripts through a prefix command.
func NewExec(prefix ...string) *ShellRunner {
	return &ShellRunner{Prefix: prefix, Shell: DefaultShell}
}

// Start implements Runner.
func (r *ShellRunner) Start(ctx context.Context, script shell.Script) (Process, error) {
	argv := r.argv(script.String())

	// #nosec G204 - the script is built from shell.Command values with quoted operands
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.WaitDelay = waitDelay
	if r.WorkingDir != "" {
		cmd.Dir = r.WorkingDir
	}
	if len(r.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.Env {
			cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
		}
	}

	if in := script.Stdin(); in != "" {
		cmd.Stdin = strings.NewReader(in)
	}

	p := &shellProcess{cmd: cmd, done: make(chan struct{})}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr

	logging.Debug("starting sandbox command",
		logging.Operation("exec"),
		logging.Command(script.String()),
	)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	go func() {
		p.waitErr = cmd.Wait()
		close(p.done)
	}()

	return p, nil
}

func (r *ShellRunner) argv(script string) []string {
	sh := r.Shell
	if sh == "" {
		sh = DefaultShell
	}
	argv := make([]string, 0, len(r.Prefix)+3)
	argv = append(argv, r.Prefix...)
	return append(argv, sh, "-c", script)
}

type shellProcess struct {
	cmd    *exec.Cmd
	stdout bytes.Buffer
	stderr bytes.Buffer

	done    chan struct{}
	waitErr error
	once    sync.Once
	out     *Output
	err     error
}

// Wait implements Process.
func (p *shellProcess) Wait(ctx context.Context) (*Output, error) {
	select {
	case <-ctx.Done():
		// CommandContext kills the process; still collect what it wrote.
		<-p.done
		out, _ := p.result()
		return out, ctx.Err()
	case <-p.done:
		return p.result()
	}
}

func (p *shellProcess) result() (*Output, error) {
	p.once.Do(func() {
		p.out = &Output{
			Stdout: p.stdout.String(),
			Stderr: p.stderr.String(),
		}

		var exitErr *exec.ExitError
		switch {
		case p.waitErr == nil:
			p.out.ExitCode = 0
		case errors.As(p.waitErr, &exitErr):
			p.out.ExitCode = exitErr.ExitCode()
		default:
			p.out.ExitCode = -1
			p.err = p.waitErr
		}
	})
	return p.out, p.err
}
