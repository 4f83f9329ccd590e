// Package e2e provides testing infrastructure for end-to-end CLI tests.
// Commands run in-process against the real local shell runner, with every
// bot directory redirected into a temp tree.
package e2e

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/klauern/botsync/internal/cli"
	"github.com/klauern/botsync/internal/config"
)

// Result contains the outcome of running a CLI command.
type Result struct {
	// Stdout contains the captured standard output.
	Stdout string
	// Err is the error returned by the CLI command, if any.
	Err error
	// ExitCode is the inferred exit code (0 for success, 1 for error).
	ExitCode int
}

// Success returns true if the command completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// Harness provides a test harness for running E2E CLI tests.
// It manages environment isolation, temp directories, and output capture.
type Harness struct {
	t       *testing.T
	homeDir string
	root    string
	cfg     *config.Config
}

// NewHarness creates a new E2E test harness.
// It sets up an isolated BOTSYNC_HOME with a config file whose mount,
// config and workspace paths live under a temp root, and clears the R2
// credentials from the environment.
func NewHarness(t *testing.T) *Harness {
	t.Helper()

	homeDir := t.TempDir()
	root := t.TempDir()

	h := &Harness{
		t:       t,
		homeDir: homeDir,
		root:    root,
	}

	t.Setenv("BOTSYNC_HOME", homeDir)
	t.Setenv("BOTSYNC_CONFIG", "")
	for _, key := range []string{"R2_ACCESS_KEY_ID", "R2_SECRET_ACCESS_KEY", "CF_ACCOUNT_ID", "R2_BUCKET_NAME"} {
		t.Setenv(key, "")
	}

	cfg := config.Default()
	cfg.Paths.MountPath = filepath.Join(root, "mnt")
	cfg.Paths.ConfigDir = filepath.Join(root, "config")
	cfg.Paths.WorkspaceDir = filepath.Join(root, "workspace")
	cfg.Storage.PasswdFile = filepath.Join(root, "passwd-s3fs")
	cfg.Storage.MountTimeout = 5 * time.Second
	cfg.Storage.Endpoint = "127.0.0.1:1"
	cfg.Storage.Insecure = true
	cfg.Output.Color = "never"
	h.cfg = cfg
	h.writeConfig()

	return h
}

func (h *Harness) writeConfig() {
	h.t.Helper()
	if err := h.cfg.SaveToPath(filepath.Join(h.homeDir, "config.yaml")); err != nil {
		h.t.Fatalf("failed to write config: %v", err)
	}
}

// SetEnv sets an environment variable for CLI commands run through this harness.
// The environment will be restored after the test completes.
func (h *Harness) SetEnv(key, value string) {
	h.t.Helper()
	h.t.Setenv(key, value)
}

// SetCredentials exports a complete set of R2 credentials.
func (h *Harness) SetCredentials() {
	h.t.Helper()
	h.SetEnv("R2_ACCESS_KEY_ID", "e2e-key")
	h.SetEnv("R2_SECRET_ACCESS_KEY", "e2e-secret")
	h.SetEnv("CF_ACCOUNT_ID", "e2e-account")
}

// HomeDir returns the isolated home directory for this test harness.
func (h *Harness) HomeDir() string {
	return h.homeDir
}

// Config returns the configuration written for this harness.
func (h *Harness) Config() *config.Config {
	return h.cfg
}

// Run executes a CLI command with the given arguments and captures the output.
func (h *Harness) Run(args ...string) *Result {
	h.t.Helper()

	if len(args) == 0 || args[0] != "botsync" {
		args = append([]string{"botsync"}, args...)
	}

	oldStdout := os.Stdout
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		h.t.Fatalf("failed to create stdout pipe: %v", err)
	}
	os.Stdout = stdoutW

	// Read stdout concurrently to avoid pipe buffer deadlock.
	var stdoutBuf bytes.Buffer
	var copyErr error
	copyDone := make(chan struct{})
	go func() {
		defer close(copyDone)
		_, copyErr = io.Copy(&stdoutBuf, stdoutR)
	}()

	cmdErr := cli.Run(context.Background(), args)

	if err := stdoutW.Close(); err != nil {
		h.t.Fatalf("failed to close stdout pipe writer: %v", err)
	}
	os.Stdout = oldStdout

	<-copyDone
	if copyErr != nil {
		h.t.Fatalf("failed to read captured stdout: %v", copyErr)
	}

	exitCode := 0
	if cmdErr != nil {
		exitCode = 1
	}

	return &Result{
		Stdout:   stdoutBuf.String(),
		Err:      cmdErr,
		ExitCode: exitCode,
	}
}
