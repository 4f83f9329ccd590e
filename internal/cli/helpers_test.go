package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"testing"

	"github.com/klauern/botsync/internal/config"
	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/sandbox/sandboxtest"
	"github.com/klauern/botsync/internal/storage"
)

// runCLI runs the app and returns what it printed to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	runErr := Run(context.Background(), append([]string{"botsync", "--no-color"}, args...))

	_ = w.Close()
	os.Stdout = old
	return <-done, runErr
}

// useFakeSandbox routes every command to an in-memory sandbox whose mount
// always succeeds.
func useFakeSandbox(t *testing.T) *sandboxtest.FS {
	t.Helper()

	sb := sandboxtest.New()
	oldRunner, oldMounter := newRunner, newMounter
	newRunner = func(*config.Config) sandbox.Runner { return sb }
	newMounter = func(*config.Config, sandbox.Runner) storage.Mounter {
		return storage.MounterFunc(func(context.Context, model.Credentials) bool {
			sb.SetMounted(true)
			return true
		})
	}
	t.Cleanup(func() { newRunner, newMounter = oldRunner, oldMounter })
	return sb
}

// setCredentials sets or clears the R2 environment and isolates BOTSYNC_HOME.
func setCredentials(t *testing.T, present bool) {
	t.Helper()
	t.Setenv("BOTSYNC_HOME", t.TempDir())
	values := map[string]string{
		"R2_ACCESS_KEY_ID":     "AKID",
		"R2_SECRET_ACCESS_KEY": "supersecretvalue",
		"CF_ACCOUNT_ID":        "acct",
	}
	for k, v := range values {
		if !present {
			v = ""
		}
		t.Setenv(k, v)
	}
	t.Setenv("R2_BUCKET_NAME", "")
}

func seed(t *testing.T, sb *sandboxtest.FS, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := sb.WriteFile(p, content); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
}

// completeLocal is a local state that syncs without a restore.
var completeLocal = map[string]string{
	"/root/.clawdbot/clawdbot.json": "{}",
	"/root/.clawdbot/.last-sync":    "2026-01-01T00:00:00.000Z",
	"/root/clawd/USER.md":           "user",
	"/root/clawd/SOUL.md":           "soul",
	"/root/clawd/MEMORY.md":         "memory",
}
