package sandboxtest

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

func mustWrite(t *testing.T, fs *FS, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := fs.WriteFile(p, content); err != nil {
			t.Fatalf("failed to write %s: %v", p, err)
		}
	}
}

func run(t *testing.T, fs *FS, script ...shell.Command) *sandbox.Output {
	t.Helper()
	out, err := sandbox.Await(context.Background(), fs, script, time.Second)
	if err != nil {
		t.Fatalf("Await() error = %v", err)
	}
	return out
}

func TestMirrorWithDeleteAndExcludes(t *testing.T) {
	fs := New()
	mustWrite(t, fs, map[string]string{
		"/src/USER.md":             "user",
		"/src/notes/today.md":      "notes",
		"/src/.git/HEAD":           "ref",
		"/src/node_modules/x/a.js": "js",
		"/src/skills/s/SKILL.md":   "skill from workspace tree",
		"/dst/stale.md":            "old",
		"/dst/stale-dir/file":      "old",
		"/dst/skills/keep.md":      "owned by skills mirror",
		"/dst/.git/HEAD":           "local ref",
	})

	out := run(t, fs, shell.Mirror(shell.MirrorSpec{
		Source:      "/src",
		Destination: "/dst",
		Exclude:     []string{".git", "skills", "node_modules"},
		Delete:      true,
	}))
	if !out.Succeeded() {
		t.Fatalf("mirror failed: %s", out.Diagnostic())
	}

	got := fs.Files("/dst")
	want := []string{
		"/dst/.git/HEAD",
		"/dst/USER.md",
		"/dst/notes/today.md",
		"/dst/skills/keep.md",
	}
	if !slices.Equal(got, want) {
		t.Errorf("Files(/dst) =\n  %v\nwant\n  %v", got, want)
	}

	if content, _ := fs.ReadFile("/dst/.git/HEAD"); content != "local ref" {
		t.Errorf("excluded file was overwritten: %q", content)
	}
}

func TestMirrorWithoutDeleteKeepsExtraneous(t *testing.T) {
	fs := New()
	mustWrite(t, fs, map[string]string{
		"/src/a": "a",
		"/dst/b": "b",
	})

	run(t, fs, shell.Mirror(shell.MirrorSpec{Source: "/src", Destination: "/dst"}))

	if got := fs.Files("/dst"); !slices.Equal(got, []string{"/dst/a", "/dst/b"}) {
		t.Errorf("Files(/dst) = %v", got)
	}
}

func TestMirrorMissingSource(t *testing.T) {
	fs := New()

	out := run(t, fs, shell.Mirror(shell.MirrorSpec{Source: "/nope", Destination: "/dst", IfSourceExists: true}))
	if !out.Succeeded() {
		t.Errorf("IfSourceExists mirror of a missing source should succeed, got exit %d", out.ExitCode)
	}
	if fs.Exists("/dst") {
		t.Error("destination should not be created when the source is missing")
	}

	out = run(t, fs, shell.Mirror(shell.MirrorSpec{Source: "/nope", Destination: "/dst"}))
	if out.Succeeded() {
		t.Error("mirror of a missing source should fail without IfSourceExists")
	}
}

func TestExcludedPatterns(t *testing.T) {
	tests := map[string]struct {
		patterns []string
		rel      string
		want     bool
	}{
		"glob on name":           {patterns: []string{"*.lock"}, rel: "agent.lock", want: true},
		"glob at depth":          {patterns: []string{"*.log"}, rel: "logs/today.log", want: true},
		"dir name at depth":      {patterns: []string{"node_modules"}, rel: "pkg/node_modules", want: true},
		"no match":               {patterns: []string{"*.lock"}, rel: "clawdbot.json", want: false},
		"anchored path":          {patterns: []string{"/cache/**"}, rel: "cache/a/b", want: true},
		"anchored path no match": {patterns: []string{"/cache/**"}, rel: "other/cache/a", want: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := excluded(tt.patterns, tt.rel); got != tt.want {
				t.Errorf("excluded(%v, %q) = %v, want %v", tt.patterns, tt.rel, got, tt.want)
			}
		})
	}
}

func TestScriptStopsAtFirstFailure(t *testing.T) {
	fs := New()

	out := run(t, fs,
		shell.FileExists("/missing"),
		shell.MkdirAll("/created"),
	)
	if out.ExitCode != shell.ExitMissing {
		t.Errorf("ExitCode = %d, want %d", out.ExitCode, shell.ExitMissing)
	}
	if fs.Exists("/created") {
		t.Error("command after a failure ran")
	}
}

func TestReadWriteAndCopy(t *testing.T) {
	fs := New()
	mustWrite(t, fs, map[string]string{"/data/.last-sync": "2026-10-18T00:00:00.000Z\n"})

	out := run(t, fs,
		shell.MkdirAll("/cfg"),
		shell.CopyFile("/data/.last-sync", "/cfg/.last-sync"),
		shell.ReadFile("/cfg/.last-sync"),
	)
	if out.Stdout != "2026-10-18T00:00:00.000Z\n" {
		t.Errorf("Stdout = %q", out.Stdout)
	}

	out = run(t, fs, shell.WriteFile("/no/such/dir/file", "x", 0))
	if out.Succeeded() {
		t.Error("writing into a missing directory should fail")
	}
}

func TestMountFlag(t *testing.T) {
	fs := New()

	if out := run(t, fs, shell.IsMounted("/data")); out.Succeeded() {
		t.Error("new sandbox should not be mounted")
	}
	run(t, fs, shell.MountS3(shell.S3FSMount{Bucket: "b", MountPath: "/data"}))
	if !fs.Mounted() {
		t.Error("MountS3 should mount")
	}
	if out := run(t, fs, shell.IsMounted("/data")); !out.Succeeded() {
		t.Error("IsMounted should succeed once mounted")
	}
}

func TestFaults(t *testing.T) {
	t.Run("exit code", func(t *testing.T) {
		fs := New()
		fs.Inject(Fault{Kind: shell.KindMkdirAll, ExitCode: 2, Stderr: "read-only file system"})

		out := run(t, fs, shell.MkdirAll("/x"))
		if out.ExitCode != 2 || out.Stderr != "read-only file system" {
			t.Errorf("got %+v", out)
		}
		if fs.Exists("/x") {
			t.Error("faulted command should not apply")
		}
	})

	t.Run("match narrows the fault", func(t *testing.T) {
		fs := New()
		fs.Inject(Fault{Kind: shell.KindMkdirAll, Match: "/bad", ExitCode: 1})

		if out := run(t, fs, shell.MkdirAll("/good")); !out.Succeeded() {
			t.Error("non-matching command should not fault")
		}
	})

	t.Run("skip", func(t *testing.T) {
		fs := New()
		fs.Inject(Fault{Kind: shell.KindWriteFile, Skip: true})
		mustWrite(t, fs, map[string]string{"/d/keep": ""})

		if out := run(t, fs, shell.WriteFile("/d/f", "x", 0)); !out.Succeeded() {
			t.Error("skipped command should report success")
		}
		if fs.Exists("/d/f") {
			t.Error("skipped command should not write")
		}
	})

	t.Run("start error", func(t *testing.T) {
		fs := New()
		fs.Inject(Fault{Kind: shell.KindReadFile, StartErr: errors.New("sandbox gone")})

		_, err := sandbox.Await(context.Background(), fs, shell.Script{shell.ReadFile("/x")}, time.Second)
		if err == nil {
			t.Fatal("expected start error")
		}
	})

	t.Run("hang", func(t *testing.T) {
		fs := New()
		fs.Inject(Fault{Kind: shell.KindFileExists, Hang: true})

		_, err := sandbox.Await(context.Background(), fs, shell.Script{shell.FileExists("/x")}, 10*time.Millisecond)
		if !errors.Is(err, sandbox.ErrTimeout) {
			t.Fatalf("expected ErrTimeout, got %v", err)
		}
	})
}

func TestCommandLog(t *testing.T) {
	fs := New()
	run(t, fs, shell.FileExists("/a"))
	run(t, fs, shell.MkdirAll("/b"), shell.FileExists("/b"))

	if got := len(fs.Scripts()); got != 2 {
		t.Errorf("len(Scripts()) = %d, want 2", got)
	}
	if got := fs.CountKind(shell.KindFileExists); got != 2 {
		t.Errorf("CountKind(file-exists) = %d, want 2", got)
	}
}
