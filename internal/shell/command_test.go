package shell

import (
	"slices"
	"strings"
	"testing"
)

func TestQuote(t *testing.T) {
	tests := map[string]struct {
		input string
		want  string
	}{
		"plain":        {input: "/root/clawd", want: "/root/clawd"},
		"marker":       {input: "2026-10-18T00:00:00.000Z", want: "2026-10-18T00:00:00.000Z"},
		"spaces":       {input: "my dir", want: "'my dir'"},
		"single quote": {input: "it's", want: `'it'"'"'s'`},
		"glob":         {input: "*.lock", want: "'*.lock'"},
		"substitution": {input: "$(reboot)", want: "'$(reboot)'"},
		"empty":        {input: "", want: "''"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := Quote(tt.input); got != tt.want {
				t.Errorf("Quote(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestCommandString(t *testing.T) {
	tests := map[string]struct {
		cmd  Command
		want string
	}{
		"file exists": {
			cmd:  FileExists("/data/moltbot/.last-sync"),
			want: "( test -f /data/moltbot/.last-sync || exit 3 )",
		},
		"is mounted": {
			cmd:  IsMounted("/data/moltbot"),
			want: "mountpoint -q /data/moltbot",
		},
		"mkdir": {
			cmd:  MkdirAll("/root/clawd/skills"),
			want: "mkdir -p /root/clawd/skills",
		},
		"copy": {
			cmd:  CopyFile("/data/moltbot/.last-sync", "/root/.clawdbot/.last-sync"),
			want: "cp -f /data/moltbot/.last-sync /root/.clawdbot/.last-sync",
		},
		"write": {
			cmd:  WriteFile("/data/moltbot/.last-sync", "2026-10-18T00:00:00.000Z", 0),
			want: `printf '%s\n' 2026-10-18T00:00:00.000Z > /data/moltbot/.last-sync`,
		},
		"write with mode": {
			cmd:  WriteFile("/root/clawd/notes.md", "two words", 0o600),
			want: `printf '%s\n' 'two words' > /root/clawd/notes.md && chmod 600 /root/clawd/notes.md`,
		},
		"write secret": {
			cmd:  WriteSecret("/etc/passwd-s3fs", "ak:sk"),
			want: "( umask 077 && rm -f /etc/passwd-s3fs && cat > /etc/passwd-s3fs )",
		},
		"read": {
			cmd:  ReadFile("/data/moltbot/.last-sync"),
			want: "cat /data/moltbot/.last-sync",
		},
		"mirror with delete and excludes": {
			cmd: Mirror(MirrorSpec{
				Source:      "/root/.clawdbot",
				Destination: "/data/moltbot/clawdbot/",
				Exclude:     []string{"*.lock", "*.log"},
				Delete:      true,
			}),
			want: "rsync -r --no-times --delete --exclude='*.lock' --exclude='*.log' /root/.clawdbot/ /data/moltbot/clawdbot/",
		},
		"mirror only if source exists": {
			cmd: Mirror(MirrorSpec{
				Source:         "/data/moltbot/skills",
				Destination:    "/root/clawd/skills",
				Delete:         true,
				IfSourceExists: true,
			}),
			want: "if [ -d /data/moltbot/skills ]; then rsync -r --no-times --delete /data/moltbot/skills/ /root/clawd/skills/; fi",
		},
		"mount": {
			cmd: MountS3(S3FSMount{
				Bucket:     "moltbot-data",
				MountPath:  "/data/moltbot",
				Endpoint:   "https://acct.r2.cloudflarestorage.com",
				PasswdFile: "/etc/passwd-s3fs",
			}),
			want: "s3fs moltbot-data /data/moltbot -o passwd_file=/etc/passwd-s3fs -o url=https://acct.r2.cloudflarestorage.com -o use_path_request_style -o nomixupload",
		},
		"unknown kind fails": {
			cmd:  Command{Kind: "bogus"},
			want: "false",
		},
		"mirror without spec fails": {
			cmd:  Command{Kind: KindMirror},
			want: "false",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.cmd.String(); got != tt.want {
				t.Errorf("String() =\n  %s\nwant\n  %s", got, tt.want)
			}
		})
	}
}

func TestMirrorCopiesSpec(t *testing.T) {
	excludes := []string{".git"}
	spec := MirrorSpec{Source: "/a", Destination: "/b", Exclude: excludes}
	cmd := Mirror(spec)
	spec.Source = "/changed"

	if cmd.Mirror.Source != "/a" {
		t.Errorf("Mirror() kept a reference to the caller's spec")
	}
}

func TestScript(t *testing.T) {
	script := Script{
		MkdirAll("/root/.clawdbot"),
		FileExists("/root/.clawdbot/clawdbot.json"),
	}

	want := "mkdir -p /root/.clawdbot && ( test -f /root/.clawdbot/clawdbot.json || exit 3 )"
	if got := script.String(); got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}

	if !slices.Equal(script.Kinds(), []Kind{KindMkdirAll, KindFileExists}) {
		t.Errorf("Kinds() = %v", script.Kinds())
	}
	if !script.Has(KindFileExists) {
		t.Error("Has(KindFileExists) = false, want true")
	}
	if script.Has(KindMirror) {
		t.Error("Has(KindMirror) = true, want false")
	}
	if got := (Script{}).String(); got != "" {
		t.Errorf("empty script renders %q", got)
	}
}

func TestScriptStdin(t *testing.T) {
	tests := map[string]struct {
		script Script
		want   string
	}{
		"no secret": {
			script: Script{MkdirAll("/etc"), WriteFile("/etc/motd", "hi", 0)},
			want:   "",
		},
		"secret": {
			script: Script{MkdirAll("/etc"), WriteSecret("/etc/passwd-s3fs", "AKID:SECRET")},
			want:   "AKID:SECRET\n",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := tt.script.Stdin(); got != tt.want {
				t.Errorf("Stdin() = %q, want %q", got, tt.want)
			}
			if strings.Contains(tt.script.String(), "SECRET") {
				t.Errorf("rendered script contains the secret: %s", tt.script)
			}
		})
	}
}
