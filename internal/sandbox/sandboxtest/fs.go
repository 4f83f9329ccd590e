// Package sandboxtest provides an in-memory sandbox for tests.
//
// FS implements sandbox.Runner by interpreting shell.Command values directly
// against a go-billy memory filesystem, so engine tests can assert on the
// resulting file tree instead of on command strings. Mirrors follow rsync
// semantics: exclusion patterns without a slash match a name at any depth,
// excluded entries are neither copied nor deleted, and Delete removes
// destination entries missing from the source.
package sandboxtest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

// Fault overrides how matching commands behave.
type Fault struct {
	// Kind selects the command kind the fault applies to.
	Kind shell.Kind

	// Match, when set, must be a substring of the rendered command.
	Match string

	// StartErr makes Runner.Start fail for any script containing a match.
	StartErr error

	// Hang blocks the command until the context is done.
	Hang bool

	// ExitCode, Stdout and Stderr replace the command's result when
	// ExitCode is non-zero or Skip is set.
	ExitCode int
	Stdout   string
	Stderr   string

	// Skip reports success without touching the filesystem.
	Skip bool
}

func (f Fault) matches(c shell.Command) bool {
	if f.Kind != c.Kind {
		return false
	}
	return f.Match == "" || strings.Contains(c.String(), f.Match)
}

// FS is an in-memory sandbox. The zero value is not usable; call New.
type FS struct {
	mu      sync.Mutex
	fs      billy.Filesystem
	mounted bool
	faults  []Fault
	scripts []shell.Script
}

// New returns an empty, unmounted sandbox.
func New() *FS {
	return &FS{fs: memfs.New()}
}

// Filesystem exposes the backing filesystem for direct inspection.
func (f *FS) Filesystem() billy.Filesystem {
	return f.fs
}

// SetMounted simulates the remote store being mounted or not.
func (f *FS) SetMounted(mounted bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounted = mounted
}

// Mounted reports whether the remote store is mounted.
func (f *FS) Mounted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mounted
}

// Inject adds a fault. Later faults take precedence.
func (f *FS) Inject(fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = append(f.faults, fault)
}

// ClearFaults removes all injected faults.
func (f *FS) ClearFaults() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = nil
}

// Scripts returns every script started so far.
func (f *FS) Scripts() []shell.Script {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]shell.Script(nil), f.scripts...)
}

// Commands returns every command started so far, flattened.
func (f *FS) Commands() []shell.Command {
	var cmds []shell.Command
	for _, s := range f.Scripts() {
		cmds = append(cmds, s...)
	}
	return cmds
}

// CountKind returns how many started commands had the given kind.
func (f *FS) CountKind(kind shell.Kind) int {
	n := 0
	for _, c := range f.Commands() {
		if c.Kind == kind {
			n++
		}
	}
	return n
}

// WriteFile creates p with content, creating parent directories.
func (f *FS) WriteFile(p, content string) error {
	if err := f.fs.MkdirAll(path.Dir(p), 0o755); err != nil {
		return err
	}
	return util.WriteFile(f.fs, p, []byte(content), 0o644)
}

// ReadFile returns the content of p.
func (f *FS) ReadFile(p string) (string, error) {
	file, err := f.fs.Open(p)
	if err != nil {
		return "", err
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	return string(data), err
}

// Exists reports whether p exists as a file or directory.
func (f *FS) Exists(p string) bool {
	_, err := f.fs.Stat(p)
	return err == nil
}

// Files returns the sorted paths of all regular files under root.
func (f *FS) Files(root string) []string {
	var files []string
	_ = f.walk(root, func(p string, info os.FileInfo) error {
		if !info.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	sort.Strings(files)
	return files
}

// Start implements sandbox.Runner.
func (f *FS) Start(_ context.Context, script shell.Script) (sandbox.Process, error) {
	f.mu.Lock()
	f.scripts = append(f.scripts, script)
	faults := append([]Fault(nil), f.faults...)
	f.mu.Unlock()

	for _, c := range script {
		if fault, ok := findFault(faults, c); ok && fault.StartErr != nil {
			return nil, fault.StartErr
		}
	}
	return &process{fs: f, script: script, faults: faults}, nil
}

func findFault(faults []Fault, c shell.Command) (Fault, bool) {
	for i := len(faults) - 1; i >= 0; i-- {
		if faults[i].matches(c) {
			return faults[i], true
		}
	}
	return Fault{}, false
}

type process struct {
	fs     *FS
	script shell.Script
	faults []Fault
}

// Wait runs the script's commands in order, stopping at the first non-zero exit.
func (p *process) Wait(ctx context.Context) (*sandbox.Output, error) {
	out := &sandbox.Output{}
	var stdout, stderr strings.Builder

	for _, c := range p.script {
		if fault, ok := findFault(p.faults, c); ok {
			if fault.Hang {
				<-ctx.Done()
				out.Stdout, out.Stderr, out.ExitCode = stdout.String(), stderr.String(), -1
				return out, ctx.Err()
			}
			if fault.Skip || fault.ExitCode != 0 {
				stdout.WriteString(fault.Stdout)
				stderr.WriteString(fault.Stderr)
				if fault.ExitCode != 0 {
					out.Stdout, out.Stderr, out.ExitCode = stdout.String(), stderr.String(), fault.ExitCode
					return out, nil
				}
				continue
			}
		}

		code, o, e := p.fs.exec(c)
		stdout.WriteString(o)
		stderr.WriteString(e)
		if code != 0 {
			out.Stdout, out.Stderr, out.ExitCode = stdout.String(), stderr.String(), code
			return out, nil
		}
	}

	out.Stdout, out.Stderr = stdout.String(), stderr.String()
	return out, nil
}

// exec applies a single command and returns exit code, stdout and stderr.
func (f *FS) exec(c shell.Command) (int, string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch c.Kind {
	case shell.KindFileExists:
		info, err := f.fs.Stat(c.Path)
		if err != nil || info.IsDir() {
			return shell.ExitMissing, "", ""
		}
		return 0, "", ""

	case shell.KindIsMounted:
		if f.mounted {
			return 0, "", ""
		}
		return 1, "", ""

	case shell.KindMkdirAll:
		if err := f.fs.MkdirAll(c.Path, 0o755); err != nil {
			return 1, "", fmt.Sprintf("mkdir: %v\n", err)
		}
		return 0, "", ""

	case shell.KindCopyFile:
		data, err := f.ReadFile(c.Path)
		if err != nil {
			return 1, "", fmt.Sprintf("cp: cannot stat '%s': No such file or directory\n", c.Path)
		}
		if _, err := f.fs.Stat(path.Dir(c.Target)); err != nil {
			return 1, "", fmt.Sprintf("cp: cannot create regular file '%s': No such file or directory\n", c.Target)
		}
		if err := util.WriteFile(f.fs, c.Target, []byte(data), 0o644); err != nil {
			return 1, "", fmt.Sprintf("cp: %v\n", err)
		}
		return 0, "", ""

	case shell.KindWriteFile:
		if _, err := f.fs.Stat(path.Dir(c.Path)); err != nil {
			return 1, "", fmt.Sprintf("sh: can't create %s: nonexistent directory\n", c.Path)
		}
		mode := os.FileMode(0o644)
		if c.Mode != 0 {
			mode = c.Mode
		}
		if err := util.WriteFile(f.fs, c.Path, []byte(c.Content+"\n"), mode); err != nil {
			return 1, "", fmt.Sprintf("sh: %v\n", err)
		}
		return 0, "", ""

	case shell.KindWriteSecret:
		if _, err := f.fs.Stat(path.Dir(c.Path)); err != nil {
			return 1, "", fmt.Sprintf("sh: can't create %s: nonexistent directory\n", c.Path)
		}
		_ = f.fs.Remove(c.Path)
		if err := util.WriteFile(f.fs, c.Path, []byte(c.Content+"\n"), 0o600); err != nil {
			return 1, "", fmt.Sprintf("sh: %v\n", err)
		}
		return 0, "", ""

	case shell.KindReadFile:
		data, err := f.ReadFile(c.Path)
		if err != nil {
			return 1, "", fmt.Sprintf("cat: %s: No such file or directory\n", c.Path)
		}
		return 0, data, ""

	case shell.KindMountS3:
		f.mounted = true
		return 0, "", ""

	case shell.KindMirror:
		if c.Mirror == nil {
			return 1, "", "mirror: missing spec\n"
		}
		return f.mirror(*c.Mirror)

	default:
		return 127, "", fmt.Sprintf("sh: %s: not found\n", c.Kind)
	}
}

func (f *FS) mirror(m shell.MirrorSpec) (int, string, string) {
	src := path.Clean(m.Source)
	dst := path.Clean(m.Destination)

	info, err := f.fs.Stat(src)
	if err != nil || !info.IsDir() {
		if m.IfSourceExists {
			return 0, "", ""
		}
		return 23, "", fmt.Sprintf("rsync: change_dir \"%s\" failed: No such file or directory (2)\n", src)
	}

	if err := f.fs.MkdirAll(dst, 0o755); err != nil {
		return 1, "", fmt.Sprintf("rsync: mkdir \"%s\" failed: %v\n", dst, err)
	}

	seen := map[string]bool{}
	err = f.walk(src, func(p string, info os.FileInfo) error {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, src), "/")
		if rel == "" {
			return nil
		}
		if excluded(m.Exclude, rel) {
			if info.IsDir() {
				return errSkipDir
			}
			return nil
		}
		seen[rel] = true
		target := path.Join(dst, rel)
		if info.IsDir() {
			return f.fs.MkdirAll(target, 0o755)
		}
		data, err := f.ReadFile(p)
		if err != nil {
			return err
		}
		if existing, err := f.fs.Stat(target); err == nil && existing.IsDir() {
			if err := util.RemoveAll(f.fs, target); err != nil {
				return err
			}
		}
		return util.WriteFile(f.fs, target, []byte(data), 0o644)
	})
	if err != nil {
		return 23, "", fmt.Sprintf("rsync error: %v\n", err)
	}

	if !m.Delete {
		return 0, "", ""
	}

	var extraneous []string
	_ = f.walk(dst, func(p string, info os.FileInfo) error {
		rel := strings.TrimPrefix(strings.TrimPrefix(p, dst), "/")
		if rel == "" {
			return nil
		}
		if excluded(m.Exclude, rel) {
			if info.IsDir() {
				return errSkipDir
			}
			return nil
		}
		if !seen[rel] {
			extraneous = append(extraneous, p)
			if info.IsDir() {
				return errSkipDir
			}
		}
		return nil
	})
	for _, p := range extraneous {
		if err := util.RemoveAll(f.fs, p); err != nil {
			return 23, "", fmt.Sprintf("rsync: delete \"%s\" failed: %v\n", p, err)
		}
	}
	return 0, "", ""
}

// excluded applies rsync exclude rules to a path relative to the transfer root.
// Patterns containing a slash match the whole relative path; others match
// any single path element.
func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		pattern = strings.TrimSuffix(pattern, "/")
		if strings.Contains(pattern, "/") {
			if ok, _ := doublestar.Match(strings.TrimPrefix(pattern, "/"), rel); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(pattern, path.Base(rel)); ok {
			return true
		}
	}
	return false
}

var errSkipDir = errors.New("skip directory")

// walk visits root and everything below it in lexical order.
func (f *FS) walk(root string, fn func(p string, info os.FileInfo) error) error {
	info, err := f.fs.Stat(root)
	if err != nil {
		return nil
	}
	return f.walkInfo(root, info, fn)
}

func (f *FS) walkInfo(p string, info os.FileInfo, fn func(p string, info os.FileInfo) error) error {
	if err := fn(p, info); err != nil {
		if errors.Is(err, errSkipDir) {
			return nil
		}
		return err
	}
	if !info.IsDir() {
		return nil
	}
	entries, err := f.fs.ReadDir(p)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, entry := range entries {
		if err := f.walkInfo(path.Join(p, entry.Name()), entry, fn); err != nil {
			return err
		}
	}
	return nil
}
