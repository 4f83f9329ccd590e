package shell

import (
	"fmt"
	"os"
	"strings"
)

// Kind identifies the operation a Command performs.
type Kind string

const (
	// KindFileExists tests for a regular file. Exit status 0 means present,
	// ExitMissing means absent, anything else means the check itself failed.
	KindFileExists Kind = "file-exists"

	// KindIsMounted tests whether a path is a mount point.
	KindIsMounted Kind = "is-mounted"

	// KindMkdirAll creates a directory and its parents.
	KindMkdirAll Kind = "mkdir"

	// KindMirror makes a destination directory a copy of a source directory.
	KindMirror Kind = "mirror"

	// KindCopyFile copies a single file, overwriting the destination.
	KindCopyFile Kind = "copy"

	// KindWriteFile replaces a file with the given content plus a newline.
	KindWriteFile Kind = "write"

	// KindWriteSecret replaces a file, readable only by its owner, with the
	// script's stdin. The content never appears in the rendered script.
	KindWriteSecret Kind = "write-secret"

	// KindReadFile prints a file to stdout.
	KindReadFile Kind = "read"

	// KindMountS3 mounts an S3-compatible bucket with s3fs.
	KindMountS3 Kind = "mount-s3"
)

// ExitMissing is the status a FileExists check exits with when the file is
// absent. Status 1 is left to exec prefixes like docker exec.
const ExitMissing = 3

// MirrorSpec describes a one-directional directory mirror.
type MirrorSpec struct {
	// Source is the directory whose contents are copied.
	Source string

	// Destination is the directory that becomes a copy of Source.
	Destination string

	// Exclude lists rsync-style patterns. A pattern without a slash
	// matches a file or directory name at any depth.
	Exclude []string

	// Delete removes destination entries that are absent from Source.
	// Excluded entries are never deleted.
	Delete bool

	// IfSourceExists turns a missing Source into a no-op instead of an error.
	IfSourceExists bool
}

// S3FSMount describes an s3fs mount of an S3-compatible bucket.
type S3FSMount struct {
	Bucket     string
	MountPath  string
	Endpoint   string
	PasswdFile string
}

// Command is a single operation executed in the sandbox.
type Command struct {
	Kind Kind

	// Path is the primary operand: the file tested, read or written, the
	// directory created, or the source of a copy.
	Path string

	// Target is the destination of a copy.
	Target string

	// Content is written by KindWriteFile and KindWriteSecret.
	Content string

	// Mode, when non-zero, is applied to a written file.
	Mode os.FileMode

	Mirror *MirrorSpec
	Mount  *S3FSMount
}

// FileExists returns a command testing for a regular file at path.
func FileExists(path string) Command {
	return Command{Kind: KindFileExists, Path: path}
}

// IsMounted returns a command testing whether path is a mount point.
func IsMounted(path string) Command {
	return Command{Kind: KindIsMounted, Path: path}
}

// MkdirAll returns a command creating path and any missing parents.
func MkdirAll(path string) Command {
	return Command{Kind: KindMkdirAll, Path: path}
}

// Mirror returns a command mirroring spec.Source onto spec.Destination.
func Mirror(spec MirrorSpec) Command {
	return Command{Kind: KindMirror, Mirror: &spec}
}

// CopyFile returns a command copying src to dst.
func CopyFile(src, dst string) Command {
	return Command{Kind: KindCopyFile, Path: src, Target: dst}
}

// WriteFile returns a command replacing path with content.
func WriteFile(path, content string, mode os.FileMode) Command {
	return Command{Kind: KindWriteFile, Path: path, Content: content, Mode: mode}
}

// WriteSecret returns a command replacing path with secret plus a newline.
// The secret travels on stdin; see Script.Stdin.
func WriteSecret(path, secret string) Command {
	return Command{Kind: KindWriteSecret, Path: path, Content: secret}
}

// ReadFile returns a command printing path to stdout.
func ReadFile(path string) Command {
	return Command{Kind: KindReadFile, Path: path}
}

// MountS3 returns a command mounting a bucket with s3fs.
func MountS3(m S3FSMount) Command {
	return Command{Kind: KindMountS3, Mount: &m}
}

// String renders the command as a POSIX sh fragment.
func (c Command) String() string {
	switch c.Kind {
	case KindFileExists:
		return fmt.Sprintf("( test -f %s || exit %d )", Quote(c.Path), ExitMissing)
	case KindIsMounted:
		return "mountpoint -q " + Quote(c.Path)
	case KindMkdirAll:
		return "mkdir -p " + Quote(c.Path)
	case KindMirror:
		if c.Mirror == nil {
			return "false"
		}
		return renderMirror(*c.Mirror)
	case KindCopyFile:
		return "cp -f " + Quote(c.Path) + " " + Quote(c.Target)
	case KindWriteFile:
		s := "printf '%s\\n' " + Quote(c.Content) + " > " + Quote(c.Path)
		if c.Mode != 0 {
			s += fmt.Sprintf(" && chmod %o %s", c.Mode.Perm(), Quote(c.Path))
		}
		return s
	case KindWriteSecret:
		p := Quote(c.Path)
		return "( umask 077 && rm -f " + p + " && cat > " + p + " )"
	case KindReadFile:
		return "cat " + Quote(c.Path)
	case KindMountS3:
		if c.Mount == nil {
			return "false"
		}
		return renderMount(*c.Mount)
	default:
		return "false"
	}
}

// renderMirror uses rsync with --no-times because the FUSE mount cannot set
// modification times.
func renderMirror(m MirrorSpec) string {
	args := []string{"rsync", "-r", "--no-times"}
	if m.Delete {
		args = append(args, "--delete")
	}
	for _, pattern := range m.Exclude {
		args = append(args, "--exclude="+Quote(pattern))
	}
	args = append(args, Quote(dirArg(m.Source)), Quote(dirArg(m.Destination)))
	cmd := strings.Join(args, " ")

	if m.IfSourceExists {
		return "if [ -d " + Quote(m.Source) + " ]; then " + cmd + "; fi"
	}
	return cmd
}

func renderMount(m S3FSMount) string {
	args := []string{
		"s3fs", Quote(m.Bucket), Quote(m.MountPath),
		"-o", Quote("passwd_file=" + m.PasswdFile),
		"-o", Quote("url=" + m.Endpoint),
		"-o", "use_path_request_style",
		"-o", "nomixupload",
	}
	return strings.Join(args, " ")
}

// dirArg appends the trailing slash rsync needs to copy directory contents.
func dirArg(p string) string {
	return strings.TrimRight(p, "/") + "/"
}
