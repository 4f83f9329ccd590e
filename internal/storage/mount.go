package storage

import (
	"context"
	"log/slog"
	"path"
	"time"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

const (
	// DefaultPasswdFile is where the s3fs credentials file is written.
	DefaultPasswdFile = "/etc/passwd-s3fs"

	// DefaultMountTimeout bounds the whole mount attempt.
	DefaultMountTimeout = 30 * time.Second

	// mountCheckTimeout bounds the already-mounted check.
	mountCheckTimeout = 5 * time.Second
)

// Mounter makes the remote bucket available at a fixed path in the sandbox.
// Mount is idempotent and reports success as a boolean.
type Mounter interface {
	Mount(ctx context.Context, creds model.Credentials) bool
}

// MounterFunc adapts a function to the Mounter interface.
type MounterFunc func(ctx context.Context, creds model.Credentials) bool

// Mount calls f.
func (f MounterFunc) Mount(ctx context.Context, creds model.Credentials) bool {
	return f(ctx, creds)
}

// Preflight verifies credentials before a mount is attempted.
type Preflight func(ctx context.Context, creds model.Credentials) error

// S3FSMounter mounts the bucket with s3fs inside the sandbox.
type S3FSMounter struct {
	runner     sandbox.Runner
	mountPath  string
	passwdFile string
	endpoint   func(model.Credentials) string
	timeout    time.Duration
	preflight  Preflight
}

// MountOption configures an S3FSMounter.
type MountOption func(*S3FSMounter)

// WithPasswdFile overrides where the s3fs credentials are written.
func WithPasswdFile(p string) MountOption {
	return func(m *S3FSMounter) { m.passwdFile = p }
}

// WithMountTimeout overrides DefaultMountTimeout.
func WithMountTimeout(d time.Duration) MountOption {
	return func(m *S3FSMounter) { m.timeout = d }
}

// WithEndpoint overrides the R2 endpoint derived from the account id.
func WithEndpoint(url string) MountOption {
	return func(m *S3FSMounter) {
		m.endpoint = func(model.Credentials) string { return url }
	}
}

// WithPreflight runs check before every mount attempt that finds the bucket
// unmounted. A failed check fails the mount.
func WithPreflight(check Preflight) MountOption {
	return func(m *S3FSMounter) { m.preflight = check }
}

// NewS3FSMounter returns a mounter for mountPath using runner.
func NewS3FSMounter(runner sandbox.Runner, mountPath string, opts ...MountOption) *S3FSMounter {
	m := &S3FSMounter{
		runner:     runner,
		mountPath:  mountPath,
		passwdFile: DefaultPasswdFile,
		endpoint: func(c model.Credentials) string {
			return "https://" + c.Endpoint()
		},
		timeout: DefaultMountTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mount implements Mounter. Errors are logged and reported as false.
func (m *S3FSMounter) Mount(ctx context.Context, creds model.Credentials) bool {
	defer logging.Timer("mount")()

	if m.isMounted(ctx) {
		logging.Debug("bucket already mounted", logging.Path(m.mountPath))
		return true
	}

	if m.preflight != nil {
		if err := m.preflight(ctx, creds); err != nil {
			logging.Warn("bucket preflight failed",
				logging.Operation("mount"),
				logging.Err(err),
			)
			return false
		}
	}

	script := shell.Script{
		shell.MkdirAll(path.Dir(m.passwdFile)),
		shell.WriteSecret(m.passwdFile, creds.AccessKeyID+":"+creds.SecretAccessKey),
		shell.MkdirAll(m.mountPath),
		shell.MountS3(shell.S3FSMount{
			Bucket:     creds.BucketName(),
			MountPath:  m.mountPath,
			Endpoint:   m.endpoint(creds),
			PasswdFile: m.passwdFile,
		}),
	}

	out, err := sandbox.Await(ctx, m.runner, script, m.timeout)
	if err != nil {
		logging.Warn("mount command failed",
			logging.Path(m.mountPath),
			logging.Err(err),
		)
		return false
	}
	if !out.Succeeded() {
		logging.Warn("mount command exited with error",
			logging.Path(m.mountPath),
			slog.Int("exit_code", out.ExitCode),
			slog.String("output", out.Diagnostic()),
		)
		// s3fs can exit non-zero when racing another mount of the same path.
		return m.isMounted(ctx)
	}

	logging.Info("mounted bucket",
		logging.Path(m.mountPath),
		logging.Target(creds.BucketName()),
	)
	return true
}

func (m *S3FSMounter) isMounted(ctx context.Context) bool {
	out, err := sandbox.Await(ctx, m.runner, shell.Script{shell.IsMounted(m.mountPath)}, mountCheckTimeout)
	return err == nil && out.Succeeded()
}
