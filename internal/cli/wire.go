package cli

import (
	"github.com/klauern/botsync/internal/config"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/storage"
	botsync "github.com/klauern/botsync/internal/sync"
)

// Construction hooks, replaced in tests.
var (
	newRunner  = defaultRunner
	newMounter = defaultMounter
)

func defaultRunner(cfg *config.Config) sandbox.Runner {
	if cfg.Sandbox.Mode == config.SandboxExec {
		return sandbox.NewExec(cfg.Sandbox.Exec...)
	}
	return sandbox.NewLocal()
}

func bucketOptions(cfg *config.Config) storage.BucketOptions {
	return storage.BucketOptions{
		Endpoint: cfg.Storage.Endpoint,
		Insecure: cfg.Storage.Insecure,
	}
}

func defaultMounter(cfg *config.Config, runner sandbox.Runner) storage.Mounter {
	opts := []storage.MountOption{
		storage.WithPasswdFile(cfg.Storage.PasswdFile),
		storage.WithMountTimeout(cfg.Timeouts().Mount),
	}
	if cfg.Storage.Endpoint != "" {
		scheme := "https://"
		if cfg.Storage.Insecure {
			scheme = "http://"
		}
		opts = append(opts, storage.WithEndpoint(scheme+cfg.Storage.Endpoint))
	}
	if cfg.Storage.VerifyBucket {
		opts = append(opts, storage.WithPreflight(storage.BucketPreflight(bucketOptions(cfg))))
	}
	return storage.NewS3FSMounter(runner, cfg.Layout().MountPath, opts...)
}

// newEngine wires an engine from configuration.
func newEngine(cfg *config.Config, onStep botsync.StepFunc) *botsync.Engine {
	runner := newRunner(cfg)
	timeouts := cfg.Timeouts()
	return botsync.New(runner, newMounter(cfg, runner), botsync.Options{
		Layout:        cfg.Layout(),
		ProbeTimeout:  timeouts.Probe,
		MirrorTimeout: timeouts.Mirror,
		OnStep:        onStep,
	})
}
