package sync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

// verify returns nil when the integrity file is present. Only the check's
// own ExitMissing status means the file is absent; any other failure,
// including an exec prefix that exits 1, is verify_failed.
func (e *Engine) verify(ctx context.Context) *Result {
	p := e.layout.ConfigFile()
	out, err := sandbox.Await(ctx, e.runner, shell.Script{shell.FileExists(p)}, e.opts.ProbeTimeout)
	switch {
	case err != nil:
		logging.Error("integrity check failed", logging.Path(p), logging.Err(err))
		return failed(ClassVerifyFailed, err.Error())
	case out.ExitCode == shell.ExitMissing:
		logging.Warn("refusing to push without config file", logging.Path(p))
		return failed(ClassMissingConfig, fmt.Sprintf("%s not found", p))
	case out.ExitCode != 0:
		detail := out.Diagnostic()
		if detail == "" {
			detail = fmt.Sprintf("check exited with status %d", out.ExitCode)
		}
		logging.Error("integrity check exited unexpectedly", logging.Path(p), slog.Int("exit_code", out.ExitCode))
		return failed(ClassVerifyFailed, detail)
	}
	return nil
}

// pushScript mirrors config, workspace and skills up to the bucket, then
// writes a fresh marker.
func pushScript(l model.Layout, marker string) shell.Script {
	var script shell.Script
	for _, t := range l.Targets() {
		script = append(script, shell.Mirror(shell.MirrorSpec{
			Source:         t.LocalPath,
			Destination:    t.RemotePath,
			Exclude:        t.PushExclude,
			Delete:         true,
			IfSourceExists: true,
		}))
	}
	return append(script, shell.WriteFile(l.RemoteMarker(), marker, 0))
}

// push runs the push script. The exit status is ignored; confirm decides.
func (e *Engine) push(ctx context.Context) (*sandbox.Output, *Result) {
	defer logging.Timer("push")()

	marker := model.FormatMarker(e.opts.Now())
	out, err := sandbox.Await(ctx, e.runner, pushScript(e.layout, marker), e.opts.MirrorTimeout)
	if err != nil {
		logging.Error("push failed", logging.Err(err))
		return nil, failed(ClassSyncError, err.Error())
	}
	if !out.Succeeded() {
		logging.Debug("push exited non-zero, confirming through marker",
			slog.Int("exit_code", out.ExitCode),
		)
	}
	return out, nil
}

// confirm reads back the remote marker.
func (e *Engine) confirm(ctx context.Context, push *sandbox.Output) *Result {
	p := e.layout.RemoteMarker()
	out, err := sandbox.Await(ctx, e.runner, shell.Script{shell.ReadFile(p)}, e.opts.ProbeTimeout)
	if err == nil && out.Succeeded() {
		if ts, ok := model.ParseMarker(out.Stdout); ok {
			return succeeded(ts, false)
		}
	}

	detail := push.Diagnostic()
	if detail == "" {
		detail = MsgUnconfirmed
	}
	logging.Warn("could not confirm sync marker", logging.Path(p))
	return failed(ClassSyncFailed, detail)
}
