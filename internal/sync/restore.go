package sync

import (
	"context"
	"fmt"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

// restoreScript mirrors every remote directory that exists down to its
// local path, then copies the remote marker.
func restoreScript(l model.Layout) shell.Script {
	script := shell.Script{
		shell.MkdirAll(l.ConfigDir),
		shell.MkdirAll(l.SkillsDir()),
		shell.MkdirAll(l.WorkspaceDir),
	}
	for _, name := range []model.TargetName{model.TargetConfig, model.TargetSkills, model.TargetWorkspace} {
		t := l.Target(name)
		script = append(script, shell.Mirror(shell.MirrorSpec{
			Source:         t.RemotePath,
			Destination:    t.LocalPath,
			Exclude:        t.RestoreExclude,
			Delete:         true,
			IfSourceExists: true,
		}))
	}
	return append(script, shell.CopyFile(l.RemoteMarker(), l.LocalMarker()))
}

// restore returns nil on success, or the failure result.
func (e *Engine) restore(ctx context.Context) *Result {
	defer logging.Timer("restore")()
	logging.Info("local state incomplete, restoring from backup",
		logging.Path(e.layout.MountPath),
	)

	out, err := sandbox.Await(ctx, e.runner, restoreScript(e.layout), e.opts.MirrorTimeout)
	if err != nil {
		logging.Error("restore failed", logging.Err(err))
		return failed(ClassRestoreFailed, joinDetails(out.Diagnostic(), err.Error()))
	}
	if !out.Succeeded() {
		detail := out.Diagnostic()
		if detail == "" {
			detail = fmt.Sprintf("restore exited with status %d", out.ExitCode)
		}
		logging.Error("restore exited with error",
			logging.Err(fmt.Errorf("exit status %d", out.ExitCode)),
		)
		return failed(ClassRestoreFailed, detail)
	}
	return nil
}

func joinDetails(output, errText string) string {
	if output == "" {
		return errText
	}
	return errText + "\n" + output
}
