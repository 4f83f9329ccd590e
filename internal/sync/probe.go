package sync

import (
	"context"
	"log/slog"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

// localState is what the probe step learned about both sides.
type localState struct {
	remoteMarker  bool
	localMarker   bool
	identityFiles map[string]bool
}

// needsRestore reports whether a known-good remote backup exists while the
// local side lacks something a previous sync would have produced.
func (s localState) needsRestore() bool {
	if !s.remoteMarker {
		return false
	}
	if !s.localMarker {
		return true
	}
	for _, present := range s.identityFiles {
		if !present {
			return true
		}
	}
	return false
}

func (e *Engine) probeState(ctx context.Context) localState {
	state := localState{
		remoteMarker:  e.fileExists(ctx, e.layout.RemoteMarker()),
		localMarker:   e.fileExists(ctx, e.layout.LocalMarker()),
		identityFiles: make(map[string]bool, len(e.layout.IdentityPaths())),
	}
	for _, p := range e.layout.IdentityPaths() {
		state.identityFiles[p] = e.fileExists(ctx, p)
	}

	logging.Debug("probed sync state",
		slog.Bool("remote_marker", state.remoteMarker),
		slog.Bool("local_marker", state.localMarker),
		slog.Any("identity_files", state.identityFiles),
	)
	return state
}

// fileExists is a bounded, fail-soft existence check. Errors and timeouts
// count as absent.
func (e *Engine) fileExists(ctx context.Context, p string) bool {
	out, err := sandbox.Await(ctx, e.runner, shell.Script{shell.FileExists(p)}, e.opts.ProbeTimeout)
	if err != nil {
		logging.Debug("probe failed, treating as absent",
			logging.Path(p),
			logging.Err(err),
		)
		return false
	}
	return out.Succeeded()
}
