package sync

import (
	"context"
	"path"

	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/shell"
)

// Status is a read-only snapshot of both sides, taken without mounting.
type Status struct {
	Mounted       bool   `json:"mounted"`
	RemoteMarker  string `json:"remoteMarker,omitempty"`
	LocalMarker   string `json:"localMarker,omitempty"`
	ConfigPresent bool   `json:"configPresent"`
	// MissingIdentity lists identity files absent from the workspace.
	MissingIdentity []string `json:"missingIdentity,omitempty"`
	// NeedsRestore is what the next sync would decide.
	NeedsRestore bool `json:"needsRestore"`
}

// Status inspects the sandbox with the same fail-soft probes Sync uses.
// It never mounts, writes or mirrors.
func (e *Engine) Status(ctx context.Context) Status {
	st := Status{
		Mounted:       e.check(ctx, shell.IsMounted(e.layout.MountPath)),
		ConfigPresent: e.fileExists(ctx, e.layout.ConfigFile()),
	}
	if st.Mounted {
		st.RemoteMarker = e.readMarker(ctx, e.layout.RemoteMarker())
	}
	st.LocalMarker = e.readMarker(ctx, e.layout.LocalMarker())

	state := localState{
		remoteMarker:  st.RemoteMarker != "",
		localMarker:   st.LocalMarker != "",
		identityFiles: map[string]bool{},
	}
	for _, p := range e.layout.IdentityPaths() {
		present := e.fileExists(ctx, p)
		state.identityFiles[p] = present
		if !present {
			st.MissingIdentity = append(st.MissingIdentity, path.Base(p))
		}
	}
	st.NeedsRestore = state.needsRestore()
	return st
}

func (e *Engine) check(ctx context.Context, c shell.Command) bool {
	out, err := sandbox.Await(ctx, e.runner, shell.Script{c}, e.opts.ProbeTimeout)
	return err == nil && out.Succeeded()
}

// readMarker returns the marker timestamp, or "" when it is absent or malformed.
func (e *Engine) readMarker(ctx context.Context, p string) string {
	out, err := sandbox.Await(ctx, e.runner, shell.Script{shell.ReadFile(p)}, e.opts.ProbeTimeout)
	if err != nil || !out.Succeeded() {
		return ""
	}
	ts, ok := model.ParseMarker(out.Stdout)
	if !ok {
		return ""
	}
	return ts
}
