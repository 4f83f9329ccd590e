package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/model"
	"github.com/klauern/botsync/internal/sandbox"
	"github.com/klauern/botsync/internal/storage"
)

const (
	// DefaultProbeTimeout bounds each read-only check.
	DefaultProbeTimeout = 5 * time.Second

	// DefaultMirrorTimeout bounds the restore script and the push script.
	DefaultMirrorTimeout = 30 * time.Second
)

// Step names a stage of a sync run.
type Step string

const (
	StepCredentials Step = "credentials"
	StepMount       Step = "mount"
	StepProbe       Step = "probe"
	StepRestore     Step = "restore"
	StepVerify      Step = "verify"
	StepPush        Step = "push"
	StepConfirm     Step = "confirm"
)

// AllSteps returns every step in execution order.
func AllSteps() []Step {
	return []Step{StepCredentials, StepMount, StepProbe, StepRestore, StepVerify, StepPush, StepConfirm}
}

// StepFunc is called when a step begins.
type StepFunc func(step Step)

// Options configures an Engine.
type Options struct {
	// Layout is the set of paths to sync. Empty fields use model defaults.
	Layout model.Layout

	// ProbeTimeout bounds each existence check and the marker read.
	ProbeTimeout time.Duration

	// MirrorTimeout bounds the restore and push scripts.
	MirrorTimeout time.Duration

	// Now supplies the marker timestamp. Defaults to time.Now.
	Now func() time.Time

	// OnStep observes step transitions.
	OnStep StepFunc
}

// DefaultOptions returns the default engine options.
func DefaultOptions() Options {
	return Options{
		Layout:        model.DefaultLayout(),
		ProbeTimeout:  DefaultProbeTimeout,
		MirrorTimeout: DefaultMirrorTimeout,
		Now:           time.Now,
	}
}

// Syncer runs one reconciliation pass.
type Syncer interface {
	Sync(ctx context.Context, creds model.Credentials) *Result
}

// Engine reconciles local bot state with the remote bucket.
// Calls to Sync must be serialized by the caller.
type Engine struct {
	runner  sandbox.Runner
	mounter storage.Mounter
	layout  model.Layout
	opts    Options
}

// New creates an Engine that runs commands on runner and mounts with mounter.
func New(runner sandbox.Runner, mounter storage.Mounter, opts Options) *Engine {
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = DefaultProbeTimeout
	}
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = DefaultMirrorTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Engine{
		runner:  runner,
		mounter: mounter,
		layout:  opts.Layout.WithDefaults(),
		opts:    opts,
	}
}

// Layout returns the paths the engine operates on.
func (e *Engine) Layout() model.Layout {
	return e.layout
}

// Sync runs the full reconciliation sequence and reports how it ended.
// Cancelling ctx does not interrupt a pass: each command stops only at its
// own timeout, so a push is never cut off halfway through a mirror.
func (e *Engine) Sync(ctx context.Context, creds model.Credentials) *Result {
	defer logging.Timer("sync")()

	result := e.run(context.WithoutCancel(ctx), creds)

	attrs := []any{
		logging.Classification(string(result.Classification)),
		slog.Bool("restored", result.Restored),
	}
	if result.Success {
		logging.Info("sync confirmed", append(attrs, slog.String("last_sync", result.LastSync))...)
	} else {
		logging.Warn("sync did not complete", append(attrs, slog.String("details", result.Details))...)
	}
	return result
}

func (e *Engine) run(ctx context.Context, creds model.Credentials) *Result {
	e.step(StepCredentials)
	if !creds.Complete() {
		logging.Debug("credentials incomplete", slog.Any("missing", creds.Missing()))
		return failed(ClassNotConfigured, "")
	}

	e.step(StepMount)
	if !e.mounter.Mount(ctx, creds) {
		return failed(ClassMountFailed, "")
	}

	e.step(StepProbe)
	state := e.probeState(ctx)

	restored := false
	if state.needsRestore() {
		e.step(StepRestore)
		if res := e.restore(ctx); res != nil {
			return res
		}
		restored = true
	}

	e.step(StepVerify)
	if res := e.verify(ctx); res != nil {
		res.Restored = restored
		return res
	}

	e.step(StepPush)
	out, res := e.push(ctx)
	if res != nil {
		res.Restored = restored
		return res
	}

	e.step(StepConfirm)
	res = e.confirm(ctx, out)
	res.Restored = restored
	return res
}

func (e *Engine) step(s Step) {
	logging.Debug("sync step", logging.Step(string(s)))
	if e.opts.OnStep != nil {
		e.opts.OnStep(s)
	}
}
