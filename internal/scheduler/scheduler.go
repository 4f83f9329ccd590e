// Package scheduler runs the sync engine on a fixed interval for long-lived
// processes, one pass at a time.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/klauern/botsync/internal/logging"
	"github.com/klauern/botsync/internal/model"
	botsync "github.com/klauern/botsync/internal/sync"
)

// DefaultInterval is the time between scheduled passes.
const DefaultInterval = 5 * time.Minute

// ErrInvalidInterval is returned by New for a non-positive interval.
var ErrInvalidInterval = errors.New("schedule interval must be positive")

// ResultFunc receives the result of every pass.
type ResultFunc func(*botsync.Result)

// Options configures a Scheduler.
type Options struct {
	// Interval between passes. Defaults to DefaultInterval.
	Interval time.Duration

	// SkipInitial disables the pass that normally runs as soon as Run starts.
	SkipInitial bool

	// OnResult is called after each pass.
	OnResult ResultFunc
}

// Scheduler serializes sync passes. Passes started by Run and by RunOnce
// never overlap.
type Scheduler struct {
	syncer botsync.Syncer
	creds  model.Credentials
	opts   Options

	mu   sync.Mutex
	runs int
}

// New creates a Scheduler that syncs with creds.
func New(syncer botsync.Syncer, creds model.Credentials, opts Options) (*Scheduler, error) {
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Interval < 0 {
		return nil, ErrInvalidInterval
	}
	return &Scheduler{syncer: syncer, creds: creds, opts: opts}, nil
}

// Interval returns the time between passes.
func (s *Scheduler) Interval() time.Duration {
	return s.opts.Interval
}

// Runs returns how many passes have completed.
func (s *Scheduler) Runs() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs
}

// RunOnce performs a single pass, waiting for any pass already in flight.
// The pass runs detached from ctx cancellation and is bounded only by the
// syncer's own timeouts.
func (s *Scheduler) RunOnce(ctx context.Context) *botsync.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs++
	logger := logging.WithContext(ctx).With(slog.Int("run", s.runs))
	logger.Debug("starting scheduled sync")

	result := s.syncer.Sync(context.WithoutCancel(ctx), s.creds)

	if result.Success {
		logger.Info("scheduled sync complete", slog.String("last_sync", result.LastSync))
	} else {
		logger.Warn("scheduled sync failed",
			logging.Classification(string(result.Classification)),
			slog.String("error", result.Error),
		)
	}

	if s.opts.OnResult != nil {
		s.opts.OnResult(result)
	}
	return result
}

// Run syncs until ctx is done. Cancellation is checked between passes; a pass
// in progress runs to completion. Run returns nil on cancellation.
func (s *Scheduler) Run(ctx context.Context) error {
	logging.Info("scheduler started", logging.Duration(s.opts.Interval))

	if !s.opts.SkipInitial {
		s.RunOnce(ctx)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info("scheduler stopped", logging.Count(s.Runs()))
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			s.RunOnce(ctx)
		}
	}
}
