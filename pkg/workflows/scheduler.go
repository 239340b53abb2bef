package workflows

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Syncer updates a local copy of the workflow sources.
type Syncer interface {
	Sync(ctx context.Context) (*SyncResult, error)
}

// Reloader rebuilds the served catalog.
type Reloader interface {
	Reload() error
}

// SyncScheduler periodically syncs the workflow repository and reloads the
// catalog when HEAD moves.
type SyncScheduler struct {
	syncer   Syncer
	reloader Reloader
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewSyncScheduler creates a scheduler for the given cron expression.
// Overlapping runs are skipped.
func NewSyncScheduler(schedule string, syncer Syncer, reloader Reloader, logger *slog.Logger) *SyncScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncScheduler{
		syncer:   syncer,
		reloader: reloader,
		schedule: schedule,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		logger:   logger.With("component", "workflows.sync"),
	}
}

// Start registers the job and starts the cron runner. An empty schedule is
// a no-op. The scheduler stops when ctx is cancelled.
func (s *SyncScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" {
		s.logger.Info("sync schedule not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return fmt.Errorf("sync scheduler already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		if err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled workflow sync failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("sync scheduler started", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce syncs and reloads if the checkout changed.
func (s *SyncScheduler) RunOnce(ctx context.Context) error {
	result, err := s.syncer.Sync(ctx)
	if err != nil {
		return err
	}
	if !result.Changed() {
		s.logger.Debug("workflow repository unchanged", "head", result.ToSHA)
		return nil
	}
	return s.reloader.Reload()
}

// Stop halts the cron runner and waits for a running job to finish.
func (s *SyncScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("sync scheduler stopped")
}

// IsRunning reports whether the cron runner is active.
func (s *SyncScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sync, or nil when nothing is scheduled.
func (s *SyncScheduler) NextRun() *time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
