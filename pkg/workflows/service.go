package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/flowlog/pkg/config"
)

// Service bundles the catalog store with its optional Git sync and file
// watching.
type Service struct {
	*Store

	cfg       *config.WorkflowsConfig
	dir       string
	repo      *Repository
	scheduler *SyncScheduler
	logger    *slog.Logger
}

// Open prepares the workflow catalog described by cfg. With Git enabled the
// repository is synced once before the first load.
func Open(ctx context.Context, cfg *config.WorkflowsConfig, logger *slog.Logger, opts ...StoreOption) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "workflows")

	svc := &Service{cfg: cfg, dir: cfg.Dir, logger: logger}

	if cfg.Git.Enabled {
		repo, err := NewRepository(&cfg.Git, logger)
		if err != nil {
			return nil, err
		}
		if _, err := repo.Sync(ctx); err != nil {
			return nil, fmt.Errorf("initial workflow sync: %w", err)
		}
		svc.repo = repo
		svc.dir = repo.WorkflowDir()
	}

	opts = append([]StoreOption{WithStoreLogger(logger)}, opts...)
	store, err := NewStore(func() (*Catalog, error) {
		return LoadCatalog(cfg, svc.dir)
	}, opts...)
	if err != nil {
		return nil, err
	}
	svc.Store = store

	if svc.repo != nil {
		svc.scheduler = NewSyncScheduler(cfg.Git.SyncSchedule, svc.repo, store, logger)
	}

	return svc, nil
}

// Dir returns the directory workflows are loaded from.
func (s *Service) Dir() string {
	return s.dir
}

// Repository returns the Git checkout, or nil when Git mode is off.
func (s *Service) Repository() *Repository {
	return s.repo
}

// Run starts the background sync and watch loops and blocks until ctx is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler != nil {
		if err := s.scheduler.Start(ctx); err != nil {
			return err
		}
		defer s.scheduler.Stop()
	}

	if s.cfg.Watch {
		return NewWatcher(s.Store, s.cfg, s.dir, s.logger).Run(ctx)
	}

	<-ctx.Done()
	return nil
}
