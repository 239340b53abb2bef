package workflows

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// LoadFunc produces a fresh catalog snapshot.
type LoadFunc func() (*Catalog, error)

// ReloadObserver is notified after every reload attempt.
type ReloadObserver interface {
	ObserveReload(size int, duration time.Duration, err error)
}

// Store holds the current catalog snapshot and swaps it atomically on
// reload. Readers never block on a reload in progress.
type Store struct {
	load     LoadFunc
	current  atomic.Pointer[Catalog]
	reloadMu sync.Mutex
	logger   *slog.Logger
	observer ReloadObserver
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for reload events.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithReloadObserver registers an observer for reload attempts.
func WithReloadObserver(o ReloadObserver) StoreOption {
	return func(s *Store) {
		s.observer = o
	}
}

// NewStore performs the initial load and returns a store serving it.
func NewStore(load LoadFunc, opts ...StoreOption) (*Store, error) {
	s := &Store{
		load:   load,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload loads a new snapshot. On error the previous snapshot stays in
// place.
func (s *Store) Reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	start := time.Now()
	catalog, err := s.load()
	duration := time.Since(start)

	if s.observer != nil {
		size := 0
		if catalog != nil {
			size = catalog.Len()
		}
		s.observer.ObserveReload(size, duration, err)
	}

	if err != nil {
		s.logger.Error("workflow catalog reload failed",
			"error", err,
			"kept_previous", s.current.Load() != nil,
		)
		return err
	}

	s.current.Store(catalog)
	s.logger.Info("workflow catalog loaded",
		"workflows", catalog.Len(),
		"duration", duration,
	)
	return nil
}

// Catalog returns the current snapshot.
func (s *Store) Catalog() *Catalog {
	return s.current.Load()
}

// Lookup resolves name against the current snapshot.
func (s *Store) Lookup(name string) (Definition, bool) {
	return s.Catalog().Lookup(name)
}

// Describe returns the workflow text or the not-found message.
func (s *Store) Describe(name string) string {
	return s.Catalog().Describe(name)
}

// Names returns the workflow names in the current snapshot.
func (s *Store) Names() []string {
	return s.Catalog().Names()
}
