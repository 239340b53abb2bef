package health

import (
	"context"
	"errors"
)

// Pinger is satisfied by *loki.Client.
type Pinger interface {
	Ready(ctx context.Context) error
}

// Catalog is satisfied by *workflows.Store.
type Catalog interface {
	Names() []string
}

// ErrEmptyCatalog is reported when no workflow definitions are loaded.
var ErrEmptyCatalog = errors.New("no workflow definitions loaded")

// LokiCheck probes the log backend's readiness endpoint.
func LokiCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		return p.Ready(ctx)
	}
}

// CatalogCheck fails while the workflow catalog is empty.
func CatalogCheck(c Catalog) CheckFunc {
	return func(context.Context) error {
		if len(c.Names()) == 0 {
			return ErrEmptyCatalog
		}
		return nil
	}
}
