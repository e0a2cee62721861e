// Package store defines the persistence ports the rest of the module
// depends on. Backends live in the subpackages and in internal/storage.
package store

import (
	"context"
	"errors"
	"io"

	"financialchecker/internal/core"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("store is closed")

// Ports for outbound adapters.
type (
	// Fetcher returns every stored transaction, unfiltered, in store order.
	Fetcher interface {
		FetchAll(ctx context.Context) ([]core.Record, error)
	}

	// Inserter persists a new transaction record and returns its id.
	Inserter interface {
		Insert(ctx context.Context, r core.Record) (id string, err error)
	}

	// TaxonomyReader provides the choices offered by the form.
	TaxonomyReader interface {
		Taxonomy(ctx context.Context) (core.Taxonomy, error)
	}

	// UtilityWriter adds a taxonomy entry; adding an existing one is a no-op.
	UtilityWriter interface {
		AddUtility(ctx context.Context, kind, value string) error
	}

	// Store is a full backend with an explicit lifecycle.
	Store interface {
		Fetcher
		Inserter
		io.Closer
	}
)
