// Package backend opens the transaction store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"financialchecker/internal/config"
	applog "financialchecker/internal/log"
	"financialchecker/internal/sheets/google"
	"financialchecker/internal/storage"
	"financialchecker/internal/store"
	"financialchecker/internal/store/boltdb"
	"financialchecker/internal/store/memory"
)

// Type names a store implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
	Bolt   Type = "bolt"
	Sheets Type = "sheets"
)

func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is known.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite, Bolt, Sheets:
		return true
	default:
		return false
	}
}

// Types returns all valid backend types.
func Types() []Type {
	return []Type{Memory, SQLite, Bolt, Sheets}
}

// Result holds an open store. Taxonomy is nil when the backend has no
// taxonomy of its own.
type Result struct {
	Type     Type
	Store    store.Store
	Taxonomy store.TaxonomyReader
}

// Close releases the store.
func (r *Result) Close() error {
	if r == nil || r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// Open creates the store described by cfg.
func Open(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentBackend)

	t := Type(cfg.DataBackend)
	switch t {
	case Memory:
		st := memory.NewFromFiles(cfg.DataDir)
		logger.InfoContext(ctx, "Initialized memory backend", "data_directory", cfg.DataDir)
		return &Result{Type: t, Store: st, Taxonomy: st}, nil

	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.InfoContext(ctx, "Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Type: t, Store: repo, Taxonomy: repo}, nil

	case Bolt:
		st, err := boltdb.New(cfg.BoltDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize bolt store: %w", err)
		}
		logger.InfoContext(ctx, "Initialized bolt backend", "db_path", cfg.BoltDBPath)
		return &Result{Type: t, Store: st, Taxonomy: st}, nil

	case Sheets:
		cli, err := google.New(ctx, google.Config{
			SpreadsheetID:     cfg.GoogleSpreadsheetID,
			TransactionsSheet: cfg.GoogleSheetName,
			UtilitiesSheet:    cfg.GoogleUtilitiesSheetName,
			CredentialsJSON:   cfg.GoogleServiceAccountJSON,
			CredentialsFile:   cfg.GoogleServiceAccountFile,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
		}
		logger.InfoContext(ctx, "Initialized Google Sheets backend", "sheet", cfg.GoogleSheetName)
		return &Result{Type: t, Store: cli, Taxonomy: cli}, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}
