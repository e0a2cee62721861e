// Package storage is the SQLite transaction store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
	"financialchecker/internal/store"

	_ "modernc.org/sqlite"
)

var (
	_ store.Store          = (*SQLiteRepository)(nil)
	_ store.TaxonomyReader = (*SQLiteRepository)(nil)
)

const (
	selectTransactions = `SELECT id, type, amount, transaction_method, date, description, category,
	advance_payment, firm, location
FROM transactions
ORDER BY id`

	insertTransaction = `INSERT INTO transactions
	(type, amount, transaction_method, date, description, category, advance_payment, firm, location)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	selectUtilities = `SELECT type, value FROM utilities ORDER BY type, value`

	insertUtility = `INSERT OR IGNORE INTO utilities (type, value) VALUES (?, ?)`
)

type SQLiteRepository struct {
	db     *sql.DB
	logger *applog.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath
// and migrates it to the latest schema.
func NewSQLiteRepository(dbPath string, logger *applog.Logger) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, err
	}

	repo := NewSQLiteRepositoryFromDB(db, logger)
	repo.logger.Info("SQLite store ready", "path", dbPath, "schema_version", version)
	return repo, nil
}

// NewSQLiteRepositoryFromDB wraps an already migrated handle.
func NewSQLiteRepositoryFromDB(db *sql.DB, logger *applog.Logger) *SQLiteRepository {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &SQLiteRepository{db: db, logger: logger.WithComponent(applog.ComponentStorage)}
}

func (r *SQLiteRepository) Close() error {
	r.closeOnce.Do(func() {
		if r.db != nil {
			r.closeErr = r.db.Close()
		}
	})
	return r.closeErr
}

// FetchAll returns every transaction in insertion order.
func (r *SQLiteRepository) FetchAll(ctx context.Context) ([]core.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectTransactions)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		var (
			id       int64
			rec      core.Record
			advance  sql.NullBool
			firm     sql.NullString
			location sql.NullString
		)
		if err := rows.Scan(&id, &rec.Type, &rec.Amount, &rec.Method, &rec.Date,
			&rec.Description, &rec.Category, &advance, &firm, &location); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		rec.ID = strconv.FormatInt(id, 10)
		if advance.Valid {
			rec.AdvancePayment = &advance.Bool
		}
		if firm.Valid {
			rec.Firm = &firm.String
		}
		if location.Valid {
			rec.Location = &location.String
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Insert validates and persists rec, returning the new row id.
func (r *SQLiteRepository) Insert(ctx context.Context, rec core.Record) (string, error) {
	rec, err := rec.Canonical()
	if err != nil {
		return "", err
	}

	res, err := r.db.ExecContext(ctx, insertTransaction,
		rec.Type,
		rec.Amount.StringFixed(2),
		rec.Method,
		rec.Date,
		rec.Description,
		rec.Category,
		nullBool(rec.AdvancePayment),
		nullString(rec.Firm),
		nullString(rec.Location),
	)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("read inserted id: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction saved to SQLite",
		applog.FieldTransactionID, id,
		applog.FieldType, rec.Type,
		applog.FieldAmount, rec.Amount.StringFixed(2))
	return strconv.FormatInt(id, 10), nil
}

// Taxonomy reads the utilities table, values sorted within each kind.
func (r *SQLiteRepository) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	rows, err := r.db.QueryContext(ctx, selectUtilities)
	if err != nil {
		return core.Taxonomy{}, fmt.Errorf("query utilities: %w", err)
	}
	defer rows.Close()

	var t core.Taxonomy
	for rows.Next() {
		var kind, value string
		if err := rows.Scan(&kind, &value); err != nil {
			return core.Taxonomy{}, fmt.Errorf("scan utility: %w", err)
		}
		t.Add(kind, value)
	}
	if err := rows.Err(); err != nil {
		return core.Taxonomy{}, fmt.Errorf("iterate utilities: %w", err)
	}
	return t, nil
}

// AddUtility records a taxonomy entry; duplicates are ignored.
func (r *SQLiteRepository) AddUtility(ctx context.Context, kind, value string) error {
	if value == "" {
		return errors.New("utility value is empty")
	}
	if _, err := r.db.ExecContext(ctx, insertUtility, kind, value); err != nil {
		return fmt.Errorf("insert utility %s: %w", kind, err)
	}
	return nil
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
