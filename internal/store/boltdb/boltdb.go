// Package boltdb is a document store on bbolt: one JSON document per
// transaction, keyed by the bucket sequence.
package boltdb

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"

	"financialchecker/internal/core"
	"financialchecker/internal/store"
)

var (
	_ store.Store          = (*Store)(nil)
	_ store.TaxonomyReader = (*Store)(nil)
)

// Bucket names.
const (
	BucketTransactions = "transactions"
	BucketUtilities    = "utilities"
)

const utilitySep = 0x00

type Store struct {
	db *bolt.DB
}

// New opens the database at path and creates the buckets.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range []string{BucketTransactions, BucketUtilities} {
			if _, err := tx.CreateBucketIfNotExists([]byte(bucket)); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Insert validates rec and stores it under the next sequence number.
func (s *Store) Insert(ctx context.Context, rec core.Record) (string, error) {
	rec, err := rec.Canonical()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var id string
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketTransactions))
		seq, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
		id = strconv.FormatUint(seq, 10)
		rec.ID = id

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal transaction: %w", err)
		}
		return b.Put(itob(seq), data)
	})
	if err != nil {
		return "", wrapClosed(err)
	}
	return id, nil
}

// FetchAll returns every document in key order, which is insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []core.Record
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketTransactions)).ForEach(func(k, v []byte) error {
			var rec core.Record
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("unmarshal transaction %d: %w", btoi(k), err)
			}
			out = append(out, rec)
			return nil
		})
	})
	if err != nil {
		return nil, wrapClosed(err)
	}
	return out, nil
}

// AddUtility records a taxonomy entry. Adding an existing entry is a no-op.
func (s *Store) AddUtility(_ context.Context, kind, value string) error {
	if value == "" {
		return errors.New("utility value is empty")
	}
	return wrapClosed(s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketUtilities)).Put(utilityKey(kind, value), nil)
	}))
}

// Taxonomy lists the utilities, values sorted within each kind.
func (s *Store) Taxonomy(_ context.Context) (core.Taxonomy, error) {
	var t core.Taxonomy
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(BucketUtilities)).ForEach(func(k, _ []byte) error {
			kind, value, ok := bytes.Cut(k, []byte{utilitySep})
			if ok {
				t.Add(string(kind), string(value))
			}
			return nil
		})
	})
	if err != nil {
		return core.Taxonomy{}, wrapClosed(err)
	}
	return t, nil
}

func utilityKey(kind, value string) []byte {
	k := make([]byte, 0, len(kind)+1+len(value))
	k = append(k, kind...)
	k = append(k, utilitySep)
	return append(k, value...)
}

func wrapClosed(err error) error {
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return fmt.Errorf("%w: %w", store.ErrClosed, err)
	}
	return err
}

func itob(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func btoi(b []byte) uint64 {
	if len(b) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
