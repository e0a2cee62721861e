package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"financialchecker/internal/core"
	"financialchecker/internal/store"
)

var (
	_ store.Store          = (*Store)(nil)
	_ store.TaxonomyReader = (*Store)(nil)
)

type Store struct {
	mu       sync.Mutex
	taxonomy core.Taxonomy
	items    []core.Record
	closed   bool
}

func New(taxonomy core.Taxonomy) *Store {
	return &Store{taxonomy: core.Taxonomy{
		Categories:       dedupe(taxonomy.Categories),
		IncomeCategories: dedupe(taxonomy.IncomeCategories),
		PaymentMethods:   dedupe(taxonomy.PaymentMethods),
		Firms:            dedupe(taxonomy.Firms),
		Locations:        dedupe(taxonomy.Locations),
	}}
}

// NewFromFiles seeds the taxonomy from seed_*.txt files under base.
// Missing files leave the list empty so the settings defaults apply.
func NewFromFiles(base string) *Store {
	return New(core.Taxonomy{
		Categories:       readLines(filepath.Join(base, "seed_categories.txt")),
		IncomeCategories: readLines(filepath.Join(base, "seed_income_categories.txt")),
		PaymentMethods:   readLines(filepath.Join(base, "seed_payment_methods.txt")),
		Firms:            readLines(filepath.Join(base, "seed_firms.txt")),
		Locations:        readLines(filepath.Join(base, "seed_locations.txt")),
	})
}

// Insert stores the record and returns a generated id.
func (s *Store) Insert(_ context.Context, r core.Record) (string, error) {
	r, err := r.Canonical()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", store.ErrClosed
	}
	r.ID = uuid.NewString()
	s.items = append(s.items, r)
	return r.ID, nil
}

// FetchAll returns a copy of every record in insertion order.
func (s *Store) FetchAll(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, store.ErrClosed
	}
	return append([]core.Record(nil), s.items...), nil
}

func (s *Store) Taxonomy(_ context.Context) (core.Taxonomy, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.Taxonomy{
		Categories:       append([]string(nil), s.taxonomy.Categories...),
		IncomeCategories: append([]string(nil), s.taxonomy.IncomeCategories...),
		PaymentMethods:   append([]string(nil), s.taxonomy.PaymentMethods...),
		Firms:            append([]string(nil), s.taxonomy.Firms...),
		Locations:        append([]string(nil), s.taxonomy.Locations...),
	}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
