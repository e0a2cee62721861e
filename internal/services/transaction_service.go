package services

import (
	"context"
	"fmt"
	"time"

	"financialchecker/internal/amqp"
	"financialchecker/internal/cache"
	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
	"financialchecker/internal/metrics"
	"financialchecker/internal/store"
)

// Publisher announces stored transactions; *amqp.Client satisfies it.
type Publisher interface {
	PublishTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error
}

// TransactionService records transactions in the store and notifies
// consumers over AMQP.
type TransactionService struct {
	store     store.Inserter
	publisher Publisher
	fallback  core.Taxonomy
	logger    *applog.Logger
	taxonomy  *cache.LRU[core.Taxonomy]
}

// TaxonomyTTL bounds how long store taxonomy lists are reused.
const TaxonomyTTL = 5 * time.Minute

const taxonomyKey = "taxonomy"

// NewTransactionService wires the service. publisher may be nil when no
// broker is configured; fallback supplies taxonomy lists the store lacks.
func NewTransactionService(st store.Inserter, publisher Publisher, fallback core.Taxonomy, logger *applog.Logger) *TransactionService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &TransactionService{
		store:     st,
		publisher: publisher,
		fallback:  fallback,
		logger:    logger.WithComponent(applog.ComponentService),
		taxonomy:  cache.NewLRU[core.Taxonomy](1, TaxonomyTTL),
	}
}

// Create validates tx, inserts it and publishes a created event. A failed
// publish is logged and does not fail the call; the record is already saved.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}

	rec := tx.Record()
	id, err := s.store.Insert(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}
	rec.ID = id
	metrics.TransactionsInserted.WithLabelValues(rec.Type).Inc()

	applog.NewStructuredLogger(s.logger).LogTransactionCreated(ctx,
		id, rec.Type, rec.Amount.StringFixed(2), rec.Category, rec.Date)

	if s.publisher == nil {
		s.logger.DebugContext(ctx, "AMQP publisher not configured, skipping created message",
			applog.FieldTransactionID, id)
		return id, nil
	}
	if err := s.publisher.PublishTransactionCreated(ctx, amqp.NewTransactionCreatedMessage(rec)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish created message",
			applog.FieldTransactionID, id,
			applog.FieldError, err)
	}
	return id, nil
}

// Taxonomy returns the form choices: the store's own lists when it has
// them, otherwise the configured defaults. Store lists are cached for
// TaxonomyTTL.
func (s *TransactionService) Taxonomy(ctx context.Context) (core.Taxonomy, error) {
	reader, ok := s.store.(store.TaxonomyReader)
	if !ok {
		return core.Taxonomy{}.WithDefaults(s.fallback), nil
	}
	if tax, ok := s.taxonomy.Get(taxonomyKey); ok {
		return tax, nil
	}
	own, err := reader.Taxonomy(ctx)
	if err != nil {
		return core.Taxonomy{}, fmt.Errorf("read taxonomy: %w", err)
	}
	tax := own.WithDefaults(s.fallback)
	s.taxonomy.Set(taxonomyKey, tax)
	s.logger.DebugContext(ctx, "Taxonomy cached", "entries", s.taxonomy.Len())
	return tax, nil
}

// SeedTaxonomy writes the configured defaults into every taxonomy list the
// store has left empty, then drops the cached copy. Stores that cannot
// hold utilities are skipped. It returns how many entries were written.
func (s *TransactionService) SeedTaxonomy(ctx context.Context) (int, error) {
	reader, ok := s.store.(store.TaxonomyReader)
	if !ok {
		return 0, nil
	}
	writer, ok := s.store.(store.UtilityWriter)
	if !ok {
		return 0, nil
	}
	own, err := reader.Taxonomy(ctx)
	if err != nil {
		return 0, fmt.Errorf("read taxonomy: %w", err)
	}

	lists := []struct {
		kind     string
		own, def []string
	}{
		{core.UtilityCategory, own.Categories, s.fallback.Categories},
		{core.UtilityIncomeCategory, own.IncomeCategories, s.fallback.IncomeCategories},
		{core.UtilityPaymentMethod, own.PaymentMethods, s.fallback.PaymentMethods},
		{core.UtilityFirm, own.Firms, s.fallback.Firms},
		{core.UtilityLocation, own.Locations, s.fallback.Locations},
	}
	written := 0
	for _, l := range lists {
		if len(l.own) > 0 {
			continue
		}
		for _, v := range l.def {
			if v == "" {
				continue
			}
			if err := writer.AddUtility(ctx, l.kind, v); err != nil {
				return written, fmt.Errorf("seed %s: %w", l.kind, err)
			}
			written++
		}
	}
	if written > 0 {
		s.InvalidateTaxonomy()
		s.logger.InfoContext(ctx, "Taxonomy seeded from defaults", "entries", written)
	}
	return written, nil
}

// RunCacheJanitor drops expired taxonomy entries every interval until ctx
// is done. It blocks.
func (s *TransactionService) RunCacheJanitor(ctx context.Context, interval time.Duration) {
	s.taxonomy.Janitor(ctx, interval)
}

// InvalidateTaxonomy drops the cached taxonomy.
func (s *TransactionService) InvalidateTaxonomy() {
	s.taxonomy.Delete(taxonomyKey)
}
