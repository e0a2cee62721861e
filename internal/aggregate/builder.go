package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
	"financialchecker/internal/metrics"
	"financialchecker/internal/store"
)

// Builder produces income and expense views from a store. Every read
// re-fetches the whole store first, so results are never stale and
// nothing is cached between calls.
type Builder struct {
	fetcher store.Fetcher
	logger  *applog.Logger
}

type Option func(*Builder)

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(l *applog.Logger) Option {
	return func(b *Builder) {
		b.logger = l.WithComponent(applog.ComponentAggregate)
	}
}

// NewBuilder wraps an already open store handle. The handle is reused for
// every refresh; closing it stays with the caller.
func NewBuilder(fetcher store.Fetcher, opts ...Option) *Builder {
	b := &Builder{fetcher: fetcher}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentAggregate)
	}
	return b
}

// Refresh re-reads all records, partitions them by type tag and parses
// their dates. Store errors are returned wrapped but otherwise untouched.
func (b *Builder) Refresh(ctx context.Context) error {
	_, _, err := b.snapshot(ctx)
	return err
}

func (b *Builder) snapshot(ctx context.Context) (expense, income View, err error) {
	start := time.Now()
	records, err := b.fetcher.FetchAll(ctx)
	if err != nil {
		metrics.StoreFetchErrors.Inc()
		return View{}, View{}, fmt.Errorf("fetch transactions: %w", err)
	}

	expense, income, err = Partition(records)
	if err != nil {
		return View{}, View{}, err
	}
	metrics.AggregateRefresh.Observe(time.Since(start).Seconds())

	b.logger.DebugContext(ctx, "Transactions refreshed",
		applog.FieldExpenseCount, expense.Len(),
		applog.FieldIncomeCount, income.Len())
	return expense, income, nil
}

// Partition splits records into expense and income views. Type tags match
// in any letter case, as in core.ParseRecord; rows carry the upper-case
// tag. Records with any other tag are rejected.
func Partition(records []core.Record) (expense, income View, err error) {
	expense = View{Type: core.Expense, Rows: make([]Row, 0, len(records))}
	income = View{Type: core.Income, Rows: make([]Row, 0, len(records))}
	for _, r := range records {
		date, err := core.ParseDate(r.Date)
		if err != nil {
			return View{}, View{}, fmt.Errorf("record %q: %w", r.ID, err)
		}
		typ, err := core.ParseTransactionType(r.Type)
		if err != nil {
			return View{}, View{}, fmt.Errorf("record %q: %w", r.ID, err)
		}
		r.Type = typ.String()
		row := Row{Record: r, Date: date}
		if typ == core.Expense {
			expense.Rows = append(expense.Rows, row)
		} else {
			income.Rows = append(income.Rows, row)
		}
	}
	return expense, income, nil
}

// IncomeView refreshes and returns the full income view.
func (b *Builder) IncomeView(ctx context.Context) (View, error) {
	_, income, err := b.snapshot(ctx)
	return income, err
}

// ExpenseView refreshes and returns the full expense view.
func (b *Builder) ExpenseView(ctx context.Context) (View, error) {
	expense, _, err := b.snapshot(ctx)
	return expense, err
}

// Views refreshes once and returns both views from the same read.
func (b *Builder) Views(ctx context.Context) (expense, income View, err error) {
	return b.snapshot(ctx)
}

// IncomeAmounts refreshes and returns the income amounts inside w.
func (b *Builder) IncomeAmounts(ctx context.Context, w Window) ([]decimal.Decimal, error) {
	income, err := b.IncomeView(ctx)
	if err != nil {
		return nil, err
	}
	return income.Filter(w).Amounts(), nil
}

// ExpenseAmounts refreshes and returns the expense amounts inside w.
func (b *Builder) ExpenseAmounts(ctx context.Context, w Window) ([]decimal.Decimal, error) {
	expense, err := b.ExpenseView(ctx)
	if err != nil {
		return nil, err
	}
	return expense.Filter(w).Amounts(), nil
}
