// Package worker runs the background rate estimation loop.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"financialchecker/internal/amqp"
	"financialchecker/internal/core"
	"financialchecker/internal/estimate"
	applog "financialchecker/internal/log"
	"financialchecker/internal/metrics"
)

// Consumer delivers transaction-created events; *amqp.Client satisfies it.
type Consumer interface {
	ConsumeTransactionCreated(ctx context.Context, handler amqp.Handler) error
}

// RatesWorker recomputes the rate summary over a trailing window whenever a
// transaction is stored and on a fixed interval.
type RatesWorker struct {
	source     estimate.ViewSource
	consumer   Consumer
	interval   time.Duration
	windowDays int
	logger     *applog.Logger
	today      func() core.Date

	mu   sync.Mutex
	last *estimate.Summary
}

// NewRatesWorker wires the worker. consumer may be nil, in which case only
// the ticker drives recomputation.
func NewRatesWorker(source estimate.ViewSource, consumer Consumer, interval time.Duration, windowDays int, logger *applog.Logger) *RatesWorker {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &RatesWorker{
		source:     source,
		consumer:   consumer,
		interval:   interval,
		windowDays: windowDays,
		logger:     logger.WithComponent(applog.ComponentWorker),
		today:      core.Today,
	}
}

// WindowStart is the first day of the trailing window ending today.
func (w *RatesWorker) WindowStart() core.Date {
	return core.Date{Time: w.today().AddDate(0, 0, -w.windowDays)}
}

// Recompute builds a fresh estimator over the trailing window, records the
// rates and returns the summary.
func (w *RatesWorker) Recompute(ctx context.Context) (estimate.Summary, error) {
	start := w.WindowStart()
	est, err := estimate.New(ctx, w.source, start, core.Date{})
	if err != nil {
		return estimate.Summary{}, fmt.Errorf("estimate rates: %w", err)
	}
	s := est.Summary(false)

	for _, r := range s.Rates {
		metrics.Rates.WithLabelValues("income", r.Period.String()).Set(r.Income)
		metrics.Rates.WithLabelValues("expense", r.Period.String()).Set(r.Expense)
	}
	metrics.RatesComputed.Inc()

	w.mu.Lock()
	w.last = &s
	w.mu.Unlock()

	w.logSummary(ctx, s)
	return s, nil
}

func (w *RatesWorker) logSummary(ctx context.Context, s estimate.Summary) {
	args := []any{
		applog.FieldOperation, applog.OpEstimate,
		applog.FieldStart, s.Start.String(),
		applog.FieldEnd, s.End.String(),
		applog.FieldIncomeCount, s.IncomeCount,
		applog.FieldExpenseCount, s.ExpenseCount,
	}
	for _, r := range s.Rates {
		p := r.Period.String()
		args = append(args, "income_"+p, rateValue(r.Income, r.IncomeFinite), "expense_"+p, rateValue(r.Expense, r.ExpenseFinite))
	}
	w.logger.InfoContext(ctx, "Rates recomputed", args...)
}

func rateValue(v float64, finite bool) any {
	if !finite {
		return "insufficient data"
	}
	return v
}

// Last returns the most recent summary, if any.
func (w *RatesWorker) Last() (estimate.Summary, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return estimate.Summary{}, false
	}
	return *w.last, true
}

// HandleTransactionCreated recomputes after a stored transaction. A failed
// recomputation is logged and the message is still acknowledged; the next
// tick retries.
func (w *RatesWorker) HandleTransactionCreated(ctx context.Context, msg *amqp.TransactionCreatedMessage) error {
	w.logger.InfoContext(ctx, "Processing transaction message",
		applog.FieldTransactionID, msg.ID,
		applog.FieldType, msg.Type,
		applog.FieldDate, msg.Date)
	if _, err := w.Recompute(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Rate recomputation after message failed",
			applog.FieldTransactionID, msg.ID,
			applog.FieldError, err)
	}
	return nil
}

// Run computes once, then runs the ticker and the consumer until ctx ends.
// It returns nil once ctx is done.
func (w *RatesWorker) Run(ctx context.Context) error {
	if _, err := w.Recompute(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Initial rate computation failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.tick(gctx)
	})
	if w.consumer != nil {
		g.Go(func() error {
			return w.consumer.ConsumeTransactionCreated(gctx, w.HandleTransactionCreated)
		})
	} else {
		w.logger.InfoContext(ctx, "Skipping AMQP message consumption - no broker configured")
	}

	err := g.Wait()
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func (w *RatesWorker) tick(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Recompute(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic rate computation failed", applog.FieldError, err)
			}
		}
	}
}
