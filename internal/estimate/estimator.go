// Package estimate derives income and expense rates of change from the
// aggregated views over a date window.
package estimate

import (
	"context"
	"math"

	"github.com/shopspring/decimal"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
)

// ViewSource yields a fresh pair of views; *aggregate.Builder satisfies it.
type ViewSource interface {
	Views(ctx context.Context) (expense, income aggregate.View, err error)
}

// Estimator holds a private, filtered snapshot of both views taken at
// construction. It never reads the store again.
type Estimator struct {
	income  aggregate.View
	expense aggregate.View

	startExpense core.Date
	endExpense   core.Date
}

// New snapshots the views and resolves the expense window.
//
// When start is set both views keep dates >= start; otherwise when end is
// set both keep dates <= end. Passing both applies only the start filter.
// The resolved bounds default to the min and max dates of the filtered
// expense view and serve as the time span for both rates.
func New(ctx context.Context, src ViewSource, start, end core.Date) (*Estimator, error) {
	expense, income, err := src.Views(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case !start.IsEmpty():
		income = income.Since(start)
		expense = expense.Since(start)
	case !end.IsEmpty():
		income = income.Until(end)
		expense = expense.Until(end)
	}

	e := &Estimator{
		income:       income,
		expense:      expense,
		startExpense: start,
		endExpense:   end,
	}
	if e.startExpense.IsEmpty() {
		e.startExpense = expense.MinDate()
	}
	if e.endExpense.IsEmpty() {
		e.endExpense = expense.MaxDate()
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentEstimate).DebugContext(ctx, "Estimator window resolved",
		applog.FieldStart, e.startExpense.String(),
		applog.FieldEnd, e.endExpense.String(),
		applog.FieldIncomeCount, income.Len(),
		applog.FieldExpenseCount, expense.Len())
	return e, nil
}

func (e *Estimator) StartDateExpense() core.Date {
	return e.startExpense
}

func (e *Estimator) EndDateExpense() core.Date {
	return e.endExpense
}

// IncomeView returns the filtered income snapshot.
func (e *Estimator) IncomeView() aggregate.View {
	return e.income
}

// ExpenseView returns the filtered expense snapshot.
func (e *Estimator) ExpenseView() aggregate.View {
	return e.expense
}

// days is the length of the resolved window. A missing bound counts as a
// zero-day window.
func (e *Estimator) days() int {
	if e.startExpense.IsEmpty() || e.endExpense.IsEmpty() {
		return 0
	}
	return e.startExpense.DaysUntil(e.endExpense)
}

// IncomeRateOfChange is the sum of successive income differences divided
// by the window's day count, scaled to period. A zero-day window yields
// NaN or ±Inf. The stochastic flag is reserved and currently ignored.
func (e *Estimator) IncomeRateOfChange(period Period, stochastic bool) float64 {
	_ = stochastic
	m := period.Multiplier()
	if m == 0 {
		return 0.0
	}
	amounts := e.income.Amounts()
	change := decimal.Zero
	for i := 1; i < len(amounts); i++ {
		change = change.Add(amounts[i].Sub(amounts[i-1]))
	}
	daily := change.InexactFloat64() / float64(e.days())
	return daily * m
}

// ExpenseRateOfChange is the mean over distinct dates of the per-date
// expense totals, scaled to period. It is not divided by the window
// length. No expenses yields NaN. The stochastic flag is ignored.
func (e *Estimator) ExpenseRateOfChange(period Period, stochastic bool) float64 {
	_ = stochastic
	m := period.Multiplier()
	if m == 0 {
		return 0.0
	}
	totals := e.expense.DailyTotals()
	if len(totals) == 0 {
		return math.NaN()
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t.Amount)
	}
	daily := sum.InexactFloat64() / float64(len(totals))
	return daily * m
}

// Finite reports whether a rate is usable; anything else means there was
// not enough data in the window.
func Finite(rate float64) bool {
	return !math.IsNaN(rate) && !math.IsInf(rate, 0)
}

// Rate is one period's pair of rates.
type Rate struct {
	Period        Period
	Income        float64
	Expense       float64
	IncomeFinite  bool
	ExpenseFinite bool
}

// Summary collects the resolved window and both rates for every period.
type Summary struct {
	Start        core.Date
	End          core.Date
	IncomeCount  int
	ExpenseCount int
	Rates        []Rate
}

// Summary evaluates both rates for all known periods.
func (e *Estimator) Summary(stochastic bool) Summary {
	s := Summary{
		Start:        e.startExpense,
		End:          e.endExpense,
		IncomeCount:  e.income.Len(),
		ExpenseCount: e.expense.Len(),
		Rates:        make([]Rate, 0, len(multipliers)),
	}
	for _, p := range Periods() {
		r := Rate{
			Period:  p,
			Income:  e.IncomeRateOfChange(p, stochastic),
			Expense: e.ExpenseRateOfChange(p, stochastic),
		}
		r.IncomeFinite = Finite(r.Income)
		r.ExpenseFinite = Finite(r.Expense)
		s.Rates = append(s.Rates, r)
	}
	return s
}

// Rate returns the entry for p, if present.
func (s Summary) Rate(p Period) (Rate, bool) {
	for _, r := range s.Rates {
		if r.Period == p {
			return r, true
		}
	}
	return Rate{}, false
}
