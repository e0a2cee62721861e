// Package aggregate turns the flat store records into per-type views that
// can be filtered by date window.
package aggregate

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"financialchecker/internal/core"
)

// Window is an inclusive date range. A zero bound is absent.
type Window struct {
	Start core.Date
	End   core.Date
}

// IsEmpty reports whether neither bound is set.
func (w Window) IsEmpty() bool {
	return w.Start.IsEmpty() && w.End.IsEmpty()
}

// Contains applies the window's inclusive bounds to d.
func (w Window) Contains(d core.Date) bool {
	if !w.Start.IsEmpty() && d.Before(w.Start.Time) {
		return false
	}
	if !w.End.IsEmpty() && d.After(w.End.Time) {
		return false
	}
	return true
}

// Row is one record of a view with its date already parsed.
type Row struct {
	Record core.Record
	Date   core.Date
}

// View is an ordered set of records of one transaction type. Rows keep
// the order the store returned them in.
type View struct {
	Type core.TransactionType
	Rows []Row
}

func (v View) Len() int {
	return len(v.Rows)
}

// Amounts returns the amount column in row order.
func (v View) Amounts() []decimal.Decimal {
	out := make([]decimal.Decimal, len(v.Rows))
	for i, r := range v.Rows {
		out[i] = r.Record.Amount
	}
	return out
}

// Filter keeps the rows inside w. With no bounds the view is returned as is.
func (v View) Filter(w Window) View {
	if w.IsEmpty() {
		return v
	}
	return v.where(w.Contains)
}

// Since keeps the rows dated on or after start.
func (v View) Since(start core.Date) View {
	return v.where(func(d core.Date) bool { return !d.Before(start.Time) })
}

// Until keeps the rows dated on or before end.
func (v View) Until(end core.Date) View {
	return v.where(func(d core.Date) bool { return !d.After(end.Time) })
}

func (v View) where(keep func(core.Date) bool) View {
	out := View{Type: v.Type, Rows: make([]Row, 0, len(v.Rows))}
	for _, r := range v.Rows {
		if keep(r.Date) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// MinDate returns the earliest date, or a zero date for an empty view.
func (v View) MinDate() core.Date {
	var min core.Date
	for i, r := range v.Rows {
		if i == 0 || r.Date.Before(min.Time) {
			min = r.Date
		}
	}
	return min
}

// MaxDate returns the latest date, or a zero date for an empty view.
func (v View) MaxDate() core.Date {
	var max core.Date
	for i, r := range v.Rows {
		if i == 0 || r.Date.After(max.Time) {
			max = r.Date
		}
	}
	return max
}

// DailyTotals sums amounts per calendar date, sorted by date.
func (v View) DailyTotals() []core.DailyAmount {
	sums := map[string]*core.DailyAmount{}
	for _, r := range v.Rows {
		key := r.Date.String()
		if da, ok := sums[key]; ok {
			da.Amount = da.Amount.Add(r.Record.Amount)
			continue
		}
		sums[key] = &core.DailyAmount{Date: r.Date, Amount: r.Record.Amount}
	}
	out := make([]core.DailyAmount, 0, len(sums))
	for _, da := range sums {
		out = append(out, *da)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

// ByCategory sums amounts per category, largest first; ties break by name.
func (v View) ByCategory() []core.CategoryAmount {
	sums := map[string]decimal.Decimal{}
	for _, r := range v.Rows {
		sums[r.Record.Category] = sums[r.Record.Category].Add(r.Record.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amt := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: amt})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Total sums every amount in the view.
func (v View) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range v.Rows {
		total = total.Add(r.Record.Amount)
	}
	return total
}

// InCategory keeps the rows whose category matches name, ignoring case.
// An empty name keeps every row.
func (v View) InCategory(name string) View {
	name = strings.TrimSpace(name)
	if name == "" {
		return v
	}
	out := View{Type: v.Type, Rows: make([]Row, 0, len(v.Rows))}
	for _, r := range v.Rows {
		if strings.EqualFold(r.Record.Category, name) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}
