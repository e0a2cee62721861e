package core

import "github.com/shopspring/decimal"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
}

// DailyAmount is the summed amount of all transactions on one date.
type DailyAmount struct {
	Date   Date
	Amount decimal.Decimal
}

// Taxonomy holds the choices offered by the transaction form.
type Taxonomy struct {
	Categories       []string
	IncomeCategories []string
	PaymentMethods   []string
	Firms            []string
	Locations        []string
}

// Utility kinds as stored next to the transactions.
const (
	UtilityCategory       = "Category"
	UtilityIncomeCategory = "IncomeCategory"
	UtilityPaymentMethod  = "PaymentMethod"
	UtilityFirm           = "Firm"
	UtilityLocation       = "Location"
)

// Add appends value to the list matching kind. Unknown kinds are ignored.
func (t *Taxonomy) Add(kind, value string) {
	switch kind {
	case UtilityCategory:
		t.Categories = append(t.Categories, value)
	case UtilityIncomeCategory:
		t.IncomeCategories = append(t.IncomeCategories, value)
	case UtilityPaymentMethod:
		t.PaymentMethods = append(t.PaymentMethods, value)
	case UtilityFirm:
		t.Firms = append(t.Firms, value)
	case UtilityLocation:
		t.Locations = append(t.Locations, value)
	}
}

// WithDefaults fills every empty list from fallback. Firms and locations
// fall back to a single empty choice when fallback has none either.
func (t Taxonomy) WithDefaults(fallback Taxonomy) Taxonomy {
	pick := func(own, def []string) []string {
		if len(own) > 0 {
			return own
		}
		return append([]string(nil), def...)
	}
	out := Taxonomy{
		Categories:       pick(t.Categories, fallback.Categories),
		IncomeCategories: pick(t.IncomeCategories, fallback.IncomeCategories),
		PaymentMethods:   pick(t.PaymentMethods, fallback.PaymentMethods),
		Firms:            pick(t.Firms, fallback.Firms),
		Locations:        pick(t.Locations, fallback.Locations),
	}
	if len(out.IncomeCategories) == 0 {
		out.IncomeCategories = append([]string(nil), out.Categories...)
	}
	if len(out.Firms) == 0 {
		out.Firms = []string{""}
	}
	if len(out.Locations) == 0 {
		out.Locations = []string{""}
	}
	return out
}
