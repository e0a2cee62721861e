package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Record is the flat document form a store persists and returns.
// Dates travel as YYYY-MM-DD text; the expense-only fields are nil for
// incomes.
type Record struct {
	ID             string          `json:"id,omitempty"`
	Type           string          `json:"type"`
	Amount         decimal.Decimal `json:"amount"`
	Method         string          `json:"transaction_method"`
	Date           string          `json:"date"`
	Description    string          `json:"description"`
	Category       string          `json:"category"`
	AdvancePayment *bool           `json:"advance_payment,omitempty"`
	Firm           *string         `json:"firm,omitempty"`
	Location       *string         `json:"location,omitempty"`
}

// Record converts the transaction into its store document.
func (t Transaction) Record() Record {
	r := Record{
		ID:          t.ID,
		Type:        t.Type.String(),
		Amount:      t.Amount,
		Method:      t.Method,
		Date:        t.Date.String(),
		Description: t.Description,
		Category:    t.Category,
	}
	if t.Expense != nil {
		advance := t.Expense.AdvancePayment
		firm := t.Expense.Firm
		location := t.Expense.Location
		r.AdvancePayment = &advance
		r.Firm = &firm
		r.Location = &location
	}
	return r
}

// Map returns the record as a key/value mapping using the document keys.
func (r Record) Map() map[string]any {
	m := map[string]any{
		"type":               r.Type,
		"amount":             r.Amount.StringFixed(2),
		"transaction_method": r.Method,
		"date":               r.Date,
		"description":        r.Description,
		"category":           r.Category,
	}
	if r.ID != "" {
		m["id"] = r.ID
	}
	if r.AdvancePayment != nil {
		m["advance_payment"] = *r.AdvancePayment
	}
	if r.Firm != nil {
		m["firm"] = *r.Firm
	}
	if r.Location != nil {
		m["location"] = *r.Location
	}
	return m
}

// HasExpenseDetails reports whether any expense-only field is set.
func (r Record) HasExpenseDetails() bool {
	return r.AdvancePayment != nil || r.Firm != nil || r.Location != nil
}

// ParseRecord converts a store document back into a validated transaction.
func ParseRecord(r Record) (Transaction, error) {
	typ, err := ParseTransactionType(r.Type)
	if err != nil {
		return Transaction{}, err
	}
	date, err := ParseDate(r.Date)
	if err != nil {
		return Transaction{}, err
	}

	var t Transaction
	switch typ {
	case Income:
		if r.HasExpenseDetails() {
			return Transaction{}, fmt.Errorf("record %q: %w", r.ID, ErrVariantMismatch)
		}
		t, err = NewIncome(r.Category, r.Amount, r.Method, date, r.Description)
	case Expense:
		details := ExpenseDetails{}
		if r.AdvancePayment != nil {
			details.AdvancePayment = *r.AdvancePayment
		}
		if r.Firm != nil {
			details.Firm = *r.Firm
		}
		if r.Location != nil {
			details.Location = *r.Location
		}
		t, err = NewExpense(r.Category, r.Amount, r.Method, date, r.Description, details)
	}
	if err != nil {
		return Transaction{}, fmt.Errorf("record %q: %w", r.ID, err)
	}
	t.ID = r.ID
	return t, nil
}

// Canonical validates r and returns it with the type tag upper-cased and
// the date in YYYY-MM-DD form. Stores persist the canonical record.
func (r Record) Canonical() (Record, error) {
	t, err := ParseRecord(r)
	if err != nil {
		return Record{}, err
	}
	r.Type = t.Type.String()
	r.Date = t.Date.String()
	return r, nil
}
