package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the textual date format used by every store.
const DateLayout = "2006-01-02"

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	Date struct {
		time.Time
	}

	// ExpenseDetails carries the fields only an expense has.
	ExpenseDetails struct {
		AdvancePayment bool
		Firm           string `validate:"max=100"`
		Location       string `validate:"max=100"`
	}

	// Transaction is a validated income or expense. Expense is non-nil
	// exactly when Type is Expense.
	Transaction struct {
		ID          string
		Type        TransactionType `validate:"required"`
		Amount      decimal.Decimal `validate:"gte=0.01"`
		Method      string          `validate:"required,max=50"`
		Date        Date
		Description string `validate:"max=500"`
		Category    string `validate:"max=100"`
		Expense     *ExpenseDetails
	}
)

var (
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyMethod     = errors.New("empty transaction method")
	ErrVariantMismatch = errors.New("expense details do not match transaction type")
	ErrInvalidField    = errors.New("validation failed")

	// MinAmount is the smallest amount a transaction may carry.
	MinAmount = decimal.RequireFromString("0.01")
)

// IsValidationError reports whether err is an input contract violation
// rather than a storage or transport failure.
func IsValidationError(err error) bool {
	for _, target := range []error{ErrInvalidType, ErrInvalidAmount, ErrInvalidDate, ErrEmptyMethod, ErrVariantMismatch, ErrInvalidField} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// TransactionTypes lists the closed set of type tags.
func TransactionTypes() []TransactionType {
	return []TransactionType{Income, Expense}
}

// IsValid reports whether t is one of the known tags.
func (t TransactionType) IsValid() bool {
	switch t {
	case Income, Expense:
		return true
	default:
		return false
	}
}

func (t TransactionType) String() string {
	return string(t)
}

// ParseTransactionType accepts the tag in any letter case.
func ParseTransactionType(s string) (TransactionType, error) {
	t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return fmt.Errorf("%w: date cannot be zero", ErrInvalidDate)
	}
	return nil
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// Today returns the current calendar date in UTC.
func Today() Date {
	y, m, d := time.Now().Date()
	return NewDate(y, int(m), d)
}

// IsEmpty returns true if the date is zero; an empty date is an absent bound.
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

// String formats the date as YYYY-MM-DD, or "" when empty.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// DaysUntil returns the whole number of days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Sub(d.Time).Hours() / 24)
}

// NewIncome builds and validates an income transaction.
func NewIncome(category string, amount decimal.Decimal, method string, date Date, description string) (Transaction, error) {
	t := Transaction{
		Type:        Income,
		Amount:      amount,
		Method:      method,
		Date:        date,
		Description: description,
		Category:    category,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// NewExpense builds and validates an expense transaction.
func NewExpense(category string, amount decimal.Decimal, method string, date Date, description string, details ExpenseDetails) (Transaction, error) {
	t := Transaction{
		Type:        Expense,
		Amount:      amount,
		Method:      method,
		Date:        date,
		Description: description,
		Category:    category,
		Expense:     &details,
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

func (t Transaction) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, t.Type)
	}
	if t.Amount.LessThan(MinAmount) {
		return fmt.Errorf("%w: %s is below %s", ErrInvalidAmount, t.Amount.String(), MinAmount.String())
	}
	if strings.TrimSpace(t.Method) == "" {
		return ErrEmptyMethod
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if (t.Type == Expense) != (t.Expense != nil) {
		return ErrVariantMismatch
	}
	return validateStruct(t)
}

// IsExpense reports whether the transaction carries the expense payload.
func (t Transaction) IsExpense() bool {
	return t.Type == Expense
}
