// Package http serves the transaction form, the rates pages and the JSON
// API.
//
// This file implements utilities for parsing and validating HTTP request data.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/core"
	"financialchecker/internal/estimate"
)

// maxBodyBytes bounds a transaction submission.
const maxBodyBytes = 64 << 10

// ParseWindowParams reads the optional start and end query parameters.
// Either bound may be omitted; a malformed one is an error.
func ParseWindowParams(query url.Values) (aggregate.Window, error) {
	var w aggregate.Window
	var err error
	if w.Start, err = parseOptionalDate(query.Get("start")); err != nil {
		return aggregate.Window{}, fmt.Errorf("start: %w", err)
	}
	if w.End, err = parseOptionalDate(query.Get("end")); err != nil {
		return aggregate.Window{}, fmt.Errorf("end: %w", err)
	}
	return w, nil
}

func parseOptionalDate(s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}

// ParsePeriodParam reads the period query parameter; empty means daily.
func ParsePeriodParam(query url.Values) (estimate.Period, error) {
	return estimate.ParsePeriod(query.Get("period"))
}

// RequestBodyParser reads a body once and serves fields from either JSON or
// form encoding, as sent by htmx or API clients.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser reads the request body. Bodies over maxBodyBytes
// fail to parse; see TooLarge.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// TooLarge reports whether the body exceeded maxBodyBytes.
func (p *RequestBodyParser) TooLarge() bool {
	var mbe *http.MaxBytesError
	return errors.As(p.err, &mbe)
}

// Parse decodes the body as JSON when it looks like an object, otherwise as
// form values.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}
	if trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		p.err = json.Unmarshal(p.body, &p.jsonData)
		return p.err
	}
	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns the sanitized value for key, or "".
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseTransaction builds a transaction from submitted fields. The date
// defaults to today; income uses income_category when present.
func ParseTransaction(p *RequestBodyParser, today core.Date) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(p.Get("type"))
	if err != nil {
		return core.Transaction{}, err
	}

	amount, err := core.ParseAmount(p.Get("amount"))
	if err != nil {
		return core.Transaction{}, err
	}

	date := today
	if v := p.Get("date"); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return core.Transaction{}, err
		}
	}

	method := p.Get("transaction_method")
	if method == "" {
		method = p.Get("method")
	}
	description := p.Get("description")
	category := p.Get("category")

	if typ == core.Income {
		if v := p.Get("income_category"); v != "" {
			category = v
		}
		return core.NewIncome(category, amount, method, date, description)
	}
	return core.NewExpense(category, amount, method, date, description, core.ExpenseDetails{
		AdvancePayment: parseBool(p.Get("advance_payment")),
		Firm:           p.Get("firm"),
		Location:       p.Get("location"),
	})
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}
