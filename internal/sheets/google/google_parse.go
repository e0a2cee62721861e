package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"financialchecker/internal/core"
)

// Column names of the transactions sheet header, in write order.
var columns = []string{
	"id", "type", "amount", "transaction_method", "date",
	"description", "category", "advance_payment", "firm", "location",
}

var requiredColumns = []string{"type", "amount", "transaction_method", "date"}

func headerRow() []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = c
	}
	return out
}

func recordRow(r core.Record) []any {
	advance, firm, location := "", "", ""
	if r.AdvancePayment != nil {
		advance = strconv.FormatBool(*r.AdvancePayment)
	}
	if r.Firm != nil {
		firm = *r.Firm
	}
	if r.Location != nil {
		location = *r.Location
	}
	return []any{
		r.ID, r.Type, r.Amount.StringFixed(2), r.Method, r.Date,
		r.Description, r.Category, advance, firm, location,
	}
}

// parseTransactions maps a values matrix to records using the header row
// to locate columns, so columns may be reordered in the sheet.
func parseTransactions(values [][]any) ([]core.Record, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	idx := make(map[string]int, len(columns))
	for _, c := range columns {
		idx[c] = indexOf(headers, c)
	}
	var missing []string
	for _, c := range requiredColumns {
		if idx[c] == -1 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected transactions header: missing %s; got headers=%v",
			strings.Join(missing, ","), headers)
	}

	out := make([]core.Record, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		row := toStrings(values[i])
		if isBlank(row) {
			continue
		}
		get := func(col string) string { return safeGet(row, idx[col]) }

		amount, err := parseAmount(get("amount"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		r := core.Record{
			ID:          get("id"),
			Type:        strings.ToUpper(get("type")),
			Amount:      amount,
			Method:      get("transaction_method"),
			Date:        get("date"),
			Description: get("description"),
			Category:    get("category"),
		}
		if r.ID == "" {
			r.ID = strconv.Itoa(i + 1)
		}
		if core.TransactionType(r.Type) == core.Expense {
			advance, _ := strconv.ParseBool(get("advance_payment"))
			firm, location := get("firm"), get("location")
			r.AdvancePayment, r.Firm, r.Location = &advance, &firm, &location
		}
		out = append(out, r)
	}
	return out, nil
}

// parseUtilities builds a taxonomy from (type, value) rows. Header, blank
// and '#' comment rows are skipped. Values are deduplicated and sorted.
func parseUtilities(values [][]any) core.Taxonomy {
	var t core.Taxonomy
	seen := map[string]struct{}{}
	for _, raw := range values {
		row := toStrings(raw)
		kind, value := safeGet(row, 0), safeGet(row, 1)
		if value == "" || strings.HasPrefix(kind, "#") || strings.EqualFold(kind, "type") {
			continue
		}
		key := kind + "\x00" + value
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		t.Add(kind, value)
	}
	for _, list := range [][]string{t.Categories, t.IncomeCategories, t.PaymentMethods, t.Firms, t.Locations} {
		sort.Strings(list)
	}
	return t
}

// parseAmount accepts both decimal separators, as typed into a sheet.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, s)
	}
	return d, nil
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
