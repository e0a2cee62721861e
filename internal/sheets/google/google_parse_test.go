package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financialchecker/internal/core"
)

func TestParseTransactions_HeaderDriven(t *testing.T) {
	values := [][]any{
		{"Date", "Type", "Amount", "Transaction_Method", "Category", "Firm", "Location", "Advance_Payment", "Description", "Id"},
		{"2024-01-02", "expense", "12,50", "Cash", "Food", "Coop", "Roma", "TRUE", "lunch", "a1"},
		{"", "", "", "", "", "", "", "", "", ""},
		{"2024-01-03", "INCOME", "1000", "Bank Transfer", "Salary"},
	}

	got, err := parseTransactions(values)
	require.NoError(t, err)
	require.Len(t, got, 2)

	exp := got[0]
	assert.Equal(t, "a1", exp.ID)
	assert.Equal(t, "EXPENSE", exp.Type)
	assert.Equal(t, "12.50", exp.Amount.StringFixed(2))
	require.NotNil(t, exp.AdvancePayment)
	assert.True(t, *exp.AdvancePayment)
	assert.Equal(t, "Coop", *exp.Firm)
	assert.Equal(t, "Roma", *exp.Location)

	inc := got[1]
	assert.Equal(t, "4", inc.ID, "row number used when the id cell is empty")
	assert.Equal(t, "INCOME", inc.Type)
	assert.False(t, inc.HasExpenseDetails())
	_, err = core.ParseRecord(inc)
	assert.NoError(t, err)
}

func TestParseTransactions_MissingColumns(t *testing.T) {
	_, err := parseTransactions([][]any{{"id", "type", "description"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing amount,transaction_method,date")
}

func TestParseTransactions_BadAmount(t *testing.T) {
	_, err := parseTransactions([][]any{
		headerRow(),
		{"1", "INCOME", "ten", "Cash", "2024-01-01"},
	})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
}

func TestParseTransactions_Empty(t *testing.T) {
	got, err := parseTransactions(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecordRowMatchesHeader(t *testing.T) {
	advance, firm, location := false, "Bar", "Torino"
	r := core.Record{ID: "x", Type: "EXPENSE", Method: "Card", Date: "2024-02-01", Category: "Out",
		AdvancePayment: &advance, Firm: &firm, Location: &location}
	row := recordRow(r)
	require.Len(t, row, len(columns))

	back, err := parseTransactions([][]any{headerRow(), row})
	require.NoError(t, err)
	require.Len(t, back, 1)
	assert.Equal(t, "Torino", *back[0].Location)
	assert.Equal(t, "2024-02-01", back[0].Date)
}

func TestParseUtilities(t *testing.T) {
	tax := parseUtilities([][]any{
		{"type", "value"},
		{"Category", "Rent"},
		{"Category", "Food"},
		{"Category", "Food"},
		{"#Category", "Disabled"},
		{"PaymentMethod", "Cash"},
		{"Firm", ""},
		{"Location"},
	})
	assert.Equal(t, []string{"Food", "Rent"}, tax.Categories)
	assert.Equal(t, []string{"Cash"}, tax.PaymentMethods)
	assert.Empty(t, tax.Firms)
	assert.Empty(t, tax.Locations)
}
