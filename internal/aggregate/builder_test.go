package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
)

type stubFetcher struct {
	records []core.Record
	err     error
	calls   int
}

func (s *stubFetcher) FetchAll(context.Context) ([]core.Record, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Record(nil), s.records...), nil
}

func rec(id, typ, date, amount string) core.Record {
	return core.Record{ID: id, Type: typ, Date: date, Amount: decimal.RequireFromString(amount), Method: "Card"}
}

func newTestBuilder(f *stubFetcher) *Builder {
	return NewBuilder(f, WithLogger(applog.Discard()))
}

func amountsOf(t *testing.T, ds []decimal.Decimal) []string {
	t.Helper()
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.StringFixed(2)
	}
	return out
}

func TestPartitionIsDisjointAndExhaustive(t *testing.T) {
	faker := gofakeit.New(42)
	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)

	records := make([]core.Record, 200)
	for i := range records {
		typ := faker.RandomString([]string{"INCOME", "EXPENSE"})
		records[i] = core.Record{
			ID:       faker.UUID(),
			Type:     typ,
			Amount:   decimal.NewFromFloat(faker.Float64Range(0.01, 5000)).Round(2),
			Method:   faker.RandomString([]string{"Cash", "Card", "Bank Transfer"}),
			Date:     faker.DateRange(from, to).Format(core.DateLayout),
			Category: faker.Word(),
		}
	}

	expense, income, err := Partition(records)
	require.NoError(t, err)
	assert.Equal(t, len(records), expense.Len()+income.Len())

	seen := map[string]core.TransactionType{}
	for _, r := range expense.Rows {
		assert.Equal(t, "EXPENSE", r.Record.Type)
		seen[r.Record.ID] = core.Expense
	}
	for _, r := range income.Rows {
		assert.Equal(t, "INCOME", r.Record.Type)
		_, dup := seen[r.Record.ID]
		assert.False(t, dup, "record %s in both views", r.Record.ID)
		seen[r.Record.ID] = core.Income
	}
	assert.Len(t, seen, len(records))
}

func TestPartitionKeepsStoreOrder(t *testing.T) {
	expense, _, err := Partition([]core.Record{
		rec("1", "EXPENSE", "2024-01-05", "5"),
		rec("2", "EXPENSE", "2024-01-01", "1"),
		rec("3", "EXPENSE", "2024-01-03", "3"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"5.00", "1.00", "3.00"}, amountsOf(t, expense.Amounts()))
}

func TestPartitionRejectsBadRecords(t *testing.T) {
	_, _, err := Partition([]core.Record{rec("1", "EXPENSE", "01/05/2024", "5")})
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	_, _, err = Partition([]core.Record{rec("1", "TRANSFER", "2024-01-05", "5")})
	assert.ErrorIs(t, err, core.ErrInvalidType)
}

func TestPartitionAcceptsAnyTagCase(t *testing.T) {
	expense, income, err := Partition([]core.Record{
		rec("1", "income", "2024-01-01", "100"),
		rec("2", "Expense", "2024-01-02", "5"),
	})
	require.NoError(t, err)
	require.Equal(t, 1, income.Len())
	require.Equal(t, 1, expense.Len())
	assert.Equal(t, "INCOME", income.Rows[0].Record.Type)
	assert.Equal(t, "EXPENSE", expense.Rows[0].Record.Type)
}

func TestAmountFilters(t *testing.T) {
	f := &stubFetcher{records: []core.Record{
		rec("1", "INCOME", "2024-01-01", "100"),
		rec("2", "EXPENSE", "2024-01-02", "10"),
		rec("3", "INCOME", "2024-01-10", "200"),
		rec("4", "INCOME", "2024-01-20", "300"),
		rec("5", "EXPENSE", "2024-01-20", "30"),
	}}
	b := newTestBuilder(f)
	ctx := context.Background()

	tests := []struct {
		name string
		w    Window
		want []string
	}{
		{"no bounds", Window{}, []string{"100.00", "200.00", "300.00"}},
		{"start only", Window{Start: core.NewDate(2024, 1, 10)}, []string{"200.00", "300.00"}},
		{"end only", Window{End: core.NewDate(2024, 1, 10)}, []string{"100.00", "200.00"}},
		{"both bounds", Window{Start: core.NewDate(2024, 1, 2), End: core.NewDate(2024, 1, 19)}, []string{"200.00"}},
		{"inclusive both ends", Window{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 20)}, []string{"100.00", "200.00", "300.00"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := b.IncomeAmounts(ctx, tt.w)
			require.NoError(t, err)
			assert.Equal(t, tt.want, amountsOf(t, got))
		})
	}

	exp, err := b.ExpenseAmounts(ctx, Window{End: core.NewDate(2024, 1, 5)})
	require.NoError(t, err)
	assert.Equal(t, []string{"10.00"}, amountsOf(t, exp))
}

func TestNoBoundsIsIdentity(t *testing.T) {
	f := &stubFetcher{records: []core.Record{
		rec("1", "EXPENSE", "2024-03-01", "1.5"),
		rec("2", "EXPENSE", "2023-03-01", "2.5"),
	}}
	b := newTestBuilder(f)

	view, err := b.ExpenseView(context.Background())
	require.NoError(t, err)
	got, err := b.ExpenseAmounts(context.Background(), Window{})
	require.NoError(t, err)
	assert.Equal(t, view.Amounts(), got)
}

func TestSingleDateWindow(t *testing.T) {
	d := core.NewDate(2024, 6, 1)
	f := &stubFetcher{records: []core.Record{
		rec("1", "EXPENSE", "2024-06-01", "4"),
		rec("2", "EXPENSE", "2024-06-01", "6"),
	}}
	b := newTestBuilder(f)

	got, err := b.ExpenseAmounts(context.Background(), Window{Start: d, End: d})
	require.NoError(t, err)
	assert.Equal(t, []string{"4.00", "6.00"}, amountsOf(t, got))

	got, err = b.ExpenseAmounts(context.Background(), Window{Start: core.NewDate(2024, 6, 2), End: core.NewDate(2024, 6, 2)})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEveryReadRefreshes(t *testing.T) {
	f := &stubFetcher{}
	b := newTestBuilder(f)
	ctx := context.Background()

	got, err := b.IncomeAmounts(ctx, Window{})
	require.NoError(t, err)
	assert.Empty(t, got)

	f.records = append(f.records, rec("1", "INCOME", "2024-01-01", "9"))
	got, err = b.IncomeAmounts(ctx, Window{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, f.calls)
}

func TestEmptyStore(t *testing.T) {
	b := newTestBuilder(&stubFetcher{})
	ctx := context.Background()

	income, err := b.IncomeView(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, income.Len())

	for _, w := range []Window{{}, {Start: core.NewDate(2024, 1, 1)}, {End: core.NewDate(2024, 1, 1)}} {
		got, err := b.ExpenseAmounts(ctx, w)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	b := newTestBuilder(&stubFetcher{err: boom})

	_, err := b.IncomeAmounts(context.Background(), Window{})
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, b.Refresh(context.Background()), boom)
}
