package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
)

func newTempRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "test.db"), applog.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func expenseRecord(date, amount string) core.Record {
	advance, firm, location := true, "Coop", "Milano"
	return core.Record{
		Type:           core.Expense.String(),
		Amount:         decimal.RequireFromString(amount),
		Method:         "Cash",
		Date:           date,
		Description:    "weekly shop",
		Category:       "Groceries",
		AdvancePayment: &advance,
		Firm:           &firm,
		Location:       &location,
	}
}

func incomeRecord(date, amount string) core.Record {
	return core.Record{
		Type:     core.Income.String(),
		Amount:   decimal.RequireFromString(amount),
		Method:   "Bank Transfer",
		Date:     date,
		Category: "Salary",
	}
}

func TestSQLiteRoundTripInOrder(t *testing.T) {
	repo := newTempRepo(t)
	ctx := context.Background()

	inputs := []core.Record{
		expenseRecord("2024-01-03", "12.5"),
		incomeRecord("2024-01-01", "2500"),
		expenseRecord("2024-01-02", "7.25"),
	}
	var ids []string
	for _, in := range inputs {
		id, err := repo.Insert(ctx, in)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)

	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, r := range got {
		assert.Equal(t, ids[i], r.ID)
		assert.Equal(t, inputs[i].Type, r.Type)
		assert.Equal(t, inputs[i].Date, r.Date)
		assert.Equal(t, inputs[i].Method, r.Method)
		assert.True(t, inputs[i].Amount.Equal(r.Amount), "amount %s != %s", inputs[i].Amount, r.Amount)
	}

	require.NotNil(t, got[0].AdvancePayment)
	assert.True(t, *got[0].AdvancePayment)
	require.NotNil(t, got[0].Firm)
	assert.Equal(t, "Coop", *got[0].Firm)
	assert.False(t, got[1].HasExpenseDetails())
}

func TestSQLiteInsertRejectsInvalidRecord(t *testing.T) {
	repo := newTempRepo(t)
	bad := incomeRecord("2024-01-01", "10")
	bad.Date = "2024/01/01"

	_, err := repo.Insert(context.Background(), bad)
	assert.ErrorIs(t, err, core.ErrInvalidDate)

	got, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLiteInsertStoresCanonicalTypeTag(t *testing.T) {
	repo := newTempRepo(t)
	ctx := context.Background()

	in := incomeRecord("2024-01-01", "300")
	in.Type = "Income"
	_, err := repo.Insert(ctx, in)
	require.NoError(t, err)

	got, err := repo.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "INCOME", got[0].Type)
}

func TestSQLiteTaxonomy(t *testing.T) {
	repo := newTempRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.AddUtility(ctx, core.UtilityCategory, "Rent"))
	require.NoError(t, repo.AddUtility(ctx, core.UtilityCategory, "Food"))
	require.NoError(t, repo.AddUtility(ctx, core.UtilityCategory, "Food"))
	require.NoError(t, repo.AddUtility(ctx, core.UtilityFirm, "Coop"))
	assert.Error(t, repo.AddUtility(ctx, core.UtilityLocation, ""))

	tax, err := repo.Taxonomy(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Food", "Rent"}, tax.Categories)
	assert.Equal(t, []string{"Coop"}, tax.Firms)
	// Seeded by migration.
	assert.Contains(t, tax.PaymentMethods, "Cash")
	assert.Empty(t, tax.Locations)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	repo, err := NewSQLiteRepository(path, applog.Discard())
	require.NoError(t, err)
	_, err = repo.Insert(context.Background(), incomeRecord("2024-05-01", "10"))
	require.NoError(t, err)
	require.NoError(t, repo.Close())
	require.NoError(t, repo.Close())

	repo, err = NewSQLiteRepository(path, applog.Discard())
	require.NoError(t, err)
	defer repo.Close()
	got, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func newMockRepo(t *testing.T) (*SQLiteRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteRepositoryFromDB(db, applog.Discard()), mock
}

func TestFetchAllPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("database is locked")
	mock.ExpectQuery(selectTransactions).WillReturnError(boom)

	_, err := repo.FetchAll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAllPropagatesRowError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("disk I/O error")
	cols := []string{"id", "type", "amount", "transaction_method", "date", "description", "category",
		"advance_payment", "firm", "location"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(1), "INCOME", "10.00", "Cash", "2024-01-01", "", "Salary", nil, nil, nil).
		AddRow(int64(2), "EXPENSE", "5.00", "Cash", "2024-01-02", "", "Food", true, "Coop", "Roma").
		RowError(1, boom)
	mock.ExpectQuery(selectTransactions).WillReturnRows(rows)

	_, err := repo.FetchAll(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFetchAllMapsNullableColumns(t *testing.T) {
	repo, mock := newMockRepo(t)
	cols := []string{"id", "type", "amount", "transaction_method", "date", "description", "category",
		"advance_payment", "firm", "location"}
	rows := sqlmock.NewRows(cols).
		AddRow(int64(1), "INCOME", "10.00", "Cash", "2024-01-01", "", "Salary", nil, nil, nil).
		AddRow(int64(2), "EXPENSE", "5.50", "Card", "2024-01-02", "lunch", "Food", false, "Bar", "Roma")
	mock.ExpectQuery(selectTransactions).WillReturnRows(rows)

	got, err := repo.FetchAll(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.False(t, got[0].HasExpenseDetails())
	assert.Equal(t, "5.50", got[1].Amount.StringFixed(2))
	require.NotNil(t, got[1].AdvancePayment)
	assert.False(t, *got[1].AdvancePayment)
	assert.Equal(t, "Roma", *got[1].Location)
}

func TestInsertPropagatesExecError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("constraint failed")
	mock.ExpectExec(insertTransaction).WillReturnError(boom)

	_, err := repo.Insert(context.Background(), incomeRecord("2024-01-01", "10"))
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturnsLastInsertID(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(insertTransaction).
		WithArgs("EXPENSE", "12.50", "Cash", "2024-01-03", "weekly shop", "Groceries", true, "Coop", "Milano").
		WillReturnResult(sqlmock.NewResult(42, 1))

	id, err := repo.Insert(context.Background(), expenseRecord("2024-01-03", "12.5"))
	require.NoError(t, err)
	assert.Equal(t, "42", id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaxonomyPropagatesQueryError(t *testing.T) {
	repo, mock := newMockRepo(t)
	boom := errors.New("no such table: utilities")
	mock.ExpectQuery(selectUtilities).WillReturnError(boom)

	_, err := repo.Taxonomy(context.Background())
	assert.ErrorIs(t, err, boom)
}
