package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu        sync.Mutex
	sheets    map[string][][]any
	failReads bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	rng, appendCall := strings.CutSuffix(rng, ":append")
	sheet, cells, _ := strings.Cut(rng, "!")

	switch {
	case r.Method == http.MethodGet:
		if f.failReads {
			http.Error(w, `{"error":{"code":500,"message":"backend error"}}`, http.StatusInternalServerError)
			return
		}
		rows := f.sheets[sheet]
		if strings.HasSuffix(cells, "1:J1") && len(rows) > 1 {
			rows = rows[:1]
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"range": rng, "values": rows})
	case r.Method == http.MethodPost && appendCall:
		var vr struct {
			Values [][]any `json:"values"`
		}
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sheets[sheet] = append(f.sheets[sheet], vr.Values...)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"updates": map[string]any{"updatedRange": rng, "updatedRows": len(vr.Values)},
		})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newFakeClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	if fake.sheets == nil {
		fake.sheets = map[string][][]any{}
	}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id"}, applog.Discard())
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, applog.Discard())
	require.Error(t, err)
	assert.Equal(t, "missing GOOGLE_SPREADSHEET_ID", err.Error())
}

func TestNew_MissingCredentials(t *testing.T) {
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, applog.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing service account credentials")
}

func TestClient_InsertThenFetch(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)
	ctx := context.Background()

	advance, firm, location := false, "Coop", "Roma"
	records := []core.Record{
		{Type: "EXPENSE", Amount: decimal.RequireFromString("4.5"), Method: "Cash", Date: "2024-03-02",
			Category: "Food", AdvancePayment: &advance, Firm: &firm, Location: &location},
		{Type: "INCOME", Amount: decimal.RequireFromString("1500"), Method: "Bank Transfer", Date: "2024-03-01",
			Category: "Salary"},
	}
	var ids []string
	for _, r := range records {
		id, err := c.Insert(ctx, r)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	require.Len(t, fake.sheets[DefaultTransactionsSheet], 3, "header plus two rows")

	got, err := c.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ids[0], got[0].ID)
	assert.Equal(t, "EXPENSE", got[0].Type)
	assert.Equal(t, "4.50", got[0].Amount.StringFixed(2))
	assert.Equal(t, "Coop", *got[0].Firm)
	assert.Equal(t, ids[1], got[1].ID)
	assert.False(t, got[1].HasExpenseDetails())
}

func TestClient_InsertRejectsInvalid(t *testing.T) {
	fake := &fakeSheets{}
	c := newFakeClient(t, fake)

	_, err := c.Insert(context.Background(), core.Record{Type: "INCOME", Amount: decimal.Zero, Method: "Cash", Date: "2024-01-01"})
	assert.ErrorIs(t, err, core.ErrInvalidAmount)
	assert.Empty(t, fake.sheets[DefaultTransactionsSheet])
}

func TestClient_FetchError(t *testing.T) {
	c := newFakeClient(t, &fakeSheets{failReads: true})
	_, err := c.FetchAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read Transactions!A:J")
}

func TestClient_Taxonomy(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{
		DefaultUtilitiesSheet: {
			{"type", "value"},
			{"PaymentMethod", "Card"},
			{"Category", "Rent"},
			{"PaymentMethod", "Cash"},
		},
	}}
	c := newFakeClient(t, fake)

	tax, err := c.Taxonomy(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Card", "Cash"}, tax.PaymentMethods)
	assert.Equal(t, []string{"Rent"}, tax.Categories)
}

func TestClient_NilService(t *testing.T) {
	c := &Client{spreadsheetID: "x"}
	_, err := c.FetchAll(context.Background())
	assert.Error(t, err)
	_, err = c.Taxonomy(context.Background())
	assert.Error(t, err)
	assert.NoError(t, c.Close())
}
