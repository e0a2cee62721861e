package http

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"financialchecker/internal/core"
	"financialchecker/internal/estimate"
	applog "financialchecker/internal/log"
)

type statsRow struct {
	Period   estimate.Period
	Income   string
	Expense  string
	Selected bool
}

type statsPage struct {
	Title   string
	Start   string
	End     string
	Period  estimate.Period
	Periods []estimate.Period
	Summary estimate.Summary
	Rows    []statsRow
}

// estimateFromQuery builds an estimator for the start and end parameters.
// The bool result is false when a response has already been written.
func (s *Server) estimateFromQuery(w http.ResponseWriter, r *http.Request, htmlErrors bool) (*estimate.Estimator, bool) {
	ctx := r.Context()
	win, err := ParseWindowParams(r.URL.Query())
	if err != nil {
		if htmlErrors {
			BadRequestError("Invalid date: " + err.Error()).Write(w)
		} else {
			writeJSONError(w, r, http.StatusBadRequest, err.Error())
		}
		return nil, false
	}

	e, err := estimate.New(ctx, s.views, win.Start, win.End)
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(ctx)).LogError(ctx, "Estimator construction failed", err,
			applog.ComponentHTTP, applog.OpEstimate,
			applog.NewFields().WithWindow(win.Start.String(), win.End.String()))
		if htmlErrors {
			InternalServerError("The store could not be read").Write(w)
		} else {
			writeJSONError(w, r, http.StatusInternalServerError, "store unavailable")
		}
		return nil, false
	}
	return e, true
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	e, ok := s.estimateFromQuery(w, r, true)
	if !ok {
		return
	}

	sum := e.Summary(false)
	data := statsPage{
		Title:   "Rates of change",
		Start:   r.URL.Query().Get("start"),
		End:     r.URL.Query().Get("end"),
		Period:  period,
		Periods: estimate.Periods(),
		Summary: sum,
		Rows:    make([]statsRow, 0, len(sum.Rates)),
	}
	for _, rate := range sum.Rates {
		data.Rows = append(data.Rows, statsRow{
			Period:   rate.Period,
			Income:   formatRate(rate.Income, rate.IncomeFinite),
			Expense:  formatRate(rate.Expense, rate.ExpenseFinite),
			Selected: rate.Period == period,
		})
	}
	s.render(w, r, "stats.html", data)
}

type rateJSON struct {
	Period           estimate.Period `json:"period"`
	Income           *float64        `json:"income"`
	Expense          *float64        `json:"expense"`
	InsufficientData bool            `json:"insufficient_data"`
}

type ratesJSON struct {
	Start        string     `json:"start"`
	End          string     `json:"end"`
	IncomeCount  int        `json:"income_count"`
	ExpenseCount int        `json:"expense_count"`
	Rates        []rateJSON `json:"rates"`
}

// handleAPIRates returns both rates for every period, or only the one
// named by the period parameter. Rates that are not finite encode as null.
func (s *Server) handleAPIRates(w http.ResponseWriter, r *http.Request) {
	var only estimate.Period
	if v := strings.TrimSpace(r.URL.Query().Get("period")); v != "" {
		p, err := estimate.ParsePeriod(v)
		if err != nil {
			writeJSONError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		only = p
	}
	e, ok := s.estimateFromQuery(w, r, false)
	if !ok {
		return
	}

	sum := e.Summary(false)
	out := ratesJSON{
		Start:        sum.Start.String(),
		End:          sum.End.String(),
		IncomeCount:  sum.IncomeCount,
		ExpenseCount: sum.ExpenseCount,
		Rates:        make([]rateJSON, 0, len(sum.Rates)),
	}
	for _, rate := range sum.Rates {
		if only != "" && rate.Period != only {
			continue
		}
		out.Rates = append(out.Rates, rateJSON{
			Period:           rate.Period,
			Income:           ratePtr(rate.Income, rate.IncomeFinite),
			Expense:          ratePtr(rate.Expense, rate.ExpenseFinite),
			InsufficientData: !rate.IncomeFinite || !rate.ExpenseFinite,
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

type amountsJSON struct {
	Type    string   `json:"type"`
	Start   string   `json:"start,omitempty"`
	End     string   `json:"end,omitempty"`
	Amounts []string `json:"amounts"`
	Total   string   `json:"total"`
}

// handleAPIAmounts lists the amounts of one type inside the optional
// window, in store order.
func (s *Server) handleAPIAmounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	typ, err := core.ParseTransactionType(q.Get("type"))
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	win, err := ParseWindowParams(q)
	if err != nil {
		writeJSONError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	var amounts []decimal.Decimal
	if typ == core.Income {
		amounts, err = s.views.IncomeAmounts(ctx, win)
	} else {
		amounts, err = s.views.ExpenseAmounts(ctx, win)
	}
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Amount listing failed",
			applog.FieldError, err,
			applog.FieldType, typ.String())
		writeJSONError(w, r, http.StatusInternalServerError, "store unavailable")
		return
	}

	out := amountsJSON{
		Type:    typ.String(),
		Start:   win.Start.String(),
		End:     win.End.String(),
		Amounts: make([]string, 0, len(amounts)),
	}
	total := decimal.Zero
	for _, a := range amounts {
		out.Amounts = append(out.Amounts, core.FormatAmount(a))
		total = total.Add(a)
	}
	out.Total = core.FormatAmount(total)
	writeJSON(w, r, http.StatusOK, out)
}
