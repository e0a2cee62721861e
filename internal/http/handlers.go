package http

import (
	"fmt"
	"net/http"

	"financialchecker/internal/core"
	applog "financialchecker/internal/log"
)

type indexPage struct {
	Title         string
	Today         string
	Taxonomy      core.Taxonomy
	TaxonomyError bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := indexPage{Title: "Record transaction", Today: s.today().String()}

	tax, err := s.tx.Taxonomy(ctx)
	if err != nil {
		applog.FromContext(ctx).ErrorContext(ctx, "Taxonomy read failed", applog.FieldError, err)
		data.TaxonomyError = true
		tax = core.Taxonomy{}.WithDefaults(core.Taxonomy{})
	}
	data.Taxonomy = tax

	s.render(w, r, "index.html", data)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)

	p := NewRequestBodyParser(w, r)
	if err := p.Parse(); err != nil {
		logger.WarnContext(ctx, "Request body parse failed", applog.FieldError, err)
		if p.TooLarge() {
			createError(w, r, p, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		createError(w, r, p, http.StatusBadRequest, "Malformed request body")
		return
	}

	tx, err := ParseTransaction(p, s.today())
	if err != nil {
		createError(w, r, p, http.StatusBadRequest, "Invalid transaction: "+err.Error())
		return
	}

	id, err := s.tx.Create(ctx, tx)
	if err != nil {
		if core.IsValidationError(err) {
			createError(w, r, p, http.StatusBadRequest, "Invalid transaction: "+err.Error())
			return
		}
		applog.NewStructuredLogger(logger).LogError(ctx, "Transaction insert failed", err,
			applog.ComponentHTTP, applog.OpCreate,
			applog.NewFields().WithTransaction("", tx.Type.String(), core.FormatAmount(tx.Amount), tx.Category, tx.Date.String()))
		createError(w, r, p, http.StatusInternalServerError, "The transaction could not be saved")
		return
	}

	if p.IsJSON() {
		writeJSON(w, r, http.StatusCreated, createdJSON{
			ID:     id,
			Type:   tx.Type.String(),
			Amount: core.FormatAmount(tx.Amount),
			Date:   tx.Date.String(),
		})
		return
	}
	msg := fmt.Sprintf("%s saved (#%s): %s on %s", label(tx.Type), id, core.FormatAmount(tx.Amount), tx.Date)
	SuccessResponse(msg).
		TriggerTransactionCreated(id, tx.Type.String(), tx.Date.String()).
		TriggerFormReset().
		Write(w)
}

type createdJSON struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Amount string `json:"amount"`
	Date   string `json:"date"`
}

// createError answers JSON submissions with a JSON error and everything
// else with an htmx fragment.
func createError(w http.ResponseWriter, r *http.Request, p *RequestBodyParser, status int, msg string) {
	if p.IsJSON() {
		writeJSONError(w, r, status, msg)
		return
	}
	ErrorResponse(status, msg).Write(w)
}

func label(t core.TransactionType) string {
	if t == core.Income {
		return "Income"
	}
	return "Expense"
}

