package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	applog "financialchecker/internal/log"
)

// sanitizeInput removes control characters other than tab and newlines and
// trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// formatRate renders a rate with two decimals, or a notice when the window
// held too little data.
func formatRate(v float64, finite bool) string {
	if !finite {
		return "insufficient data"
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// ratePtr maps non-finite rates to nil so they encode as JSON null.
func ratePtr(v float64, finite bool) *float64 {
	if !finite {
		return nil
	}
	return &v
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "JSON encoding failed", applog.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, errorBody{Error: msg})
}
