// Package trace attaches a request-scoped logger and records per-request
// logs and metrics.
package trace

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	applog "financialchecker/internal/log"
	"financialchecker/internal/metrics"
)

// Middleware must run after chi's RequestID middleware so the id is set.
type Middleware struct {
	logger    *applog.Logger
	extractIP func(*http.Request) string
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *applog.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Middleware{
		logger:    logger.WithComponent(applog.ComponentHTTP),
		extractIP: extractIP,
	}
}

// Handler logs request start and completion and counts the request by
// route pattern and status code.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		reqLogger := m.logger.With(applog.FieldRequestID, requestID)
		ctx := applog.WithLogger(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		reqLogger.DebugContext(ctx, "HTTP request started",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP,
			applog.FieldUserAgent, r.Header.Get("User-Agent"))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(routePattern(r), strconv.Itoa(status)).Inc()
		applog.NewStructuredLogger(reqLogger).LogHTTPEnd(ctx, r, status, time.Since(start).Milliseconds(), clientIP)
	})
}

// routePattern keeps metric cardinality bounded: unmatched paths share one
// label.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
