package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/core"
	"financialchecker/internal/estimate"
	applog "financialchecker/internal/log"
	"financialchecker/internal/metrics"
	"financialchecker/internal/middleware/ratelimit"
	"financialchecker/internal/middleware/security"
	"financialchecker/internal/middleware/trace"
	appweb "financialchecker/web"
)

// TransactionService records submissions and lists form choices;
// *services.TransactionService satisfies it.
type TransactionService interface {
	Create(ctx context.Context, tx core.Transaction) (string, error)
	Taxonomy(ctx context.Context) (core.Taxonomy, error)
}

// ViewSource serves fresh aggregate views; *aggregate.Builder satisfies it.
type ViewSource interface {
	estimate.ViewSource
	IncomeAmounts(ctx context.Context, w aggregate.Window) ([]decimal.Decimal, error)
	ExpenseAmounts(ctx context.Context, w aggregate.Window) ([]decimal.Decimal, error)
}

// Deps are the collaborators the server needs.
type Deps struct {
	Transactions TransactionService
	Views        ViewSource
	Logger       *applog.Logger

	// RateLimit zero fields take the limiter defaults.
	RateLimit ratelimit.Config

	// Today is overridable in tests.
	Today func() core.Date
}

// readyTimeout bounds the store read done by /readyz.
const readyTimeout = 5 * time.Second

type Server struct {
	http.Server
	templates *template.Template
	tx        TransactionService
	views     ViewSource
	limiter   *ratelimit.Limiter
	logger    *applog.Logger
	today     func() core.Date

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	today := deps.Today
	if today == nil {
		today = core.Today
	}

	s := &Server{
		tx:      deps.Transactions,
		views:   deps.Views,
		limiter: ratelimit.NewLimiter(deps.RateLimit),
		logger:  logger.WithComponent(applog.ComponentHTTP),
		today:   today,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", applog.FieldError, err)
	}
	s.templates = t

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(trace.NewMiddleware(logger, security.ClientIP).Handler)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssets(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", applog.FieldError, err)
	}

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.Middleware(security.ClientIP, s.onRateLimit))

		r.Get("/", s.handleIndex)
		r.Post("/transactions", s.handleCreateTransaction)
		r.Get("/stats", s.handleStats)
		r.Get("/api/rates", s.handleAPIRates)
		r.Get("/api/amounts", s.handleAPIAmounts)
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown stops the limiter's cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, security.ClientIP(r),
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleReady reports ready once the store can be read end to end.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()
	if _, _, err := s.views.Views(ctx); err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "Readiness check failed", applog.FieldError, err)
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", applog.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.FieldError, err, "template", name)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}
