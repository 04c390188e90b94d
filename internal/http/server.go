package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"expensedash/internal/core"
	applog "expensedash/internal/log"
	metricsmw "expensedash/internal/middleware/metrics"
	"expensedash/internal/middleware/ratelimit"
	"expensedash/internal/middleware/security"
	"expensedash/internal/middleware/trace"
	"expensedash/internal/ports"
	"expensedash/internal/receipt"
	"expensedash/internal/services"
	"expensedash/internal/session"
)

// receiptMaxAge is how long browsers may cache a stored receipt.
const receiptMaxAge = 24 * 60 * 60

// Deps are the collaborators the handlers call.
type Deps struct {
	Expenses     *services.ExpenseService
	Budgets      *services.BudgetService
	Analytics    *services.AnalyticsService
	Categories   ports.CategoryReader
	Session      *session.Holder
	Receipts     *receipt.Processor
	ReceiptStore *receipt.FileStore

	// Ready reports whether the data backend is reachable. May be nil.
	Ready func(ctx context.Context) error
	// Today supplies the default reference date. Defaults to services.Today.
	Today func() core.Date
}

// Options tune the server's outer layers.
type Options struct {
	RateLimitRPM    int
	MaxReceiptBytes int64
	Logger          *applog.Logger
}

type Server struct {
	http.Server
	deps      Deps
	opts      Options
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	startedAt time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if deps.Today == nil {
		deps.Today = services.Today
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}

	s := &Server{
		deps:      deps,
		opts:      opts,
		detector:  security.NewDetector(),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		startedAt: time.Now(),
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.middleware(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		RouteNotFoundError().Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		MethodNotAllowedError().Write(w)
	})
	r.Use(metricsmw.Middleware)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	receipts := r.PathPrefix("/receipts").Subrouter()
	receipts.Use(security.PrivateCacheMiddleware(receiptMaxAge))
	receipts.HandleFunc("/{name}", s.handleGetReceipt).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(security.NoStoreMiddleware)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods(http.MethodDelete)

	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)

	api.HandleFunc("/budgets/progress", s.handleBudgetProgress).Methods(http.MethodGet)
	api.HandleFunc("/budgets/suggestions", s.handleListSuggestions).Methods(http.MethodGet)
	api.HandleFunc("/budgets/suggestions", s.handleGenerateSuggestions).Methods(http.MethodPost)
	api.HandleFunc("/budgets/suggestions/{id}/apply", s.handleApplySuggestion).Methods(http.MethodPost)
	api.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", s.handleCreateBudget).Methods(http.MethodPost)
	api.HandleFunc("/budgets/{id}", s.handleUpdateBudget).Methods(http.MethodPut)
	api.HandleFunc("/budgets/{id}", s.handleDeleteBudget).Methods(http.MethodDelete)

	api.HandleFunc("/analytics", s.handleAnalytics).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	api.HandleFunc("/receipts", s.handleUploadReceipt).Methods(http.MethodPost)

	return r
}

// middleware wraps h from the outside in: tracing, logger, security
// headers, attack detection, write rate limit.
func (s *Server) middleware(h http.Handler) http.Handler {
	onLimit := func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError().Write(w)
	}
	h = s.limiter.Middleware(s.detector.ExtractClientIP, onLimit)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = applog.Middleware(s.opts.Logger.WithComponent(applog.ComponentHTTP))(h)
	h = trace.NewMiddleware(s.detector.ExtractClientIP).Middleware(h)
	return h
}

// Shutdown stops background routines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// writeError logs err with its class and sends the error envelope.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	kind := core.Kind(err)
	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().
		WithOperation(operation).
		WithRequestID(trace.GetRequestID(r.Context())).
		WithError(err, kind)

	switch kind {
	case "validation", "not_found":
		logger.WarnContext(r.Context(), "Request rejected", fields.ToSlice()...)
	default:
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, kind, applog.ComponentHTTP, operation, fields)
	}
	ErrorResponse(err).Write(w)
}

// writeDecodeError answers a body that could not be decoded.
func (s *Server) writeDecodeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	if StatusFor(err) == http.StatusRequestEntityTooLarge {
		ErrorResponse(err).Write(w)
		return
	}
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Malformed request body",
		"operation", operation, "error", err)
	BadRequestError(err.Error()).Write(w)
}
