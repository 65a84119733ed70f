package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
)

// CategoryService is the category API the handlers call.
type CategoryService interface {
	List(ctx context.Context, caller core.Caller) ([]core.Category, error)
	Get(ctx context.Context, caller core.Caller, id uuid.UUID) (core.Category, error)
	Create(ctx context.Context, caller core.Caller, p core.CategoryPayload) (core.Category, error)
	Update(ctx context.Context, caller core.Caller, id uuid.UUID, p core.CategoryPayload) (core.Category, error)
	Delete(ctx context.Context, caller core.Caller, id uuid.UUID) error
}

// ExpenseService is the expense API the handlers call.
type ExpenseService interface {
	List(ctx context.Context, caller core.Caller, f core.ExpenseFilters) ([]core.Expense, error)
	Get(ctx context.Context, caller core.Caller, id uuid.UUID) (core.Expense, error)
	Create(ctx context.Context, caller core.Caller, p core.ExpensePayload) (core.Expense, error)
	Update(ctx context.Context, caller core.Caller, id uuid.UUID, p core.ExpensePayload) (core.Expense, error)
	Delete(ctx context.Context, caller core.Caller, id uuid.UUID) error
}

// Authenticator resolves a bearer token to a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (core.Caller, error)
}

// Pinger reports whether the database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options wires a Server.
type Options struct {
	Addr       string
	Categories CategoryService
	Expenses   ExpenseService
	Auth       Authenticator
	DB         Pinger
	Logger     *log.Logger
	// RateLimit caps write requests per client per minute; 0 disables it.
	RateLimit int
}

type Server struct {
	http.Server
	categories CategoryService
	expenses   ExpenseService
	auth       Authenticator
	db         Pinger
	logger     *log.Logger

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		categories: opts.Categories,
		expenses:   opts.Expenses,
		auth:       opts.Auth,
		db:         opts.DB,
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	handleBoth(mux, "GET", "/hello_ping", http.HandlerFunc(handleHelloPing))
	mux.HandleFunc("GET /{$}", handleIndex)

	handleBoth(mux, "GET", "/categories", s.authenticated(s.handleListCategories))
	handleBoth(mux, "POST", "/categories", s.authenticated(s.handleCreateCategory))
	handleBoth(mux, "GET", "/categories/{id}", s.authenticated(s.handleGetCategory))
	handleBoth(mux, "PUT", "/categories/{id}", s.authenticated(s.handleUpdateCategory))
	handleBoth(mux, "DELETE", "/categories/{id}", s.authenticated(s.handleDeleteCategory))

	handleBoth(mux, "GET", "/expenses", s.authenticated(s.handleListExpenses))
	handleBoth(mux, "POST", "/expenses", s.authenticated(s.handleCreateExpense))
	handleBoth(mux, "GET", "/expenses/{id}", s.authenticated(s.handleGetExpense))
	handleBoth(mux, "PUT", "/expenses/{id}", s.authenticated(s.handleUpdateExpense))
	handleBoth(mux, "DELETE", "/expenses/{id}", s.authenticated(s.handleDeleteExpense))

	detector := security.NewDetector(logger)
	var handler http.Handler = mux
	if opts.RateLimit > 0 {
		s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit})
		handler = s.limiter.Middleware(detector.ExtractClientIP, TooManyRequestsError,
			http.MethodPost, http.MethodPut, http.MethodDelete)(handler)
	}
	handler = log.RequestIDMiddleware(trace.RequestID)(handler)
	handler = trace.NewMiddleware(logger, detector.ExtractClientIP).Middleware(handler)
	handler = log.Middleware(logger)(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// handleBoth registers h for path with and without a trailing slash.
func handleBoth(mux *http.ServeMux, method, path string, h http.Handler) {
	mux.Handle(method+" "+path, h)
	mux.Handle(method+" "+path+"/{$}", h)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
