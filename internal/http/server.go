// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"mastercoin/internal/core"
	"mastercoin/internal/log"
	"mastercoin/internal/middleware/ratelimit"
	"mastercoin/internal/middleware/security"
	"mastercoin/internal/services"
	"mastercoin/internal/sheets"
)

// LedgerService is the read and ingest surface the API serves.
type LedgerService interface {
	Current() (*services.Dataset, bool)
	Ingest(ctx context.Context, reader sheets.WorkbookReader, source string) (*services.Dataset, error)
	Calculate(ctx context.Context, month string) (core.Result, error)
	Snapshots(ctx context.Context) ([]services.MonthSnapshot, error)
	Trends() ([]core.PillarTrendPoint, error)
	Months() ([]string, error)
	Transactions(month string) ([]core.Transaction, error)
}

// Reloader re-ingests the configured workbook source.
type Reloader interface {
	Reload(ctx context.Context, source string) (*services.Dataset, error)
}

// Options configures the server. Zero values select defaults.
type Options struct {
	Logger         *log.Logger
	Reloader       Reloader
	MaxUploadBytes int64
	UploadLimit    ratelimit.Config
}

type Server struct {
	http.Server
	ledger    LedgerService
	reloader  Reloader
	logger    *log.Logger
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	maxUpload int64
	started   time.Time

	shutdownOnce sync.Once
}

const defaultMaxUpload = 20 << 20

// NewServer configures routes and middleware, returning a ready-to-run
// server.
func NewServer(addr string, ledger LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUpload
	}

	s := &Server{
		ledger:    ledger,
		reloader:  opts.Reloader,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(opts.UploadLimit),
		detector:  security.NewDetector(),
		maxUpload: maxUpload,
		started:   time.Now(),
	}
	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(log.Middleware(s.logger))
	r.Use(log.RequestIDMiddleware)
	r.Use(log.AccessLog(log.NewStructuredLogger(s.logger)))
	r.Use(chimw.Recoverer)
	r.Use(security.Headers(security.DefaultHeadersConfig()))
	r.Use(s.detector.Middleware)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	limited := s.limiter.Middleware(s.detector.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/dataset", s.handleDataset)
		r.Get("/months", s.handleMonths)
		r.Get("/summary", s.handleSummary)
		r.Get("/transactions", s.handleTransactions)
		r.Get("/trends", s.handleTrends)
		r.Get("/snapshots", s.handleSnapshots)
		r.Get("/protocol", s.handleProtocol)
		r.With(limited).Post("/ingest", s.handleIngest)
		r.With(limited).Post("/reload", s.handleReload)
	})

	return r
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
