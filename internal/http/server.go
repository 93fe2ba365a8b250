package http

import (
	"context"
	"net/http"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// The handler layer depends on narrow ports rather than the concrete
// services so tests can swap in fakes.
type (
	TransactionAPI interface {
		Create(ctx context.Context, tx core.Transaction) (core.Transaction, error)
		Get(ctx context.Context, userID, id string) (core.Transaction, error)
		Update(ctx context.Context, userID, id string, upd core.TransactionUpdate) (core.Transaction, error)
		Delete(ctx context.Context, userID, id string) error
		List(ctx context.Context, userID string, f core.Filter, p core.Page) ([]core.Transaction, int, error)
	}

	AggregationAPI interface {
		Aggregate(ctx context.Context, userID string, start, end *core.Date) (core.Report, error)
	}

	ReceiptAPI interface {
		Process(ctx context.Context, data []byte, mimeType string) (core.Draft, error)
	}

	// Pinger reports store connectivity for the readiness probe.
	Pinger interface {
		PingContext(ctx context.Context) error
	}
)

type Server struct {
	transactions   TransactionAPI
	aggregations   AggregationAPI
	receipts       ReceiptAPI
	verifier       TokenVerifier
	store          Pinger
	uploadMaxBytes int64
}

type ServerConfig struct {
	Transactions   TransactionAPI
	Aggregations   AggregationAPI
	Receipts       ReceiptAPI
	Verifier       TokenVerifier
	Store          Pinger
	UploadMaxBytes int64
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		transactions:   cfg.Transactions,
		aggregations:   cfg.Aggregations,
		receipts:       cfg.Receipts,
		verifier:       cfg.Verifier,
		store:          cfg.Store,
		uploadMaxBytes: cfg.UploadMaxBytes,
	}
}

// Handler wires the routes. Probes stay outside the auth middleware; every
// /api route requires a verified bearer token.
func (s *Server) Handler(logger *log.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	api.HandleFunc("GET /api/transactions", s.handleListTransactions)
	api.HandleFunc("GET /api/transactions/aggregations", s.handleAggregations)
	api.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	api.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	api.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	api.HandleFunc("POST /api/receipts/upload", s.handleReceiptUpload)
	mux.Handle("/api/", requireAuth(s.verifier, api))

	return log.Middleware(logger)(mux)
}

// HTTPServer builds the http.Server with the timeouts the service runs
// with in production.
func (s *Server) HTTPServer(addr string, logger *log.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.Handler(logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if s.store != nil {
		if err := s.store.PingContext(ctx); err != nil {
			writeError(w, r, core.StorageUnavailable("store not reachable", err))
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
