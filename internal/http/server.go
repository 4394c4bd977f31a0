package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/cache"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/services"
)

// Server wires the HTTP API over the service layer. Analytics responses are
// cached per URL and invalidated on every write, so a burst of dashboard
// refreshes costs one engine run.
type Server struct {
	http.Server

	transactions *services.TransactionService
	imports      *services.ImportService
	analytics    *services.AnalyticsService
	recurring    *services.RecurringService

	rateLimiter    *rateLimiter
	analyticsCache *cache.LRU[[]byte]

	stopCacheCleanup chan struct{}
	shutdownOnce     sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ts *services.TransactionService, is *services.ImportService, as *services.AnalyticsService, rs *services.RecurringService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		transactions:     ts,
		imports:          is,
		analytics:        as,
		recurring:        rs,
		rateLimiter:      newRateLimiter(),
		analyticsCache:   cache.New[[]byte](200, 5*time.Minute),
		stopCacheCleanup: make(chan struct{}),
	}

	go s.startCacheCleanup()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("GET /transactions", s.withMiddleware(s.handleListTransactions))
	mux.HandleFunc("POST /transactions", s.withMiddleware(s.handleCreateTransaction))
	mux.HandleFunc("GET /transactions/{id}", s.withMiddleware(s.handleGetTransaction))
	mux.HandleFunc("PUT /transactions/{id}", s.withMiddleware(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /transactions/{id}", s.withMiddleware(s.handleDeleteTransaction))

	mux.HandleFunc("POST /imports", s.withMiddleware(s.handleImport))
	mux.HandleFunc("GET /imports", s.withMiddleware(s.handleImportHistory))

	mux.HandleFunc("GET /analytics/dashboard", s.withMiddleware(s.cached(s.handleDashboard)))
	mux.HandleFunc("GET /analytics/categories", s.withMiddleware(s.cached(s.handleCategories)))
	mux.HandleFunc("GET /analytics/trends", s.withMiddleware(s.cached(s.handleTrends)))
	mux.HandleFunc("GET /analytics/correlated", s.withMiddleware(s.cached(s.handleCorrelated)))
	mux.HandleFunc("GET /analytics/anomalies", s.withMiddleware(s.cached(s.handleAnomalies)))

	mux.HandleFunc("GET /recurring-payments", s.withMiddleware(s.handleListRecurring))
	mux.HandleFunc("POST /recurring-payments", s.withMiddleware(s.handleCreateRecurring))
	mux.HandleFunc("GET /recurring-payments/summary", s.withMiddleware(s.handleRecurringSummary))
	mux.HandleFunc("POST /recurring-payments/generate", s.withMiddleware(s.handleGenerateRecords))
	mux.HandleFunc("GET /recurring-payments/{id}", s.withMiddleware(s.handleGetRecurring))
	mux.HandleFunc("PUT /recurring-payments/{id}", s.withMiddleware(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /recurring-payments/{id}", s.withMiddleware(s.handleDeleteRecurring))

	mux.HandleFunc("GET /payment-records", s.withMiddleware(s.handleListPaymentRecords))
	mux.HandleFunc("GET /payment-records/upcoming", s.withMiddleware(s.handleUpcoming))
	mux.HandleFunc("GET /payment-records/overdue", s.withMiddleware(s.handleOverdue))
	mux.HandleFunc("POST /payment-records/{id}/pay", s.withMiddleware(s.handleMarkPaid))
	mux.HandleFunc("POST /payment-records/{id}/skip", s.withMiddleware(s.handleSkip))

	return s
}

func (s *Server) startCacheCleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if cleaned := s.analyticsCache.CleanExpired(); cleaned > 0 {
				slog.Debug("Cache cleanup completed", "entries_removed", cleaned)
			}
		case <-s.stopCacheCleanup:
			return
		}
	}
}

// invalidateAnalytics drops every cached analytics response. Called after any
// write that can change the numbers.
func (s *Server) invalidateAnalytics() {
	s.analyticsCache.Purge()
}

// Shutdown stops the cleanup goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.stopCacheCleanup != nil {
			close(s.stopCacheCleanup)
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
