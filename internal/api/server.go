package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/gastank"
	"github.com/quantumdesk/quantum-backend/internal/monitor"
	"github.com/quantumdesk/quantum-backend/internal/notifications"
	"github.com/quantumdesk/quantum-backend/internal/observability"
	"github.com/quantumdesk/quantum-backend/internal/repository"
)

const maxQueryLimit = 1000

// SchedulerStatus reports whether the background monitor loop is active.
type SchedulerStatus interface {
	Running() bool
}

// Deps are the services the API exposes.
type Deps struct {
	Positions *repository.PositionRepo
	GasTank   *repository.GasTankRepo
	Ledger    *gastank.Ledger
	Monitor   *monitor.Monitor
	Notify    *notifications.Sender
	Metrics   *observability.Metrics
	Scheduler SchedulerStatus // nil when the monitor loop is disabled

	// Onboarding defaults for new gas tank accounts.
	DefaultInitialBalance float64
	DefaultFeeRate        float64
}

type Server struct {
	pool       *pgxpool.Pool
	deps       Deps
	httpServer *http.Server
	apiKey     string
	log        *zap.Logger
}

func NewServer(pool *pgxpool.Pool, deps Deps, port int, apiKey, corsOrigin string, log *zap.Logger) *Server {
	s := &Server{
		pool:   pool,
		deps:   deps,
		apiKey: apiKey,
		log:    log.Named("api"),
	}

	mux := http.NewServeMux()

	// Monitor routes
	mux.HandleFunc("POST /v1/monitor/run", s.handleMonitorRun)

	// Position routes
	mux.HandleFunc("POST /v1/positions", s.handleCreatePosition)
	mux.HandleFunc("GET /v1/positions/open", s.handleOpenPositions)
	mux.HandleFunc("GET /v1/positions/closed", s.handleClosedPositions)
	mux.HandleFunc("GET /v1/positions/{id}", s.handleGetPosition)
	mux.HandleFunc("POST /v1/positions/{id}/close", s.handleManualClose)

	// Gas tank routes
	mux.HandleFunc("POST /v1/gas-tank/deduct-fee", s.handleDeductFee)
	mux.HandleFunc("POST /v1/gas-tank/accounts", s.handleCreateAccount)
	mux.HandleFunc("GET /v1/gas-tank/accounts/{userId}", s.handleGetAccount)
	mux.HandleFunc("GET /v1/gas-tank/accounts/{userId}/transactions", s.handleGetTransactions)

	// Health check and metrics (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// CORS runs outermost so OPTIONS preflight never hits auth.
	handler := corsMiddleware(s.authMiddleware(mux), corsOrigin)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return s
}

func (s *Server) Start() error {
	s.log.Info("REST API server started",
		zap.String("addr", s.httpServer.Addr),
		zap.Bool("auth", s.apiKey != ""))
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// --- middleware ---

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey == "" || r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		if auth == "" {
			writeError(w, http.StatusUnauthorized, "missing Authorization header")
			return
		}

		token := strings.TrimPrefix(auth, "Bearer ")
		if token == auth || token != s.apiKey {
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func corsMiddleware(next http.Handler, allowOrigin string) http.Handler {
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- validation helpers ---

func parseLimit(r *http.Request, defaultLimit int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultLimit
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return defaultLimit
	}
	if n > maxQueryLimit {
		return maxQueryLimit
	}
	return n
}

// --- response helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
