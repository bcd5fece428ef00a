package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/quantumdesk/quantum-backend/internal/api"
	"github.com/quantumdesk/quantum-backend/internal/config"
	"github.com/quantumdesk/quantum-backend/internal/db"
	"github.com/quantumdesk/quantum-backend/internal/exchange"
	"github.com/quantumdesk/quantum-backend/internal/gastank"
	"github.com/quantumdesk/quantum-backend/internal/logger"
	"github.com/quantumdesk/quantum-backend/internal/monitor"
	"github.com/quantumdesk/quantum-backend/internal/notifications"
	"github.com/quantumdesk/quantum-backend/internal/observability"
	"github.com/quantumdesk/quantum-backend/internal/repository"
	"github.com/quantumdesk/quantum-backend/internal/scheduler"
)

const banner = `
╔══════════════════════════════════════╗
║      Quantum Trade Backend v0.3      ║
║                                      ║
╚══════════════════════════════════════╝
`

func main() {
	fmt.Print(banner)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	cfg.Print()

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	// Database
	log.Info("connecting to database",
		zap.String("host", cfg.DBHost), zap.Int("port", cfg.DBPort), zap.String("name", cfg.DBName))
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.Connect(connectCtx, cfg.DSN())
	if err != nil {
		cancelConnect()
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer func() {
		pool.Close()
		log.Info("database connection pool closed")
	}()

	if err := db.Verify(connectCtx, pool); err != nil {
		cancelConnect()
		log.Fatal("database schema check failed", zap.Error(err))
	}
	cancelConnect()

	// Repos
	positionRepo := repository.NewPositionRepo(pool)
	gasTankRepo := repository.NewGasTankRepo(pool)

	// Price sources: Binance primary, CoinGecko fallback
	prices := exchange.NewChain(log,
		exchange.NewBinanceClient(cfg.BinanceBaseURL),
		exchange.NewCoinGeckoClient(cfg.CoinGeckoBaseURL),
	)

	// Services
	metrics := observability.NewMetrics("quantum_backend")
	notify := notifications.NewSender(cfg.WebhookURL, cfg.BotName, log)
	ledger := gastank.NewLedger(gasTankRepo, log)
	mon := monitor.New(positionRepo, prices, metrics, log)

	// Graceful shutdown context
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Position monitor scheduler (built first so /health can report it)
	var sched *scheduler.MonitorScheduler
	if cfg.MonitorEnabled {
		sched = scheduler.NewMonitorScheduler(mon, notify, scheduler.MonitorSchedulerConfig{
			Interval:   time.Duration(cfg.MonitorIntervalSeconds) * time.Second,
			RunTimeout: time.Duration(cfg.PriceFetchTimeoutSeconds+30) * time.Second,
		}, log)
	} else {
		log.Info("monitor scheduler disabled by config")
	}

	// 1. API server
	deps := api.Deps{
		Positions:             positionRepo,
		GasTank:               gasTankRepo,
		Ledger:                ledger,
		Monitor:               mon,
		Notify:                notify,
		Metrics:               metrics,
		DefaultInitialBalance: cfg.DefaultInitialBalance,
		DefaultFeeRate:        cfg.DefaultFeeRate,
	}
	if sched != nil {
		deps.Scheduler = sched
	}
	srv := api.NewServer(pool, deps, cfg.APIPort, cfg.APIKey, cfg.CORSAllowOrigin, log)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("API server error", zap.Error(err))
		}
	}()

	// 2. Position monitor loop
	if sched != nil {
		sched.Start()
	}

	log.Info("all services started")

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info("shutting down gracefully")

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("API shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}
