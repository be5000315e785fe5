package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/stakebank/stakebank/internal/auth"
	"github.com/stakebank/stakebank/internal/chain"
	"github.com/stakebank/stakebank/internal/config"
	"github.com/stakebank/stakebank/internal/engine"
	"github.com/stakebank/stakebank/internal/metrics"
	"github.com/stakebank/stakebank/internal/middleware"
	"github.com/stakebank/stakebank/internal/service"
	"github.com/stakebank/stakebank/internal/storage/sqlite"
	"github.com/stakebank/stakebank/pkg/logging"
)

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// In-process chain collaborators. A deployment against a real chain
	// swaps these for RPC-backed implementations of the same interfaces.
	clock := chain.SystemClock{}
	ledger := chain.NewMemoryLedger()
	ledger.Credit(cfg.BankAccount, 1_000_000_0000)
	ledger.Credit(cfg.RelayAccount, 0)
	ledger.Credit(cfg.FundingAccount, 0)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	eng := engine.New(
		store,
		clock,
		ledger,
		&chain.LogDelegator{},
		&chain.LogDelegator{Proxy: true},
		m,
		engine.Accounts{
			Bank:    cfg.BankAccount,
			Relay:   cfg.RelayAccount,
			Reserve: cfg.ReserveAccount,
			Funding: cfg.FundingAccount,
		},
	)
	executor := chain.NewTimerExecutor(eng.ExpireBatch)
	defer executor.Stop()
	eng.SetExecutor(executor)

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.TokenDurationHours)*time.Hour)
	authenticator := auth.NewOperatorAuthenticator(store, clock.Now)

	if cfg.BootstrapOperator != "" {
		if err := bootstrapOperator(authenticator, cfg.BootstrapOperator, cfg.BootstrapPassword); err != nil {
			slog.Error("Failed to bootstrap operator", "error", err)
			os.Exit(1)
		}
	}

	// Public surface: deposits and operator login.
	mux := http.NewServeMux()
	service.NewDepositService(eng).Register(mux)
	service.NewAuthService(authenticator, jwtManager).Register(mux)
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	// Administrative surface behind operator auth.
	adminMux := http.NewServeMux()
	service.NewAdminService(eng).Register(adminMux)
	mux.Handle("/v1/admin/", middleware.RequireAuth(jwtManager)(adminMux))

	loggedHandler := middleware.Logging(mux)

	// Wrap with h2c for HTTP/2 without TLS
	h2cHandler := h2c.NewHandler(loggedHandler, &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Server starting", "address", addr, "bank", cfg.BankAccount)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// bootstrapOperator creates the initial operator account when missing.
func bootstrapOperator(authenticator *auth.OperatorAuthenticator, account, password string) error {
	_, err := authenticator.Register(context.Background(), account, password)
	if errors.Is(err, auth.ErrOperatorExists) {
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("Bootstrap operator created", "account", account)
	return nil
}
