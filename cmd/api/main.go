package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/solademi/account-ledger/internal/config"
	"github.com/solademi/account-ledger/internal/handler"
	"github.com/solademi/account-ledger/internal/lock"
	"github.com/solademi/account-ledger/internal/logging"
	"github.com/solademi/account-ledger/internal/middleware"
	"github.com/solademi/account-ledger/internal/repository"
	"github.com/solademi/account-ledger/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Init("account-ledger-api", cfg.LogLevel, cfg.AppEnv)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	db, err := connectDB(ctx, cfg)
	cancel()
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	locker, err := newLocker(cfg)
	if err != nil {
		slog.Error("failed to initialize account locking", "error", err)
		os.Exit(1)
	}

	users := repository.NewUserRepository(db)
	accounts := repository.NewAccountRepository(db)
	transactions := repository.NewTransactionRepository(db)

	accountSvc := service.NewAccountService(users, accounts, db, cfg.MaxAccountsPerUser)
	transactionSvc := service.NewTransactionService(users, accounts, transactions, locker, db)

	accountHandler := handler.NewAccountHandler(accountSvc)
	transactionHandler := handler.NewTransactionHandler(transactionSvc)
	healthHandler := handler.NewHealthHandler(db)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /account", accountHandler.Create)
	mux.HandleFunc("DELETE /account", accountHandler.Close)
	mux.HandleFunc("GET /account", accountHandler.List)
	mux.HandleFunc("POST /transaction/use", transactionHandler.Use)
	mux.HandleFunc("POST /transaction/cancel", transactionHandler.Cancel)
	mux.HandleFunc("GET /transaction/{transactionId}", transactionHandler.Get)
	mux.HandleFunc("GET /account/{accountNumber}/transactions", transactionHandler.History)
	mux.HandleFunc("GET /health/live", healthHandler.Liveness)
	mux.HandleFunc("GET /health/ready", healthHandler.Readiness)

	root := middleware.Tracing(middleware.Logging(middleware.Recovery(mux)))

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           root,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("server started", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

func connectDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	pool := repository.PoolConfig{
		MaxOpenConns:     cfg.DBMaxOpenConns,
		MaxIdleConns:     cfg.DBMaxIdleConns,
		ConnMaxLifetimeS: cfg.DBConnMaxLifetimeS,
		ConnMaxIdleTimeS: cfg.DBConnMaxIdleTimeS,
	}

	var lastErr error
	for i := range 30 {
		db, err := repository.NewPostgresDB(ctx, cfg.DatabaseURL, pool)
		if err == nil {
			return db, nil
		}
		lastErr = err
		slog.Info("waiting for database", "attempt", i+1)

		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return nil, fmt.Errorf("connectDB: %w", ctx.Err())
		}
	}

	return nil, fmt.Errorf("connectDB: gave up after 30 attempts: %w", lastErr)
}

func newLocker(cfg *config.Config) (lock.Locker, error) {
	timeout := time.Duration(cfg.LockTimeoutMS) * time.Millisecond

	if cfg.RedisURL == "" {
		return lock.NewKeyed(timeout), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("newLocker: parse redis url: %w", err)
	}

	expiry := time.Duration(cfg.LockExpiryMS) * time.Millisecond
	return lock.NewRedis(redis.NewClient(opts), expiry, timeout), nil
}
