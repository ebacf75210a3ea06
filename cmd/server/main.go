// Package main is the entry point for the coldstore API server.
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

	"coldstore/internal/app"
	"coldstore/internal/config"
	"coldstore/internal/domain/documents/receipt"
	v1 "coldstore/internal/infrastructure/http/v1"
	"coldstore/internal/infrastructure/http/v1/handlers"
	"coldstore/internal/infrastructure/metrics"
	"coldstore/internal/infrastructure/ratecard"
	"coldstore/internal/infrastructure/storage/memory"
	"coldstore/internal/infrastructure/storage/postgres"
	"coldstore/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: cfg.Development(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting coldstore server", "storage", cfg.Storage, "env", cfg.AppEnv)

	m := metrics.New()

	backend, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalw("failed to open storage", "error", err)
	}
	defer backend.close()

	services := app.New(backend.storage, app.Options{
		TransferRates: receipt.TransferRates{
			Intra: cfg.IntraTransferRate,
			Inter: cfg.InterTransferRate,
		},
		Observer: m,
	})

	router := v1.NewRouter(v1.RouterConfig{
		Services: services,
		Logger:   log,
		Metrics:  m,
		Ready:    backend.ready,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Signals: SIGHUP reloads the rate card, SIGINT/SIGTERM stop ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	for sig := range quit {
		if sig != syscall.SIGHUP {
			break
		}
		if err := backend.reloadRates(ctx); err != nil {
			log.Errorw("rate card reload failed", "error", err)
		}
	}

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// backend is the opened storage plus its lifecycle hooks.
type backend struct {
	storage     app.Storage
	ready       handlers.ReadyFunc
	reloadRates func(ctx context.Context) error
	close       func()
}

func openStorage(ctx context.Context, cfg config.Config) (*backend, error) {
	if cfg.Storage == config.StoragePostgres {
		return openPostgres(ctx, cfg)
	}
	return openMemory(ctx, cfg)
}

func openMemory(ctx context.Context, cfg config.Config) (*backend, error) {
	store := memory.New()
	storage := app.MemoryStorage(store)
	b := &backend{
		storage:     storage,
		reloadRates: func(context.Context) error { return nil },
		close:       func() {},
	}

	if cfg.RateCardPath != "" {
		source, err := ratecard.Open(ctx, cfg.RateCardPath)
		if err != nil {
			return nil, err
		}
		b.storage.Rules = source
		b.reloadRates = source.Reload
	}

	logger.Warn(ctx, "using in-memory storage, data is lost on restart")
	return b, nil
}

func openPostgres(ctx context.Context, cfg config.Config) (*backend, error) {
	poolCfg := postgres.DefaultPoolConfig(cfg.DatabaseURL)
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	storage, repos, err := app.PostgresStorage(pool, cfg.TxTimeout)
	if err != nil {
		pool.Close()
		return nil, err
	}

	seed := func(ctx context.Context) error {
		if cfg.RateCardPath == "" {
			return nil
		}
		rules, err := ratecard.LoadFile(cfg.RateCardPath)
		if err != nil {
			return err
		}
		if err := repos.Rules.Replace(ctx, rules); err != nil {
			return fmt.Errorf("seed rate card: %w", err)
		}
		logger.Info(ctx, "rate card seeded", "rules", len(rules), "path", cfg.RateCardPath)
		return nil
	}
	if err := seed(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	pool.LogStats(ctx)

	return &backend{
		storage:     storage,
		ready:       func(ctx context.Context) error { return pool.Ping(ctx) },
		reloadRates: seed,
		close:       pool.Close,
	}, nil
}
