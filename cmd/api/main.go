package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"tiffinbox/internal/api"
	"tiffinbox/internal/cart"
	"tiffinbox/internal/checkout"
	"tiffinbox/internal/config"
	"tiffinbox/internal/db"
	"tiffinbox/internal/httpserver"
	"tiffinbox/internal/preload"
	"tiffinbox/internal/pricing"
	"tiffinbox/internal/storage"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[client] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dbpool *pgxpool.Pool
	var adapter storage.Adapter
	if cfg.DBConnString != "" {
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		dbpool = pool
		adapter = storage.NewPostgres(pool)
	} else {
		logger.Printf("no DB_DSN set, falling back to in-memory persistence")
		adapter = storage.NewMemory()
	}

	backend := api.New(cfg.BackendBaseURL, cfg.BackendToken, logger)

	store := cart.New(adapter, logger)
	defer store.Close()
	if err := store.Restore(ctx); err != nil {
		logger.Printf("warn: restore cart snapshot: %v", err)
	}

	reconciler := pricing.New(store, backend, logger)
	go reconciler.Run(ctx)

	cache := preload.NewCache()
	preloader := preload.NewPreloader(cache, []preload.Task{
		{Key: preload.KeyOrders, TTL: cfg.OrdersCacheTTL, Fetch: func(ctx context.Context) (any, error) {
			return backend.ListOrders(ctx, "")
		}},
		{Key: preload.KeyVouchers, TTL: cfg.PreloadCacheTTL, Fetch: func(ctx context.Context) (any, error) {
			return backend.ListVouchers(ctx)
		}},
		{Key: preload.KeySubscription, TTL: cfg.PreloadCacheTTL, Fetch: func(ctx context.Context) (any, error) {
			return backend.ActiveSubscription(ctx)
		}},
	}, logger)
	preloader.Start(ctx)

	orchestrator := checkout.New(store, reconciler, backend, backend, cache, logger)
	notes := storage.NewNoteStore(adapter)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Store:     store,
		Pricing:   reconciler,
		Checkout:  orchestrator,
		Cache:     cache,
		Preloader: preloader,
		Orders:    backend,
		Notes:     notes,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
