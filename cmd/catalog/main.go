// Command catalog boots one catalog service replica.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazar/internal/catalog"
	"bazar/internal/config"
	"bazar/internal/invalidate"
	"bazar/internal/logs"
	"bazar/internal/peers"
	"bazar/internal/replication"
	"bazar/internal/store"
)

func main() {
	cfg := config.LoadCatalog()
	logger := logs.Init("catalog", cfg.LogLevel)
	logger.Info("service starting", "addr", cfg.HTTPAddr, "primary", cfg.Primary)

	books, err := store.OpenBooks(cfg.Database, logger)
	if err != nil {
		logger.Error("open catalog store", "error", err)
		os.Exit(1)
	}
	defer books.Close()

	notifier := invalidate.NewNotifier(cfg.InvalidateURL, logger)
	replicaSet := peers.NewReplicaSet(cfg.SelfURL, cfg.ReplicaURLs)
	propagator := replication.NewPropagator(replicaSet, "/replica_update", logger)

	svc := catalog.NewService(books, notifier, propagator, logger)
	applier := catalog.NewApplier(books, cfg.RestockAmount, logger)
	handler := catalog.NewHandler(books, svc, applier, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Primary {
		restocker := catalog.NewRestocker(svc, cfg.RestockInterval, cfg.RestockAmount, logger)
		go restocker.Start(ctx)
		logger.Info("restock loop started", "interval", cfg.RestockInterval.String(), "amount", cfg.RestockAmount)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("http listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	logger.Info("shutdown signal", "signal", s.String())

	cancel()

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("service stopped")
}
