// Command order boots one order service replica.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazar/internal/config"
	"bazar/internal/invalidate"
	"bazar/internal/logs"
	"bazar/internal/order"
	"bazar/internal/peers"
	"bazar/internal/replication"
	"bazar/internal/store"
)

func main() {
	cfg := config.LoadOrder()
	logger := logs.Init("order", cfg.LogLevel)
	logger.Info("service starting", "addr", cfg.HTTPAddr)

	orders, err := store.OpenOrders(cfg.Database, logger)
	if err != nil {
		logger.Error("open order store", "error", err)
		os.Exit(1)
	}
	defer orders.Close()

	notifier := invalidate.NewNotifier(cfg.InvalidateURL, logger)
	replicaSet := peers.NewReplicaSet(cfg.SelfURL, cfg.ReplicaURLs)
	propagator := replication.NewPropagator(replicaSet, "/replica_purchase", logger)
	catalogPool := peers.NewPool(cfg.CatalogURLs)

	orchestrator := order.NewOrchestrator(orders, catalogPool, notifier, propagator, logger)
	applier := order.NewApplier(orders, logger)
	handler := order.NewHandler(orders, orchestrator, applier, logger)

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

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	logger.Info("service stopped")
}
