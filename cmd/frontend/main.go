// Command frontend boots the gateway.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazar/internal/cache"
	"bazar/internal/config"
	"bazar/internal/frontend"
	"bazar/internal/logs"
	"bazar/internal/peers"
)

func main() {
	cfg := config.LoadFrontend()
	logger := logs.Init("frontend", cfg.LogLevel)
	logger.Info("service starting", "addr", cfg.HTTPAddr, "cache_capacity", cfg.CacheCapacity)

	gateway := frontend.NewGateway(
		cache.NewLRU(cfg.CacheCapacity),
		peers.NewPool(cfg.CatalogURLs),
		peers.NewPool(cfg.OrderURLs),
		logger,
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           gateway.Routes(),
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
