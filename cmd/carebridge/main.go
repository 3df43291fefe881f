package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge-dev/carebridge/internal/router"
	"github.com/carebridge-dev/carebridge/internal/setup"
	"github.com/carebridge-dev/carebridge/shared/config"
	"github.com/carebridge-dev/carebridge/shared/logger"
)

const (
	readTimeout     = 15 * time.Second
	writeTimeout    = 2 * time.Minute // attachment uploads are proxied synchronously
	shutdownTimeout = 10 * time.Second
	evictInterval   = time.Minute
)

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

	deps, err := setup.SetupDependencies(cfg)
	if err != nil {
		logger.Log.Error("failed to initialize dependencies", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps.Sessions.StartBackgroundEviction(ctx, evictInterval)
	for _, l := range deps.RateLimiters.All() {
		l.StartBackgroundSweep(ctx, evictInterval)
	}

	server := &http.Server{
		Addr:         cfg.Public.ListenAddr,
		Handler:      router.New(deps),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	go func() {
		logger.Log.Info("server started", "addr", server.Addr, "api_base_url", cfg.Public.ApiBaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("graceful shutdown failed", "error", err)
	}
	deps.Sessions.Close()
}
