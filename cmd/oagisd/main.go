// Command oagisd runs the OAGIS message receiver daemon: an HTTP endpoint
// that dispatches inbound OAGIS documents to their business handlers and
// records them in the message store.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirosfoundation/go-oagis/internal/config"
	"github.com/sirosfoundation/go-oagis/internal/dispatch"
	"github.com/sirosfoundation/go-oagis/internal/server"
	"github.com/sirosfoundation/go-oagis/internal/storage/mongodb"
)

func main() {
	configPath := flag.String("config", "oagis.yaml", "path to configuration file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := mongodb.NewStore(ctx, &mongodb.Config{
		URI:      cfg.Storage.MongoDB.URI,
		Database: cfg.Storage.MongoDB.Database,
	})
	cancel()
	if err != nil {
		logger.Error("failed to connect to message store", "error", err)
		os.Exit(1)
	}

	dispatcher := dispatch.New(store, dispatch.Routes{
		ConfirmBOD: dispatch.NewConfirmBODReceiver(store, logger, cfg.Debug.CaptureInbound),
	}, &dispatch.Options{
		CaptureInbound: cfg.Debug.CaptureInbound,
		Logger:         logger,
	})

	srv := server.New(cfg, store, dispatcher, logger)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("server failed", "error", err)
			done <- syscall.SIGTERM
		}
	}()

	<-done
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("store close failed", "error", err)
	}
}
