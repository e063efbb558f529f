package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	relay "github.com/goliatone/go-contact-relay"
	"github.com/goliatone/go-contact-relay/adapters/gologger"
	"github.com/goliatone/go-contact-relay/core"
	"github.com/joho/godotenv"
)

const shutdownGrace = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	bootLogger := gologger.NewSlogLogger(core.LogConfig{Level: "info", Format: "json"}, os.Stderr)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		bootLogger.Warn("could not load .env file", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := relay.LoadConfig(ctx)
	if err != nil {
		bootLogger.Error("invalid configuration", "error", err.Error())
		return 1
	}

	logger := gologger.NewSlogLogger(cfg.Log, os.Stdout)
	logger.Info("configuration loaded", "config", core.RedactedConfig(cfg))

	r, err := relay.New(ctx, cfg,
		relay.WithLogger(logger),
		relay.WithLoggerProvider(gologger.NewProvider(logger)),
	)
	if err != nil {
		logger.Error("relay setup failed", "error", err.Error())
		return 1
	}
	defer func() {
		if err := r.Close(); err != nil {
			logger.Warn("relay close failed", "error", err.Error())
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- r.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.Error("server stopped", "error", err.Error())
			return 1
		}
		return 0
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err.Error())
		return 1
	}
	if err := <-serveErr; err != nil {
		logger.Error("server stopped", "error", err.Error())
		return 1
	}
	logger.Info("server stopped")
	return 0
}
