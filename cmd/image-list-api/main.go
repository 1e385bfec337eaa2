package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"riprocess-image-list/internal/api"
	"riprocess-image-list/internal/api/handler"
	"riprocess-image-list/internal/config"
	"riprocess-image-list/internal/store"
	"riprocess-image-list/pkg/router"
	"riprocess-image-list/pkg/utils"
)

// @title image-list API
// @version 1.0
// @description Matches camera images to timestamp records and serves the resulting lists.
// @BasePath /api/v1
func main() {
	var envFile string
	flag.StringVar(&envFile, "env", "", "load environment from this file (default .env if present)")
	flag.Parse()

	if err := config.LoadEnv(envFile); err != nil {
		slog.Error("failed to load env file", "err", err)
		os.Exit(1)
	}
	settings := config.FromEnv()
	if settings.LogLevel > slog.LevelInfo {
		settings.LogLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: settings.LogLevel}))
	slog.SetDefault(logger)

	dbPath := settings.DB
	if dbPath == "" {
		dbPath = "image-list.db"
	}
	st, err := store.Open(dbPath)
	if err != nil {
		logger.Error("failed to open database", "path", dbPath, "err", err)
		os.Exit(1)
	}
	defer st.Close()

	outputs := utils.NewOutputManager(settings.OutputDir)
	if err := outputs.EnsureOutputDirExists(); err != nil {
		logger.Error("failed to create output directory", "path", settings.OutputDir, "err", err)
		os.Exit(1)
	}

	h := &handler.Handler{
		Store:      st,
		Outputs:    outputs,
		ConfigRoot: settings.ConfigRoot,
		RunTimeout: settings.RunTimeout,
		Logger:     logger,
	}
	r := router.New(logger)
	api.RegisterRoutes(r, h)
	srv := r.Server(settings.Addr)

	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", settings.Addr, "db", dbPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-done:
	case err := <-errCh:
		logger.Error("listen failed", "err", err)
		st.Close()
		os.Exit(1)
	}
	logger.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", "err", err)
		_ = srv.Close()
	}
	logger.Info("server stopped")
}
