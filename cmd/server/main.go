package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Brownie44l1/bloodcell-api/internal/config"
	"github.com/Brownie44l1/bloodcell-api/internal/handlers"
	"github.com/Brownie44l1/bloodcell-api/internal/logging"
	"github.com/Brownie44l1/bloodcell-api/internal/model"
	"github.com/Brownie44l1/bloodcell-api/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server terminated: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	handle := model.NewHandle(cfg.ModelPath, model.NewLoader(model.SessionConfig{
		MetadataPath: cfg.MetadataPath,
		LibraryPath:  cfg.ORTLibraryPath,
		Taxonomy:     model.BloodCells,
	}), log)
	defer func() {
		if err := handle.Close(); err != nil {
			log.Warn("failed to release model", zap.Error(err))
		}
	}()

	if cfg.EagerLoad {
		if _, err := handle.Get(); err != nil {
			return err
		}
	}

	classifier := pipeline.New(handle, pipeline.WithLogger(log))
	handler := handlers.NewHandler(classifier, handle, cfg.MaxUploadBytes, log)

	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler.Routes(),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", server.Addr),
			zap.String("model", cfg.ModelPath),
			zap.Strings("classes", model.BloodCells))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
