package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/tendant/folklorico-media/internal/logging"
	"github.com/tendant/folklorico-media/pkg/dancemedia/config"
)

func main() {
	envHelp := flag.Bool("env-help", false, "print the recognized environment variables and exit")
	envFile := flag.String("env-file", ".env", "optional dotenv file loaded before reading the environment")
	flag.Parse()

	if *envHelp {
		fmt.Println(config.Usage())
		return
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "failed to load %s: %v\n", *envFile, err)
		os.Exit(1)
	}

	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	serverConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load server configuration: %w", err)
	}

	logger := logging.New(os.Stderr, serverConfig.Environment, serverConfig.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := serverConfig.Build(ctx, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	if removed, err := app.Service.SweepScratch(serverConfig.Media.ScratchMaxAge); err != nil {
		logger.Warn("scratch sweep failed", "dir", app.Service.ScratchRoot(), "error", err)
	} else if removed > 0 {
		logger.Info("removed stale scratch directories", "count", removed, "dir", app.Service.ScratchRoot())
	}

	httpServer := &http.Server{
		Addr:              ":" + serverConfig.Port,
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("folklorico media server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"storage", serverConfig.Storage.Backend,
			"auth", serverConfig.Auth.Mode,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}
