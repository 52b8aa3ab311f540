package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/nutricalc-api/calculator"
	"github.com/giygas/nutricalc-api/config"
	"github.com/giygas/nutricalc-api/handlers"
	"github.com/giygas/nutricalc-api/health"
	"github.com/giygas/nutricalc-api/history"
	"github.com/giygas/nutricalc-api/logging"
	"github.com/giygas/nutricalc-api/scheduler"
	"github.com/giygas/nutricalc-api/server"
	"github.com/giygas/nutricalc-api/validation"
	"github.com/joho/godotenv"
)

func loadEnv() error {
	// Get the working directory and read the env variables
	if err := godotenv.Load(); err == nil {
		return nil
	}

	// If failed, try loading from executable directory
	ex, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}
	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		return fmt.Errorf("failed to change directory: %w", err)
	}

	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()
	return nil
}

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	logging.Debug("Configuration loaded", "from_env", config.SetEnvVars(), "expected", len(config.GetEnvVars()))

	calc := calculator.New()
	store := history.NewStore(cfg.HistoryLimit)
	validator := validation.NewRequestValidator()
	healthChecker := health.NewHealthChecker(calc, store)
	httpHandler := handlers.NewHTTPHandler(calc, store, validator, healthChecker)

	sched := scheduler.NewScheduler(store, cfg.HistoryRetention())
	if err := sched.Start(); err != nil {
		logging.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(cfg, httpHandler)

	// Channel to listen for interrupt signals
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logging.Info("Starting server",
			"address", cfg.Address+":"+cfg.Port,
			"env", cfg.Env.String(),
			"formulas", len(calc.Formulas()),
			"history_limit", cfg.HistoryLimit)

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Block until a signal is received
	<-quit
	logging.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	} else {
		logging.Info("Server exited gracefully")
	}

	sched.Stop()
	logging.Info("Server shutdown complete")

	if err := logging.Close(); err != nil {
		fmt.Fprintln(os.Stderr, "failed to close log file:", err)
	}
}
