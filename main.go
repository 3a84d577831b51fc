package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/lipidcare-api/config"
	"github.com/giygas/lipidcare-api/data"
	"github.com/giygas/lipidcare-api/engine"
	"github.com/giygas/lipidcare-api/handlers"
	"github.com/giygas/lipidcare-api/health"
	"github.com/giygas/lipidcare-api/logging"
	"github.com/giygas/lipidcare-api/scheduler"
	"github.com/giygas/lipidcare-api/selfcheck"
	"github.com/giygas/lipidcare-api/server"
	"github.com/joho/godotenv"
)

func main() {
	if err := loadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load environment: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logging.InitLoggerWithRetentionAndSize("logs", cfg.Env, cfg.LogLevel, cfg.LogRetentionWeeks, cfg.MaxLogFileSize)
	defer logging.Close()

	if err := run(cfg); err != nil {
		logging.Error("Fatal error", "error", err)
		logging.Close()
		os.Exit(1)
	}
}

// application holds the wired components of the service
type application struct {
	store     *data.ReportContainer
	scheduler *scheduler.Scheduler
	server    *server.Server
}

// newApplication wires the engine, the self-check loop and the HTTP server.
// The scheduler is created but not started.
func newApplication(cfg *config.Config) (*application, error) {
	decisionEngine, err := engine.New(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	store := data.NewReportContainer()
	store.SetServerStartTime(time.Now())

	checker := selfcheck.NewChecker(decisionEngine)
	healthChecker := health.NewHealthChecker(store, cfg.SelfCheckInterval)
	httpHandler := handlers.NewHTTPHandler(decisionEngine, store, healthChecker)

	return &application{
		store:     store,
		scheduler: scheduler.NewScheduler(store, checker, cfg.SelfCheckInterval),
		server:    server.NewServer(cfg, httpHandler),
	}, nil
}

func run(cfg *config.Config) error {
	logging.Info("Configuration loaded",
		"env", cfg.Env,
		"address", cfg.Address,
		"port", cfg.Port,
		"self_check_interval", cfg.SelfCheckInterval.String(),
		"lpa_conversion", cfg.Engine.LpaConversion.Version)

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}

	if err := app.scheduler.Start(); err != nil {
		// The report is stored and later checks still run; keep serving
		logging.Error("Self-check failed at startup", "error", err)
	}
	defer app.scheduler.Stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return app.server.Shutdown(ctx)
}

// loadEnv reads .env from the working directory, falling back to the
// executable's directory. A missing file is not an error.
func loadEnv() error {
	if err := godotenv.Load(); err == nil {
		return nil
	}

	ex, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		return fmt.Errorf("failed to change directory: %w", err)
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	return nil
}
