/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present), then parse flags; env vars set flag defaults
  2. Build the slog logger
  3. Open the store (SQLite or PostgreSQL)
  4. Load the payroll config file, if any
  5. Create API handler and start the monthly payroll scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS (environment variable in brackets):
  -port      HTTP server port [PAYROLL_PORT] (default: 8080)
  -driver    sqlite or postgres [PAYROLL_DRIVER] (default: sqlite)
  -db        SQLite database path [PAYROLL_DB] (default: payroll.db)
             Use ":memory:" for in-memory database
  -dsn       PostgreSQL DSN [PAYROLL_DSN]
  -config    Payroll config file, .json or .yaml [PAYROLL_CONFIG]
  -cron      Payroll run schedule, "off" disables [PAYROLL_CRON]
  -log-level debug, info, warn, error [LOG_LEVEL]
  -log-format text or json [LOG_FORMAT]

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler, waiting for a running payroll run
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server -db="./data/payroll.db" -config=payroll.yaml
  ./server -driver=postgres -dsn="host=localhost user=payroll dbname=payroll"
  ./server -db=":memory:" -cron=off -log-level=debug

SEE ALSO:
  - api/server.go: Router configuration
  - jobs/scheduler.go: Monthly payroll run
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/jobs"
	"github.com/warp/payroll-engine/logging"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/store/postgres"
	"github.com/warp/payroll-engine/store/sqlite"
	gormlogger "gorm.io/gorm/logger"
)

type storeCloser interface {
	api.Store
	io.Closer
}

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	port := flag.String("port", envOr("PAYROLL_PORT", "8080"), "HTTP server port")
	driver := flag.String("driver", envOr("PAYROLL_DRIVER", "sqlite"), "Store driver: sqlite or postgres")
	dbPath := flag.String("db", envOr("PAYROLL_DB", "payroll.db"), "SQLite database path")
	dsn := flag.String("dsn", os.Getenv("PAYROLL_DSN"), "PostgreSQL DSN")
	configPath := flag.String("config", os.Getenv("PAYROLL_CONFIG"), "Payroll config file (.json, .yaml)")
	schedule := flag.String("cron", envOr("PAYROLL_CRON", jobs.DefaultSchedule), `Payroll run schedule, "off" to disable`)
	logLevel := flag.String("log-level", envOr("LOG_LEVEL", "info"), "Log level")
	logFormat := flag.String("log-format", envOr("LOG_FORMAT", "text"), "Log format: text or json")
	flag.Parse()

	logger := logging.New(logging.Config{Level: *logLevel, Format: *logFormat})
	slog.SetDefault(logger)

	if err := run(logger, *port, *driver, *dbPath, *dsn, *configPath, *schedule); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, port, driver, dbPath, dsn, configPath, schedule string) error {
	store, err := openStore(driver, dbPath, dsn)
	if err != nil {
		return err
	}
	defer store.Close()

	cfg := payroll.DefaultConfig()
	if configPath != "" {
		cfg, err = factory.NewConfigFactory().LoadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to load payroll config: %w", err)
		}
	}
	logger.Info("payroll config loaded",
		"working_days", cfg.WorkingDaysInPeriod,
		"daily_hours", cfg.DailyHours.String(),
		"source", orDefault(configPath, "defaults"))

	handler := api.NewHandler(store, cfg, logger)

	if schedule != "off" {
		scheduler := jobs.NewPayrollScheduler(handler.Payroll, logger)
		scheduler.Schedule = schedule
		if err := scheduler.Start(); err != nil {
			return fmt.Errorf("invalid payroll schedule %q: %w", schedule, err)
		}
		defer scheduler.Stop()
		handler.Scheduler = scheduler
	}

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", "http://localhost:"+port, "driver", driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func openStore(driver, dbPath, dsn string) (storeCloser, error) {
	switch driver {
	case "sqlite":
		return sqlite.New(dbPath)
	case "postgres":
		if dsn == "" {
			return nil, errors.New("postgres driver needs -dsn or PAYROLL_DSN")
		}
		return postgres.Open(dsn, postgres.Options{LogLevel: gormlogger.Warn})
	}
	return nil, fmt.Errorf("unknown store driver %q", driver)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
