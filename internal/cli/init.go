// Package cli provides common initialization shared by the commands
// under cmd/.
package cli

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"financialchecker/internal/config"
	applog "financialchecker/internal/log"
)

// LoadEnvFile loads a .env file for local development. A missing file is
// not an error; a malformed one is.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// SetupLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and
// sets it as the slog default.
func SetupLogger(cfg *config.Config, component string) *applog.Logger {
	lc := applog.DefaultConfig()
	if cfg != nil {
		lc.Level = applog.ParseLevel(cfg.LogLevel)
		lc.Format = cfg.LogFormat
	}
	if component != "" {
		lc.Component = component
	}
	logger := applog.New(lc)
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig loads configuration and validates it.
func LoadAndValidateConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoadConfig loads .env and the configuration, exiting the process on
// failure, then returns the config and a logger configured from it.
func MustLoadConfig(component string) (*config.Config, *applog.Logger) {
	if err := LoadEnvFile(); err != nil {
		SetupLogger(nil, component).Error("Failed to load .env file", applog.FieldError, err)
		os.Exit(1)
	}
	cfg, err := LoadAndValidateConfig()
	if err != nil {
		SetupLogger(nil, component).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	return cfg, SetupLogger(cfg, component)
}

// GracefulShutdown returns a context cancelled on SIGINT or SIGTERM. The
// cleanup runs with a context bounded by timeout before the returned
// channel closes.
func GracefulShutdown(logger *applog.Logger, timeout time.Duration, cleanup func(context.Context)) (context.Context, <-chan struct{}) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		<-ctx.Done()
		stop()
		logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if cleanup != nil {
			cleanup(shutdownCtx)
		}
		if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
			logger.Warn("Shutdown timeout reached")
			return
		}
		logger.Info("Shutdown complete")
	}()

	return ctx, done
}
