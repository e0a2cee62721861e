package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/amqp"
	"financialchecker/internal/backend"
	"financialchecker/internal/cli"
	"financialchecker/internal/config"
	apphttp "financialchecker/internal/http"
	applog "financialchecker/internal/log"
	"financialchecker/internal/middleware/ratelimit"
	"financialchecker/internal/services"
)

func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentApp)

	settings, err := config.LoadSettings(cfg.SettingsFile)
	if err != nil {
		logger.Error("Failed to load settings", applog.FieldError, err, "path", cfg.SettingsFile)
		os.Exit(1)
	}

	be, err := backend.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	// Messaging is optional; without a broker nothing is published.
	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			_ = be.Close()
			os.Exit(1)
		}
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	builder := aggregate.NewBuilder(be.Store, aggregate.WithLogger(logger))
	txService := services.NewTransactionService(be.Store, publisher, settings.Taxonomy(), logger)
	if _, err := txService.SeedTaxonomy(context.Background()); err != nil {
		logger.Warn("Taxonomy seeding failed, defaults stay in memory only", applog.FieldError, err)
	}

	rl := ratelimit.DefaultConfig()
	rl.RequestsPerSecond = cfg.RateLimitRPS
	rl.Burst = cfg.RateLimitBurst

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Transactions: txService,
		Views:        builder,
		Logger:       logger,
		RateLimit:    rl,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", applog.FieldError, err)
			}
		}
		if err := be.Close(); err != nil {
			logger.Warn("Backend close error", applog.FieldError, err)
		}
	})

	go txService.RunCacheJanitor(ctx, services.TaxonomyTTL)

	logger.Info("Starting financialchecker server", "port", cfg.Port, applog.FieldBackend, be.Type.String())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-done
	logger.Info("Server stopped gracefully")
}
