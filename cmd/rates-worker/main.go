package main

import (
	"context"
	"os"
	"time"

	"financialchecker/internal/aggregate"
	"financialchecker/internal/amqp"
	"financialchecker/internal/backend"
	"financialchecker/internal/cli"
	applog "financialchecker/internal/log"
	"financialchecker/internal/worker"
)

func main() {
	cfg, logger := cli.MustLoadConfig(applog.ComponentWorker)
	logger.Info("Starting rates-worker",
		"interval", cfg.SyncInterval.String(),
		"window_days", cfg.RatesWindowDays)

	be, err := backend.Open(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", applog.FieldError, err, applog.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer be.Close()

	// Without a broker the worker only recomputes on its interval.
	var consumer worker.Consumer
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		defer client.Close()
		consumer = client
	} else {
		logger.Info("AMQP disabled - recomputing on interval only")
	}

	builder := aggregate.NewBuilder(be.Store, aggregate.WithLogger(logger))
	w := worker.NewRatesWorker(builder, consumer, cfg.SyncInterval, cfg.RatesWindowDays, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)
	if err := w.Run(ctx); err != nil {
		logger.Error("Rates worker stopped with error", applog.FieldError, err)
		return
	}
	<-done
	logger.Info("Rates worker stopped")
}
