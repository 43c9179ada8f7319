package main

import (
	"context"
	"errors"
	"os"
	"time"

	"waist/internal/amqp"
	"waist/internal/backend"
	"waist/internal/cli"
	"waist/internal/config"
	"waist/internal/log"
	"waist/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	logger.Info("Starting waist-worker")

	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateWorker)

	factory := backend.NewFactory(logger)
	app, err := factory.Build(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		os.Exit(1)
	}
	defer app.Close()

	sheet, err := factory.Sheet(context.Background(), cfg)
	if err != nil {
		logger.Error("Failed to initialize sheet", log.FieldError, err)
		os.Exit(1)
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer consumer.Close()

	mirror := worker.NewMirrorWorker(app.Repo, sheet, app.Metrics, logger)

	ctx, done := cli.GracefulShutdown(logger, 10*time.Second, nil)

	// Catch up on anything written while the worker was down.
	if err := mirror.Sync(ctx); err != nil {
		logger.Error("Startup sync failed", log.FieldError, err)
	}

	go mirror.RunPeriodic(ctx, cfg.SheetsResyncInterval)

	if err := consumer.ConsumeTransactionEvents(ctx, mirror.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption failed", log.FieldError, err)
		consumer.Close()
		app.Close()
		os.Exit(1)
	}

	<-done
	logger.Info("Worker stopped", "last_sync", mirror.LastSync())
}
