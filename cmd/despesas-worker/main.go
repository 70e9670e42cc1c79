package main

import (
	"context"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/cli"
	"despesas/internal/log"
	"despesas/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err == nil {
		err = cfg.RequireAMQP()
	}
	if err != nil {
		cli.Fatal(cli.SetupLogger(nil, log.ComponentWorker), "Configuration validation failed", err)
	}
	logger := cli.SetupLogger(cfg, log.ComponentWorker)
	logger.Info("Starting despesas-worker", "queue", cfg.AMQPQueue)

	store, err := cli.InitBackend(context.Background(), logger, cfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize record store", err)
	}
	defer store.Close()

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize AMQP client", err)
	}
	defer client.Close()

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	if err := worker.NewIngestWorker(store.Backend).Run(ctx, client); err != nil {
		cli.Fatal(logger, "Ingest worker stopped", err)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
