package main

import (
	"context"
	"errors"
	"os"

	"despesas/internal/amqp"
	"despesas/internal/cli"
	"despesas/internal/commands"
	"despesas/internal/log"
)

func main() {
	cli.LoadEnvFile()

	if err := commands.NewRootCommand(openRuntime).Execute(); err != nil {
		os.Exit(1)
	}
}

func openRuntime(ctx context.Context, withPublisher bool) (*commands.Runtime, error) {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	logger := cli.SetupLogger(cfg, log.ComponentCLI)

	store, err := cli.InitBackend(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	rt := &commands.Runtime{
		Store:         store.Backend,
		MaxCategories: cfg.MaxCategories,
		Close:         store.Close,
	}
	if !withPublisher {
		return rt, nil
	}

	if err := cfg.RequireAMQP(); err != nil {
		_ = store.Close()
		return nil, err
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	rt.Publisher = client
	rt.Close = func() error {
		return errors.Join(client.Close(), store.Close())
	}
	return rt, nil
}
