package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"expenseadvisor/internal/amqp"
	"expenseadvisor/internal/cli"
	applog "expenseadvisor/internal/log"
	"expenseadvisor/internal/worker"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Print expense.appended events from the broker as JSON lines",
	RunE:  runEvents,
}

func runEvents(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.AMQPEnabled() {
		return errors.New("AMQP_URL is not set")
	}
	// events go to stdout, logs to stderr
	logger := cli.SetupLogger(cfg, cmd.ErrOrStderr())

	ctx, stop := cli.SignalContext(cmd.Context())
	defer stop()

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	client, err := amqp.WaitReady(waitCtx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	cancel()
	if err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	defer client.Close()

	tail := worker.NewEventTail(cmd.OutOrStdout(), logger)
	err = client.ConsumeExpenseAppended(ctx, tail.Handle)
	logger.Info("Event tail stopped", "events", tail.Count())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		logger.Error("Message consumption failed", applog.FieldError, err)
	}
	return err
}
