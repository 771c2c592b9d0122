package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/config"
	"moneta/internal/ledger"
	applog "moneta/internal/log"
)

// ledger-audit tails the stage event queue and writes an audit log of
// every write-path stage, committed or failed. Partial completions show
// up here as a committed transaction stage followed by a failed budget
// or goal stage.
func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting ledger-audit")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for ledger-audit")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	handle := func(ev ledger.StageEvent) error {
		fields := []any{
			applog.FieldStage, string(ev.Stage),
			"outcome", ev.Outcome,
			applog.FieldAmountCents, ev.AmountCents,
			"timestamp", ev.Timestamp,
		}
		if ev.TransactionUUID != uuid.Nil {
			fields = append(fields, "transaction_uuid", ev.TransactionUUID.String())
		}
		if ev.BudgetID != 0 {
			fields = append(fields, applog.FieldBudgetID, ev.BudgetID)
		}
		if ev.GoalID != 0 {
			fields = append(fields, applog.FieldGoalID, ev.GoalID)
		}

		if ev.Outcome == ledger.OutcomeFailed {
			fields = append(fields, applog.FieldError, ev.Error)
			logger.Warn("Write stage failed", fields...)
			return nil
		}
		logger.Info("Write stage committed", fields...)
		return nil
	}

	if err := amqpClient.ConsumeStageEvents(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Event consumption stopped", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Ledger-audit shutdown complete")
}
