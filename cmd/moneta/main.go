package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/amqp"
	"moneta/internal/config"
	apphttp "moneta/internal/http"
	"moneta/internal/ledger"
	applog "moneta/internal/log"
	"moneta/internal/platform"
	"moneta/internal/session"
	"moneta/internal/storage"
	"moneta/internal/views"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		var err error
		sessionPath, err = session.DefaultPath()
		if err != nil {
			logger.Error("Failed to resolve session path", applog.FieldError, err.Error())
			os.Exit(1)
		}
	}
	sessions := session.NewStore(sessionPath)
	if _, err := sessions.Load(); err != nil {
		if errors.Is(err, session.ErrNoSession) {
			logger.Warn("No session hydrated yet, gateway starts unauthenticated", applog.FieldPath, sessionPath)
		} else {
			logger.Error("Failed to load session", applog.FieldError, err.Error())
			os.Exit(1)
		}
	}

	client := platform.NewClient(cfg.BackendBaseURL, sessions)

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot store", applog.FieldError, err.Error(), applog.FieldPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	var sink ledger.EventSink
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, stage events disabled", applog.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			sink = amqpClient
			logger.Info("AMQP stage event publisher initialized")
		}
	} else {
		logger.Info("AMQP disabled, stage events are not published")
	}

	recorder := ledger.NewRecorder(client, sink)
	fetcher := views.NewFetcher(client)

	srv := apphttp.NewServer(":"+cfg.Port, logger, sessions, recorder, fetcher, repo)
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting moneta gateway", "port", cfg.Port, "backend", cfg.BackendBaseURL)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", applog.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Gateway stopped gracefully")
}
