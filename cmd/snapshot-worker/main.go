package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/config"
	applog "moneta/internal/log"
	"moneta/internal/platform"
	"moneta/internal/session"
	"moneta/internal/storage"
	"moneta/internal/views"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{Component: applog.ComponentWorker})
	applog.SetDefault(logger)

	logger.Info("Starting snapshot-worker")

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
	sess, err := sessions.Load()
	if err != nil {
		logger.Error("No session available, log in first", applog.FieldError, err.Error(), applog.FieldPath, sessionPath)
		os.Exit(1)
	}

	client := platform.NewClient(cfg.BackendBaseURL, sessions)
	fetcher := views.NewFetcher(client)

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot store", applog.FieldError, err.Error(), applog.FieldPath, cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Snapshot worker configured",
		"interval", cfg.SnapshotInterval,
		"sqlite_db", cfg.SQLiteDBPath,
		"accounts", len(sess.AccountUUIDs))

	refresh := func(now time.Time) {
		// Re-read the session each round: the gateway may have rotated
		// tokens in the meantime.
		sess, err := sessions.Load()
		if err != nil {
			logger.Error("Session no longer available", applog.FieldError, err.Error())
			return
		}

		snap, err := fetcher.Load(ctx, sess.UserUUID, sess.AccountUUIDs)
		if err != nil {
			logger.Error("Snapshot load failed", applog.FieldError, err.Error())
			return
		}
		if err := repo.SaveSnapshot(ctx, snap); err != nil {
			logger.Error("Snapshot save failed", applog.FieldError, err.Error())
			return
		}
		logger.Info("Snapshot refreshed",
			"transactions", len(snap.Transactions),
			"budgets", len(snap.Budgets),
			"next_check", now.Add(cfg.SnapshotInterval).Format("15:04:05"))
	}

	// Run an initial refresh on startup.
	refresh(time.Now())

	ticker := time.NewTicker(cfg.SnapshotInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				refresh(now)
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())
	cancel()
	logger.Info("Snapshot-worker shutdown complete")
}
