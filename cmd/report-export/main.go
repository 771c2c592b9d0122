package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"moneta/internal/config"
	"moneta/internal/export/sheets"
	applog "moneta/internal/log"
	"moneta/internal/platform"
	"moneta/internal/session"
	"moneta/internal/storage"
	"moneta/internal/views"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	now := time.Now()
	year := flag.Int("year", now.Year(), "report year")
	month := flag.Int("month", int(now.Month()), "report month (1-12)")
	live := flag.Bool("live", false, "fetch a fresh snapshot instead of using the stored one")
	flag.Parse()

	logger := applog.New(applog.Config{Component: applog.ComponentExport})
	applog.SetDefault(logger)

	if *month < 1 || *month > 12 {
		logger.Error("Invalid month", applog.FieldMonth, *month)
		os.Exit(1)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err.Error())
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for report export")
		os.Exit(1)
	}

	ctx := context.Background()

	snap, err := loadSnapshot(ctx, cfg, *live, logger)
	if err != nil {
		logger.Error("Failed to load snapshot", applog.FieldError, err.Error())
		os.Exit(1)
	}

	report := snap.MonthlyReport(*year, *month)
	logger.Info("Report computed",
		applog.FieldYear, report.Year,
		applog.FieldMonth, report.Month,
		"income_cents", report.Income.Cents,
		"expenses_cents", report.Expenses.Cents,
		"net_cents", report.Net.Cents)

	exporter, err := sheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, cfg.GoogleCredsFile)
	if err != nil {
		logger.Error("Failed to initialize sheets exporter", applog.FieldError, err.Error())
		os.Exit(1)
	}

	ref, err := exporter.ExportMonthReport(ctx, report)
	if err != nil {
		logger.Error("Export failed", applog.FieldError, err.Error())
		os.Exit(1)
	}

	logger.Info("Report exported", "range", ref)
}

// loadSnapshot prefers the stored snapshot so exports work offline; a
// live fetch is opt-in.
func loadSnapshot(ctx context.Context, cfg *config.Config, live bool, logger *applog.Logger) (*views.Snapshot, error) {
	if !live {
		repo, err := storage.NewRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, err
		}
		defer repo.Close()

		snap, err := repo.LoadSnapshot(ctx)
		if err == nil {
			logger.Info("Using stored snapshot", "fetched_at", snap.FetchedAt.Format(time.RFC3339))
			return snap, nil
		}
		if !errors.Is(err, storage.ErrNoSnapshot) {
			return nil, err
		}
		logger.Warn("No stored snapshot, fetching a fresh one")
	}

	sessionPath := cfg.SessionPath
	if sessionPath == "" {
		var err error
		sessionPath, err = session.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	sessions := session.NewStore(sessionPath)
	sess, err := sessions.Load()
	if err != nil {
		return nil, err
	}

	client := platform.NewClient(cfg.BackendBaseURL, sessions)
	return views.NewFetcher(client).Load(ctx, sess.UserUUID, sess.AccountUUIDs)
}
