// Package sheets exports monthly reports to a Google Sheets
// spreadsheet using a service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"moneta/internal/views"
)

type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// New creates an exporter. Credentials come from credsFile when set,
// otherwise from GOOGLE_SERVICE_ACCOUNT_JSON or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName, credsFile string) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Reports"
	}

	credentialsJSON, err := loadCredentials(credsFile)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func loadCredentials(credsFile string) ([]byte, error) {
	if credsFile == "" {
		if inline := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); inline != "" {
			return []byte(inline), nil
		}
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if credsFile == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDS_FILE, GOOGLE_SERVICE_ACCOUNT_JSON, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	data, err := os.ReadFile(credsFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// ExportMonthReport appends the report as a summary row followed by one
// row per category, and returns the written range reference.
func (e *Exporter) ExportMonthReport(ctx context.Context, report views.MonthReport) (string, error) {
	if e.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	// Find the next empty row from the sheet dimensions.
	rng := fmt.Sprintf("%s!A:A", e.sheetName)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", e.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	rows := [][]any{
		{report.Year, report.Month, dollars(report.Income.Cents), dollars(report.Expenses.Cents), dollars(report.Net.Cents)},
	}
	for _, entry := range report.ByCategory {
		rows = append(rows, []any{"", entry.Name, dollars(entry.Amount.Cents)})
	}

	lastRow := nextRow + len(rows) - 1
	dataRange := fmt.Sprintf("%s!A%d:E%d", e.sheetName, nextRow, lastRow)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = e.svc.Spreadsheets.Values.Update(e.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write report to sheet %s: %w", e.sheetName, err)
	}

	return dataRange, nil
}

func dollars(cents int64) float64 {
	return float64(cents) / 100.0
}
