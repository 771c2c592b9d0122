package sheets

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "", "Reports", "")
	if err == nil || !strings.Contains(err.Error(), "missing spreadsheet ID") {
		t.Errorf("New() error = %v, want missing spreadsheet ID", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	t.Run("missing everywhere", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")

		_, err := loadCredentials("")
		if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
			t.Errorf("loadCredentials() error = %v, want missing credentials", err)
		}
	})

	t.Run("inline json", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)

		data, err := loadCredentials("")
		if err != nil {
			t.Fatalf("loadCredentials() error = %v", err)
		}
		if string(data) != `{"type":"service_account"}` {
			t.Errorf("loadCredentials() = %q", data)
		}
	})

	t.Run("from file", func(t *testing.T) {
		t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
		path := filepath.Join(t.TempDir(), "creds.json")
		if err := os.WriteFile(path, []byte(`{"type":"service_account"}`), 0600); err != nil {
			t.Fatal(err)
		}

		data, err := loadCredentials(path)
		if err != nil {
			t.Fatalf("loadCredentials() error = %v", err)
		}
		if len(data) == 0 {
			t.Error("loadCredentials() returned empty data")
		}
	})
}

func TestDollars(t *testing.T) {
	tests := []struct {
		cents int64
		want  float64
	}{
		{12045, 120.45},
		{-1234, -12.34},
		{0, 0},
	}
	for _, tt := range tests {
		if got := dollars(tt.cents); got != tt.want {
			t.Errorf("dollars(%d) = %v, want %v", tt.cents, got, tt.want)
		}
	}
}
