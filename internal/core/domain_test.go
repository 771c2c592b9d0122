package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTransactionValidate(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	account := uuid.New()

	valid := Transaction{
		AccountUUID: account,
		Amount:      Money{Cents: -4500},
		Date:        NewDate(2024, 3, 9),
		Description: "Groceries",
		CategoryID:  3,
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(*Transaction) {}, nil},
		{"future date", func(tx *Transaction) { tx.Date = NewDate(2024, 3, 11) }, ErrFutureDate},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"missing category", func(tx *Transaction) { tx.CategoryID = 0 }, ErrMissingCategory},
		{"missing account", func(tx *Transaction) { tx.AccountUUID = uuid.Nil }, ErrMissingAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate(now)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRecurrenceRuleValidate(t *testing.T) {
	valid := RecurrenceRule{
		StartDate:   NewDate(2024, 1, 1),
		Frequency:   Monthly,
		Description: "Rent",
		Amount:      Money{Cents: -95000},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid rule: %v", err)
	}

	bogus := valid
	bogus.Frequency = "fortnightly"
	if err := bogus.Validate(); err == nil {
		t.Error("expected error for unknown frequency")
	}

	backwards := valid
	backwards.EndDate = NewDate(2023, 12, 1)
	if err := backwards.Validate(); err == nil {
		t.Error("expected error for end date before start date")
	}
}

func TestGoalReached(t *testing.T) {
	g := FinancialGoal{
		TargetAmount: Money{Cents: 800000},
		CurrAmount:   Money{Cents: 780000},
		Status:       GoalActive,
	}
	if g.Reached() {
		t.Error("goal should not be reached at 7800/8000")
	}
	g.CurrAmount = g.CurrAmount.Add(Money{Cents: 20000})
	if !g.Reached() {
		t.Error("goal should be reached at exactly target")
	}
}

func TestFrequencyValid(t *testing.T) {
	for _, f := range []Frequency{Daily, Weekly, Monthly, Yearly} {
		if !f.Valid() {
			t.Errorf("%s should be valid", f)
		}
	}
	if Frequency("bogus").Valid() {
		t.Error("bogus frequency should be invalid")
	}
}
