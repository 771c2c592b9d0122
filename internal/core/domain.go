package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveCategory is the distinguished category name that gates goal
// contributions: only transactions in this category may be linked to a
// financial goal.
const SaveCategory = "Save"

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
	Yearly  Frequency = "yearly"
)

const (
	GoalActive    GoalStatus = "ACTIVE"
	GoalCompleted GoalStatus = "COMPLETED"
	GoalFailed    GoalStatus = "FAILED"
)

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

type (
	Frequency    string
	GoalStatus   string
	CategoryType string

	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Negative cents are outflows,
	// positive cents inflows, relative to the owning account.
	Money struct {
		Cents int64
	}

	// Category is read-only reference data owned by the backend.
	Category struct {
		ID   int64
		Name string
		Type CategoryType
	}

	// Transaction is an immutable ledger fact. Created once, never
	// mutated client-side after creation.
	Transaction struct {
		ID           int64
		UUID         uuid.UUID
		AccountUUID  uuid.UUID
		Amount       Money
		Date         Date
		Description  string
		CategoryID   int64
		BudgetID     int64 // zero when unattributed
		RecurrenceID int64 // zero for one-off transactions
	}

	// RecurrenceRule describes a repeating schedule. Future occurrences
	// are projected on demand, never materialized.
	RecurrenceRule struct {
		ID          int64
		Frequency   Frequency
		StartDate   Date
		EndDate     Date // zero when open-ended
		Description string
		Amount      Money
		CategoryID  int64
	}

	Budget struct {
		ID            int64
		UUID          uuid.UUID
		OwnerUUID     uuid.UUID
		Name          string
		Amount        Money // cap
		CurrentAmount Money // running total of attributed transactions
		Period        string
		CategoryID    int64
		Shared        bool
		StartDate     Date
		EndDate       Date
	}

	FinancialGoal struct {
		ID           int64
		OwnerUUID    uuid.UUID
		Name         string
		TargetAmount Money
		CurrAmount   Money
		Deadline     Date
		Status       GoalStatus
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrFutureDate       = errors.New("date cannot be in the future")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrMissingCategory  = errors.New("missing category")
	ErrMissingAccount   = errors.New("missing account")
	ErrMissingBudget    = errors.New("missing budget")
)

// Valid reports whether f is one of the four supported frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (s GoalStatus) Valid() bool {
	switch s {
	case GoalActive, GoalCompleted, GoalFailed:
		return true
	}
	return false
}

// NewDate creates a Date at midnight UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("2006-01-02")
}

func (m Money) Validate() error {
	if m.Cents == 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns the sum of two amounts.
func (m Money) Add(other Money) Money {
	return Money{Cents: m.Cents + other.Cents}
}

func (t Transaction) Validate(now time.Time) error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Date.After(now) {
		return ErrFutureDate
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CategoryID == 0 {
		return ErrMissingCategory
	}
	if t.AccountUUID == uuid.Nil {
		return ErrMissingAccount
	}
	return nil
}

func (r RecurrenceRule) Validate() error {
	if err := r.StartDate.Validate(); err != nil {
		return errors.New("invalid start date: " + err.Error())
	}
	if !r.EndDate.IsZero() && r.EndDate.Before(r.StartDate.Time) {
		return errors.New("end date must be after start date")
	}
	if !r.Frequency.Valid() {
		return errors.New("invalid frequency")
	}
	if len(strings.TrimSpace(r.Description)) == 0 {
		return ErrEmptyDescription
	}
	return r.Amount.Validate()
}

// Reached reports whether the goal's running amount has met its target.
func (g FinancialGoal) Reached() bool {
	return g.CurrAmount.Cents >= g.TargetAmount.Cents
}
