package platform

import (
	"math"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// Wire representations. The backend speaks camelCase JSON with decimal
// amounts; the domain model keeps signed cents.

type BudgetResponse struct {
	ID            int64     `json:"id"`
	UUID          uuid.UUID `json:"uuid"`
	OwnerUUID     uuid.UUID `json:"ownerUuid"`
	Name          string    `json:"name"`
	Amount        float64   `json:"amount"`
	CurrentAmount float64   `json:"currentAmount"`
	Period        string    `json:"period"`
	CategoryID    int64     `json:"categoryId"`
	Shared        bool      `json:"shared"`
	StartDate     string    `json:"startDate"`
	EndDate       string    `json:"endDate,omitempty"`
}

type BudgetRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Period     string  `json:"period"`
	CategoryID int64   `json:"categoryId"`
	Shared     bool    `json:"shared"`
	StartDate  string  `json:"startDate"`
	EndDate    string  `json:"endDate,omitempty"`
}

type CategoryResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type TransactionRequest struct {
	AccountUUID  uuid.UUID `json:"accountUuid"`
	Amount       float64   `json:"amount"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	CategoryID   int64     `json:"categoryId"`
	BudgetID     int64     `json:"budgetId,omitempty"`
	RecurrenceID int64     `json:"recurrenceId,omitempty"`
}

type TransactionResponse struct {
	ID           int64     `json:"id"`
	UUID         uuid.UUID `json:"uuid"`
	AccountUUID  uuid.UUID `json:"accountUuid"`
	Amount       float64   `json:"amount"`
	Date         string    `json:"date"`
	Description  string    `json:"description"`
	CategoryID   int64     `json:"categoryId"`
	BudgetID     int64     `json:"budgetId,omitempty"`
	RecurrenceID int64     `json:"recurrenceId,omitempty"`
	Recurrence   *RecurrenceResponse `json:"recurrence,omitempty"`
}

type RecurrenceResponse struct {
	ID        int64  `json:"id"`
	Frequency string `json:"frequency"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate,omitempty"`
}

type GoalResponse struct {
	ID           int64     `json:"id"`
	OwnerUUID    uuid.UUID `json:"ownerUuid"`
	Name         string    `json:"name"`
	TargetAmount float64   `json:"targetAmount"`
	CurrAmount   float64   `json:"currAmount"`
	Deadline     string    `json:"deadline,omitempty"`
	Status       string    `json:"status"`
}

// ToCents converts a wire decimal amount to cents with half-up rounding.
func ToCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromCents converts cents to the wire decimal representation.
func FromCents(cents int64) float64 {
	return float64(cents) / 100
}

func (b BudgetResponse) Domain() core.Budget {
	start, _ := core.ParseDate(b.StartDate)
	end, _ := core.ParseDate(b.EndDate)
	return core.Budget{
		ID:            b.ID,
		UUID:          b.UUID,
		OwnerUUID:     b.OwnerUUID,
		Name:          b.Name,
		Amount:        core.Money{Cents: ToCents(b.Amount)},
		CurrentAmount: core.Money{Cents: ToCents(b.CurrentAmount)},
		Period:        b.Period,
		CategoryID:    b.CategoryID,
		Shared:        b.Shared,
		StartDate:     start,
		EndDate:       end,
	}
}

func (c CategoryResponse) Domain() core.Category {
	return core.Category{
		ID:   c.ID,
		Name: c.Name,
		Type: core.CategoryType(c.Type),
	}
}

func (t TransactionResponse) Domain() core.Transaction {
	date, _ := core.ParseDate(t.Date)
	recurrenceID := t.RecurrenceID
	if recurrenceID == 0 && t.Recurrence != nil {
		recurrenceID = t.Recurrence.ID
	}
	return core.Transaction{
		ID:           t.ID,
		UUID:         t.UUID,
		AccountUUID:  t.AccountUUID,
		Amount:       core.Money{Cents: ToCents(t.Amount)},
		Date:         date,
		Description:  t.Description,
		CategoryID:   t.CategoryID,
		BudgetID:     t.BudgetID,
		RecurrenceID: recurrenceID,
	}
}

func (r RecurrenceResponse) Domain() core.RecurrenceRule {
	start, _ := core.ParseDate(r.StartDate)
	end, _ := core.ParseDate(r.EndDate)
	return core.RecurrenceRule{
		ID:        r.ID,
		Frequency: core.Frequency(r.Frequency),
		StartDate: start,
		EndDate:   end,
	}
}

func (g GoalResponse) Domain() core.FinancialGoal {
	deadline, _ := core.ParseDate(g.Deadline)
	return core.FinancialGoal{
		ID:           g.ID,
		OwnerUUID:    g.OwnerUUID,
		Name:         g.Name,
		TargetAmount: core.Money{Cents: ToCents(g.TargetAmount)},
		CurrAmount:   core.Money{Cents: ToCents(g.CurrAmount)},
		Deadline:     deadline,
		Status:       core.GoalStatus(g.Status),
	}
}
