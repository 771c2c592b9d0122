package views

import (
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/schedule"
)

type TransactionRow struct {
	Transaction core.Transaction
	Category    string
	Budget      string
}

type BudgetRow struct {
	Budget     core.Budget
	Category   string
	SharedWith []uuid.UUID
	Remaining  core.Money
	Over       bool
}

type GoalRow struct {
	Goal     core.FinancialGoal
	Progress float64 // 0..1, clamped
}

type RecurringRow struct {
	Rule     core.RecurrenceRule
	Category string
	Next     string // YYYY-MM-DD, NotApplicable, or empty for a lapsed rule
}

// TransactionRows joins each transaction with its category and budget.
// Missing joins resolve to the Unknown placeholder, never to a failed
// render.
func (s *Snapshot) TransactionRows() []TransactionRow {
	categories := s.CategoryByID()
	budgets := s.BudgetByID()

	rows := make([]TransactionRow, 0, len(s.Transactions))
	for _, tx := range s.Transactions {
		row := TransactionRow{Transaction: tx, Category: UnknownLabel, Budget: UnknownLabel}
		if c, ok := categories[tx.CategoryID]; ok {
			row.Category = c.Name
		}
		if tx.BudgetID == 0 {
			row.Budget = ""
		} else if b, ok := budgets[tx.BudgetID]; ok {
			row.Budget = b.Name
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Snapshot) BudgetRows() []BudgetRow {
	categories := s.CategoryByID()

	rows := make([]BudgetRow, 0, len(s.Budgets))
	for _, b := range s.Budgets {
		row := BudgetRow{
			Budget:    b,
			Category:  UnknownLabel,
			Remaining: core.Money{Cents: b.Amount.Cents - b.CurrentAmount.Cents},
			Over:      b.CurrentAmount.Cents > b.Amount.Cents,
		}
		if c, ok := categories[b.CategoryID]; ok {
			row.Category = c.Name
		}
		if b.Shared {
			row.SharedWith = s.BudgetUsers[b.ID]
		}
		rows = append(rows, row)
	}
	return rows
}

func (s *Snapshot) GoalRows() []GoalRow {
	rows := make([]GoalRow, 0, len(s.Goals))
	for _, g := range s.Goals {
		progress := 0.0
		if g.TargetAmount.Cents > 0 {
			progress = float64(g.CurrAmount.Cents) / float64(g.TargetAmount.Cents)
			if progress > 1 {
				progress = 1
			}
		}
		rows = append(rows, GoalRow{Goal: g, Progress: progress})
	}
	return rows
}

// RecurringRows projects each rule's next occurrence relative to now.
// An unknown frequency renders as NotApplicable; a rule past its end
// date renders with an empty Next.
func (s *Snapshot) RecurringRows(now time.Time) []RecurringRow {
	categories := s.CategoryByID()

	rows := make([]RecurringRow, 0, len(s.Rules))
	for _, rule := range s.Rules {
		row := RecurringRow{Rule: rule, Category: UnknownLabel}
		if c, ok := categories[rule.CategoryID]; ok {
			row.Category = c.Name
		}
		next, ok, err := schedule.NextForRule(rule, now)
		switch {
		case err != nil:
			row.Next = NotApplicable
		case ok:
			row.Next = next.Format("2006-01-02")
		}
		rows = append(rows, row)
	}
	return rows
}
