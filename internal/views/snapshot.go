// Package views builds the read-side projections: a snapshot of the
// user's aggregates fetched from the backend, joined client-side into
// renderable rows and filtered with pure predicates.
package views

import (
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
	"moneta/internal/ledger"
)

// UnknownLabel is rendered when a client-side join cannot be resolved.
const UnknownLabel = "Unknown"

// NotApplicable is rendered for recurring rows whose frequency has no
// registered projection.
const NotApplicable = "N/A"

// Snapshot is one consistent-enough view of the user's data: each slice
// was fetched independently and merged client-side.
type Snapshot struct {
	FetchedAt    time.Time
	Transactions []core.Transaction
	Categories   []core.Category
	Budgets      []core.Budget
	Goals        []core.FinancialGoal
	Rules        []core.RecurrenceRule
	BudgetUsers  map[int64][]uuid.UUID // shared budgets only
}

// CategoryByID builds the primary-key index used for joins.
func (s *Snapshot) CategoryByID() map[int64]core.Category {
	idx := make(map[int64]core.Category, len(s.Categories))
	for _, c := range s.Categories {
		idx[c.ID] = c
	}
	return idx
}

func (s *Snapshot) BudgetByID() map[int64]core.Budget {
	idx := make(map[int64]core.Budget, len(s.Budgets))
	for _, b := range s.Budgets {
		idx[b.ID] = b
	}
	return idx
}

func (s *Snapshot) GoalByID() map[int64]core.FinancialGoal {
	idx := make(map[int64]core.FinancialGoal, len(s.Goals))
	for _, g := range s.Goals {
		idx[g.ID] = g
	}
	return idx
}

// Lookup adapts the snapshot to the write path's resolution state.
func (s *Snapshot) Lookup() ledger.Lookup {
	return ledger.Lookup{
		Budgets:    s.BudgetByID(),
		Categories: s.CategoryByID(),
		Goals:      s.GoalByID(),
	}
}
