// Package ledger implements the transaction write path: record the
// ledger fact, propagate its amount to the attributed budget, and
// conditionally contribute to a financial goal.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// Backend is the slice of the platform client the write path needs.
type Backend interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateBudgetAmount(ctx context.Context, budgetID int64, currentAmount core.Money) error
	CreateGoalContribution(ctx context.Context, goalID int64, txUUID uuid.UUID, amount core.Money) error
	UpdateGoal(ctx context.Context, goalID int64, status core.GoalStatus, currAmount core.Money) error
}

// Input is a transaction as entered by the user. GoalID is only
// meaningful when the category resolves to the "Save" category.
type Input struct {
	AccountUUID uuid.UUID
	Amount      core.Money
	Date        core.Date
	Description string
	CategoryID  int64
	BudgetID    int64
	GoalID      int64
}

// Lookup is the locally cached state the write path resolves references
// against before touching the network.
type Lookup struct {
	Budgets    map[int64]core.Budget
	Categories map[int64]core.Category
	Goals      map[int64]core.FinancialGoal
}

// Result is a fully committed write.
type Result struct {
	Transaction core.Transaction
	Budget      core.Budget         // with the updated running total
	Goal        *core.FinancialGoal // updated; nil when no contribution was made
}

// Recorder sequences the three dependent writes. The steps are strictly
// sequential; each awaits the prior response before issuing the next.
type Recorder struct {
	backend Backend
	sink    EventSink
	now     func() time.Time
}

func NewRecorder(backend Backend, sink EventSink) *Recorder {
	if sink == nil {
		sink = NopSink{}
	}
	return &Recorder{
		backend: backend,
		sink:    sink,
		now:     time.Now,
	}
}

// Record validates the input, appends the transaction, adds its amount
// to the budget's running total, and, iff the category is "Save" and a
// goal was selected, records a goal contribution and recomputes the
// goal's status.
//
// Failures past the first stage return *PartialError: committed stages
// are not rolled back.
func (r *Recorder) Record(ctx context.Context, input Input, lookup Lookup) (Result, error) {
	budget, goal, err := r.resolve(input, lookup)
	if err != nil {
		return Result{}, err
	}

	tx := core.Transaction{
		AccountUUID: input.AccountUUID,
		Amount:      input.Amount,
		Date:        input.Date,
		Description: input.Description,
		CategoryID:  input.CategoryID,
		BudgetID:    input.BudgetID,
	}
	if err := tx.Validate(r.now()); err != nil {
		return Result{}, &ValidationError{Field: "transaction", Reason: err.Error()}
	}

	// Stage 1: the ledger fact. Failure here aborts everything.
	created, err := r.backend.CreateTransaction(ctx, tx)
	if err != nil {
		r.emit(ctx, StageEvent{Stage: StageTransaction, Outcome: OutcomeFailed, AmountCents: input.Amount.Cents, Error: err.Error()})
		return Result{}, fmt.Errorf("record transaction: %w", err)
	}
	r.emit(ctx, StageEvent{Stage: StageTransaction, Outcome: OutcomeCommitted, TransactionUUID: created.UUID, AmountCents: input.Amount.Cents})

	// Stage 2: additive budget update, computed from the last locally
	// known running total. The backend replaces the field wholesale.
	budget.CurrentAmount = budget.CurrentAmount.Add(input.Amount)
	if err := r.backend.UpdateBudgetAmount(ctx, budget.ID, budget.CurrentAmount); err != nil {
		r.emit(ctx, StageEvent{Stage: StageBudget, Outcome: OutcomeFailed, TransactionUUID: created.UUID, BudgetID: budget.ID, AmountCents: input.Amount.Cents, Error: err.Error()})
		return Result{}, &PartialError{Stage: StageBudget, Transaction: created, Err: err}
	}
	r.emit(ctx, StageEvent{Stage: StageBudget, Outcome: OutcomeCommitted, TransactionUUID: created.UUID, BudgetID: budget.ID, AmountCents: input.Amount.Cents})

	result := Result{Transaction: created, Budget: budget}
	if goal == nil {
		return result, nil
	}

	// Stage 3: goal contribution and status recompute.
	if err := r.contribute(ctx, created, input.Amount, goal); err != nil {
		r.emit(ctx, StageEvent{Stage: StageGoal, Outcome: OutcomeFailed, TransactionUUID: created.UUID, BudgetID: budget.ID, GoalID: goal.ID, AmountCents: input.Amount.Cents, Error: err.Error()})
		return Result{}, &PartialError{Stage: StageGoal, Transaction: created, Err: err}
	}
	r.emit(ctx, StageEvent{Stage: StageGoal, Outcome: OutcomeCommitted, TransactionUUID: created.UUID, BudgetID: budget.ID, GoalID: goal.ID, AmountCents: input.Amount.Cents})

	result.Goal = goal
	return result, nil
}

// resolve checks references against the local lookup before any network
// call. A goal is only resolved when the category is exactly "Save";
// otherwise the goal selection is ignored.
func (r *Recorder) resolve(input Input, lookup Lookup) (core.Budget, *core.FinancialGoal, error) {
	if input.BudgetID == 0 {
		return core.Budget{}, nil, &ValidationError{Field: "budget", Reason: "no budget selected"}
	}
	budget, ok := lookup.Budgets[input.BudgetID]
	if !ok {
		return core.Budget{}, nil, &ValidationError{Field: "budget", Reason: fmt.Sprintf("budget %d not found", input.BudgetID)}
	}

	category, ok := lookup.Categories[input.CategoryID]
	if !ok {
		return core.Budget{}, nil, &ValidationError{Field: "category", Reason: fmt.Sprintf("category %d not found", input.CategoryID)}
	}

	if category.Name != core.SaveCategory || input.GoalID == 0 {
		return budget, nil, nil
	}
	goal, ok := lookup.Goals[input.GoalID]
	if !ok {
		return core.Budget{}, nil, &ValidationError{Field: "goal", Reason: fmt.Sprintf("goal %d not found", input.GoalID)}
	}
	return budget, &goal, nil
}

func (r *Recorder) contribute(ctx context.Context, tx core.Transaction, amount core.Money, goal *core.FinancialGoal) error {
	if err := r.backend.CreateGoalContribution(ctx, goal.ID, tx.UUID, amount); err != nil {
		return fmt.Errorf("goal contribution: %w", err)
	}

	goal.CurrAmount = goal.CurrAmount.Add(amount)
	if goal.Reached() {
		goal.Status = core.GoalCompleted
	} else {
		goal.Status = core.GoalActive
	}
	if err := r.backend.UpdateGoal(ctx, goal.ID, goal.Status, goal.CurrAmount); err != nil {
		return fmt.Errorf("goal update: %w", err)
	}
	return nil
}

func (r *Recorder) emit(ctx context.Context, ev StageEvent) {
	ev.Timestamp = r.now()
	if err := r.sink.PublishStageEvent(ctx, ev); err != nil {
		slog.WarnContext(ctx, "Failed to publish stage event",
			"stage", ev.Stage,
			"outcome", ev.Outcome,
			"error", err)
	}
}
