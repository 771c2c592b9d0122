package views

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"moneta/internal/core"
)

type fakeSource struct {
	categories  []core.Category
	budgets     []core.Budget
	goals       []core.FinancialGoal
	byAccount   map[uuid.UUID][]core.Transaction
	badAccounts map[uuid.UUID]bool
	budgetUsers map[int64][]uuid.UUID

	budgetsErr error
}

func (f *fakeSource) ListCategories(context.Context) ([]core.Category, error) {
	return f.categories, nil
}

func (f *fakeSource) ListBudgets(context.Context, uuid.UUID) ([]core.Budget, error) {
	if f.budgetsErr != nil {
		return nil, f.budgetsErr
	}
	return f.budgets, nil
}

func (f *fakeSource) ListGoals(context.Context, uuid.UUID) ([]core.FinancialGoal, error) {
	return f.goals, nil
}

func (f *fakeSource) ListAccountTransactions(_ context.Context, account uuid.UUID) ([]core.Transaction, []core.RecurrenceRule, error) {
	if f.badAccounts[account] {
		return nil, nil, errors.New("account service down")
	}
	return f.byAccount[account], nil, nil
}

func (f *fakeSource) ListBudgetUsers(_ context.Context, budgetID int64) ([]uuid.UUID, error) {
	return f.budgetUsers[budgetID], nil
}

func TestFetcherLoadMergesAccounts(t *testing.T) {
	accountA, accountB := uuid.New(), uuid.New()
	source := &fakeSource{
		categories: []core.Category{{ID: 1, Name: "Food", Type: core.CategoryExpense}},
		budgets:    []core.Budget{{ID: 10, Name: "Groceries"}},
		goals:      []core.FinancialGoal{{ID: 5, Name: "Deposit", Status: core.GoalActive}},
		byAccount: map[uuid.UUID][]core.Transaction{
			accountA: {{ID: 1, AccountUUID: accountA}},
			accountB: {{ID: 2, AccountUUID: accountB}, {ID: 3, AccountUUID: accountB}},
		},
	}

	snap, err := NewFetcher(source).Load(context.Background(), uuid.New(), []uuid.UUID{accountA, accountB})
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(snap.Transactions) != 3 {
		t.Errorf("transactions = %d, want 3", len(snap.Transactions))
	}
	if len(snap.Categories) != 1 || len(snap.Budgets) != 1 || len(snap.Goals) != 1 {
		t.Error("independent aggregates not loaded")
	}
}

func TestFetcherLoadSkipsFailingAccount(t *testing.T) {
	good, bad := uuid.New(), uuid.New()
	source := &fakeSource{
		byAccount: map[uuid.UUID][]core.Transaction{
			good: {{ID: 1, AccountUUID: good}},
		},
		badAccounts: map[uuid.UUID]bool{bad: true},
	}

	snap, err := NewFetcher(source).Load(context.Background(), uuid.New(), []uuid.UUID{good, bad})
	if err != nil {
		t.Fatalf("Load() = %v, one failing account must not abort the load", err)
	}
	if len(snap.Transactions) != 1 {
		t.Errorf("transactions = %d, want 1 from the healthy account", len(snap.Transactions))
	}
}

func TestFetcherLoadFailsOnBudgetError(t *testing.T) {
	source := &fakeSource{budgetsErr: errors.New("budgets down")}
	if _, err := NewFetcher(source).Load(context.Background(), uuid.New(), nil); err == nil {
		t.Fatal("expected error when budget fetch fails")
	}
}

func TestFetcherLoadsSharedBudgetUsers(t *testing.T) {
	other := uuid.New()
	source := &fakeSource{
		budgets:     []core.Budget{{ID: 10, Shared: true}, {ID: 11}},
		budgetUsers: map[int64][]uuid.UUID{10: {other}},
	}

	snap, err := NewFetcher(source).Load(context.Background(), uuid.New(), nil)
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(snap.BudgetUsers[10]) != 1 {
		t.Error("shared budget users not loaded")
	}
	if _, ok := snap.BudgetUsers[11]; ok {
		t.Error("users fetched for a private budget")
	}
}

func testSnapshot() *Snapshot {
	return &Snapshot{
		Categories: []core.Category{
			{ID: 1, Name: "Food", Type: core.CategoryExpense},
			{ID: 2, Name: "Salary", Type: core.CategoryIncome},
		},
		Budgets: []core.Budget{
			{ID: 10, Name: "Groceries", CategoryID: 1, Amount: core.Money{Cents: 50000}, CurrentAmount: core.Money{Cents: 62000}},
			{ID: 11, Name: "Fun", CategoryID: 99, Amount: core.Money{Cents: 20000}, CurrentAmount: core.Money{Cents: 8000}},
		},
		Goals: []core.FinancialGoal{
			{ID: 5, Name: "Deposit", TargetAmount: core.Money{Cents: 800000}, CurrAmount: core.Money{Cents: 200000}, Status: core.GoalActive},
		},
		Transactions: []core.Transaction{
			{ID: 1, Description: "Weekly shop", Amount: core.Money{Cents: -12045}, CategoryID: 1, BudgetID: 10, Date: core.NewDate(2023, 6, 2)},
			{ID: 2, Description: "June salary", Amount: core.Money{Cents: 250000}, CategoryID: 2, Date: core.NewDate(2023, 6, 1)},
			{ID: 3, Description: "Mystery charge", Amount: core.Money{Cents: -999}, CategoryID: 42, Date: core.NewDate(2023, 6, 3)},
		},
		Rules: []core.RecurrenceRule{
			{ID: 1, Frequency: core.Monthly, StartDate: core.NewDate(2023, 1, 1), Description: "Rent", CategoryID: 1},
			{ID: 2, Frequency: "bogus", StartDate: core.NewDate(2023, 1, 1), Description: "Mystery"},
		},
	}
}

func TestTransactionRowsJoinWithUnknownPlaceholder(t *testing.T) {
	rows := testSnapshot().TransactionRows()
	if rows[0].Category != "Food" || rows[0].Budget != "Groceries" {
		t.Errorf("row 0 joined to %s/%s", rows[0].Category, rows[0].Budget)
	}
	if rows[1].Budget != "" {
		t.Errorf("unattributed transaction budget = %q, want empty", rows[1].Budget)
	}
	if rows[2].Category != UnknownLabel {
		t.Errorf("missing category join = %q, want %q", rows[2].Category, UnknownLabel)
	}
}

func TestBudgetRowsOverUnder(t *testing.T) {
	rows := testSnapshot().BudgetRows()
	if !rows[0].Over {
		t.Error("Groceries should be over budget")
	}
	if rows[0].Remaining.Cents != -12000 {
		t.Errorf("remaining = %d, want -12000", rows[0].Remaining.Cents)
	}
	if rows[1].Category != UnknownLabel {
		t.Errorf("budget with missing category = %q, want %q", rows[1].Category, UnknownLabel)
	}

	over, under := PartitionBudgets(rows)
	if len(over) != 1 || len(under) != 1 {
		t.Errorf("partition = %d over, %d under", len(over), len(under))
	}
}

func TestGoalRowsProgress(t *testing.T) {
	rows := testSnapshot().GoalRows()
	if rows[0].Progress != 0.25 {
		t.Errorf("progress = %v, want 0.25", rows[0].Progress)
	}
}

func TestRecurringRows(t *testing.T) {
	now := time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC)
	rows := testSnapshot().RecurringRows(now)

	if rows[0].Next != "2023-07-01" {
		t.Errorf("monthly next = %q, want 2023-07-01", rows[0].Next)
	}
	if rows[1].Next != NotApplicable {
		t.Errorf("bogus frequency next = %q, want %q", rows[1].Next, NotApplicable)
	}
}

func TestFilters(t *testing.T) {
	snap := testSnapshot()
	rows := snap.TransactionRows()

	if got := FilterByDescription(rows, "salary"); len(got) != 1 || got[0].Transaction.ID != 2 {
		t.Errorf("FilterByDescription = %+v", got)
	}
	if got := FilterByDescription(rows, ""); len(got) != 3 {
		t.Error("empty query should keep everything")
	}
	if got := FilterByCategory(rows, "Food"); len(got) != 1 {
		t.Errorf("FilterByCategory = %d rows, want 1", len(got))
	}

	recurring := snap.RecurringRows(time.Date(2023, 6, 15, 0, 0, 0, 0, time.UTC))
	if got := FilterByFrequency(recurring, core.Monthly); len(got) != 1 {
		t.Errorf("FilterByFrequency = %d rows, want 1", len(got))
	}
}

func TestMonthlyReport(t *testing.T) {
	report := testSnapshot().MonthlyReport(2023, 6)

	if report.Income.Cents != 250000 {
		t.Errorf("income = %d, want 250000", report.Income.Cents)
	}
	if report.Expenses.Cents != -13044 {
		t.Errorf("expenses = %d, want -13044", report.Expenses.Cents)
	}
	if report.Net.Cents != 236956 {
		t.Errorf("net = %d, want 236956", report.Net.Cents)
	}

	found := false
	for _, ca := range report.ByCategory {
		if ca.Name == UnknownLabel && ca.Amount.Cents == -999 {
			found = true
		}
	}
	if !found {
		t.Errorf("unknown-category total missing: %+v", report.ByCategory)
	}

	empty := testSnapshot().MonthlyReport(2023, 7)
	if empty.Income.Cents != 0 || empty.Expenses.Cents != 0 || len(empty.ByCategory) != 0 {
		t.Error("report for a month with no transactions should be empty")
	}
}
