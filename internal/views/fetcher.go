package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"moneta/internal/core"
)

// Source is the slice of the platform client the read path needs.
type Source interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListBudgets(ctx context.Context, userUUID uuid.UUID) ([]core.Budget, error)
	ListGoals(ctx context.Context, userUUID uuid.UUID) ([]core.FinancialGoal, error)
	ListAccountTransactions(ctx context.Context, accountUUID uuid.UUID) ([]core.Transaction, []core.RecurrenceRule, error)
	ListBudgetUsers(ctx context.Context, budgetID int64) ([]uuid.UUID, error)
}

// Fetcher loads aggregate snapshots from the backend.
type Fetcher struct {
	source Source
	now    func() time.Time
}

func NewFetcher(source Source) *Fetcher {
	return &Fetcher{source: source, now: time.Now}
}

// Load fetches the user's aggregates. Categories, budgets and goals are
// fetched concurrently and any failure fails the load. Per-account
// transaction fetches are best-effort: a failing account is logged and
// skipped so one broken account does not blank every view.
func (f *Fetcher) Load(ctx context.Context, userUUID uuid.UUID, accountUUIDs []uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{
		FetchedAt:   f.now(),
		BudgetUsers: make(map[int64][]uuid.UUID),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		categories, err := f.source.ListCategories(gctx)
		if err != nil {
			return fmt.Errorf("load categories: %w", err)
		}
		snap.Categories = categories
		return nil
	})
	g.Go(func() error {
		budgets, err := f.source.ListBudgets(gctx, userUUID)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		snap.Budgets = budgets
		return nil
	})
	g.Go(func() error {
		goals, err := f.source.ListGoals(gctx, userUUID)
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		snap.Goals = goals
		return nil
	})

	var mu sync.Mutex
	for _, account := range accountUUIDs {
		g.Go(func() error {
			transactions, rules, err := f.source.ListAccountTransactions(gctx, account)
			if err != nil {
				slog.WarnContext(gctx, "Skipping account, transaction fetch failed",
					"account", account,
					"error", err)
				return nil
			}
			mu.Lock()
			snap.Transactions = append(snap.Transactions, transactions...)
			snap.Rules = append(snap.Rules, rules...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, b := range snap.Budgets {
		if !b.Shared {
			continue
		}
		users, err := f.source.ListBudgetUsers(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("load users for budget %d: %w", b.ID, err)
		}
		snap.BudgetUsers[b.ID] = users
	}

	return snap, nil
}
