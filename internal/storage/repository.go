// Package storage caches the last fetched aggregate snapshot in SQLite
// so views keep rendering when the backend is unreachable.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"moneta/internal/core"
	"moneta/internal/views"
)

// ErrNoSnapshot is returned when no snapshot has been persisted yet.
var ErrNoSnapshot = errors.New("no snapshot stored")

type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot replaces the stored snapshot wholesale inside one
// transaction.
func (r *Repository) SaveSnapshot(ctx context.Context, snap *views.Snapshot) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot save: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"snapshot_meta", "categories", "transactions", "budgets", "goals", "recurrence_rules", "budget_users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta (id, fetched_at) VALUES (1, ?)`,
		snap.FetchedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot meta: %w", err)
	}

	for _, c := range snap.Categories {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO categories (id, name, type) VALUES (?, ?, ?)`,
			c.ID, c.Name, string(c.Type))
		if err != nil {
			return fmt.Errorf("save category %d: %w", c.ID, err)
		}
	}

	for _, t := range snap.Transactions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO transactions (id, uuid, account_uuid, amount_cents, date, description, category_id, budget_id, recurrence_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			t.ID, t.UUID.String(), t.AccountUUID.String(), t.Amount.Cents, t.Date.String(), t.Description, t.CategoryID, t.BudgetID, t.RecurrenceID)
		if err != nil {
			return fmt.Errorf("save transaction %d: %w", t.ID, err)
		}
	}

	for _, b := range snap.Budgets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO budgets (id, uuid, owner_uuid, name, amount_cents, current_amount_cents, period, category_id, shared, start_date, end_date)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			b.ID, b.UUID.String(), b.OwnerUUID.String(), b.Name, b.Amount.Cents, b.CurrentAmount.Cents, b.Period, b.CategoryID, b.Shared, b.StartDate.String(), b.EndDate.String())
		if err != nil {
			return fmt.Errorf("save budget %d: %w", b.ID, err)
		}
	}

	for _, g := range snap.Goals {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO goals (id, owner_uuid, name, target_amount_cents, curr_amount_cents, deadline, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			g.ID, g.OwnerUUID.String(), g.Name, g.TargetAmount.Cents, g.CurrAmount.Cents, g.Deadline.String(), string(g.Status))
		if err != nil {
			return fmt.Errorf("save goal %d: %w", g.ID, err)
		}
	}

	for _, rule := range snap.Rules {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO recurrence_rules (id, frequency, start_date, end_date, description, amount_cents, category_id)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rule.ID, string(rule.Frequency), rule.StartDate.String(), rule.EndDate.String(), rule.Description, rule.Amount.Cents, rule.CategoryID)
		if err != nil {
			return fmt.Errorf("save recurrence rule %d: %w", rule.ID, err)
		}
	}

	for budgetID, users := range snap.BudgetUsers {
		for _, user := range users {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO budget_users (budget_id, user_uuid) VALUES (?, ?)`,
				budgetID, user.String())
			if err != nil {
				return fmt.Errorf("save budget user %d/%s: %w", budgetID, user, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved",
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets),
		"goals", len(snap.Goals),
		"fetched_at", snap.FetchedAt.Format(time.RFC3339))

	return nil
}

// LoadSnapshot reads the stored snapshot, or ErrNoSnapshot.
func (r *Repository) LoadSnapshot(ctx context.Context) (*views.Snapshot, error) {
	snap := &views.Snapshot{BudgetUsers: make(map[int64][]uuid.UUID)}

	var fetchedAt string
	err := r.db.QueryRowContext(ctx, `SELECT fetched_at FROM snapshot_meta WHERE id = 1`).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot meta: %w", err)
	}
	if snap.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt); err != nil {
		return nil, fmt.Errorf("parse snapshot timestamp: %w", err)
	}

	if err := r.loadCategories(ctx, snap); err != nil {
		return nil, err
	}
	if err := r.loadTransactions(ctx, snap); err != nil {
		return nil, err
	}
	if err := r.loadBudgets(ctx, snap); err != nil {
		return nil, err
	}
	if err := r.loadGoals(ctx, snap); err != nil {
		return nil, err
	}
	if err := r.loadRules(ctx, snap); err != nil {
		return nil, err
	}
	if err := r.loadBudgetUsers(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *Repository) loadCategories(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, type FROM categories ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.CategoryType(typ)
		snap.Categories = append(snap.Categories, c)
	}
	return rows.Err()
}

func (r *Repository) loadTransactions(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uuid, account_uuid, amount_cents, date, description, category_id, budget_id, recurrence_id
		 FROM transactions ORDER BY date DESC, id DESC`)
	if err != nil {
		return fmt.Errorf("load transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var t core.Transaction
		var txUUID, accountUUID, date string
		if err := rows.Scan(&t.ID, &txUUID, &accountUUID, &t.Amount.Cents, &date, &t.Description, &t.CategoryID, &t.BudgetID, &t.RecurrenceID); err != nil {
			return fmt.Errorf("scan transaction: %w", err)
		}
		t.UUID, _ = uuid.Parse(txUUID)
		t.AccountUUID, _ = uuid.Parse(accountUUID)
		t.Date, _ = core.ParseDate(date)
		snap.Transactions = append(snap.Transactions, t)
	}
	return rows.Err()
}

func (r *Repository) loadBudgets(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, uuid, owner_uuid, name, amount_cents, current_amount_cents, period, category_id, shared, start_date, end_date
		 FROM budgets ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load budgets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var b core.Budget
		var bUUID, ownerUUID, start, end string
		if err := rows.Scan(&b.ID, &bUUID, &ownerUUID, &b.Name, &b.Amount.Cents, &b.CurrentAmount.Cents, &b.Period, &b.CategoryID, &b.Shared, &start, &end); err != nil {
			return fmt.Errorf("scan budget: %w", err)
		}
		b.UUID, _ = uuid.Parse(bUUID)
		b.OwnerUUID, _ = uuid.Parse(ownerUUID)
		b.StartDate, _ = core.ParseDate(start)
		b.EndDate, _ = core.ParseDate(end)
		snap.Budgets = append(snap.Budgets, b)
	}
	return rows.Err()
}

func (r *Repository) loadGoals(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_uuid, name, target_amount_cents, curr_amount_cents, deadline, status FROM goals ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load goals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g core.FinancialGoal
		var ownerUUID, deadline, status string
		if err := rows.Scan(&g.ID, &ownerUUID, &g.Name, &g.TargetAmount.Cents, &g.CurrAmount.Cents, &deadline, &status); err != nil {
			return fmt.Errorf("scan goal: %w", err)
		}
		g.OwnerUUID, _ = uuid.Parse(ownerUUID)
		g.Deadline, _ = core.ParseDate(deadline)
		g.Status = core.GoalStatus(status)
		snap.Goals = append(snap.Goals, g)
	}
	return rows.Err()
}

func (r *Repository) loadRules(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, frequency, start_date, end_date, description, amount_cents, category_id FROM recurrence_rules ORDER BY id`)
	if err != nil {
		return fmt.Errorf("load recurrence rules: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rule core.RecurrenceRule
		var freq, start, end string
		if err := rows.Scan(&rule.ID, &freq, &start, &end, &rule.Description, &rule.Amount.Cents, &rule.CategoryID); err != nil {
			return fmt.Errorf("scan recurrence rule: %w", err)
		}
		rule.Frequency = core.Frequency(freq)
		rule.StartDate, _ = core.ParseDate(start)
		rule.EndDate, _ = core.ParseDate(end)
		snap.Rules = append(snap.Rules, rule)
	}
	return rows.Err()
}

func (r *Repository) loadBudgetUsers(ctx context.Context, snap *views.Snapshot) error {
	rows, err := r.db.QueryContext(ctx, `SELECT budget_id, user_uuid FROM budget_users`)
	if err != nil {
		return fmt.Errorf("load budget users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var budgetID int64
		var userUUID string
		if err := rows.Scan(&budgetID, &userUUID); err != nil {
			return fmt.Errorf("scan budget user: %w", err)
		}
		if user, err := uuid.Parse(userUUID); err == nil {
			snap.BudgetUsers[budgetID] = append(snap.BudgetUsers[budgetID], user)
		}
	}
	return rows.Err()
}
