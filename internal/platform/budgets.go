package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// ListBudgets returns all budgets owned by or shared with the user.
func (c *Client) ListBudgets(ctx context.Context, userUUID uuid.UUID) ([]core.Budget, error) {
	var resp []BudgetResponse
	path := fmt.Sprintf("/budgets/api/budgets/user/%s", userUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	budgets := make([]core.Budget, 0, len(resp))
	for _, b := range resp {
		budgets = append(budgets, b.Domain())
	}
	return budgets, nil
}

// CreateBudget creates a budget and returns the stored record.
func (c *Client) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	req := BudgetRequest{
		Name:       b.Name,
		Amount:     FromCents(b.Amount.Cents),
		Period:     b.Period,
		CategoryID: b.CategoryID,
		Shared:     b.Shared,
		StartDate:  b.StartDate.String(),
		EndDate:    b.EndDate.String(),
	}
	var resp BudgetResponse
	if err := c.do(ctx, http.MethodPost, "/budgets/api/budgets", req, &resp); err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return resp.Domain(), nil
}

// UpdateBudgetAmount replaces the budget's running total. The backend
// treats this as a full-replace of the field, not an atomic increment.
func (c *Client) UpdateBudgetAmount(ctx context.Context, budgetID int64, currentAmount core.Money) error {
	body := struct {
		CurrentAmount float64 `json:"currentAmount"`
	}{CurrentAmount: FromCents(currentAmount.Cents)}

	path := fmt.Sprintf("/budgets/api/budgets/%d", budgetID)
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update budget amount: %w", err)
	}
	return nil
}

// ListCategories returns the read-only category reference data.
func (c *Client) ListCategories(ctx context.Context) ([]core.Category, error) {
	var resp []CategoryResponse
	if err := c.do(ctx, http.MethodGet, "/budgets/api/budgets/categories", nil, &resp); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	categories := make([]core.Category, 0, len(resp))
	for _, cat := range resp {
		categories = append(categories, cat.Domain())
	}
	return categories, nil
}

// ListBudgetUsers returns the users a shared budget is visible to.
func (c *Client) ListBudgetUsers(ctx context.Context, budgetID int64) ([]uuid.UUID, error) {
	var resp []struct {
		UUID uuid.UUID `json:"uuid"`
	}
	path := fmt.Sprintf("/budgets/api/budgets/%d/users", budgetID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list budget users: %w", err)
	}
	users := make([]uuid.UUID, 0, len(resp))
	for _, u := range resp {
		users = append(users, u.UUID)
	}
	return users, nil
}

// AssignBudgetUser grants a user access to a shared budget.
func (c *Client) AssignBudgetUser(ctx context.Context, budgetID int64, userUUID uuid.UUID) error {
	body := struct {
		UUID uuid.UUID `json:"uuid"`
	}{UUID: userUUID}

	path := fmt.Sprintf("/budgets/api/budgets/%d/users", budgetID)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("assign budget user: %w", err)
	}
	return nil
}
