package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// ListGoals returns the user's financial goals.
func (c *Client) ListGoals(ctx context.Context, userUUID uuid.UUID) ([]core.FinancialGoal, error) {
	var resp []GoalResponse
	path := fmt.Sprintf("/reports/api/reports/goals/user/%s", userUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goals := make([]core.FinancialGoal, 0, len(resp))
	for _, g := range resp {
		goals = append(goals, g.Domain())
	}
	return goals, nil
}

// CreateGoalContribution links a committed transaction to a goal.
func (c *Client) CreateGoalContribution(ctx context.Context, goalID int64, txUUID uuid.UUID, amount core.Money) error {
	body := struct {
		TransactionUUID uuid.UUID `json:"transactionUuid"`
		Amount          float64   `json:"amount"`
	}{TransactionUUID: txUUID, Amount: FromCents(amount.Cents)}

	path := fmt.Sprintf("/reports/api/reports/goals/%d/transactions", goalID)
	if err := c.do(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("create goal contribution: %w", err)
	}
	return nil
}

// UpdateGoal replaces the goal's running amount and status.
func (c *Client) UpdateGoal(ctx context.Context, goalID int64, status core.GoalStatus, currAmount core.Money) error {
	body := struct {
		Status     string  `json:"status"`
		CurrAmount float64 `json:"currAmount"`
	}{Status: string(status), CurrAmount: FromCents(currAmount.Cents)}

	path := fmt.Sprintf("/reports/api/reports/goals/%d", goalID)
	if err := c.do(ctx, http.MethodPatch, path, body, nil); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}
