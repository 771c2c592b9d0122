package platform

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"moneta/internal/core"
)

// CreateTransaction appends a transaction to the ledger and returns the
// stored record including its generated uuid.
func (c *Client) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	req := TransactionRequest{
		AccountUUID:  tx.AccountUUID,
		Amount:       FromCents(tx.Amount.Cents),
		Date:         tx.Date.String(),
		Description:  tx.Description,
		CategoryID:   tx.CategoryID,
		BudgetID:     tx.BudgetID,
		RecurrenceID: tx.RecurrenceID,
	}
	var resp TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/transactions/api/transactions", req, &resp); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}
	return resp.Domain(), nil
}

// ListAccountTransactions returns the ledger entries for one account.
func (c *Client) ListAccountTransactions(ctx context.Context, accountUUID uuid.UUID) ([]core.Transaction, []core.RecurrenceRule, error) {
	var resp []TransactionResponse
	path := fmt.Sprintf("/transactions/api/transactions/account/%s", accountUUID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, nil, fmt.Errorf("list account transactions: %w", err)
	}

	transactions := make([]core.Transaction, 0, len(resp))
	seen := make(map[int64]bool)
	var rules []core.RecurrenceRule
	for _, t := range resp {
		transactions = append(transactions, t.Domain())
		if t.Recurrence != nil && !seen[t.Recurrence.ID] {
			seen[t.Recurrence.ID] = true
			rule := t.Recurrence.Domain()
			rule.Description = t.Description
			rule.Amount = core.Money{Cents: ToCents(t.Amount)}
			rule.CategoryID = t.CategoryID
			rules = append(rules, rule)
		}
	}
	return transactions, rules, nil
}
