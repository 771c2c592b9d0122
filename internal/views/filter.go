package views

import (
	"strings"

	"moneta/internal/core"
)

// Filters are pure predicates over the fetched snapshot; they never
// re-query the backend.

// FilterByDescription keeps transactions whose description contains the
// query, case-insensitively. An empty query keeps everything.
func FilterByDescription(rows []TransactionRow, query string) []TransactionRow {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return rows
	}
	out := make([]TransactionRow, 0, len(rows))
	for _, row := range rows {
		if strings.Contains(strings.ToLower(row.Transaction.Description), query) {
			out = append(out, row)
		}
	}
	return out
}

// FilterByCategory keeps transactions in the named category.
func FilterByCategory(rows []TransactionRow, category string) []TransactionRow {
	if category == "" {
		return rows
	}
	out := make([]TransactionRow, 0, len(rows))
	for _, row := range rows {
		if row.Category == category {
			out = append(out, row)
		}
	}
	return out
}

// FilterByFrequency keeps recurring rows with the given frequency.
func FilterByFrequency(rows []RecurringRow, freq core.Frequency) []RecurringRow {
	if freq == "" {
		return rows
	}
	out := make([]RecurringRow, 0, len(rows))
	for _, row := range rows {
		if row.Rule.Frequency == freq {
			out = append(out, row)
		}
	}
	return out
}

// PartitionBudgets splits budget rows into over-budget and under-budget.
func PartitionBudgets(rows []BudgetRow) (over, under []BudgetRow) {
	for _, row := range rows {
		if row.Over {
			over = append(over, row)
		} else {
			under = append(under, row)
		}
	}
	return over, under
}
