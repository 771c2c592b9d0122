package views

import (
	"sort"

	"moneta/internal/core"
)

// CategoryAmount is an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount core.Money
}

// MonthReport is the compact summary for one year+month: inflows,
// outflows and per-category totals over the snapshot.
type MonthReport struct {
	Year       int
	Month      int // 1-12
	Income     core.Money
	Expenses   core.Money
	Net        core.Money
	ByCategory []CategoryAmount
}

// MonthlyReport aggregates the snapshot's transactions for one month.
// The amount sign decides inflow versus outflow; category totals join
// through the category index with the Unknown placeholder.
func (s *Snapshot) MonthlyReport(year, month int) MonthReport {
	categories := s.CategoryByID()

	report := MonthReport{Year: year, Month: month}
	byCategory := make(map[string]int64)

	for _, tx := range s.Transactions {
		if tx.Date.Year() != year || int(tx.Date.Month()) != month {
			continue
		}
		if tx.Amount.Cents >= 0 {
			report.Income = report.Income.Add(tx.Amount)
		} else {
			report.Expenses = report.Expenses.Add(tx.Amount)
		}

		name := UnknownLabel
		if c, ok := categories[tx.CategoryID]; ok {
			name = c.Name
		}
		byCategory[name] += tx.Amount.Cents
	}

	report.Net = report.Income.Add(report.Expenses)
	report.ByCategory = make([]CategoryAmount, 0, len(byCategory))
	for name, cents := range byCategory {
		report.ByCategory = append(report.ByCategory, CategoryAmount{Name: name, Amount: core.Money{Cents: cents}})
	}
	sort.Slice(report.ByCategory, func(i, j int) bool {
		a, b := report.ByCategory[i], report.ByCategory[j]
		if a.Amount.Cents != b.Amount.Cents {
			return a.Amount.Cents < b.Amount.Cents
		}
		return a.Name < b.Name
	})
	return report
}
