package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spendsight/backend/internal/model"
)

// Summary is the aggregation result for one period.
type Summary struct {
	Label            string             `json:"label"`
	TotalIncome      float64            `json:"totalIncome"`
	TotalExpenses    float64            `json:"totalExpenses"`
	RemainingBalance float64            `json:"remainingBalance"`
	CategoryTotals   map[string]float64 `json:"categoryTotals"`
	Expenses         []*model.Expense   `json:"expenses"`
	Incomes          []*model.Income    `json:"incomes"`
}

// MonthlySummary is the condensed per-month shape used by trailing views.
type MonthlySummary struct {
	Month          string             `json:"month"`
	Expenses       float64            `json:"expenses"`
	Income         float64            `json:"income"`
	Savings        float64            `json:"savings"`
	CategoryTotals map[string]float64 `json:"categoryTotals"`
}

// Totals holds all-time income and expense totals.
type Totals struct {
	TotalIncome      float64 `json:"totalIncome"`
	TotalExpenses    float64 `json:"totalExpenses"`
	RemainingBalance float64 `json:"remainingBalance"`
}

// Summarize computes totals and the per-category breakdown for a period.
// Monetary sums accumulate in decimals, not binary floats, so the reported
// totals are exact for any set of two-decimal amounts.
func (s *Service) Summarize(ctx context.Context, period Period) (*Summary, error) {
	startDate, endDate := period.Bounds()

	expenses, err := s.store.ListExpensesByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, wrapStoreErr("list expenses", err)
	}
	incomes, err := s.store.ListIncomesByDateRange(ctx, startDate, endDate)
	if err != nil {
		return nil, wrapStoreErr("list incomes", err)
	}

	totalExpenses := decimal.Zero
	categoryTotals := make(map[string]decimal.Decimal)
	for _, expense := range expenses {
		amount := decimal.NewFromFloat(expense.Amount)
		totalExpenses = totalExpenses.Add(amount)
		categoryTotals[expense.Category] = categoryTotals[expense.Category].Add(amount)
	}

	totalIncome := decimal.Zero
	for _, income := range incomes {
		totalIncome = totalIncome.Add(decimal.NewFromFloat(income.Amount))
	}

	return &Summary{
		Label:            period.Label(),
		TotalIncome:      totalIncome.InexactFloat64(),
		TotalExpenses:    totalExpenses.InexactFloat64(),
		RemainingBalance: totalIncome.Sub(totalExpenses).InexactFloat64(),
		CategoryTotals:   categoryFloats(categoryTotals),
		Expenses:         expenses,
		Incomes:          incomes,
	}, nil
}

// SummarizeMonths computes one summary per calendar month of a year, January
// through December.
func (s *Service) SummarizeMonths(ctx context.Context, year int) ([]*Summary, error) {
	summaries := make([]*Summary, 0, 12)
	for month := time.January; month <= time.December; month++ {
		summary, err := s.Summarize(ctx, Period{Year: year, Month: month})
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// SummarizeTrailing computes per-month summaries for the monthCount months
// ending at referenceDate's (partial) month, most recent first. Callers that
// present the data chronologically reverse the slice.
func (s *Service) SummarizeTrailing(ctx context.Context, monthCount int, referenceDate time.Time) ([]*MonthlySummary, error) {
	months := make([]*MonthlySummary, 0, monthCount)

	for i := 0; i < monthCount; i++ {
		period := monthOf(startOfMonth(referenceDate).AddDate(0, -i, 0))
		summary, err := s.Summarize(ctx, period)
		if err != nil {
			return nil, err
		}

		months = append(months, &MonthlySummary{
			Month:          time.Date(period.Year, period.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006"),
			Expenses:       summary.TotalExpenses,
			Income:         summary.TotalIncome,
			Savings:        summary.RemainingBalance,
			CategoryTotals: summary.CategoryTotals,
		})
	}
	return months, nil
}

// AllTimeTotals returns the running totals across every stored record, using
// the store's aggregate queries.
func (s *Service) AllTimeTotals(ctx context.Context) (*Totals, error) {
	totalIncome, err := s.store.SumIncomeAmounts(ctx)
	if err != nil {
		return nil, wrapStoreErr("sum incomes", err)
	}
	totalExpenses, err := s.store.SumExpenseAmounts(ctx)
	if err != nil {
		return nil, wrapStoreErr("sum expenses", err)
	}

	income := decimal.NewFromFloat(totalIncome)
	expenses := decimal.NewFromFloat(totalExpenses)

	return &Totals{
		TotalIncome:      income.InexactFloat64(),
		TotalExpenses:    expenses.InexactFloat64(),
		RemainingBalance: income.Sub(expenses).InexactFloat64(),
	}, nil
}

// categoryFloats converts the decimal accumulators to the response
// representation. Categories with no expenses in the period are absent, not
// zero.
func categoryFloats(totals map[string]decimal.Decimal) map[string]float64 {
	out := make(map[string]float64, len(totals))
	for category, total := range totals {
		out[category] = total.InexactFloat64()
	}
	return out
}
