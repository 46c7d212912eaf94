package store

import (
	"context"
	"errors"
	"time"

	"github.com/spendsight/backend/internal/model"
)

// ErrNotFound is returned when an operation targets an id that does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations used by the service.
// Date-range arguments are inclusive YYYY-MM-DD calendar-day strings; the
// serialization guarantees lexicographic order matches chronological order.
type Store interface {
	// Expense operations
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*model.Expense, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	ListExpenses(ctx context.Context) ([]*model.Expense, error)
	ListExpensesByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Expense, error)
	SumExpenseAmounts(ctx context.Context) (float64, error)

	// Income operations
	CreateIncome(ctx context.Context, income *model.Income) error
	GetIncome(ctx context.Context, incomeID string) (*model.Income, error)
	UpdateIncome(ctx context.Context, income *model.Income) error
	DeleteIncome(ctx context.Context, incomeID string) error
	ListIncomes(ctx context.Context) ([]*model.Income, error)
	ListIncomesByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Income, error)
	SumIncomeAmounts(ctx context.Context) (float64, error)

	// Subscription operations
	CreateSubscription(ctx context.Context, sub *model.Subscription) error
	GetSubscription(ctx context.Context, subID string) (*model.Subscription, error)
	UpdateSubscription(ctx context.Context, sub *model.Subscription) error
	DeleteSubscription(ctx context.Context, subID string) error
	ListSubscriptions(ctx context.Context) ([]*model.Subscription, error)
	ListActiveSubscriptions(ctx context.Context) ([]*model.Subscription, error)

	// ClaimSubscription atomically advances the materialization watermark.
	// It sets lastProcessedAt to processedAt only if the current watermark is
	// absent or earlier than monthStart, and reports whether the claim won.
	// The conditional update relies on single-document atomicity, so two
	// concurrent processing runs cannot both claim the same billing cycle.
	ClaimSubscription(ctx context.Context, subID string, monthStart, processedAt time.Time) (bool, error)
}
