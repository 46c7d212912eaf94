// Package service holds the business logic of the tracker: entity lifecycle
// operations, the subscription materialization engine, and the aggregation
// engine. The store is an injected dependency so tests can substitute the
// in-memory implementation.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spendsight/backend/internal/model"
	"github.com/spendsight/backend/internal/store"
)

type Service struct {
	store store.Store
	log   zerolog.Logger
	now   func() time.Time
}

// New creates a Service backed by the given store.
func New(st store.Store, log zerolog.Logger) *Service {
	return &Service{
		store: st,
		log:   log,
		now:   time.Now,
	}
}

// CreateExpense validates and persists a new expense, returning it with the
// generated id.
func (s *Service) CreateExpense(ctx context.Context, expense *model.Expense) (*model.Expense, error) {
	if err := expense.Validate(); err != nil {
		return nil, validationErr(err)
	}

	expense.ID = uuid.New().String()
	expense.CreatedAt = s.now()

	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, wrapStoreErr("create expense", err)
	}
	return expense, nil
}

// ListExpenses returns all expenses, most recent date first.
func (s *Service) ListExpenses(ctx context.Context) ([]*model.Expense, error) {
	expenses, err := s.store.ListExpenses(ctx)
	if err != nil {
		return nil, wrapStoreErr("list expenses", err)
	}
	return expenses, nil
}

// UpdateExpense replaces an expense's title, amount, date and category. The
// original creation timestamp is preserved.
func (s *Service) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	if expense.ID == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := expense.Validate(); err != nil {
		return validationErr(err)
	}

	existing, err := s.store.GetExpense(ctx, expense.ID)
	if err != nil {
		return wrapStoreErr("get expense", err)
	}
	expense.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return wrapStoreErr("update expense", err)
	}
	return nil
}

// DeleteExpense removes an expense by id.
func (s *Service) DeleteExpense(ctx context.Context, id string) error {
	if id == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := s.store.DeleteExpense(ctx, id); err != nil {
		return wrapStoreErr("delete expense", err)
	}
	return nil
}

// CreateIncome validates and persists a new income entry.
func (s *Service) CreateIncome(ctx context.Context, income *model.Income) (*model.Income, error) {
	if err := income.Validate(); err != nil {
		return nil, validationErr(err)
	}

	income.ID = uuid.New().String()
	income.CreatedAt = s.now()

	if err := s.store.CreateIncome(ctx, income); err != nil {
		return nil, wrapStoreErr("create income", err)
	}
	return income, nil
}

// ListIncomes returns all income entries, most recent date first.
func (s *Service) ListIncomes(ctx context.Context) ([]*model.Income, error) {
	incomes, err := s.store.ListIncomes(ctx)
	if err != nil {
		return nil, wrapStoreErr("list incomes", err)
	}
	return incomes, nil
}

// UpdateIncome replaces an income entry's name, amount and date.
func (s *Service) UpdateIncome(ctx context.Context, income *model.Income) error {
	if income.ID == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := income.Validate(); err != nil {
		return validationErr(err)
	}

	existing, err := s.store.GetIncome(ctx, income.ID)
	if err != nil {
		return wrapStoreErr("get income", err)
	}
	income.CreatedAt = existing.CreatedAt

	if err := s.store.UpdateIncome(ctx, income); err != nil {
		return wrapStoreErr("update income", err)
	}
	return nil
}

// DeleteIncome removes an income entry by id.
func (s *Service) DeleteIncome(ctx context.Context, id string) error {
	if id == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := s.store.DeleteIncome(ctx, id); err != nil {
		return wrapStoreErr("delete income", err)
	}
	return nil
}

// CreateSubscription validates and persists a new subscription. New
// subscriptions start with no watermark, so the first processing run in
// which the due day has passed will materialize them.
func (s *Service) CreateSubscription(ctx context.Context, sub *model.Subscription) (*model.Subscription, error) {
	if err := sub.Validate(); err != nil {
		return nil, validationErr(err)
	}

	sub.ID = uuid.New().String()
	sub.CreatedAt = s.now()
	sub.LastProcessedAt = nil

	if err := s.store.CreateSubscription(ctx, sub); err != nil {
		return nil, wrapStoreErr("create subscription", err)
	}
	return sub, nil
}

// ListSubscriptions returns all subscriptions ordered by title.
func (s *Service) ListSubscriptions(ctx context.Context) ([]*model.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, wrapStoreErr("list subscriptions", err)
	}
	return subs, nil
}

// UpdateSubscription replaces a subscription's user-editable fields. The
// watermark is carried over from the stored record: only the processor
// mutates it.
func (s *Service) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	if sub.ID == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := sub.Validate(); err != nil {
		return validationErr(err)
	}

	existing, err := s.store.GetSubscription(ctx, sub.ID)
	if err != nil {
		return wrapStoreErr("get subscription", err)
	}
	sub.CreatedAt = existing.CreatedAt
	sub.LastProcessedAt = existing.LastProcessedAt

	if err := s.store.UpdateSubscription(ctx, sub); err != nil {
		return wrapStoreErr("update subscription", err)
	}
	return nil
}

// DeleteSubscription removes a subscription by id. Expenses already
// materialized from it are left intact.
func (s *Service) DeleteSubscription(ctx context.Context, id string) error {
	if id == "" {
		return validationErr(fmt.Errorf("id is required"))
	}
	if err := s.store.DeleteSubscription(ctx, id); err != nil {
		return wrapStoreErr("delete subscription", err)
	}
	return nil
}
