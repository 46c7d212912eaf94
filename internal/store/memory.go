package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/spendsight/backend/internal/model"
)

// MemoryStore implements the Store interface with in-memory maps.
// It backs local development and tests, which substitute it for Firestore.
type MemoryStore struct {
	mu            sync.RWMutex
	expenses      map[string]*model.Expense
	incomes       map[string]*model.Income
	subscriptions map[string]*model.Subscription
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses:      make(map[string]*model.Expense),
		incomes:       make(map[string]*model.Income),
		subscriptions: make(map[string]*model.Subscription),
	}
}

// CreateExpense stores a new expense.
func (s *MemoryStore) CreateExpense(_ context.Context, expense *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *expense
	s.expenses[expense.ID] = &cp
	return nil
}

// GetExpense retrieves an expense by id.
func (s *MemoryStore) GetExpense(_ context.Context, expenseID string) (*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expense, ok := s.expenses[expenseID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *expense
	return &cp, nil
}

// UpdateExpense replaces an existing expense.
func (s *MemoryStore) UpdateExpense(_ context.Context, expense *model.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expense.ID]; !ok {
		return ErrNotFound
	}
	cp := *expense
	s.expenses[expense.ID] = &cp
	return nil
}

// DeleteExpense removes an expense by id.
func (s *MemoryStore) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return ErrNotFound
	}
	delete(s.expenses, expenseID)
	return nil
}

// ListExpenses returns all expenses, most recent date first.
func (s *MemoryStore) ListExpenses(_ context.Context) ([]*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expenses := make([]*model.Expense, 0, len(s.expenses))
	for _, expense := range s.expenses {
		cp := *expense
		expenses = append(expenses, &cp)
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date > expenses[j].Date
	})
	return expenses, nil
}

// ListExpensesByDateRange returns expenses with startDate <= date <= endDate.
func (s *MemoryStore) ListExpensesByDateRange(_ context.Context, startDate, endDate string) ([]*model.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var expenses []*model.Expense
	for _, expense := range s.expenses {
		if expense.Date >= startDate && expense.Date <= endDate {
			cp := *expense
			expenses = append(expenses, &cp)
		}
	}
	sort.Slice(expenses, func(i, j int) bool {
		return expenses[i].Date < expenses[j].Date
	})
	return expenses, nil
}

// SumExpenseAmounts returns the all-time expense total.
func (s *MemoryStore) SumExpenseAmounts(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, expense := range s.expenses {
		total += expense.Amount
	}
	return total, nil
}

// CreateIncome stores a new income.
func (s *MemoryStore) CreateIncome(_ context.Context, income *model.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *income
	s.incomes[income.ID] = &cp
	return nil
}

// GetIncome retrieves an income by id.
func (s *MemoryStore) GetIncome(_ context.Context, incomeID string) (*model.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	income, ok := s.incomes[incomeID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *income
	return &cp, nil
}

// UpdateIncome replaces an existing income.
func (s *MemoryStore) UpdateIncome(_ context.Context, income *model.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incomes[income.ID]; !ok {
		return ErrNotFound
	}
	cp := *income
	s.incomes[income.ID] = &cp
	return nil
}

// DeleteIncome removes an income by id.
func (s *MemoryStore) DeleteIncome(_ context.Context, incomeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.incomes[incomeID]; !ok {
		return ErrNotFound
	}
	delete(s.incomes, incomeID)
	return nil
}

// ListIncomes returns all incomes, most recent date first.
func (s *MemoryStore) ListIncomes(_ context.Context) ([]*model.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	incomes := make([]*model.Income, 0, len(s.incomes))
	for _, income := range s.incomes {
		cp := *income
		incomes = append(incomes, &cp)
	}
	sort.Slice(incomes, func(i, j int) bool {
		return incomes[i].Date > incomes[j].Date
	})
	return incomes, nil
}

// ListIncomesByDateRange returns incomes with startDate <= date <= endDate.
func (s *MemoryStore) ListIncomesByDateRange(_ context.Context, startDate, endDate string) ([]*model.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var incomes []*model.Income
	for _, income := range s.incomes {
		if income.Date >= startDate && income.Date <= endDate {
			cp := *income
			incomes = append(incomes, &cp)
		}
	}
	sort.Slice(incomes, func(i, j int) bool {
		return incomes[i].Date < incomes[j].Date
	})
	return incomes, nil
}

// SumIncomeAmounts returns the all-time income total.
func (s *MemoryStore) SumIncomeAmounts(_ context.Context) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total float64
	for _, income := range s.incomes {
		total += income.Amount
	}
	return total, nil
}

// CreateSubscription stores a new subscription.
func (s *MemoryStore) CreateSubscription(_ context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.subscriptions[sub.ID] = copySubscription(sub)
	return nil
}

// GetSubscription retrieves a subscription by id.
func (s *MemoryStore) GetSubscription(_ context.Context, subID string) (*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subscriptions[subID]
	if !ok {
		return nil, ErrNotFound
	}
	return copySubscription(sub), nil
}

// UpdateSubscription replaces an existing subscription.
func (s *MemoryStore) UpdateSubscription(_ context.Context, sub *model.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[sub.ID]; !ok {
		return ErrNotFound
	}
	s.subscriptions[sub.ID] = copySubscription(sub)
	return nil
}

// DeleteSubscription removes a subscription by id.
func (s *MemoryStore) DeleteSubscription(_ context.Context, subID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.subscriptions[subID]; !ok {
		return ErrNotFound
	}
	delete(s.subscriptions, subID)
	return nil
}

// ListSubscriptions returns all subscriptions ordered by title.
func (s *MemoryStore) ListSubscriptions(_ context.Context) ([]*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]*model.Subscription, 0, len(s.subscriptions))
	for _, sub := range s.subscriptions {
		subs = append(subs, copySubscription(sub))
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Title < subs[j].Title
	})
	return subs, nil
}

// ListActiveSubscriptions returns subscriptions with isActive set.
func (s *MemoryStore) ListActiveSubscriptions(_ context.Context) ([]*model.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var subs []*model.Subscription
	for _, sub := range s.subscriptions {
		if sub.IsActive {
			subs = append(subs, copySubscription(sub))
		}
	}
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].Title < subs[j].Title
	})
	return subs, nil
}

// ClaimSubscription performs the conditional watermark advance under the
// store lock, mirroring the single-document atomicity of the Firestore
// transaction.
func (s *MemoryStore) ClaimSubscription(_ context.Context, subID string, monthStart, processedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[subID]
	if !ok {
		return false, ErrNotFound
	}

	if sub.LastProcessedAt != nil && !sub.LastProcessedAt.Before(monthStart) {
		return false, nil
	}

	at := processedAt
	sub.LastProcessedAt = &at
	return true, nil
}

func copySubscription(sub *model.Subscription) *model.Subscription {
	cp := *sub
	if sub.LastProcessedAt != nil {
		at := *sub.LastProcessedAt
		cp.LastProcessedAt = &at
	}
	return &cp
}
