package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/spendsight/backend/internal/model"
)

const (
	expensesCollection      = "expenses"
	incomesCollection       = "incomes"
	subscriptionsCollection = "subscriptions"
)

// FirestoreStore implements the Store interface using Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store.
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

// mapNotFound translates the Firestore NotFound status into the store's
// sentinel so callers can distinguish missing ids from outages.
func mapNotFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

// CreateExpense creates a new expense in Firestore.
func (s *FirestoreStore) CreateExpense(ctx context.Context, expense *model.Expense) error {
	_, err := s.client.Collection(expensesCollection).Doc(expense.ID).Set(ctx, expense)
	return err
}

// GetExpense retrieves an expense from Firestore.
func (s *FirestoreStore) GetExpense(ctx context.Context, expenseID string) (*model.Expense, error) {
	doc, err := s.client.Collection(expensesCollection).Doc(expenseID).Get(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var expense model.Expense
	if err := doc.DataTo(&expense); err != nil {
		return nil, fmt.Errorf("failed to parse expense: %w", err)
	}
	return &expense, nil
}

// UpdateExpense replaces an existing expense in Firestore.
func (s *FirestoreStore) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	ref := s.client.Collection(expensesCollection).Doc(expense.ID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Set(ctx, expense)
	return err
}

// DeleteExpense deletes an expense from Firestore.
func (s *FirestoreStore) DeleteExpense(ctx context.Context, expenseID string) error {
	ref := s.client.Collection(expensesCollection).Doc(expenseID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Delete(ctx)
	return err
}

// ListExpenses lists all expenses, most recent date first.
func (s *FirestoreStore) ListExpenses(ctx context.Context) ([]*model.Expense, error) {
	docs, err := s.client.Collection(expensesCollection).
		OrderBy("date", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses := make([]*model.Expense, 0, len(docs))
	for _, doc := range docs {
		var expense model.Expense
		if err := doc.DataTo(&expense); err != nil {
			return nil, fmt.Errorf("failed to parse expense: %w", err)
		}
		expenses = append(expenses, &expense)
	}
	return expenses, nil
}

// ListExpensesByDateRange lists expenses whose date falls in [startDate, endDate].
// Dates are calendar-day strings, so the range comparison is a string comparison.
func (s *FirestoreStore) ListExpensesByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Expense, error) {
	docs, err := s.client.Collection(expensesCollection).
		Where("date", ">=", startDate).
		Where("date", "<=", endDate).
		OrderBy("date", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses := make([]*model.Expense, 0, len(docs))
	for _, doc := range docs {
		var expense model.Expense
		if err := doc.DataTo(&expense); err != nil {
			return nil, fmt.Errorf("failed to parse expense: %w", err)
		}
		expenses = append(expenses, &expense)
	}
	return expenses, nil
}

// SumExpenseAmounts returns the all-time expense total via a server-side
// aggregation query.
func (s *FirestoreStore) SumExpenseAmounts(ctx context.Context) (float64, error) {
	return s.sumAmounts(ctx, expensesCollection)
}

// CreateIncome creates a new income in Firestore.
func (s *FirestoreStore) CreateIncome(ctx context.Context, income *model.Income) error {
	_, err := s.client.Collection(incomesCollection).Doc(income.ID).Set(ctx, income)
	return err
}

// GetIncome retrieves an income from Firestore.
func (s *FirestoreStore) GetIncome(ctx context.Context, incomeID string) (*model.Income, error) {
	doc, err := s.client.Collection(incomesCollection).Doc(incomeID).Get(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var income model.Income
	if err := doc.DataTo(&income); err != nil {
		return nil, fmt.Errorf("failed to parse income: %w", err)
	}
	return &income, nil
}

// UpdateIncome replaces an existing income in Firestore.
func (s *FirestoreStore) UpdateIncome(ctx context.Context, income *model.Income) error {
	ref := s.client.Collection(incomesCollection).Doc(income.ID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Set(ctx, income)
	return err
}

// DeleteIncome deletes an income from Firestore.
func (s *FirestoreStore) DeleteIncome(ctx context.Context, incomeID string) error {
	ref := s.client.Collection(incomesCollection).Doc(incomeID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Delete(ctx)
	return err
}

// ListIncomes lists all incomes, most recent date first.
func (s *FirestoreStore) ListIncomes(ctx context.Context) ([]*model.Income, error) {
	docs, err := s.client.Collection(incomesCollection).
		OrderBy("date", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}

	incomes := make([]*model.Income, 0, len(docs))
	for _, doc := range docs {
		var income model.Income
		if err := doc.DataTo(&income); err != nil {
			return nil, fmt.Errorf("failed to parse income: %w", err)
		}
		incomes = append(incomes, &income)
	}
	return incomes, nil
}

// ListIncomesByDateRange lists incomes whose date falls in [startDate, endDate].
func (s *FirestoreStore) ListIncomesByDateRange(ctx context.Context, startDate, endDate string) ([]*model.Income, error) {
	docs, err := s.client.Collection(incomesCollection).
		Where("date", ">=", startDate).
		Where("date", "<=", endDate).
		OrderBy("date", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list incomes: %w", err)
	}

	incomes := make([]*model.Income, 0, len(docs))
	for _, doc := range docs {
		var income model.Income
		if err := doc.DataTo(&income); err != nil {
			return nil, fmt.Errorf("failed to parse income: %w", err)
		}
		incomes = append(incomes, &income)
	}
	return incomes, nil
}

// SumIncomeAmounts returns the all-time income total via a server-side
// aggregation query.
func (s *FirestoreStore) SumIncomeAmounts(ctx context.Context) (float64, error) {
	return s.sumAmounts(ctx, incomesCollection)
}

// CreateSubscription creates a new subscription in Firestore.
func (s *FirestoreStore) CreateSubscription(ctx context.Context, sub *model.Subscription) error {
	_, err := s.client.Collection(subscriptionsCollection).Doc(sub.ID).Set(ctx, sub)
	return err
}

// GetSubscription retrieves a subscription from Firestore.
func (s *FirestoreStore) GetSubscription(ctx context.Context, subID string) (*model.Subscription, error) {
	doc, err := s.client.Collection(subscriptionsCollection).Doc(subID).Get(ctx)
	if err != nil {
		return nil, mapNotFound(err)
	}

	var sub model.Subscription
	if err := doc.DataTo(&sub); err != nil {
		return nil, fmt.Errorf("failed to parse subscription: %w", err)
	}
	return &sub, nil
}

// UpdateSubscription replaces an existing subscription in Firestore.
func (s *FirestoreStore) UpdateSubscription(ctx context.Context, sub *model.Subscription) error {
	ref := s.client.Collection(subscriptionsCollection).Doc(sub.ID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Set(ctx, sub)
	return err
}

// DeleteSubscription deletes a subscription from Firestore. Previously
// materialized expenses are left intact.
func (s *FirestoreStore) DeleteSubscription(ctx context.Context, subID string) error {
	ref := s.client.Collection(subscriptionsCollection).Doc(subID)
	if _, err := ref.Get(ctx); err != nil {
		return mapNotFound(err)
	}

	_, err := ref.Delete(ctx)
	return err
}

// ListSubscriptions lists all subscriptions ordered by title.
func (s *FirestoreStore) ListSubscriptions(ctx context.Context) ([]*model.Subscription, error) {
	docs, err := s.client.Collection(subscriptionsCollection).
		OrderBy("title", firestore.Asc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return subscriptionsFromDocs(docs)
}

// ListActiveSubscriptions lists subscriptions with isActive set.
func (s *FirestoreStore) ListActiveSubscriptions(ctx context.Context) ([]*model.Subscription, error) {
	docs, err := s.client.Collection(subscriptionsCollection).
		Where("isActive", "==", true).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list active subscriptions: %w", err)
	}

	return subscriptionsFromDocs(docs)
}

// ClaimSubscription advances the watermark inside a transaction so the
// check-and-set cannot interleave with a concurrent processing run.
func (s *FirestoreStore) ClaimSubscription(ctx context.Context, subID string, monthStart, processedAt time.Time) (bool, error) {
	var claimed bool

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.client.Collection(subscriptionsCollection).Doc(subID)
		doc, err := tx.Get(ref)
		if err != nil {
			return mapNotFound(err)
		}

		var sub model.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return fmt.Errorf("failed to parse subscription: %w", err)
		}

		if sub.LastProcessedAt != nil && !sub.LastProcessedAt.Before(monthStart) {
			claimed = false
			return nil
		}

		claimed = true
		return tx.Update(ref, []firestore.Update{
			{Path: "lastProcessedAt", Value: processedAt},
		})
	})
	if err != nil {
		return false, err
	}
	return claimed, nil
}

func (s *FirestoreStore) sumAmounts(ctx context.Context, collection string) (float64, error) {
	result, err := s.client.Collection(collection).Query.
		NewAggregationQuery().
		WithSum("amount", "total").
		Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to sum %s amounts: %w", collection, err)
	}

	raw, ok := result["total"]
	if !ok {
		return 0, nil
	}
	value, ok := raw.(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("unexpected aggregation result type %T", raw)
	}

	// The sum comes back as an integer when every summed value is integral.
	if iv := value.GetIntegerValue(); iv != 0 {
		return float64(iv), nil
	}
	return value.GetDoubleValue(), nil
}

func subscriptionsFromDocs(docs []*firestore.DocumentSnapshot) ([]*model.Subscription, error) {
	subs := make([]*model.Subscription, 0, len(docs))
	for _, doc := range docs {
		var sub model.Subscription
		if err := doc.DataTo(&sub); err != nil {
			return nil, fmt.Errorf("failed to parse subscription: %w", err)
		}
		subs = append(subs, &sub)
	}
	return subs, nil
}
