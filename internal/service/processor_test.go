package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/spendsight/backend/internal/model"
	"github.com/spendsight/backend/internal/store"
)

func newTestService(st store.Store) *Service {
	return New(st, zerolog.Nop())
}

func seedSubscription(t *testing.T, st *store.MemoryStore, sub *model.Subscription) {
	t.Helper()
	if sub.ID == "" {
		sub.ID = "sub-" + sub.Title
	}
	if err := st.CreateSubscription(context.Background(), sub); err != nil {
		t.Fatalf("failed to seed subscription: %v", err)
	}
}

func TestProcessDueSubscriptions_CreatesExpense(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title:    "Netflix",
		Amount:   200,
		Category: "Entertainment",
		DueDay:   15,
		IsActive: true,
	})

	// Day 16, past the due day, never processed before.
	ref := time.Date(2026, time.March, 16, 10, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 1 {
		t.Errorf("expected processedCount=1, got %d", result.Processed)
	}
	if result.Errors != 0 {
		t.Errorf("expected errorCount=0, got %d", result.Errors)
	}

	expenses, err := st.ListExpenses(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}

	expense := expenses[0]
	if expense.Title != "Subscription: Netflix" {
		t.Errorf("expected title 'Subscription: Netflix', got %q", expense.Title)
	}
	if expense.Amount != 200 {
		t.Errorf("expected amount 200, got %f", expense.Amount)
	}
	if expense.Category != "Entertainment" {
		t.Errorf("expected category 'Entertainment', got %q", expense.Category)
	}
	if expense.Date != "2026-03-15" {
		t.Errorf("expected expense dated at the due day, got %q", expense.Date)
	}
}

func TestProcessDueSubscriptions_SecondRunSameMonthIsNoop(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title:    "Gym",
		Amount:   49.99,
		Category: "Healthcare",
		DueDay:   15,
		IsActive: true,
	})

	ref := time.Date(2026, time.March, 16, 10, 0, 0, 0, time.UTC)
	first, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Processed != 1 {
		t.Fatalf("expected first run processedCount=1, got %d", first.Processed)
	}

	second, err := svc.ProcessDueSubscriptions(context.Background(), ref.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Processed != 0 {
		t.Errorf("expected second run processedCount=0, got %d", second.Processed)
	}
	if second.Skipped != 1 {
		t.Errorf("expected second run skippedCount=1, got %d", second.Skipped)
	}

	expenses, _ := st.ListExpenses(context.Background())
	if len(expenses) != 1 {
		t.Errorf("expected exactly 1 expense after two runs, got %d", len(expenses))
	}
}

func TestProcessDueSubscriptions_NotYetDue(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title:    "Spotify",
		Amount:   9.99,
		Category: "Entertainment",
		DueDay:   20,
		IsActive: true,
	})

	ref := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 0 {
		t.Errorf("expected processedCount=0, got %d", result.Processed)
	}
	if result.Skipped != 1 {
		t.Errorf("expected skippedCount=1, got %d", result.Skipped)
	}
}

func TestProcessDueSubscriptions_InactiveIgnored(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title:    "Cancelled Magazine",
		Amount:   5,
		Category: "Other",
		DueDay:   1,
		IsActive: false,
	})

	ref := time.Date(2026, time.March, 16, 0, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 0 || result.Skipped != 0 {
		t.Errorf("expected inactive subscription to be invisible, got %+v", result)
	}
}

func TestProcessDueSubscriptions_NewMonthMaterializesAgain(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	lastMonth := time.Date(2026, time.February, 16, 9, 0, 0, 0, time.UTC)
	seedSubscription(t, st, &model.Subscription{
		Title:           "Internet",
		Amount:          60,
		Category:        "Utilities",
		DueDay:          15,
		IsActive:        true,
		LastProcessedAt: &lastMonth,
	})

	ref := time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 {
		t.Errorf("expected processedCount=1 in the new month, got %d", result.Processed)
	}
}

func TestProcessDueSubscriptions_WatermarkAdvances(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		ID:       "sub-rent",
		Title:    "Rent",
		Amount:   1200,
		Category: "Rent & Housing",
		DueDay:   1,
		IsActive: true,
	})

	ref := time.Date(2026, time.March, 3, 12, 30, 0, 0, time.UTC)
	if _, err := svc.ProcessDueSubscriptions(context.Background(), ref); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sub, err := st.GetSubscription(context.Background(), "sub-rent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.LastProcessedAt == nil {
		t.Fatal("expected lastProcessedAt to be set")
	}
	// The watermark records the processing time, not the synthetic due date.
	if !sub.LastProcessedAt.Equal(ref) {
		t.Errorf("expected lastProcessedAt=%v, got %v", ref, *sub.LastProcessedAt)
	}
}

func TestProcessDueSubscriptions_ClampsDueDayToMonthEnd(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title:    "Insurance",
		Amount:   80,
		Category: "Other",
		DueDay:   31,
		IsActive: true,
	})

	// February 2026 has 28 days; day 28 is the clamped due day.
	ref := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("expected processedCount=1, got %d", result.Processed)
	}

	expenses, _ := st.ListExpenses(context.Background())
	if len(expenses) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(expenses))
	}
	if expenses[0].Date != "2026-02-28" {
		t.Errorf("expected expense clamped to month end, got %q", expenses[0].Date)
	}
}

func TestProcessDueSubscriptions_MixedBatch(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title: "Due", Amount: 10, Category: "Other", DueDay: 5, IsActive: true,
	})
	seedSubscription(t, st, &model.Subscription{
		Title: "NotDue", Amount: 20, Category: "Other", DueDay: 25, IsActive: true,
	})

	ref := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 1 {
		t.Errorf("expected processedCount=1, got %d", result.Processed)
	}
	if result.Skipped != 1 {
		t.Errorf("expected skippedCount=1, got %d", result.Skipped)
	}
}

// failingExpenseStore makes expense inserts fail for titles containing a
// marker, to exercise per-subscription error isolation.
type failingExpenseStore struct {
	*store.MemoryStore
}

func (s *failingExpenseStore) CreateExpense(ctx context.Context, expense *model.Expense) error {
	if strings.Contains(expense.Title, "Broken") {
		return errors.New("write rejected")
	}
	return s.MemoryStore.CreateExpense(ctx, expense)
}

func TestProcessDueSubscriptions_IsolatesPerSubscriptionFailures(t *testing.T) {
	mem := store.NewMemoryStore()
	svc := newTestService(&failingExpenseStore{MemoryStore: mem})

	seedSubscription(t, mem, &model.Subscription{
		Title: "Broken", Amount: 10, Category: "Other", DueDay: 1, IsActive: true,
	})
	seedSubscription(t, mem, &model.Subscription{
		Title: "Working", Amount: 15, Category: "Other", DueDay: 1, IsActive: true,
	})

	ref := time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)
	result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Processed != 1 {
		t.Errorf("expected the healthy subscription to be processed, got processedCount=%d", result.Processed)
	}
	if result.Errors != 1 {
		t.Errorf("expected errorCount=1, got %d", result.Errors)
	}

	expenses, _ := mem.ListExpenses(context.Background())
	if len(expenses) != 1 {
		t.Errorf("expected 1 expense from the healthy subscription, got %d", len(expenses))
	}
}

// unavailableStore fails the subscription listing, simulating an outage.
type unavailableStore struct {
	*store.MemoryStore
}

func (s *unavailableStore) ListActiveSubscriptions(context.Context) ([]*model.Subscription, error) {
	return nil, errors.New("connection refused")
}

func TestProcessDueSubscriptions_StoreOutageFailsRun(t *testing.T) {
	svc := newTestService(&unavailableStore{MemoryStore: store.NewMemoryStore()})

	_, err := svc.ProcessDueSubscriptions(context.Background(), time.Now())
	if err == nil {
		t.Fatal("expected an error when the store is unreachable")
	}
	if !IsUnavailable(err) {
		t.Errorf("expected an unavailable classification, got %v", err)
	}
}

func TestProcessDueSubscriptions_ConcurrentRunsSingleMaterialization(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(st)

	seedSubscription(t, st, &model.Subscription{
		Title: "Phone", Amount: 30, Category: "Utilities", DueDay: 1, IsActive: true,
	})

	ref := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	results := make([]ProcessResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.ProcessDueSubscriptions(context.Background(), ref)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			results[i] = result
		}(i)
	}
	wg.Wait()

	var total int
	for _, r := range results {
		total += r.Processed
	}
	if total != 1 {
		t.Errorf("expected exactly one materialization across concurrent runs, got %d", total)
	}

	expenses, _ := st.ListExpenses(context.Background())
	if len(expenses) != 1 {
		t.Errorf("expected 1 expense, got %d", len(expenses))
	}
}
