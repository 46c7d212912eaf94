package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spendsight/backend/internal/model"
)

// ProcessResult reports the outcome of one processing run.
type ProcessResult struct {
	Processed int `json:"processedCount"`
	Skipped   int `json:"skippedCount"`
	Errors    int `json:"errorCount"`
}

// ProcessDueSubscriptions materializes every active subscription that is due
// in the billing cycle containing referenceDate, creating one expense per
// subscription per calendar month.
//
// Each subscription is an independent unit: a failure materializing one is
// logged and counted but does not abort the batch. Only a failure listing the
// subscriptions fails the whole run.
//
// The due check is advisory; the watermark advance goes through the store's
// atomic claim, so a concurrent run racing on the same subscription cannot
// double-materialize it. A claim that wins but whose expense insert then
// fails skips that subscription's cycle rather than risking a duplicate
// charge; the error is reported and the subscription picks up again next
// month.
func (s *Service) ProcessDueSubscriptions(ctx context.Context, referenceDate time.Time) (ProcessResult, error) {
	var result ProcessResult

	subs, err := s.store.ListActiveSubscriptions(ctx)
	if err != nil {
		return result, wrapStoreErr("list active subscriptions", err)
	}

	monthStart := startOfMonth(referenceDate)

	for _, sub := range subs {
		if !subscriptionDue(sub, referenceDate) {
			result.Skipped++
			continue
		}

		claimed, err := s.store.ClaimSubscription(ctx, sub.ID, monthStart, referenceDate)
		if err != nil {
			s.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to claim subscription")
			result.Errors++
			continue
		}
		if !claimed {
			// Another run materialized this cycle between our read and the claim.
			result.Skipped++
			continue
		}

		expense := expenseFromSubscription(sub, referenceDate)
		if err := s.store.CreateExpense(ctx, expense); err != nil {
			s.log.Error().Err(err).Str("subscription_id", sub.ID).Msg("failed to create expense for subscription")
			result.Errors++
			continue
		}

		result.Processed++
	}

	s.log.Info().
		Int("processed", result.Processed).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Msg("subscription processing completed")

	return result, nil
}

// subscriptionDue reports whether sub should be materialized for the month
// containing referenceDate: the (clamped) due day has arrived and no
// materialization has happened in this calendar month yet.
func subscriptionDue(sub *model.Subscription, referenceDate time.Time) bool {
	if referenceDate.Day() < effectiveDueDay(sub.DueDay, referenceDate) {
		return false
	}
	if sub.LastProcessedAt == nil {
		return true
	}

	last := *sub.LastProcessedAt
	if last.Year() != referenceDate.Year() {
		return last.Year() < referenceDate.Year()
	}
	return last.Month() < referenceDate.Month()
}

// effectiveDueDay clamps a due day to the length of referenceDate's month, so
// a subscription due on the 31st bills on Feb 28/29 instead of sliding into
// March.
func effectiveDueDay(dueDay int, referenceDate time.Time) int {
	if last := daysInMonth(referenceDate.Year(), referenceDate.Month()); dueDay > last {
		return last
	}
	return dueDay
}

// expenseFromSubscription builds the concrete expense for sub's due
// occurrence in referenceDate's month.
func expenseFromSubscription(sub *model.Subscription, referenceDate time.Time) *model.Expense {
	day := effectiveDueDay(sub.DueDay, referenceDate)
	dueDate := time.Date(referenceDate.Year(), referenceDate.Month(), day, 0, 0, 0, 0, referenceDate.Location())

	return &model.Expense{
		ID:        uuid.New().String(),
		Title:     "Subscription: " + sub.Title,
		Amount:    sub.Amount,
		Date:      model.FormatDay(dueDate),
		Category:  sub.Category,
		CreatedAt: referenceDate,
	}
}
