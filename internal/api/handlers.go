// Package api exposes the REST surface of the tracker. Handlers decode and
// validate transport concerns, call into the service, and translate its error
// taxonomy to status codes; no business logic lives here.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/spendsight/backend/internal/model"
	"github.com/spendsight/backend/internal/service"
)

type Handler struct {
	svc *service.Service
	log zerolog.Logger
	now func() time.Time
}

// NewHandler creates the handler set backed by svc.
func NewHandler(svc *service.Service, log zerolog.Logger) *Handler {
	return &Handler{
		svc: svc,
		log: log,
		now: time.Now,
	}
}

// amount accepts a JSON number or a numeric string, matching what the form
// frontends actually send.
type amount float64

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*a = amount(f)
	return nil
}

type expensePayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Amount   amount `json:"amount"`
	Date     string `json:"date"`
	Category string `json:"category"`
}

type incomePayload struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Amount amount `json:"amount"`
	Date   string `json:"date"`
}

type subscriptionPayload struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Amount   amount `json:"amount"`
	Category string `json:"category"`
	DueDay   int    `json:"dueDay"`
	IsActive bool   `json:"isActive"`
}

// Expense handlers

func (h *Handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.svc.ListExpenses(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, expenses)
}

func (h *Handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !h.decode(w, r, &payload) {
		return
	}

	expense, err := h.svc.CreateExpense(r.Context(), &model.Expense{
		Title:    payload.Title,
		Amount:   float64(payload.Amount),
		Date:     payload.Date,
		Category: payload.Category,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Expense added successfully",
		"id":      expense.ID,
	})
}

func (h *Handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var payload expensePayload
	if !h.decode(w, r, &payload) {
		return
	}

	err := h.svc.UpdateExpense(r.Context(), &model.Expense{
		ID:       payload.ID,
		Title:    payload.Title,
		Amount:   float64(payload.Amount),
		Date:     payload.Date,
		Category: payload.Category,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Expense updated successfully"})
}

func (h *Handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteExpense(r.Context(), r.URL.Query().Get("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Expense deleted successfully"})
}

// Income handlers

func (h *Handler) listIncomes(w http.ResponseWriter, r *http.Request) {
	incomes, err := h.svc.ListIncomes(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, incomes)
}

func (h *Handler) createIncome(w http.ResponseWriter, r *http.Request) {
	var payload incomePayload
	if !h.decode(w, r, &payload) {
		return
	}

	income, err := h.svc.CreateIncome(r.Context(), &model.Income{
		Name:   payload.Name,
		Amount: float64(payload.Amount),
		Date:   payload.Date,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Income added successfully",
		"id":      income.ID,
	})
}

func (h *Handler) updateIncome(w http.ResponseWriter, r *http.Request) {
	var payload incomePayload
	if !h.decode(w, r, &payload) {
		return
	}

	err := h.svc.UpdateIncome(r.Context(), &model.Income{
		ID:     payload.ID,
		Name:   payload.Name,
		Amount: float64(payload.Amount),
		Date:   payload.Date,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Income updated successfully"})
}

func (h *Handler) deleteIncome(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteIncome(r.Context(), r.URL.Query().Get("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Income deleted successfully"})
}

// Subscription handlers

func (h *Handler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.ListSubscriptions(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, subs)
}

func (h *Handler) createSubscription(w http.ResponseWriter, r *http.Request) {
	var payload subscriptionPayload
	if !h.decode(w, r, &payload) {
		return
	}

	sub, err := h.svc.CreateSubscription(r.Context(), &model.Subscription{
		Title:    payload.Title,
		Amount:   float64(payload.Amount),
		Category: payload.Category,
		DueDay:   payload.DueDay,
		IsActive: payload.IsActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Subscription added successfully",
		"id":      sub.ID,
	})
}

func (h *Handler) updateSubscription(w http.ResponseWriter, r *http.Request) {
	var payload subscriptionPayload
	if !h.decode(w, r, &payload) {
		return
	}

	err := h.svc.UpdateSubscription(r.Context(), &model.Subscription{
		ID:       payload.ID,
		Title:    payload.Title,
		Amount:   float64(payload.Amount),
		Category: payload.Category,
		DueDay:   payload.DueDay,
		IsActive: payload.IsActive,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Subscription updated successfully"})
}

func (h *Handler) deleteSubscription(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteSubscription(r.Context(), r.URL.Query().Get("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"message": "Subscription deleted successfully"})
}

// processSubscriptions triggers one materialization run.
func (h *Handler) processSubscriptions(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ProcessDueSubscriptions(r.Context(), h.now())
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Processed " + strconv.Itoa(result.Processed) + " subscriptions.",
		"processedCount": result.Processed,
		"skippedCount":   result.Skipped,
		"errorCount":     result.Errors,
	})
}

// summary serves a single-period aggregation. The period is a month
// (month=YYYY-MM), a year (year=YYYY), or every month of a year
// (year=YYYY&breakdown=months).
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	switch {
	case q.Get("month") != "":
		period, err := service.ParseMonth(q.Get("month"))
		if err != nil {
			h.writeError(w, err)
			return
		}
		summary, err := h.svc.Summarize(r.Context(), period)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, summary)

	case q.Get("year") != "":
		period, err := service.ParseYear(q.Get("year"))
		if err != nil {
			h.writeError(w, err)
			return
		}

		if q.Get("breakdown") == "months" {
			months, err := h.svc.SummarizeMonths(r.Context(), period.Year)
			if err != nil {
				h.writeError(w, err)
				return
			}
			h.writeJSON(w, http.StatusOK, map[string]any{
				"label":  period.Label(),
				"months": months,
			})
			return
		}

		summary, err := h.svc.Summarize(r.Context(), period)
		if err != nil {
			h.writeError(w, err)
			return
		}
		h.writeJSON(w, http.StatusOK, summary)

	default:
		h.writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "month (YYYY-MM) or year (YYYY) parameter is required",
		})
	}
}

// dashboard assembles the landing view: the trailing six months in
// chronological order, all-time totals and the current month's detail.
func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := h.now()

	months, err := h.svc.SummarizeTrailing(ctx, 6, now)
	if err != nil {
		h.writeError(w, err)
		return
	}
	// The engine returns most-recent-first; the charts want oldest-first.
	for i, j := 0, len(months)-1; i < j; i, j = i+1, j-1 {
		months[i], months[j] = months[j], months[i]
	}

	totals, err := h.svc.AllTimeTotals(ctx)
	if err != nil {
		h.writeError(w, err)
		return
	}

	current, err := h.svc.Summarize(ctx, service.Period{Year: now.Year(), Month: now.Month()})
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"monthlyData":      months,
		"totalIncome":      totals.TotalIncome,
		"totalExpenses":    totals.TotalExpenses,
		"remainingBalance": totals.RemainingBalance,
		"currentMonth": map[string]any{
			"name":             current.Label,
			"totalExpenses":    current.TotalExpenses,
			"totalIncome":      current.TotalIncome,
			"remainingBalance": current.RemainingBalance,
			"expenses":         current.Expenses,
			"categoryTotals":   current.CategoryTotals,
		},
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// decode reads a JSON body; a malformed body is a client error.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("failed to encode response")
	}
}

// writeError translates the service error taxonomy into the response shape.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err):
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
	case service.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, map[string]any{"error": err.Error()})
	case service.IsUnavailable(err):
		h.log.Error().Err(err).Msg("store unavailable")
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "service temporarily unavailable, try again later"})
	default:
		h.log.Error().Err(err).Msg("unexpected error")
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}
