// Package model defines the persisted entity types and their validation rules.
//
// Field names in the firestore/json tags are the public record contract:
// dates are always serialized as YYYY-MM-DD calendar-day strings so that
// lexicographic comparison matches chronological order, and dueDay is a plain
// integer day-of-month.
package model

import (
	"fmt"
	"time"
)

// DayFormat is the calendar-day serialization used for all entity dates.
const DayFormat = "2006-01-02"

// ExpenseCategories is the fixed category set for expenses and subscriptions.
var ExpenseCategories = []string{
	"Rent & Housing",
	"Shopping",
	"Transport",
	"Food & Dining",
	"Entertainment",
	"Healthcare",
	"Education",
	"Utilities",
	"Grocery",
	"Other",
}

// ValidCategory reports whether c is one of the fixed expense categories.
func ValidCategory(c string) bool {
	for _, known := range ExpenseCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is a single spend on a calendar day.
type Expense struct {
	ID        string    `firestore:"id" json:"id"`
	Title     string    `firestore:"title" json:"title"`
	Amount    float64   `firestore:"amount" json:"amount"`
	Date      string    `firestore:"date" json:"date"`
	Category  string    `firestore:"category" json:"category"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Validate checks the required fields for create/update.
func (e *Expense) Validate() error {
	if e.Title == "" {
		return fmt.Errorf("title is required")
	}
	if e.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if err := validateDay(e.Date); err != nil {
		return err
	}
	if !ValidCategory(e.Category) {
		return fmt.Errorf("unknown category %q", e.Category)
	}
	return nil
}

// Income is a single income entry on a calendar day. Incomes carry no category.
type Income struct {
	ID        string    `firestore:"id" json:"id"`
	Name      string    `firestore:"name" json:"name"`
	Amount    float64   `firestore:"amount" json:"amount"`
	Date      string    `firestore:"date" json:"date"`
	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
}

// Validate checks the required fields for create/update.
func (i *Income) Validate() error {
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	if i.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	return validateDay(i.Date)
}

// Subscription is a recurring monthly charge. DueDay is the day of the month
// the charge falls on; LastProcessedAt is the materialization watermark and is
// only ever advanced by the subscription processor.
type Subscription struct {
	ID              string     `firestore:"id" json:"id"`
	Title           string     `firestore:"title" json:"title"`
	Amount          float64    `firestore:"amount" json:"amount"`
	Category        string     `firestore:"category" json:"category"`
	DueDay          int        `firestore:"dueDay" json:"dueDay"`
	IsActive        bool       `firestore:"isActive" json:"isActive"`
	CreatedAt       time.Time  `firestore:"createdAt" json:"createdAt"`
	LastProcessedAt *time.Time `firestore:"lastProcessedAt" json:"lastProcessedAt,omitempty"`
}

// Validate checks the required fields for create/update.
func (s *Subscription) Validate() error {
	if s.Title == "" {
		return fmt.Errorf("title is required")
	}
	if s.Amount <= 0 {
		return fmt.Errorf("amount must be positive")
	}
	if s.DueDay < 1 || s.DueDay > 31 {
		return fmt.Errorf("dueDay must be between 1 and 31")
	}
	if !ValidCategory(s.Category) {
		return fmt.Errorf("unknown category %q", s.Category)
	}
	return nil
}

// FormatDay serializes t as a calendar-day string, dropping the time component.
func FormatDay(t time.Time) string {
	return t.Format(DayFormat)
}

func validateDay(s string) error {
	if s == "" {
		return fmt.Errorf("date is required")
	}
	if _, err := time.Parse(DayFormat, s); err != nil {
		return fmt.Errorf("date must be in YYYY-MM-DD format")
	}
	return nil
}
