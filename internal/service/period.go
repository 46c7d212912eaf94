package service

import (
	"fmt"
	"time"

	"github.com/spendsight/backend/internal/model"
)

// Period identifies an aggregation window: a specific month, or a whole year
// when Month is zero.
type Period struct {
	Year  int
	Month time.Month
}

// ParseMonth parses a YYYY-MM period parameter.
func ParseMonth(s string) (Period, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Period{}, validationErr(fmt.Errorf("month must be in YYYY-MM format"))
	}
	return Period{Year: t.Year(), Month: t.Month()}, nil
}

// ParseYear parses a YYYY period parameter.
func ParseYear(s string) (Period, error) {
	t, err := time.Parse("2006", s)
	if err != nil {
		return Period{}, validationErr(fmt.Errorf("year must be in YYYY format"))
	}
	return Period{Year: t.Year()}, nil
}

// Bounds resolves the period to an inclusive calendar-day range, first day to
// last day.
func (p Period) Bounds() (startDate, endDate string) {
	if p.Month == 0 {
		start := time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(p.Year, time.December, 31, 0, 0, 0, 0, time.UTC)
		return model.FormatDay(start), model.FormatDay(end)
	}

	start := time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return model.FormatDay(start), model.FormatDay(end)
}

// Label returns the human-readable period name, "January 2006" for a month
// and "2006" for a year.
func (p Period) Label() string {
	if p.Month == 0 {
		return fmt.Sprintf("%d", p.Year)
	}
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC).Format("January 2006")
}

// monthOf returns the month period containing t.
func monthOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// daysInMonth returns the number of calendar days in the given month.
func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// startOfMonth returns midnight on the first day of t's month, in t's location.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
