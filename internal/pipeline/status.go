package pipeline

import (
	"math"
	"strings"
	"time"

	"fxreport/pkg/models"
)

const dateLayout = "2006-01-02"

// ClassifyStatus derives an invoice's lifecycle state from its dates.
//
// A recorded payment date always wins, regardless of how late the payment
// was. Otherwise the invoice is Overdue when its due date is strictly
// before today's calendar date, and Outstanding when it is due today, due
// in the future, or when the due date is missing or unparseable. Malformed
// input is never Overdue.
func ClassifyStatus(paymentDate *string, dueDate string, today time.Time) models.Status {
	if paymentDate != nil && *paymentDate != "" {
		return models.StatusPaid
	}

	due, ok := parseDay(dueDate)
	if !ok {
		return models.StatusOutstanding
	}

	if due.Before(calendarDay(today)) {
		return models.StatusOverdue
	}
	return models.StatusOutstanding
}

// DaysOutstanding computes the whole days elapsed past the due date,
// floored at zero so a not-yet-due invoice reports 0, never a negative
// number. A missing or unparseable due date reports 0.
func DaysOutstanding(dueDate string, today time.Time) int {
	due, ok := parseDay(dueDate)
	if !ok {
		return 0
	}

	elapsed := calendarDay(today).Sub(due)
	days := int(math.Ceil(elapsed.Hours() / 24))
	if days < 0 {
		return 0
	}
	return days
}

// parseDay parses a calendar date string, tolerating a timestamp suffix.
// Anything after the date part that is not a T or space separator makes the
// whole string unparseable rather than being silently dropped.
func parseDay(s string) (time.Time, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return time.Time{}, false
	}
	if len(cleaned) > len(dateLayout) {
		switch cleaned[len(dateLayout)] {
		case 'T', ' ':
			cleaned = cleaned[:len(dateLayout)]
		default:
			return time.Time{}, false
		}
	}
	t, err := time.Parse(dateLayout, cleaned)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// calendarDay truncates a timestamp to its UTC calendar date, so status and
// aging compare dates, not instants.
func calendarDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
