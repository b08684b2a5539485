package domain

import (
	"time"
)

// EventFilter narrows an event listing. Empty fields do not filter; all set fields must match.
type EventFilter struct {
	// Title matches events whose title contains it, case-insensitively.
	Title string
	// Location matches events whose location contains it, case-insensitively.
	Location string
	// OrganizerID matches the organizer exactly.
	OrganizerID string
	// Date restricts events to the half-open range [Date.From, Date.To).
	Date *DateRange
	// Pagination limits the result page. Nil returns every match.
	Pagination *PaginationParams
}

// DateRange is a half-open time interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains reports whether t falls within the range.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}

// ParseDateFilter turns a year ("2024"), year-month ("2024-03") or full date ("2024-03-15")
// into the UTC range it denotes. Anything else is a validation error on the date field.
func ParseDateFilter(s string) (*DateRange, error) {
	var (
		layout string
		next   func(time.Time) time.Time
	)
	switch len(s) {
	case len("2006"):
		layout = "2006"
		next = func(t time.Time) time.Time { return t.AddDate(1, 0, 0) }
	case len("2006-01"):
		layout = "2006-01"
		next = func(t time.Time) time.Time { return t.AddDate(0, 1, 0) }
	case len("2006-01-02"):
		layout = "2006-01-02"
		next = func(t time.Time) time.Time { return t.AddDate(0, 0, 1) }
	default:
		return nil, NewValidationError("date", "must be YYYY, YYYY-MM or YYYY-MM-DD")
	}
	from, err := time.ParseInLocation(layout, s, time.UTC)
	if err != nil {
		return nil, NewValidationError("date", "must be YYYY, YYYY-MM or YYYY-MM-DD")
	}
	return &DateRange{From: from, To: next(from)}, nil
}
