package core

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ExpenseFilters holds the raw list filters as supplied by the client.
// Empty strings mean "no constraint".
type ExpenseFilters struct {
	StartDate  string
	EndDate    string
	MinValue   string
	MaxValue   string
	Categories []string
}

// ExpenseCriteria is the validated form of ExpenseFilters. Nil members do not
// constrain the result.
type ExpenseCriteria struct {
	SpentFrom   *time.Time
	SpentTo     *time.Time
	MinCents    *int64
	MaxCents    *int64
	CategoryIDs []uuid.UUID
}

var ErrInvalidTimestamp = errors.New("invalid timestamp")

var timestampLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

const dateLayout = "2006-01-02"

// ParseTimestamp accepts RFC 3339 timestamps, zone-less timestamps and plain
// dates. Zone-less values are taken as UTC. dateOnly reports a plain date.
func ParseTimestamp(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false, ErrInvalidTimestamp
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.ParseInLocation(dateLayout, s, time.UTC); err == nil {
		return t, true, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, false, nil
		}
	}
	return time.Time{}, false, ErrInvalidTimestamp
}

// Criteria validates the filters.
//
// The spent_at range applies only when both start_date and end_date are
// given; a single bound is ignored. A plain end_date covers its whole day.
func (f ExpenseFilters) Criteria() (ExpenseCriteria, error) {
	var (
		c    ExpenseCriteria
		verr ValidationError
	)

	start, end := strings.TrimSpace(f.StartDate), strings.TrimSpace(f.EndDate)
	from, _, errFrom := ParseTimestamp(start)
	to, toDateOnly, errTo := ParseTimestamp(end)
	if start != "" && errFrom != nil {
		verr.Add("start_date", MsgDatetime)
	}
	if end != "" && errTo != nil {
		verr.Add("end_date", MsgDatetime)
	}
	if start != "" && end != "" && errFrom == nil && errTo == nil {
		if toDateOnly {
			to = to.AddDate(0, 0, 1).Add(-time.Microsecond)
		}
		c.SpentFrom, c.SpentTo = &from, &to
	}

	if v := strings.TrimSpace(f.MinValue); v != "" {
		cents, err := ParseLowerBound(v)
		if err != nil {
			verr.Add("min_value", MsgNotNumber)
		} else {
			c.MinCents = &cents
		}
	}
	if v := strings.TrimSpace(f.MaxValue); v != "" {
		cents, err := ParseUpperBound(v)
		if err != nil {
			verr.Add("max_value", MsgNotNumber)
		} else {
			c.MaxCents = &cents
		}
	}

	for _, raw := range SplitIDs(f.Categories...) {
		id, err := uuid.Parse(raw)
		if err != nil {
			verr.Add("categories", MsgUUID)
			continue
		}
		c.CategoryIDs = append(c.CategoryIDs, id)
	}

	if err := verr.Err(); err != nil {
		return ExpenseCriteria{}, err
	}
	return c, nil
}
