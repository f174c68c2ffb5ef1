// Package daterange resolves the dashboard's named date filters ("today",
// "last_month", a custom day, ...) into half-open time ranges that can be
// applied to any date column.
package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Option names accepted by Resolve.
const (
	All       = "all"
	Today     = "today"
	Yesterday = "yesterday"
	ThisWeek  = "this_week"
	LastWeek  = "last_week"
	ThisMonth = "this_month"
	LastMonth = "last_month"
	ThisYear  = "this_year"
	Custom    = "custom"
)

// DateLayout is the layout of custom dates.
const DateLayout = "2006-01-02"

var (
	ErrUnknownOption = errors.New("unknown date range option")
	ErrInvalidDate   = errors.New("invalid custom date, expected YYYY-MM-DD")
)

// Range is the half-open interval [Start, End). A zero Range matches everything.
type Range struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the range is unbounded.
func (r Range) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	if r.IsZero() {
		return true
	}
	return !t.Before(r.Start) && t.Before(r.End)
}

// Apply adds the range predicate on column to the query. Unbounded ranges
// leave the query untouched.
func (r Range) Apply(db *gorm.DB, column string) *gorm.DB {
	if r.IsZero() {
		return db
	}
	return db.Where(column+" >= ? AND "+column+" < ?", r.Start, r.End)
}

// Resolve turns an option (and, for Custom, a YYYY-MM-DD day) into a Range
// relative to now. Weeks start on Monday.
func Resolve(option, custom string, now time.Time) (Range, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch strings.ToLower(strings.TrimSpace(option)) {
	case "", All:
		return Range{}, nil
	case Today:
		return Range{Start: today, End: today.AddDate(0, 0, 1)}, nil
	case Yesterday:
		return Range{Start: today.AddDate(0, 0, -1), End: today}, nil
	case ThisWeek:
		start := startOfWeek(today)
		return Range{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case LastWeek:
		start := startOfWeek(today).AddDate(0, 0, -7)
		return Range{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case ThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return Range{Start: start, End: start.AddDate(0, 1, 0)}, nil
	case LastMonth:
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return Range{Start: end.AddDate(0, -1, 0), End: end}, nil
	case ThisYear:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return Range{Start: start, End: start.AddDate(1, 0, 0)}, nil
	case Custom:
		day, err := time.ParseInLocation(DateLayout, strings.TrimSpace(custom), loc)
		if err != nil {
			return Range{}, fmt.Errorf("%w: %q", ErrInvalidDate, custom)
		}
		return Range{Start: day, End: day.AddDate(0, 0, 1)}, nil
	default:
		return Range{}, fmt.Errorf("%w: %q", ErrUnknownOption, option)
	}
}

func startOfWeek(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7 // Monday = 0
	return day.AddDate(0, 0, -offset)
}
