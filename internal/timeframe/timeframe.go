package timeframe

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used in query parameters and
// daily buckets.
const DateLayout = "2006-01-02"

type TimeProvider interface {
	Now(loc *time.Location) time.Time
}

// DefaultTimeProvider uses the system clock.
type DefaultTimeProvider struct{}

func (p *DefaultTimeProvider) Now(loc *time.Location) time.Time {
	return time.Now().In(loc)
}

// Range is an optional, inclusive time window. A nil bound is open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Unbounded matches every event.
func Unbounded() Range {
	return Range{}
}

// Between returns a closed range.
func Between(start, end time.Time) Range {
	return Range{Start: &start, End: &end}
}

// IsEmpty reports whether the range can contain no instant at all.
func (r Range) IsEmpty() bool {
	return r.Start != nil && r.End != nil && r.Start.After(*r.End)
}

// Contains reports whether t lies within the inclusive bounds.
func (r Range) Contains(t time.Time) bool {
	if r.Start != nil && t.Before(*r.Start) {
		return false
	}
	if r.End != nil && t.After(*r.End) {
		return false
	}
	return true
}

// UTC returns a copy with both bounds converted to UTC.
func (r Range) UTC() Range {
	out := Range{}
	if r.Start != nil {
		s := r.Start.UTC()
		out.Start = &s
	}
	if r.End != nil {
		e := r.End.UTC()
		out.End = &e
	}
	return out
}

func (r Range) String() string {
	format := func(t *time.Time) string {
		if t == nil {
			return "*"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("[%s, %s]", format(r.Start), format(r.End))
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// EndOfDay returns the last representable instant of t's calendar day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, loc)
}
