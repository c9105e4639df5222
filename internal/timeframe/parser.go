package timeframe

import (
	"fmt"
	"strings"
	"time"
)

type RangeParserParams struct {
	FromDate string
	ToDate   string
	Tz       string
	// DefaultDays, when positive, fills a missing From with the start of
	// the day DefaultDays ago. Zero leaves missing bounds open.
	DefaultDays int
}

type RangeParser struct {
	timeProvider TimeProvider
}

func NewRangeParser(timeProvider ...TimeProvider) *RangeParser {
	var provider TimeProvider = &DefaultTimeProvider{}
	if len(timeProvider) > 0 && timeProvider[0] != nil {
		provider = timeProvider[0]
	}

	return &RangeParser{
		timeProvider: provider,
	}
}

// ParseRange turns dashboard query parameters into a Range. Dates
// (YYYY-MM-DD) are read in the requested timezone; a date-only "to" covers
// the whole day. RFC 3339 timestamps are taken as given.
func (p *RangeParser) ParseRange(params RangeParserParams) (Range, error) {
	tz := params.Tz
	if tz == "" {
		tz = "UTC"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Range{}, fmt.Errorf("error loading timezone: %w", err)
	}

	var r Range

	if params.FromDate != "" {
		from, err := parseBound(params.FromDate, loc, false)
		if err != nil {
			return Range{}, fmt.Errorf("invalid 'from' date: %w", err)
		}
		r.Start = &from
	} else if params.DefaultDays > 0 {
		now := p.timeProvider.Now(loc)
		from := StartOfDay(now, loc).AddDate(0, 0, -params.DefaultDays)
		r.Start = &from
	}

	if params.ToDate != "" {
		to, err := parseBound(params.ToDate, loc, true)
		if err != nil {
			return Range{}, fmt.Errorf("invalid 'to' date: %w", err)
		}
		r.End = &to
	} else if params.DefaultDays > 0 {
		to := EndOfDay(p.timeProvider.Now(loc), loc)
		r.End = &to
	}

	return r.UTC(), nil
}

func parseBound(value string, loc *time.Location, isEndDate bool) (time.Time, error) {
	value = strings.TrimSpace(value)

	if len(value) == len(DateLayout) {
		date, err := time.ParseInLocation(DateLayout, value, loc)
		if err != nil {
			return time.Time{}, err
		}
		if isEndDate {
			return EndOfDay(date, loc), nil
		}
		return StartOfDay(date, loc), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}

	// Local timestamps without an offset, as produced by date-time inputs.
	for _, layout := range []string{"2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
