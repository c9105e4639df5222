package analytics

import (
	"sort"

	"linkbio/internal/events"
	"linkbio/internal/timeframe"
)

// MaxDailyBuckets is the number of most recent active dates kept.
const MaxDailyBuckets = 14

// DailyBucket holds the counts of one calendar date (UTC).
type DailyBucket struct {
	Date   string `json:"date"`
	Views  int    `json:"views"`
	Clicks int    `json:"clicks"`
}

// DailyBuckets groups events by the UTC calendar date of created_at.
// Only dates with at least one event produce a bucket. Buckets are sorted
// ascending and only the latest MaxDailyBuckets are returned.
func DailyBuckets(evts []events.Event) []DailyBucket {
	byDate := make(map[string]*DailyBucket)

	for _, e := range evts {
		date := e.CreatedAt.UTC().Format(timeframe.DateLayout)
		bucket, ok := byDate[date]
		if !ok {
			bucket = &DailyBucket{Date: date}
			byDate[date] = bucket
		}

		switch e.Type() {
		case events.EventTypePageView:
			bucket.Views++
		case events.EventTypeLinkClick:
			bucket.Clicks++
		}
	}

	result := make([]DailyBucket, 0, len(byDate))
	for _, bucket := range byDate {
		result = append(result, *bucket)
	}

	// YYYY-MM-DD sorts chronologically as a string
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date < result[j].Date
	})

	if len(result) > MaxDailyBuckets {
		result = result[len(result)-MaxDailyBuckets:]
	}
	return result
}
