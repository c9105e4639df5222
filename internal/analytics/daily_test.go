package analytics_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/analytics"
	"linkbio/internal/events"
)

func TestDailyBucketsKeepsLatestActiveDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	// 20 active dates, every other day, so gaps exist between them
	var evts []events.Event
	for i := 0; i < 20; i++ {
		day := start.AddDate(0, 0, i*2)
		evts = append(evts, view("v"+day.Format("0102"), day, events.DeviceDesktop))
		if i%3 == 0 {
			evts = append(evts, click("c"+day.Format("0102"), "A", day.Add(time.Hour), events.DeviceMobile))
		}
	}

	buckets := analytics.DailyBuckets(evts)

	require.Len(t, buckets, analytics.MaxDailyBuckets)
	assert.Equal(t, start.AddDate(0, 0, 6*2).Format("2006-01-02"), buckets[0].Date)
	assert.Equal(t, start.AddDate(0, 0, 19*2).Format("2006-01-02"), buckets[13].Date)

	for i := 1; i < len(buckets); i++ {
		assert.Less(t, buckets[i-1].Date, buckets[i].Date)
	}
	for _, b := range buckets {
		assert.Equal(t, 1, b.Views)
		assert.Greater(t, b.Views+b.Clicks, 0)
	}

	// Gap days never produce a bucket
	for _, b := range buckets {
		assert.NotEqual(t, start.AddDate(0, 0, 13).Format("2006-01-02"), b.Date)
	}
}

func TestDailyBucketsCountsViewsAndClicks(t *testing.T) {
	day := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	evts := []events.Event{
		view("1", day, events.DeviceDesktop),
		view("2", day.Add(3*time.Hour), events.DeviceMobile),
		click("3", "A", day.Add(4*time.Hour), events.DeviceMobile),
		click("4", "gone", day.AddDate(0, 0, 1), events.DeviceDesktop),
	}

	buckets := analytics.DailyBuckets(evts)

	assert.Equal(t, []analytics.DailyBucket{
		{Date: "2024-03-10", Views: 2, Clicks: 1},
		{Date: "2024-03-11", Views: 0, Clicks: 1},
	}, buckets)
}

func TestDailyBucketsUsesUTCDate(t *testing.T) {
	est := time.FixedZone("EST", -5*3600)
	evts := []events.Event{
		// 2024-03-10 21:30 EST is 2024-03-11 02:30 UTC
		view("1", time.Date(2024, 3, 10, 21, 30, 0, 0, est), events.DeviceDesktop),
	}

	buckets := analytics.DailyBuckets(evts)

	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-03-11", buckets[0].Date)
}

func TestDailyBucketsIgnoresInputOrder(t *testing.T) {
	var evts []events.Event
	for i := 0; i < 40; i++ {
		at := base.Add(time.Duration(i) * 11 * time.Hour)
		if i%2 == 0 {
			evts = append(evts, view("v", at, events.DeviceDesktop))
		} else {
			evts = append(evts, click("c", "A", at, events.DeviceMobile))
		}
	}
	expected := analytics.DailyBuckets(evts)

	shuffled := append([]events.Event(nil), evts...)
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
		assert.Equal(t, expected, analytics.DailyBuckets(shuffled))
	}
}

func TestDailyBucketsEmpty(t *testing.T) {
	assert.Empty(t, analytics.DailyBuckets(nil))
}
