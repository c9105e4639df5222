package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkbio/internal/analytics"
	"linkbio/internal/events"
	"linkbio/internal/links"
)

func rankedIDs(ranks []analytics.LinkRank) []string {
	ids := make([]string, len(ranks))
	for i, r := range ranks {
		ids[i] = r.Link.ID
	}
	return ids
}

func TestRankLinks(t *testing.T) {
	registry := []links.Link{{ID: "A", Title: "A"}, {ID: "B", Title: "B"}, {ID: "C", Title: "C"}}

	t.Run("ties keep registry order", func(t *testing.T) {
		evts := []events.Event{
			click("1", "B", base, events.DeviceMobile),
			click("2", "B", base, events.DeviceMobile),
			click("3", "A", base, events.DeviceDesktop),
			click("4", "A", base, events.DeviceDesktop),
		}

		ranks := analytics.RankLinks(evts, registry)

		assert.Equal(t, []string{"A", "B", "C"}, rankedIDs(ranks))
		assert.Equal(t, []int{2, 2, 0}, []int{ranks[0].Clicks, ranks[1].Clicks, ranks[2].Clicks})
	})

	t.Run("sorted by clicks descending", func(t *testing.T) {
		evts := []events.Event{
			click("1", "C", base, events.DeviceMobile),
			click("2", "C", base, events.DeviceMobile),
			click("3", "B", base, events.DeviceDesktop),
			view("4", base, events.DeviceDesktop),
		}

		ranks := analytics.RankLinks(evts, registry)

		assert.Equal(t, []string{"C", "B", "A"}, rankedIDs(ranks))
		assert.Equal(t, 0, ranks[2].Clicks)
	})

	t.Run("clicks on unknown links are excluded", func(t *testing.T) {
		evts := []events.Event{
			click("1", "Z", base, events.DeviceMobile),
			click("2", "Z", base, events.DeviceMobile),
		}

		ranks := analytics.RankLinks(evts, registry)

		require.Len(t, ranks, 3)
		for _, r := range ranks {
			assert.Equal(t, 0, r.Clicks)
		}
		assert.Equal(t, []string{"A", "B", "C"}, rankedIDs(ranks))
	})

	t.Run("empty registry", func(t *testing.T) {
		ranks := analytics.RankLinks([]events.Event{click("1", "A", base, events.DeviceMobile)}, nil)
		assert.Empty(t, ranks)
	})

	t.Run("registry is not modified", func(t *testing.T) {
		evts := []events.Event{click("1", "C", base, events.DeviceMobile)}
		analytics.RankLinks(evts, registry)
		assert.Equal(t, "A", registry[0].ID)
	})
}
