package analytics

import (
	"math"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"linkbio/internal/events"
	"linkbio/internal/links"
	"linkbio/internal/pkg/user_agent"
)

const (
	// MaxRecentActivity is the length of the recent activity feed.
	MaxRecentActivity = 10

	// RemovedLinkLabel titles clicks on links that no longer exist.
	RemovedLinkLabel = "Removed link"
)

// deviceLabel returns the display name of a device type. A Caser keeps
// state, so one is made per call.
func deviceLabel(device events.DeviceType) string {
	return cases.Title(language.English).String(string(device))
}

// ActivityItem is one entry of the recent activity feed.
type ActivityItem struct {
	ID          string            `json:"id"`
	EventType   events.EventType  `json:"event_type"`
	LinkID      string            `json:"link_id,omitempty"`
	LinkTitle   string            `json:"link_title,omitempty"`
	DeviceType  events.DeviceType `json:"device_type"`
	DeviceLabel string            `json:"device_label"`
	Browser     string            `json:"browser"`
	OS          string            `json:"os"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Summary is everything the dashboard shows for one range.
type Summary struct {
	TotalViews        int            `json:"total_views"`
	TotalClicks       int            `json:"total_clicks"`
	MobileCount       int            `json:"mobile_count"`
	DesktopCount      int            `json:"desktop_count"`
	MobilePercentage  int            `json:"mobile_percentage"`
	DesktopPercentage int            `json:"desktop_percentage"`
	DailyBuckets      []DailyBucket  `json:"daily_buckets"`
	LinkRanking       []LinkRank     `json:"link_ranking"`
	RecentActivity    []ActivityItem `json:"recent_activity"`
}

// DevicePercentage is round(count / totalViews * 100), or 0 without views.
// count covers all events of a device while the denominator only counts
// views, so the result can exceed 100.
func DevicePercentage(count, totalViews int) int {
	if totalViews == 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(totalViews) * 100))
}

// Summarize derives the dashboard views from an event snapshot and the
// profile's link registry. Neither argument is modified.
func Summarize(evts []events.Event, registry []links.Link) Summary {
	summary := Summary{}

	for _, e := range evts {
		switch e.Type() {
		case events.EventTypePageView:
			summary.TotalViews++
		case events.EventTypeLinkClick:
			summary.TotalClicks++
		}

		switch e.DeviceType {
		case events.DeviceMobile:
			summary.MobileCount++
		case events.DeviceDesktop:
			summary.DesktopCount++
		}
	}

	summary.MobilePercentage = DevicePercentage(summary.MobileCount, summary.TotalViews)
	summary.DesktopPercentage = DevicePercentage(summary.DesktopCount, summary.TotalViews)
	summary.DailyBuckets = DailyBuckets(evts)
	summary.LinkRanking = RankLinks(evts, registry)
	summary.RecentActivity = RecentActivity(evts, registry)

	return summary
}

// RecentActivity returns the MaxRecentActivity newest events joined with
// their link titles.
func RecentActivity(evts []events.Event, registry []links.Link) []ActivityItem {
	sorted := append([]events.Event(nil), evts...)
	SortNewestFirst(sorted)
	if len(sorted) > MaxRecentActivity {
		sorted = sorted[:MaxRecentActivity]
	}

	titles := make(map[string]string, len(registry))
	for _, link := range registry {
		titles[link.ID] = link.Title
	}

	items := make([]ActivityItem, 0, len(sorted))
	for _, e := range sorted {
		ua := user_agent.ParseUserAgent(e.UserAgent)
		item := ActivityItem{
			ID:          e.ID,
			EventType:   e.Type(),
			DeviceType:  e.DeviceType,
			DeviceLabel: deviceLabel(e.DeviceType),
			Browser:     ua.Browser,
			OS:          ua.OS,
			CreatedAt:   e.CreatedAt,
		}
		if linkID, ok := e.LinkID(); ok {
			item.LinkID = linkID
			if title, found := titles[linkID]; found {
				item.LinkTitle = title
			} else {
				item.LinkTitle = RemovedLinkLabel
			}
		}
		items = append(items, item)
	}
	return items
}
