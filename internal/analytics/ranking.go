package analytics

import (
	"sort"

	"linkbio/internal/events"
	"linkbio/internal/links"
)

// LinkRank is a registry link with its click count.
type LinkRank struct {
	Link   links.Link `json:"link"`
	Clicks int        `json:"clicks"`
}

// RankLinks counts link clicks per registry link and orders the links by
// clicks descending. Ties keep registry order. Every registry link appears,
// including links without clicks; clicks on links missing from the registry
// are not ranked.
func RankLinks(evts []events.Event, registry []links.Link) []LinkRank {
	clicks := make(map[string]int, len(registry))
	for _, e := range evts {
		if linkID, ok := e.LinkID(); ok {
			clicks[linkID]++
		}
	}

	result := make([]LinkRank, len(registry))
	for i, link := range registry {
		result[i] = LinkRank{Link: link, Clicks: clicks[link.ID]}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Clicks > result[j].Clicks
	})
	return result
}
