// Package analytics turns a profile's raw event log into the views an owner
// consults on the dashboard.
//
// The package is organized into focused modules:
//   - range.go: bounded, newest-first event retrieval
//   - daily.go: per-calendar-date view and click buckets
//   - ranking.go: links ranked by click count
//   - summary.go: totals, device split and recent activity
//   - service.go: the dashboard-facing operations
//   - generations.go: discarding superseded summary requests
//
// Everything except RangeQuery and Service is a pure function of an event
// snapshot and the link registry.
package analytics

import (
	"context"

	"linkbio/internal/links"
)

// LinkRegistry lists a profile's links. It is read-only from here.
type LinkRegistry interface {
	ListLinks(ctx context.Context, profileID string) ([]links.Link, error)
}
