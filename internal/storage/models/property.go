// Package models contains the domain models for the application.
package models

import (
	"time"
)

// Property represents a rental property whose booking calendar is synced
// from a third-party ICS feed.
type Property struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	FeedURL         *string    `json:"feed_url,omitempty"`
	SyncIntervalMin int        `json:"sync_interval_min"`
	Enabled         bool       `json:"enabled"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// HasFeed reports whether the property has an ICS feed configured.
func (p *Property) HasFeed() bool {
	return p.FeedURL != nil && *p.FeedURL != ""
}
