package models

import (
	"time"
)

// ReservationEvent is a parse-time candidate assembled from one VEVENT block.
// It is transient: the sync orchestrator either persists it as a Reservation
// or drops it, and nothing holds onto it afterwards.
type ReservationEvent struct {
	ExternalID  string  `json:"external_id"`
	Summary     string  `json:"summary"`
	Description string  `json:"description"`
	StartDate   Date    `json:"start_date"`
	EndDate     Date    `json:"end_date"`
	BookingID   string  `json:"booking_id,omitempty"`
	GuestName   *string `json:"guest_name,omitempty"`
	GuestCount  *int    `json:"guest_count,omitempty"`
	RawSnippet  string  `json:"-"`
}

// Reservation is a persisted reservation row. The set of rows for a property
// is always exactly the result of the most recent successful sync; rows are
// only ever written by a full-snapshot replace.
type Reservation struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	BookingID   string    `json:"booking_id"`
	Summary     string    `json:"summary"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	GuestName   *string   `json:"guest_name,omitempty"`
	GuestCount  *int      `json:"guest_count,omitempty"`
	Description string    `json:"description"`
	RawSnapshot string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sync state constants for SyncStatus.State.
const (
	SyncStateIdle    = "idle"
	SyncStateSyncing = "syncing"
	SyncStateSuccess = "success"
	SyncStateError   = "error"
)

// SyncStatus tracks the sync health of a single property. One row per
// property; state transitions are driven only by the sync orchestrator.
type SyncStatus struct {
	PropertyID        string     `json:"property_id"`
	State             string     `json:"state"`
	LastSyncAt        *time.Time `json:"last_sync_at,omitempty"`
	LastError         *string    `json:"last_error,omitempty"`
	ReservationsCount int        `json:"reservations_count"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// SyncResult is the outcome of one sync invocation.
type SyncResult struct {
	PropertyID        string    `json:"property_id"`
	Skipped           bool      `json:"skipped"`
	EventsFound       int       `json:"events_found"`
	EventsSkipped     int       `json:"events_skipped"`
	ReservationsCount int       `json:"reservations_count"`
	Message           string    `json:"message"`
	SyncedAt          time.Time `json:"synced_at"`
}
