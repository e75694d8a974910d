package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/staysync/backend/internal/storage/models"
)

// DefaultFreshnessWindow is the minimum elapsed time after a successful sync
// before a non-forced sync runs again.
const DefaultFreshnessWindow = 4 * time.Hour

// ErrPropertyNotFound indicates an unknown property ID.
var ErrPropertyNotFound = errors.New("property not found")

// ErrNoFeedURL indicates the property has no ICS feed configured. Not
// retryable without operator action; the sync status row is left untouched.
var ErrNoFeedURL = errors.New("no calendar feed configured for property")

// PropertyStore exposes property identity and feed configuration.
type PropertyStore interface {
	GetByID(ctx context.Context, id string) (*models.Property, error)
}

// ReservationStore owns the persisted reservation snapshot per property.
type ReservationStore interface {
	// ReplaceAll atomically replaces the property's reservation rows with
	// one row per event and returns the inserted count.
	ReplaceAll(ctx context.Context, propertyID string, events []models.ReservationEvent) (int, error)
}

// SyncStatusStore tracks per-property sync health.
type SyncStatusStore interface {
	Get(ctx context.Context, propertyID string) (*models.SyncStatus, error)
	Upsert(ctx context.Context, status *models.SyncStatus) error
}

// Fetcher retrieves a raw ICS document.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// SyncService drives a property's sync: fetch, parse, extract, filter,
// reconcile, and the sync-status state machine around it all.
type SyncService struct {
	properties   PropertyStore
	reservations ReservationStore
	status       SyncStatusStore
	fetcher      Fetcher
	freshness    time.Duration
	now          func() time.Time

	// Overlapping syncs for the same property would interleave the
	// delete+insert of the reconciler, so invocations are serialized
	// per property.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewSyncService creates a sync service. A non-positive freshness window
// falls back to the default.
func NewSyncService(
	properties PropertyStore,
	reservations ReservationStore,
	status SyncStatusStore,
	fetcher Fetcher,
	freshness time.Duration,
) *SyncService {
	if freshness <= 0 {
		freshness = DefaultFreshnessWindow
	}
	return &SyncService{
		properties:   properties,
		reservations: reservations,
		status:       status,
		fetcher:      fetcher,
		freshness:    freshness,
		now:          func() time.Time { return time.Now().UTC() },
		locks:        make(map[string]*sync.Mutex),
	}
}

// RunSync performs one synchronous sync attempt for a property.
//
// Unless force is set, a property whose last sync succeeded within the
// freshness window is skipped without fetching, returning the previous
// reservation count. Per-event problems (bad dates, missing booking code)
// discard the event and continue; only fetch and persistence failures abort
// the sync and mark the status row as errored.
func (s *SyncService) RunSync(ctx context.Context, propertyID string, force bool) (*models.SyncResult, error) {
	prop, err := s.properties.GetByID(ctx, propertyID)
	if err != nil {
		return nil, fmt.Errorf("loading property: %w", err)
	}
	if prop == nil {
		return nil, ErrPropertyNotFound
	}
	if !prop.HasFeed() {
		return nil, ErrNoFeedURL
	}

	lock := s.propertyLock(propertyID)
	lock.Lock()
	defer lock.Unlock()

	prev, err := s.status.Get(ctx, propertyID)
	if err != nil {
		log.Printf("Failed to load sync status for %s: %v", propertyID, err)
		prev = nil
	}

	if !force {
		if result := skippedResult(prev, s.now(), s.freshness); result != nil {
			return result, nil
		}
	}

	prevCount := 0
	if prev != nil {
		prevCount = prev.ReservationsCount
	}

	startedAt := s.now()
	s.writeStatus(ctx, &models.SyncStatus{
		PropertyID:        propertyID,
		State:             models.SyncStateSyncing,
		LastSyncAt:        &startedAt,
		ReservationsCount: prevCount,
	})

	doc, err := s.fetcher.Fetch(ctx, *prop.FeedURL)
	if err != nil {
		s.markError(ctx, propertyID, prevCount, err)
		return nil, err
	}

	candidates := ParseEvents(doc)

	var toStore []models.ReservationEvent
	skipped := 0
	for _, ev := range candidates {
		text := ev.Summary + " " + ev.Description
		bookingID, ok := ExtractBookingID(text)
		if !ok {
			// Expected for blocked ranges and platform noise events.
			log.Printf("Skipping event %s for property %s: no booking code", ev.ExternalID, propertyID)
			skipped++
			continue
		}
		ev.BookingID = bookingID
		if name, ok := ExtractGuestName(text); ok {
			ev.GuestName = &name
		}
		if count, ok := ExtractGuestCount(text); ok {
			ev.GuestCount = &count
		}
		toStore = append(toStore, ev)
	}

	// An empty filtered set is valid: a feed legitimately emptied of
	// bookings replaces the snapshot with nothing.
	count, err := s.reservations.ReplaceAll(ctx, propertyID, toStore)
	if err != nil {
		s.markError(ctx, propertyID, prevCount, err)
		return nil, fmt.Errorf("replacing reservations: %w", err)
	}

	finishedAt := s.now()
	s.writeStatus(ctx, &models.SyncStatus{
		PropertyID:        propertyID,
		State:             models.SyncStateSuccess,
		LastSyncAt:        &finishedAt,
		ReservationsCount: count,
	})

	log.Printf("Synced property %s: %d events parsed, %d skipped, %d reservations stored",
		propertyID, len(candidates), skipped, count)

	return &models.SyncResult{
		PropertyID:        propertyID,
		EventsFound:       len(candidates),
		EventsSkipped:     skipped,
		ReservationsCount: count,
		Message:           fmt.Sprintf("Imported %d reservations", count),
		SyncedAt:          finishedAt,
	}, nil
}

// skippedResult returns a skipped result when the last successful sync is
// still within the freshness window, nil otherwise.
func skippedResult(st *models.SyncStatus, now time.Time, freshness time.Duration) *models.SyncResult {
	if st == nil || st.State != models.SyncStateSuccess || st.LastSyncAt == nil {
		return nil
	}
	if now.Sub(*st.LastSyncAt) >= freshness {
		return nil
	}

	return &models.SyncResult{
		PropertyID:        st.PropertyID,
		Skipped:           true,
		ReservationsCount: st.ReservationsCount,
		Message:           "Skipped - recently synced",
		SyncedAt:          *st.LastSyncAt,
	}
}

// markError records a failed sync attempt. The stored reservation snapshot
// is left untouched.
func (s *SyncService) markError(ctx context.Context, propertyID string, prevCount int, cause error) {
	now := s.now()
	msg := cause.Error()
	s.writeStatus(ctx, &models.SyncStatus{
		PropertyID:        propertyID,
		State:             models.SyncStateError,
		LastSyncAt:        &now,
		LastError:         &msg,
		ReservationsCount: prevCount,
	})
}

// writeStatus persists a status transition. Failures are logged, not
// propagated; the sync outcome stands on its own.
func (s *SyncService) writeStatus(ctx context.Context, status *models.SyncStatus) {
	if err := s.status.Upsert(ctx, status); err != nil {
		log.Printf("Failed to update sync status for %s: %v", status.PropertyID, err)
	}
}

// propertyLock returns the mutex serializing syncs for one property.
func (s *SyncService) propertyLock(propertyID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[propertyID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[propertyID] = lock
	}
	return lock
}
