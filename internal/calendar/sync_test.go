package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysync/backend/internal/storage/models"
)

type fakePropertyStore struct {
	props map[string]*models.Property
}

func (f *fakePropertyStore) GetByID(_ context.Context, id string) (*models.Property, error) {
	return f.props[id], nil
}

type fakeReservationStore struct {
	sets     map[string][]models.ReservationEvent
	replaces int
	failWith error
}

func (f *fakeReservationStore) ReplaceAll(_ context.Context, propertyID string, events []models.ReservationEvent) (int, error) {
	f.replaces++
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.sets[propertyID] = append([]models.ReservationEvent(nil), events...)
	return len(events), nil
}

type fakeStatusStore struct {
	rows    map[string]*models.SyncStatus
	upserts int
}

func (f *fakeStatusStore) Get(_ context.Context, propertyID string) (*models.SyncStatus, error) {
	st, ok := f.rows[propertyID]
	if !ok {
		return nil, nil
	}
	copied := *st
	return &copied, nil
}

func (f *fakeStatusStore) Upsert(_ context.Context, status *models.SyncStatus) error {
	f.upserts++
	copied := *status
	f.rows[status.PropertyID] = &copied
	return nil
}

type fakeFetcher struct {
	doc   string
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.doc, nil
}

type syncFixture struct {
	properties   *fakePropertyStore
	reservations *fakeReservationStore
	status       *fakeStatusStore
	fetcher      *fakeFetcher
	service      *SyncService
	now          time.Time
}

func newSyncFixture(t *testing.T, feedDoc string) *syncFixture {
	t.Helper()

	feedURL := "https://calendar.example.com/ical/prop-1.ics"
	fx := &syncFixture{
		properties: &fakePropertyStore{props: map[string]*models.Property{
			"prop-1": {ID: "prop-1", Name: "Seaside Cottage", FeedURL: &feedURL, Enabled: true},
			"prop-2": {ID: "prop-2", Name: "No Feed House"},
		}},
		reservations: &fakeReservationStore{sets: make(map[string][]models.ReservationEvent)},
		status:       &fakeStatusStore{rows: make(map[string]*models.SyncStatus)},
		fetcher:      &fakeFetcher{doc: feedDoc},
		now:          time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC),
	}

	fx.service = NewSyncService(fx.properties, fx.reservations, fx.status, fx.fetcher, 0)
	fx.service.now = func() time.Time { return fx.now }

	return fx
}

func TestRunSyncHappyPath(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)

	result, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 2, result.EventsFound)
	assert.Equal(t, 1, result.EventsSkipped)
	assert.Equal(t, 1, result.ReservationsCount)

	stored := fx.reservations.sets["prop-1"]
	require.Len(t, stored, 1)
	assert.Equal(t, "HM2KBR5WFZ", stored[0].BookingID)

	st := fx.status.rows["prop-1"]
	require.NotNil(t, st)
	assert.Equal(t, models.SyncStateSuccess, st.State)
	assert.Equal(t, 1, st.ReservationsCount)
	assert.Nil(t, st.LastError)
	require.NotNil(t, st.LastSyncAt)
	assert.Equal(t, fx.now, *st.LastSyncAt)
}

func TestRunSyncBookingIDGating(t *testing.T) {
	// Only events with an extractable booking code are ever persisted.
	fx := newSyncFixture(t, sampleFeed)

	_, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.NoError(t, err)

	for _, res := range fx.reservations.sets["prop-1"] {
		assert.NotEmpty(t, res.BookingID)
	}
}

func TestRunSyncUnknownProperty(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)

	_, err := fx.service.RunSync(context.Background(), "nope", false)
	assert.ErrorIs(t, err, ErrPropertyNotFound)
	assert.Zero(t, fx.status.upserts)
}

func TestRunSyncNoFeedConfigured(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)

	_, err := fx.service.RunSync(context.Background(), "prop-2", false)
	assert.ErrorIs(t, err, ErrNoFeedURL)
	assert.Zero(t, fx.fetcher.calls)
	assert.Zero(t, fx.status.upserts)
}

func TestRunSyncFetchFailureKeepsSnapshot(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	fx.reservations.sets["prop-1"] = []models.ReservationEvent{{BookingID: "OLDCODE123"}}
	fx.fetcher.err = &FetchError{URL: "x", Err: errors.New("connection refused")}

	_, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.Error(t, err)

	var fetchErr *FetchError
	assert.ErrorAs(t, err, &fetchErr)

	// Prior snapshot untouched.
	require.Len(t, fx.reservations.sets["prop-1"], 1)
	assert.Equal(t, "OLDCODE123", fx.reservations.sets["prop-1"][0].BookingID)

	st := fx.status.rows["prop-1"]
	require.NotNil(t, st)
	assert.Equal(t, models.SyncStateError, st.State)
	require.NotNil(t, st.LastError)
	assert.Contains(t, *st.LastError, "connection refused")
}

func TestRunSyncPersistenceFailure(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	fx.reservations.failWith = errors.New("disk full")

	_, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.Error(t, err)

	st := fx.status.rows["prop-1"]
	require.NotNil(t, st)
	assert.Equal(t, models.SyncStateError, st.State)
	require.NotNil(t, st.LastError)
	assert.Contains(t, *st.LastError, "disk full")
}

func TestRunSyncFreshnessSkip(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	lastSync := fx.now.Add(-1 * time.Hour)
	fx.status.rows["prop-1"] = &models.SyncStatus{
		PropertyID:        "prop-1",
		State:             models.SyncStateSuccess,
		LastSyncAt:        &lastSync,
		ReservationsCount: 7,
	}

	result, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.NoError(t, err)

	assert.True(t, result.Skipped)
	assert.Equal(t, 7, result.ReservationsCount)
	assert.Zero(t, fx.fetcher.calls)
	assert.Zero(t, fx.reservations.replaces)
}

func TestRunSyncForcedBypassesFreshness(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	lastSync := fx.now.Add(-1 * time.Hour)
	fx.status.rows["prop-1"] = &models.SyncStatus{
		PropertyID:        "prop-1",
		State:             models.SyncStateSuccess,
		LastSyncAt:        &lastSync,
		ReservationsCount: 7,
	}

	result, err := fx.service.RunSync(context.Background(), "prop-1", true)
	require.NoError(t, err)

	assert.False(t, result.Skipped)
	assert.Equal(t, 1, fx.fetcher.calls)
	assert.Equal(t, 1, result.ReservationsCount)
}

func TestRunSyncStaleSuccessIsResynced(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	lastSync := fx.now.Add(-5 * time.Hour)
	fx.status.rows["prop-1"] = &models.SyncStatus{
		PropertyID:        "prop-1",
		State:             models.SyncStateSuccess,
		LastSyncAt:        &lastSync,
		ReservationsCount: 7,
	}

	result, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.NoError(t, err)
	assert.False(t, result.Skipped)
	assert.Equal(t, 1, fx.fetcher.calls)
}

func TestRunSyncIdempotent(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)

	first, err := fx.service.RunSync(context.Background(), "prop-1", true)
	require.NoError(t, err)
	firstSet := append([]models.ReservationEvent(nil), fx.reservations.sets["prop-1"]...)

	second, err := fx.service.RunSync(context.Background(), "prop-1", true)
	require.NoError(t, err)

	assert.Equal(t, first.ReservationsCount, second.ReservationsCount)
	assert.Equal(t, firstSet, fx.reservations.sets["prop-1"])
}

func TestRunSyncEmptyFeedClearsSnapshot(t *testing.T) {
	// A feed legitimately emptied of bookings is a valid sync outcome.
	fx := newSyncFixture(t, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n")
	fx.reservations.sets["prop-1"] = []models.ReservationEvent{{BookingID: "OLDCODE123"}}

	result, err := fx.service.RunSync(context.Background(), "prop-1", true)
	require.NoError(t, err)

	assert.Equal(t, 0, result.ReservationsCount)
	assert.Empty(t, fx.reservations.sets["prop-1"])
	assert.Equal(t, models.SyncStateSuccess, fx.status.rows["prop-1"].State)
}

func TestRunSyncErrorPreservesPriorCount(t *testing.T) {
	fx := newSyncFixture(t, sampleFeed)
	lastSync := fx.now.Add(-10 * time.Hour)
	fx.status.rows["prop-1"] = &models.SyncStatus{
		PropertyID:        "prop-1",
		State:             models.SyncStateSuccess,
		LastSyncAt:        &lastSync,
		ReservationsCount: 7,
	}
	fx.fetcher.err = errors.New("timeout")

	_, err := fx.service.RunSync(context.Background(), "prop-1", false)
	require.Error(t, err)

	st := fx.status.rows["prop-1"]
	assert.Equal(t, models.SyncStateError, st.State)
	assert.Equal(t, 7, st.ReservationsCount)
}

func TestRunSyncExtractsGuestDetails(t *testing.T) {
	doc := "BEGIN:VEVENT\r\n" +
		"UID:rich\r\n" +
		"DTSTART;VALUE=DATE:20251115\r\n" +
		"DTEND;VALUE=DATE:20251118\r\n" +
		"SUMMARY:Reserved for John Smith (4 guests)\r\n" +
		"DESCRIPTION:Booking: ZXQW98K1LP\r\n" +
		"END:VEVENT\r\n"
	fx := newSyncFixture(t, doc)

	_, err := fx.service.RunSync(context.Background(), "prop-1", true)
	require.NoError(t, err)

	stored := fx.reservations.sets["prop-1"]
	require.Len(t, stored, 1)
	assert.Equal(t, "ZXQW98K1LP", stored[0].BookingID)
	require.NotNil(t, stored[0].GuestName)
	assert.Equal(t, "John Smith", *stored[0].GuestName)
	require.NotNil(t, stored[0].GuestCount)
	assert.Equal(t, 4, *stored[0].GuestCount)
}
