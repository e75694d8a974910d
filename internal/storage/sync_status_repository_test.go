package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staysync/backend/internal/storage/models"
)

func TestSyncStatusGetUnknownProperty(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncStatusRepository(db)

	status, err := repo.Get(context.Background(), "never-synced")
	require.NoError(t, err)
	assert.Nil(t, status)
}

func TestSyncStatusUpsertCreatesAndOverwrites(t *testing.T) {
	db := newTestDB(t)
	prop := createTestProperty(t, db, "cottage")
	repo := NewSyncStatusRepository(db)
	ctx := context.Background()

	startedAt := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &models.SyncStatus{
		PropertyID: prop.ID,
		State:      models.SyncStateSyncing,
		LastSyncAt: &startedAt,
	}))

	status, err := repo.Get(ctx, prop.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.SyncStateSyncing, status.State)

	finishedAt := startedAt.Add(3 * time.Second)
	require.NoError(t, repo.Upsert(ctx, &models.SyncStatus{
		PropertyID:        prop.ID,
		State:             models.SyncStateSuccess,
		LastSyncAt:        &finishedAt,
		ReservationsCount: 4,
	}))

	status, err = repo.Get(ctx, prop.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.SyncStateSuccess, status.State)
	assert.Equal(t, 4, status.ReservationsCount)
	assert.Nil(t, status.LastError)
	require.NotNil(t, status.LastSyncAt)
	assert.True(t, status.LastSyncAt.Equal(finishedAt))
}

func TestSyncStatusErrorRoundTrip(t *testing.T) {
	db := newTestDB(t)
	prop := createTestProperty(t, db, "cottage")
	repo := NewSyncStatusRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	msg := "fetching feed: connection refused"
	require.NoError(t, repo.Upsert(ctx, &models.SyncStatus{
		PropertyID: prop.ID,
		State:      models.SyncStateError,
		LastSyncAt: &now,
		LastError:  &msg,
	}))

	status, err := repo.Get(ctx, prop.ID)
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, models.SyncStateError, status.State)
	require.NotNil(t, status.LastError)
	assert.Equal(t, msg, *status.LastError)
}

func TestPropertyRepositoryCRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewPropertyRepository(db)
	ctx := context.Background()

	prop := createTestProperty(t, db, "cottage")
	require.NotEmpty(t, prop.ID)

	got, err := repo.GetByID(ctx, prop.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "cottage", got.Name)
	assert.True(t, got.HasFeed())

	got.Name = "renamed"
	got.FeedURL = nil
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.False(t, updated.HasFeed())

	// Without a feed the property is excluded from the sync roster.
	enabled, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	require.NoError(t, repo.Delete(ctx, prop.ID))
	gone, err := repo.GetByID(ctx, prop.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestPropertyDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	prop := createTestProperty(t, db, "cottage")
	ctx := context.Background()

	resRepo := NewReservationRepository(db)
	_, err := resRepo.ReplaceAll(ctx, prop.ID, []models.ReservationEvent{
		makeEvent("HM2KBR5WFZ", models.Date{Year: 2025, Month: 11, Day: 15}, models.Date{Year: 2025, Month: 11, Day: 18}),
	})
	require.NoError(t, err)

	require.NoError(t, NewPropertyRepository(db).Delete(ctx, prop.ID))

	n, err := resRepo.CountByProperty(ctx, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
