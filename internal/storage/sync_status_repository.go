package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/staysync/backend/internal/storage/models"
)

// SyncStatusRepository provides data access for per-property sync status.
type SyncStatusRepository struct {
	BaseRepository
}

// NewSyncStatusRepository creates a new sync status repository.
func NewSyncStatusRepository(db *DB) *SyncStatusRepository {
	return &SyncStatusRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Get retrieves the sync status for a property. Returns nil when the
// property has never been synced.
func (r *SyncStatusRepository) Get(ctx context.Context, propertyID string) (*models.SyncStatus, error) {
	status := &models.SyncStatus{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT property_id, state, last_sync_at, last_error, reservations_count, updated_at
		FROM sync_status WHERE property_id = ?
	`, propertyID).Scan(
		&status.PropertyID, &status.State, &status.LastSyncAt,
		&status.LastError, &status.ReservationsCount, &status.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying sync status: %w", err)
	}

	return status, nil
}

// Upsert writes the full status row for a property, creating it on first
// sync. Every field is overwritten; the orchestrator owns the transitions.
func (r *SyncStatusRepository) Upsert(ctx context.Context, status *models.SyncStatus) error {
	status.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO sync_status (
			property_id, state, last_sync_at, last_error, reservations_count, updated_at
		) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(property_id) DO UPDATE SET
			state = excluded.state,
			last_sync_at = excluded.last_sync_at,
			last_error = excluded.last_error,
			reservations_count = excluded.reservations_count,
			updated_at = excluded.updated_at
	`,
		status.PropertyID, status.State, status.LastSyncAt,
		status.LastError, status.ReservationsCount, status.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("upserting sync status: %w", err)
	}

	return nil
}
