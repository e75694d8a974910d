package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/staysync/backend/internal/storage/models"
)

// PropertyRepository provides data access for rental properties.
type PropertyRepository struct {
	BaseRepository
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new property.
func (r *PropertyRepository) Create(ctx context.Context, prop *models.Property) error {
	prop.ID = GenerateID()
	prop.CreatedAt = r.Now()
	prop.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO properties (
			id, name, feed_url, sync_interval_min, enabled, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		prop.ID, prop.Name, prop.FeedURL, prop.SyncIntervalMin,
		prop.Enabled, prop.CreatedAt, prop.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}

	return nil
}

// GetByID retrieves a property by its ID. Returns nil when the property
// does not exist.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	prop := &models.Property{}

	err := r.DB().QueryRowContext(ctx, `
		SELECT id, name, feed_url, sync_interval_min, enabled, created_at, updated_at
		FROM properties WHERE id = ?
	`, id).Scan(
		&prop.ID, &prop.Name, &prop.FeedURL, &prop.SyncIntervalMin,
		&prop.Enabled, &prop.CreatedAt, &prop.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying property: %w", err)
	}

	return prop, nil
}

// List retrieves all properties.
func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, feed_url, sync_interval_min, enabled, created_at, updated_at
		FROM properties
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

// ListEnabled retrieves all enabled properties with a configured feed.
func (r *PropertyRepository) ListEnabled(ctx context.Context) ([]models.Property, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, name, feed_url, sync_interval_min, enabled, created_at, updated_at
		FROM properties
		WHERE enabled = 1 AND feed_url IS NOT NULL AND feed_url != ''
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("querying enabled properties: %w", err)
	}
	defer rows.Close()

	return scanProperties(rows)
}

func scanProperties(rows *sql.Rows) ([]models.Property, error) {
	var properties []models.Property
	for rows.Next() {
		var prop models.Property
		if err := rows.Scan(
			&prop.ID, &prop.Name, &prop.FeedURL, &prop.SyncIntervalMin,
			&prop.Enabled, &prop.CreatedAt, &prop.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning property: %w", err)
		}
		properties = append(properties, prop)
	}

	return properties, rows.Err()
}

// Update updates an existing property.
func (r *PropertyRepository) Update(ctx context.Context, prop *models.Property) error {
	prop.UpdatedAt = r.Now()

	result, err := r.DB().ExecContext(ctx, `
		UPDATE properties SET
			name = ?, feed_url = ?, sync_interval_min = ?, enabled = ?, updated_at = ?
		WHERE id = ?
	`,
		prop.Name, prop.FeedURL, prop.SyncIntervalMin, prop.Enabled, prop.UpdatedAt, prop.ID,
	)

	if err != nil {
		return fmt.Errorf("updating property: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", prop.ID)
	}

	return nil
}

// Delete removes a property by ID. Reservations and sync status rows
// cascade.
func (r *PropertyRepository) Delete(ctx context.Context, id string) error {
	result, err := r.DB().ExecContext(ctx, "DELETE FROM properties WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting property: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}

	return nil
}
