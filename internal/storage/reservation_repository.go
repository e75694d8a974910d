package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/staysync/backend/internal/storage/models"
)

// ReservationRepository provides data access for imported reservations.
// The rows for a property are only ever written through ReplaceAll, so the
// stored set is always exactly the result of the last successful sync.
type ReservationRepository struct {
	BaseRepository
}

// NewReservationRepository creates a new reservation repository.
func NewReservationRepository(db *DB) *ReservationRepository {
	return &ReservationRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// ReplaceAll deletes the property's reservation rows and inserts one row per
// event, all within a single transaction. A failure rolls the whole replace
// back, so the property is never left with a partially cleared snapshot.
// Replaying the same input yields the same stored set.
func (r *ReservationRepository) ReplaceAll(ctx context.Context, propertyID string, events []models.ReservationEvent) (int, error) {
	now := r.Now()

	err := r.Transaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM reservations WHERE property_id = ?", propertyID); err != nil {
			return fmt.Errorf("deleting reservations: %w", err)
		}

		for _, ev := range events {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO reservations (
					id, property_id, booking_id, summary, start_date, end_date,
					guest_name, guest_count, description, raw_snapshot, created_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				GenerateID(), propertyID, ev.BookingID, ev.Summary,
				ev.StartDate.String(), ev.EndDate.String(),
				ev.GuestName, ev.GuestCount, ev.Description, ev.RawSnippet, now,
			)
			if err != nil {
				return fmt.Errorf("inserting reservation %s: %w", ev.BookingID, err)
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(events), nil
}

// ListByProperty retrieves the stored reservation snapshot for a property,
// ordered by start date.
func (r *ReservationRepository) ListByProperty(ctx context.Context, propertyID string) ([]models.Reservation, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT id, property_id, booking_id, summary, start_date, end_date,
		       guest_name, guest_count, description, raw_snapshot, created_at
		FROM reservations
		WHERE property_id = ?
		ORDER BY start_date, booking_id
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("querying reservations: %w", err)
	}
	defer rows.Close()

	var reservations []models.Reservation
	for rows.Next() {
		var res models.Reservation
		if err := rows.Scan(
			&res.ID, &res.PropertyID, &res.BookingID, &res.Summary,
			&res.StartDate, &res.EndDate, &res.GuestName, &res.GuestCount,
			&res.Description, &res.RawSnapshot, &res.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning reservation: %w", err)
		}
		reservations = append(reservations, res)
	}

	return reservations, rows.Err()
}

// CountByProperty returns the number of stored reservations for a property.
func (r *ReservationRepository) CountByProperty(ctx context.Context, propertyID string) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx,
		"SELECT COUNT(*) FROM reservations WHERE property_id = ?", propertyID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting reservations: %w", err)
	}
	return count, nil
}
