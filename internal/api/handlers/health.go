// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/staysync/backend/internal/calendar"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/storage/models"
	"github.com/staysync/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		if !dbConnected {
			status = "degraded"
		}

		response := HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		}

		w.Header().Set("Content-Type", "application/json")
		if status != "healthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(response)
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	PropertiesCount   int `json:"properties_count"`
	ReservationsCount int `json:"reservations_count"`
	SyncingCount      int `json:"syncing_count"`
	ErroredCount      int `json:"errored_count"`
	ScheduledCount    int `json:"scheduled_count"`
	ConnectedClients  int `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(db *storage.DB, hub *websocket.Hub, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var response StatusResponse
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties").Scan(&response.PropertiesCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reservations").Scan(&response.ReservationsCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_status WHERE state = ?", models.SyncStateSyncing).Scan(&response.SyncingCount)
		db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sync_status WHERE state = ?", models.SyncStateError).Scan(&response.ErroredCount)

		if scheduler != nil {
			response.ScheduledCount = len(scheduler.ScheduledProperties())
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
