package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/staysync/backend/internal/api/middleware"
	"github.com/staysync/backend/internal/calendar"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/storage/models"
	"github.com/staysync/backend/internal/websocket"
)

// SyncRequest is the optional body for a manual sync trigger.
type SyncRequest struct {
	Force bool `json:"force"`
}

// SyncResponse is the invocation contract for a sync attempt.
type SyncResponse struct {
	Success           bool   `json:"success"`
	ReservationsCount int    `json:"reservations_count,omitempty"`
	Message           string `json:"message,omitempty"`
	Error             string `json:"error,omitempty"`
}

// TriggerSync runs a sync for a property and returns the structured result.
// Configuration problems (unknown property, no feed URL) map to 400; fetch,
// parse and persistence failures map to 500.
func TriggerSync(syncService *calendar.SyncService, propertyRepo *storage.PropertyRepository, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req SyncRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		result, err := syncService.RunSync(r.Context(), id, req.Force)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, calendar.ErrPropertyNotFound) || errors.Is(err, calendar.ErrNoFeedURL) {
				status = http.StatusBadRequest
			}

			if hub != nil && status == http.StatusInternalServerError {
				websocket.NewEventBroadcaster(hub).BroadcastSyncError(id, propertyName(r, propertyRepo, id), err)
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(SyncResponse{Success: false, Error: err.Error()})
			return
		}

		if hub != nil && !result.Skipped {
			websocket.NewEventBroadcaster(hub).BroadcastSyncCompleted(propertyName(r, propertyRepo, id), *result)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SyncResponse{
			Success:           true,
			ReservationsCount: result.ReservationsCount,
			Message:           result.Message,
		})
	}
}

// propertyName resolves a display name for broadcast payloads; the ID is a
// good enough fallback when the lookup fails.
func propertyName(r *http.Request, repo *storage.PropertyRepository, id string) string {
	if repo == nil {
		return id
	}
	prop, err := repo.GetByID(r.Context(), id)
	if err != nil || prop == nil {
		return id
	}
	return prop.Name
}

// SyncStatusResponse is the sync status row plus the next scheduled run,
// when the property is on the scheduler.
type SyncStatusResponse struct {
	*models.SyncStatus
	NextRunAt *time.Time `json:"next_run_at,omitempty"`
}

// GetSyncStatus returns the current sync status row for a property.
func GetSyncStatus(statusRepo *storage.SyncStatusRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		status, err := statusRepo.Get(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query sync status")
			return
		}
		if status == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property has never been synced")
			return
		}

		response := SyncStatusResponse{SyncStatus: status}
		if scheduler != nil {
			response.NextRunAt = scheduler.NextRun(id)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}
}
