package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/staysync/backend/internal/api/middleware"
	"github.com/staysync/backend/internal/calendar"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/storage/models"
)

// PropertyRequest is the create/update payload for a property.
type PropertyRequest struct {
	Name            string  `json:"name"`
	FeedURL         *string `json:"feed_url"`
	SyncIntervalMin int     `json:"sync_interval_min"`
	Enabled         bool    `json:"enabled"`
}

// ListProperties returns all properties.
func ListProperties(repo *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		properties, err := repo.List(r.Context())
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query properties")
			return
		}

		if properties == nil {
			properties = []models.Property{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(properties)
	}
}

// CreateProperty adds a new property.
func CreateProperty(repo *storage.PropertyRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		if req.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Name is required")
			return
		}

		if req.SyncIntervalMin < 5 {
			req.SyncIntervalMin = 240
		}

		prop := &models.Property{
			Name:            req.Name,
			FeedURL:         req.FeedURL,
			SyncIntervalMin: req.SyncIntervalMin,
			Enabled:         req.Enabled,
		}

		if err := repo.Create(r.Context(), prop); err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to create property")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleProperty(*prop)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(prop)
	}
}

// GetProperty returns a single property by ID.
func GetProperty(repo *storage.PropertyRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		prop, err := repo.GetByID(r.Context(), id)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query property")
			return
		}
		if prop == nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(prop)
	}
}

// UpdateProperty updates an existing property.
func UpdateProperty(repo *storage.PropertyRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		var req PropertyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		prop := &models.Property{
			ID:              id,
			Name:            req.Name,
			FeedURL:         req.FeedURL,
			SyncIntervalMin: req.SyncIntervalMin,
			Enabled:         req.Enabled,
		}

		if err := repo.Update(r.Context(), prop); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		if scheduler != nil {
			scheduler.ScheduleProperty(*prop)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// DeleteProperty removes a property and its imported reservations.
func DeleteProperty(repo *storage.PropertyRepository, scheduler *calendar.Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["id"]

		if err := repo.Delete(r.Context(), id); err != nil {
			middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, "Property not found")
			return
		}

		if scheduler != nil {
			scheduler.UnscheduleProperty(id)
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
