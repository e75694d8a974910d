// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/staysync/backend/internal/api/handlers"
	"github.com/staysync/backend/internal/api/middleware"
	"github.com/staysync/backend/internal/calendar"
	"github.com/staysync/backend/internal/storage"
	"github.com/staysync/backend/internal/websocket"
)

// Repositories bundles the data access objects the routes need.
type Repositories struct {
	Properties   *storage.PropertyRepository
	Reservations *storage.ReservationRepository
	SyncStatus   *storage.SyncStatusRepository
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(
	db *storage.DB,
	repos Repositories,
	hub *websocket.Hub,
	syncService *calendar.SyncService,
	scheduler *calendar.Scheduler,
	staticDir string,
) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(db)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(db, hub, scheduler)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(hub)).Methods("GET")

	// Property endpoints
	api.HandleFunc("/properties", handlers.ListProperties(repos.Properties)).Methods("GET")
	api.HandleFunc("/properties", handlers.CreateProperty(repos.Properties, scheduler)).Methods("POST")
	api.HandleFunc("/properties/{id}", handlers.GetProperty(repos.Properties)).Methods("GET")
	api.HandleFunc("/properties/{id}", handlers.UpdateProperty(repos.Properties, scheduler)).Methods("PUT")
	api.HandleFunc("/properties/{id}", handlers.DeleteProperty(repos.Properties, scheduler)).Methods("DELETE")

	// Sync endpoints
	api.HandleFunc("/properties/{id}/sync", handlers.TriggerSync(syncService, repos.Properties, hub)).Methods("POST")
	api.HandleFunc("/properties/{id}/sync-status", handlers.GetSyncStatus(repos.SyncStatus, scheduler)).Methods("GET")

	// Reservation endpoints
	api.HandleFunc("/properties/{id}/reservations", handlers.ListReservations(repos.Reservations)).Methods("GET")

	// Serve static dashboard files
	if staticDir != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))
	}

	return r
}
