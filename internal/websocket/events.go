package websocket

import (
	"log"

	"github.com/staysync/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting WebSocket events.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastSyncCompleted sends a property sync completed event.
func (b *EventBroadcaster) BroadcastSyncCompleted(propertyName string, result models.SyncResult) {
	payload := SyncPayload{
		PropertyID:        result.PropertyID,
		PropertyName:      propertyName,
		Status:            models.SyncStateSuccess,
		EventsFound:       result.EventsFound,
		EventsSkipped:     result.EventsSkipped,
		ReservationsCount: result.ReservationsCount,
		Skipped:           result.Skipped,
	}

	b.broadcast(NewMessage(TypeSyncCompleted, payload))
}

// BroadcastSyncError sends a property sync error event.
func (b *EventBroadcaster) BroadcastSyncError(propertyID, propertyName string, err error) {
	payload := SyncErrorPayload{
		PropertyID:   propertyID,
		PropertyName: propertyName,
		Error:        "sync_error",
		Message:      err.Error(),
	}

	b.broadcast(NewMessage(TypeSyncError, payload))
}

// BroadcastNotification sends a general notification event.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	payload := NotificationPayload{
		Level:   level,
		Title:   title,
		Message: message,
	}

	b.broadcast(NewMessage(TypeNotification, payload))
}

// broadcast serializes and sends a message to all connected clients.
func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Failed to serialize WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
