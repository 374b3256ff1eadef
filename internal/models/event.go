package models

import "time"

// Event represents an audited lifecycle action in the system.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "user.created", "post.deleted"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	EntityID  *string   `json:"entityId,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
