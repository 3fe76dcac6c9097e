package entities

import (
	"time"

	"github.com/google/uuid"
)

// AdminAuditLog records one administrative action against a catalog
// entity. Entries are append-only: they are written once and never
// updated, so there is no UpdatedAt lifecycle.
type AdminAuditLog struct {
	ID         uuid.UUID      `json:"id"`
	UserEmail  string         `json:"userEmail"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   uuid.UUID      `json:"entityId"`
	Details    map[string]any `json:"details,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	CreatedAt  time.Time      `json:"createdAt"`
}
