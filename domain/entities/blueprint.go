package entities

import (
	"time"

	"github.com/google/uuid"
)

// Blueprint is a reusable template describing the shared infrastructure a
// family of stacks is built on. Blueprint names are unique.
type Blueprint struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// BlueprintResource is one resource a blueprint provisions, bound to a
// resource type and a cloud provider.
type BlueprintResource struct {
	ID              uuid.UUID      `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	BlueprintID     uuid.UUID      `json:"blueprintId"`
	ResourceTypeID  uuid.UUID      `json:"resourceTypeId"`
	CloudProviderID uuid.UUID      `json:"cloudProviderId"`
	CloudType       string         `json:"cloudType"`
	IsActive        bool           `json:"isActive"`
	Configuration   map[string]any `json:"configuration"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}
