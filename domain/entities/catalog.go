package entities

import (
	"time"

	"github.com/google/uuid"
)

// CloudProvider is a supported target cloud (aws, azure, gcp). Names are
// unique.
type CloudProvider struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"displayName"`
	Description string    `json:"description"`
	Enabled     bool      `json:"enabled"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ResourceType is a provisionable kind of resource in the catalog
// (database, queue, cluster). Names are unique.
type ResourceType struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	DisplayName string           `json:"displayName"`
	Description string           `json:"description"`
	Category    ResourceCategory `json:"category"`
	Enabled     bool             `json:"enabled"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// PropertySchema describes one configurable property exposed by a
// resource-type/cloud-provider mapping, including its validation rules
// and display ordering for generated forms.
type PropertySchema struct {
	ID              uuid.UUID        `json:"id"`
	MappingID       uuid.UUID        `json:"mappingId"`
	PropertyName    string           `json:"propertyName"`
	DisplayName     string           `json:"displayName"`
	Description     string           `json:"description"`
	DataType        PropertyDataType `json:"dataType"`
	Required        bool             `json:"required"`
	DefaultValue    any              `json:"defaultValue,omitempty"`
	ValidationRules map[string]any   `json:"validationRules,omitempty"`
	DisplayOrder    int              `json:"displayOrder"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// ResourceTypeCloudMapping binds a resource type to the terraform module
// implementing it on one cloud provider. The (ResourceTypeID,
// CloudProviderID) pair is unique.
type ResourceTypeCloudMapping struct {
	ID                      uuid.UUID          `json:"id"`
	ResourceTypeID          uuid.UUID          `json:"resourceTypeId"`
	CloudProviderID         uuid.UUID          `json:"cloudProviderId"`
	TerraformModuleLocation string             `json:"terraformModuleLocation"`
	ModuleLocationType      ModuleLocationType `json:"moduleLocationType"`
	Enabled                 bool               `json:"enabled"`
	CreatedAt               time.Time          `json:"createdAt"`
	UpdatedAt               time.Time          `json:"updatedAt"`
}
