package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"idp-backend/domain/entities"
)

// Repository is the base persistence contract shared by every managed
// entity. Implementations exist for DynamoDB and for relational engines;
// callers depend only on these interfaces and must observe identical
// behavior from both.
//
// Lookup conventions: FindByID with uuid.Nil or an unknown id returns
// (nil, nil), never an error. Delete on uuid.Nil or an absent id is a
// no-op. FindAll returns the complete logical result set regardless of
// how many pages the backing store needs to produce it.
type Repository[T any] interface {
	// Save inserts the entity when it has no id (generating one) and
	// fully overwrites it otherwise. CreatedAt is set once; UpdatedAt
	// advances on every successful write.
	Save(ctx context.Context, entity *T) (*T, error)

	FindByID(ctx context.Context, id uuid.UUID) (*T, error)
	FindAll(ctx context.Context) ([]*T, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	Count(ctx context.Context) (int64, error)

	// SaveAll persists every entity in the slice. It does not guarantee
	// atomicity across items: a partial failure may leave some items
	// written and others not.
	SaveAll(ctx context.Context, entities []*T) ([]*T, error)

	// DeleteAll removes every listed id. Nil and unknown ids are
	// skipped. Like SaveAll it is not atomic across items.
	DeleteAll(ctx context.Context, ids []uuid.UUID) error
}

// StackRepository persists stacks. The (Name, CreatedBy) pair is unique;
// Save rejects a duplicate with a conflict error.
type StackRepository interface {
	Repository[entities.Stack]

	// SaveWithOptimisticLock overwrites the stack only if its stored
	// UpdatedAt still equals expectedUpdatedAt, failing with an
	// optimistic-lock conflict otherwise. A stack with no stored record
	// is written as new, so a locked save can recreate a deleted stack.
	SaveWithOptimisticLock(ctx context.Context, stack *entities.Stack, expectedUpdatedAt time.Time) (*entities.Stack, error)

	FindByCreatedBy(ctx context.Context, createdBy string) ([]*entities.Stack, error)
	FindByStackType(ctx context.Context, stackType entities.StackType) ([]*entities.Stack, error)
	FindByTeamID(ctx context.Context, teamID uuid.UUID) ([]*entities.Stack, error)
	FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.Stack, error)
	FindByEphemeralPrefix(ctx context.Context, prefix string) ([]*entities.Stack, error)

	// FindByBlueprintID has no backing index and scans the full table.
	FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.Stack, error)

	FindByCloudProviderAndCreatedBy(ctx context.Context, cloudProviderID uuid.UUID, createdBy string) ([]*entities.Stack, error)
	ExistsByNameAndCreatedBy(ctx context.Context, name, createdBy string) (bool, error)
}

// BlueprintRepository persists blueprints. Blueprint names are unique.
type BlueprintRepository interface {
	Repository[entities.Blueprint]

	SaveWithOptimisticLock(ctx context.Context, blueprint *entities.Blueprint, expectedUpdatedAt time.Time) (*entities.Blueprint, error)

	FindByName(ctx context.Context, name string) (*entities.Blueprint, error)
	FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Blueprint, error)
}

// BlueprintResourceRepository persists the resources a blueprint declares.
type BlueprintResourceRepository interface {
	Repository[entities.BlueprintResource]

	FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.BlueprintResource, error)
	FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.BlueprintResource, error)
	FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.BlueprintResource, error)
	FindByIsActive(ctx context.Context, isActive bool) ([]*entities.BlueprintResource, error)
}

// APIKeyRepository persists API keys. KeyHash is unique.
type APIKeyRepository interface {
	Repository[entities.APIKey]

	SaveWithOptimisticLock(ctx context.Context, key *entities.APIKey, expectedUpdatedAt time.Time) (*entities.APIKey, error)

	// RotateKey atomically revokes oldKey and creates newKey. If oldKey
	// was concurrently modified or already revoked, neither side is
	// changed and the rotation fails.
	RotateKey(ctx context.Context, oldKey, newKey *entities.APIKey) (*entities.APIKey, error)

	FindByKeyHash(ctx context.Context, keyHash string) (*entities.APIKey, error)
	FindByUserEmail(ctx context.Context, userEmail string) ([]*entities.APIKey, error)
	FindByKeyType(ctx context.Context, keyType entities.APIKeyType) ([]*entities.APIKey, error)
	FindByIsActive(ctx context.Context, isActive bool) ([]*entities.APIKey, error)
	FindByCreatedByEmail(ctx context.Context, createdByEmail string) ([]*entities.APIKey, error)
	FindByUserEmailAndIsActive(ctx context.Context, userEmail string, isActive bool) ([]*entities.APIKey, error)
}

// TeamRepository persists teams.
type TeamRepository interface {
	Repository[entities.Team]

	FindByName(ctx context.Context, name string) ([]*entities.Team, error)
	FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Team, error)
}

// CloudProviderRepository persists cloud providers. Names are unique.
type CloudProviderRepository interface {
	Repository[entities.CloudProvider]

	FindByName(ctx context.Context, name string) (*entities.CloudProvider, error)
	FindByEnabled(ctx context.Context, enabled bool) ([]*entities.CloudProvider, error)
}

// ResourceTypeRepository persists resource types. Names are unique.
type ResourceTypeRepository interface {
	Repository[entities.ResourceType]

	FindByName(ctx context.Context, name string) (*entities.ResourceType, error)
	FindByCategory(ctx context.Context, category entities.ResourceCategory) ([]*entities.ResourceType, error)
	FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceType, error)
}

// PropertySchemaRepository persists per-mapping property schemas.
type PropertySchemaRepository interface {
	Repository[entities.PropertySchema]

	// FindByMappingID returns the mapping's schemas ordered by
	// DisplayOrder ascending.
	FindByMappingID(ctx context.Context, mappingID uuid.UUID) ([]*entities.PropertySchema, error)
	FindByMappingIDAndRequired(ctx context.Context, mappingID uuid.UUID, required bool) ([]*entities.PropertySchema, error)
}

// ResourceTypeCloudMappingRepository persists resource-type to cloud
// bindings. The (ResourceTypeID, CloudProviderID) pair is unique.
type ResourceTypeCloudMappingRepository interface {
	Repository[entities.ResourceTypeCloudMapping]

	FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error)
	FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error)
	FindByResourceTypeAndCloudProvider(ctx context.Context, resourceTypeID, cloudProviderID uuid.UUID) (*entities.ResourceTypeCloudMapping, error)
	FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceTypeCloudMapping, error)
}

// AdminAuditLogRepository persists the append-only admin audit trail.
type AdminAuditLogRepository interface {
	Repository[entities.AdminAuditLog]

	FindByUserEmail(ctx context.Context, userEmail string) ([]*entities.AdminAuditLog, error)
	FindByEntityType(ctx context.Context, entityType string) ([]*entities.AdminAuditLog, error)
	FindByAction(ctx context.Context, action string) ([]*entities.AdminAuditLog, error)
}

// Repositories bundles one implementation of every repository, selected
// once at startup by configuration.
type Repositories struct {
	Stacks             StackRepository
	Blueprints         BlueprintRepository
	BlueprintResources BlueprintResourceRepository
	APIKeys            APIKeyRepository
	Teams              TeamRepository
	CloudProviders     CloudProviderRepository
	ResourceTypes      ResourceTypeRepository
	PropertySchemas    PropertySchemaRepository
	Mappings           ResourceTypeCloudMappingRepository
	AuditLogs          AdminAuditLogRepository
}
