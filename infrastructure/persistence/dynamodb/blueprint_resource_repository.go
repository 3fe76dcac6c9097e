package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// BlueprintResourceRepository implements ports.BlueprintResourceRepository
// on DynamoDB.
type BlueprintResourceRepository struct {
	*repository[entities.BlueprintResource]
}

type blueprintResourceItem struct {
	ID              string         `dynamodbav:"id"`
	Name            string         `dynamodbav:"name"`
	Description     string         `dynamodbav:"description,omitempty"`
	BlueprintID     string         `dynamodbav:"blueprintId,omitempty"`
	ResourceTypeID  string         `dynamodbav:"resourceTypeId,omitempty"`
	CloudProviderID string         `dynamodbav:"cloudProviderId,omitempty"`
	CloudType       string         `dynamodbav:"cloudType,omitempty"`
	IsActive        bool           `dynamodbav:"isActive"`
	Configuration   map[string]any `dynamodbav:"configuration,omitempty"`
	CreatedAt       string         `dynamodbav:"createdAt"`
	UpdatedAt       string         `dynamodbav:"updatedAt"`
}

// NewBlueprintResourceRepository creates a new BlueprintResourceRepository
func NewBlueprintResourceRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *BlueprintResourceRepository {
	r := &BlueprintResourceRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.BlueprintResource]{
		table:    tables.BlueprintResources,
		toItem:   blueprintResourceToItem,
		fromItem: blueprintResourceFromItem,
		id:       func(b *entities.BlueprintResource) uuid.UUID { return b.ID },
		setID:    func(b *entities.BlueprintResource, id uuid.UUID) { b.ID = id },
		timestamps: func(b *entities.BlueprintResource) (time.Time, time.Time) {
			return b.CreatedAt, b.UpdatedAt
		},
		setTimestamps: func(b *entities.BlueprintResource, createdAt, updatedAt time.Time) {
			b.CreatedAt = createdAt
			b.UpdatedAt = updatedAt
		},
	})
	return r
}

var _ ports.BlueprintResourceRepository = (*BlueprintResourceRepository)(nil)

func blueprintResourceToItem(b *entities.BlueprintResource) (item, error) {
	it, err := attributevalue.MarshalMap(blueprintResourceItem{
		ID:              b.ID.String(),
		Name:            b.Name,
		Description:     b.Description,
		BlueprintID:     uuidString(b.BlueprintID),
		ResourceTypeID:  uuidString(b.ResourceTypeID),
		CloudProviderID: uuidString(b.CloudProviderID),
		CloudType:       b.CloudType,
		IsActive:        b.IsActive,
		Configuration:   b.Configuration,
		CreatedAt:       formatTime(b.CreatedAt),
		UpdatedAt:       formatTime(b.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map blueprint resource").WithCause(err)
	}
	return it, nil
}

func blueprintResourceFromItem(it item) (*entities.BlueprintResource, error) {
	var rec blueprintResourceItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored blueprint resource").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, err
	}
	blueprintID, err := parseUUID(rec.BlueprintID)
	if err != nil {
		return nil, err
	}
	resourceTypeID, err := parseUUID(rec.ResourceTypeID)
	if err != nil {
		return nil, err
	}
	providerID, err := parseUUID(rec.CloudProviderID)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &entities.BlueprintResource{
		ID:              id,
		Name:            rec.Name,
		Description:     rec.Description,
		BlueprintID:     blueprintID,
		ResourceTypeID:  resourceTypeID,
		CloudProviderID: providerID,
		CloudType:       rec.CloudType,
		IsActive:        rec.IsActive,
		Configuration:   rec.Configuration,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func (r *BlueprintResourceRepository) FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if blueprintID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiResourceBlueprintID, "blueprintId", stringValue(blueprintID.String()))
}

func (r *BlueprintResourceRepository) FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if resourceTypeID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiResourceTypeID, "resourceTypeId", stringValue(resourceTypeID.String()))
}

func (r *BlueprintResourceRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiResourceCloudProviderID, "cloudProviderId", stringValue(cloudProviderID.String()))
}

func (r *BlueprintResourceRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.BlueprintResource, error) {
	return r.queryIndex(ctx, gsiResourceIsActive, "isActive", boolValue(isActive))
}
