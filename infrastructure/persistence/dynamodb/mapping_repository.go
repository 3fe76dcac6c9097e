package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// MappingRepository implements ports.ResourceTypeCloudMappingRepository
// on DynamoDB.
type MappingRepository struct {
	*repository[entities.ResourceTypeCloudMapping]
}

type mappingItem struct {
	ID                      string `dynamodbav:"id"`
	ResourceTypeID          string `dynamodbav:"resourceTypeId,omitempty"`
	CloudProviderID         string `dynamodbav:"cloudProviderId,omitempty"`
	TerraformModuleLocation string `dynamodbav:"terraformModuleLocation,omitempty"`
	ModuleLocationType      string `dynamodbav:"moduleLocationType,omitempty"`
	Enabled                 bool   `dynamodbav:"enabled"`
	CreatedAt               string `dynamodbav:"createdAt"`
	UpdatedAt               string `dynamodbav:"updatedAt"`
}

// NewMappingRepository creates a new MappingRepository
func NewMappingRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *MappingRepository {
	r := &MappingRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.ResourceTypeCloudMapping]{
		table:    tables.Mappings,
		toItem:   mappingToItem,
		fromItem: mappingFromItem,
		id:       func(m *entities.ResourceTypeCloudMapping) uuid.UUID { return m.ID },
		setID:    func(m *entities.ResourceTypeCloudMapping, id uuid.UUID) { m.ID = id },
		timestamps: func(m *entities.ResourceTypeCloudMapping) (time.Time, time.Time) {
			return m.CreatedAt, m.UpdatedAt
		},
		setTimestamps: func(m *entities.ResourceTypeCloudMapping, createdAt, updatedAt time.Time) {
			m.CreatedAt = createdAt
			m.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, m *entities.ResourceTypeCloudMapping) error {
			return r.checkPairUnique(ctx, m)
		},
	})
	return r
}

var _ ports.ResourceTypeCloudMappingRepository = (*MappingRepository)(nil)

func mappingToItem(m *entities.ResourceTypeCloudMapping) (item, error) {
	it, err := attributevalue.MarshalMap(mappingItem{
		ID:                      m.ID.String(),
		ResourceTypeID:          uuidString(m.ResourceTypeID),
		CloudProviderID:         uuidString(m.CloudProviderID),
		TerraformModuleLocation: m.TerraformModuleLocation,
		ModuleLocationType:      string(m.ModuleLocationType),
		Enabled:                 m.Enabled,
		CreatedAt:               formatTime(m.CreatedAt),
		UpdatedAt:               formatTime(m.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map resource type cloud mapping").WithCause(err)
	}
	return it, nil
}

func mappingFromItem(it item) (*entities.ResourceTypeCloudMapping, error) {
	var rec mappingItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored resource type cloud mapping").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
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

	return &entities.ResourceTypeCloudMapping{
		ID:                      id,
		ResourceTypeID:          resourceTypeID,
		CloudProviderID:         providerID,
		TerraformModuleLocation: rec.TerraformModuleLocation,
		ModuleLocationType:      entities.ModuleLocationType(rec.ModuleLocationType),
		Enabled:                 rec.Enabled,
		CreatedAt:               createdAt,
		UpdatedAt:               updatedAt,
	}, nil
}

func (r *MappingRepository) checkPairUnique(ctx context.Context, m *entities.ResourceTypeCloudMapping) error {
	if m.ResourceTypeID == uuid.Nil || m.CloudProviderID == uuid.Nil {
		return nil
	}
	existing, err := r.FindByResourceTypeAndCloudProvider(ctx, m.ResourceTypeID, m.CloudProviderID)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != m.ID {
		return apperrors.NewConflictError(fmt.Sprintf(
			"mapping for resource type %s and cloud provider %s already exists",
			m.ResourceTypeID, m.CloudProviderID))
	}
	return nil
}

func (r *MappingRepository) FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error) {
	if resourceTypeID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiMappingResourceTypeID, "resourceTypeId", stringValue(resourceTypeID.String()))
}

func (r *MappingRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiMappingCloudProviderID, "cloudProviderId", stringValue(cloudProviderID.String()))
}

// FindByResourceTypeAndCloudProvider queries the resource-type index and
// filters the provider in memory; the pair is unique so at most one
// mapping matches.
func (r *MappingRepository) FindByResourceTypeAndCloudProvider(ctx context.Context, resourceTypeID, cloudProviderID uuid.UUID) (*entities.ResourceTypeCloudMapping, error) {
	if resourceTypeID == uuid.Nil || cloudProviderID == uuid.Nil {
		return nil, nil
	}
	byType, err := r.FindByResourceTypeID(ctx, resourceTypeID)
	if err != nil {
		return nil, err
	}
	for _, m := range byType {
		if m.CloudProviderID == cloudProviderID {
			return m, nil
		}
	}
	return nil, nil
}

func (r *MappingRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceTypeCloudMapping, error) {
	return r.queryIndex(ctx, gsiMappingEnabled, "enabled", boolValue(enabled))
}
