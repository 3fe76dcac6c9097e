package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// MappingRepository implements ports.ResourceTypeCloudMappingRepository
// on a relational engine. The (resource_type_id, cloud_provider_id)
// invariant is a real unique index.
type MappingRepository struct {
	*repository[entities.ResourceTypeCloudMapping]
}

var mappingColumns = []string{
	"id", "resource_type_id", "cloud_provider_id",
	"terraform_module_location", "module_location_type", "enabled",
	"created_at", "updated_at",
}

type mappingRow struct {
	ID                      string  `db:"id"`
	ResourceTypeID          *string `db:"resource_type_id"`
	CloudProviderID         *string `db:"cloud_provider_id"`
	TerraformModuleLocation string  `db:"terraform_module_location"`
	ModuleLocationType      string  `db:"module_location_type"`
	Enabled                 bool    `db:"enabled"`
	CreatedAt               string  `db:"created_at"`
	UpdatedAt               string  `db:"updated_at"`
}

// NewMappingRepository creates a new MappingRepository
func NewMappingRepository(db *sqlx.DB, logger *zap.Logger) *MappingRepository {
	return &MappingRepository{repository: newRepository(db, logger, sqlMapping[entities.ResourceTypeCloudMapping]{
		table:    "resource_type_cloud_mappings",
		columns:  mappingColumns,
		toRow:    mappingToRow,
		fromRows: mappingFromRows,
		id:       func(m *entities.ResourceTypeCloudMapping) uuid.UUID { return m.ID },
		setID:    func(m *entities.ResourceTypeCloudMapping, id uuid.UUID) { m.ID = id },
		timestamps: func(m *entities.ResourceTypeCloudMapping) (time.Time, time.Time) {
			return m.CreatedAt, m.UpdatedAt
		},
		setTimestamps: func(m *entities.ResourceTypeCloudMapping, createdAt, updatedAt time.Time) {
			m.CreatedAt = createdAt
			m.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.ResourceTypeCloudMappingRepository = (*MappingRepository)(nil)

func mappingToRow(m *entities.ResourceTypeCloudMapping) (map[string]any, error) {
	return map[string]any{
		"id":                        m.ID.String(),
		"resource_type_id":          nullableUUID(m.ResourceTypeID),
		"cloud_provider_id":         nullableUUID(m.CloudProviderID),
		"terraform_module_location": m.TerraformModuleLocation,
		"module_location_type":      string(m.ModuleLocationType),
		"enabled":                   m.Enabled,
		"created_at":                formatTime(m.CreatedAt),
		"updated_at":                formatTime(m.UpdatedAt),
	}, nil
}

func mappingFromRows(rows *sqlx.Rows) (*entities.ResourceTypeCloudMapping, error) {
	var rec mappingRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored cloud mapping").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	resourceTypeID, err := parseNullUUID(rec.ResourceTypeID)
	if err != nil {
		return nil, err
	}
	providerID, err := parseNullUUID(rec.CloudProviderID)
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

func (r *MappingRepository) FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error) {
	if resourceTypeID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "resource_type_id = ?", resourceTypeID.String())
}

func (r *MappingRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.ResourceTypeCloudMapping, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "cloud_provider_id = ?", cloudProviderID.String())
}

// FindByResourceTypeAndCloudProvider returns the single mapping for the
// unique pair, or nil when none exists.
func (r *MappingRepository) FindByResourceTypeAndCloudProvider(ctx context.Context, resourceTypeID, cloudProviderID uuid.UUID) (*entities.ResourceTypeCloudMapping, error) {
	if resourceTypeID == uuid.Nil || cloudProviderID == uuid.Nil {
		return nil, nil
	}
	matches, err := r.findWhere(ctx, "resource_type_id = ? AND cloud_provider_id = ?",
		resourceTypeID.String(), cloudProviderID.String())
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *MappingRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceTypeCloudMapping, error) {
	return r.findWhere(ctx, "enabled = ?", enabled)
}
