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

// BlueprintResourceRepository implements ports.BlueprintResourceRepository
// on a relational engine.
type BlueprintResourceRepository struct {
	*repository[entities.BlueprintResource]
}

var blueprintResourceColumns = []string{
	"id", "name", "description", "blueprint_id", "resource_type_id",
	"cloud_provider_id", "cloud_type", "is_active", "configuration",
	"created_at", "updated_at",
}

type blueprintResourceRow struct {
	ID              string  `db:"id"`
	Name            string  `db:"name"`
	Description     string  `db:"description"`
	BlueprintID     *string `db:"blueprint_id"`
	ResourceTypeID  *string `db:"resource_type_id"`
	CloudProviderID *string `db:"cloud_provider_id"`
	CloudType       string  `db:"cloud_type"`
	IsActive        bool    `db:"is_active"`
	Configuration   *string `db:"configuration"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
}

// NewBlueprintResourceRepository creates a new BlueprintResourceRepository
func NewBlueprintResourceRepository(db *sqlx.DB, logger *zap.Logger) *BlueprintResourceRepository {
	return &BlueprintResourceRepository{repository: newRepository(db, logger, sqlMapping[entities.BlueprintResource]{
		table:    "blueprint_resources",
		columns:  blueprintResourceColumns,
		toRow:    blueprintResourceToRow,
		fromRows: blueprintResourceFromRows,
		id:       func(br *entities.BlueprintResource) uuid.UUID { return br.ID },
		setID:    func(br *entities.BlueprintResource, id uuid.UUID) { br.ID = id },
		timestamps: func(br *entities.BlueprintResource) (time.Time, time.Time) {
			return br.CreatedAt, br.UpdatedAt
		},
		setTimestamps: func(br *entities.BlueprintResource, createdAt, updatedAt time.Time) {
			br.CreatedAt = createdAt
			br.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.BlueprintResourceRepository = (*BlueprintResourceRepository)(nil)

func blueprintResourceToRow(br *entities.BlueprintResource) (map[string]any, error) {
	configuration, err := encodeJSON(br.Configuration)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                br.ID.String(),
		"name":              br.Name,
		"description":       br.Description,
		"blueprint_id":      nullableUUID(br.BlueprintID),
		"resource_type_id":  nullableUUID(br.ResourceTypeID),
		"cloud_provider_id": nullableUUID(br.CloudProviderID),
		"cloud_type":        br.CloudType,
		"is_active":         br.IsActive,
		"configuration":     configuration,
		"created_at":        formatTime(br.CreatedAt),
		"updated_at":        formatTime(br.UpdatedAt),
	}, nil
}

func blueprintResourceFromRows(rows *sqlx.Rows) (*entities.BlueprintResource, error) {
	var rec blueprintResourceRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored blueprint resource").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	blueprintID, err := parseNullUUID(rec.BlueprintID)
	if err != nil {
		return nil, err
	}
	resourceTypeID, err := parseNullUUID(rec.ResourceTypeID)
	if err != nil {
		return nil, err
	}
	providerID, err := parseNullUUID(rec.CloudProviderID)
	if err != nil {
		return nil, err
	}
	configuration, err := decodeJSONMap(rec.Configuration)
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
		Configuration:   configuration,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

func (r *BlueprintResourceRepository) FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if blueprintID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "blueprint_id = ?", blueprintID.String())
}

func (r *BlueprintResourceRepository) FindByResourceTypeID(ctx context.Context, resourceTypeID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if resourceTypeID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "resource_type_id = ?", resourceTypeID.String())
}

func (r *BlueprintResourceRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.BlueprintResource, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "cloud_provider_id = ?", cloudProviderID.String())
}

func (r *BlueprintResourceRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.BlueprintResource, error) {
	return r.findWhere(ctx, "is_active = ?", isActive)
}
