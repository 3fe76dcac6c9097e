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

// PropertySchemaRepository implements ports.PropertySchemaRepository on
// a relational engine. Display ordering is done by the database.
type PropertySchemaRepository struct {
	*repository[entities.PropertySchema]
}

var propertySchemaColumns = []string{
	"id", "mapping_id", "property_name", "display_name", "description",
	"data_type", "required", "default_value", "validation_rules",
	"display_order", "created_at", "updated_at",
}

type propertySchemaRow struct {
	ID              string  `db:"id"`
	MappingID       *string `db:"mapping_id"`
	PropertyName    string  `db:"property_name"`
	DisplayName     string  `db:"display_name"`
	Description     string  `db:"description"`
	DataType        string  `db:"data_type"`
	Required        bool    `db:"required"`
	DefaultValue    *string `db:"default_value"`
	ValidationRules *string `db:"validation_rules"`
	DisplayOrder    int     `db:"display_order"`
	CreatedAt       string  `db:"created_at"`
	UpdatedAt       string  `db:"updated_at"`
}

// NewPropertySchemaRepository creates a new PropertySchemaRepository
func NewPropertySchemaRepository(db *sqlx.DB, logger *zap.Logger) *PropertySchemaRepository {
	return &PropertySchemaRepository{repository: newRepository(db, logger, sqlMapping[entities.PropertySchema]{
		table:    "property_schemas",
		columns:  propertySchemaColumns,
		toRow:    propertySchemaToRow,
		fromRows: propertySchemaFromRows,
		id:       func(ps *entities.PropertySchema) uuid.UUID { return ps.ID },
		setID:    func(ps *entities.PropertySchema, id uuid.UUID) { ps.ID = id },
		timestamps: func(ps *entities.PropertySchema) (time.Time, time.Time) {
			return ps.CreatedAt, ps.UpdatedAt
		},
		setTimestamps: func(ps *entities.PropertySchema, createdAt, updatedAt time.Time) {
			ps.CreatedAt = createdAt
			ps.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.PropertySchemaRepository = (*PropertySchemaRepository)(nil)

func propertySchemaToRow(ps *entities.PropertySchema) (map[string]any, error) {
	defaultValue, err := encodeJSON(ps.DefaultValue)
	if err != nil {
		return nil, err
	}
	validationRules, err := encodeJSON(ps.ValidationRules)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":               ps.ID.String(),
		"mapping_id":       nullableUUID(ps.MappingID),
		"property_name":    ps.PropertyName,
		"display_name":     ps.DisplayName,
		"description":      ps.Description,
		"data_type":        string(ps.DataType),
		"required":         ps.Required,
		"default_value":    defaultValue,
		"validation_rules": validationRules,
		"display_order":    ps.DisplayOrder,
		"created_at":       formatTime(ps.CreatedAt),
		"updated_at":       formatTime(ps.UpdatedAt),
	}, nil
}

func propertySchemaFromRows(rows *sqlx.Rows) (*entities.PropertySchema, error) {
	var rec propertySchemaRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored property schema").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	mappingID, err := parseNullUUID(rec.MappingID)
	if err != nil {
		return nil, err
	}
	defaultValue, err := decodeJSONValue(rec.DefaultValue)
	if err != nil {
		return nil, err
	}
	validationRules, err := decodeJSONMap(rec.ValidationRules)
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

	return &entities.PropertySchema{
		ID:              id,
		MappingID:       mappingID,
		PropertyName:    rec.PropertyName,
		DisplayName:     rec.DisplayName,
		Description:     rec.Description,
		DataType:        entities.PropertyDataType(rec.DataType),
		Required:        rec.Required,
		DefaultValue:    defaultValue,
		ValidationRules: validationRules,
		DisplayOrder:    rec.DisplayOrder,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// FindByMappingID returns the mapping's schemas ordered by display_order
// ascending.
func (r *PropertySchemaRepository) FindByMappingID(ctx context.Context, mappingID uuid.UUID) ([]*entities.PropertySchema, error) {
	if mappingID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "mapping_id = ? ORDER BY display_order, id", mappingID.String())
}

func (r *PropertySchemaRepository) FindByMappingIDAndRequired(ctx context.Context, mappingID uuid.UUID, required bool) ([]*entities.PropertySchema, error) {
	if mappingID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "mapping_id = ? AND required = ? ORDER BY display_order, id",
		mappingID.String(), required)
}
