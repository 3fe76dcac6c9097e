package dynamodb

import (
	"context"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// PropertySchemaRepository implements ports.PropertySchemaRepository on
// DynamoDB.
type PropertySchemaRepository struct {
	*repository[entities.PropertySchema]
}

type propertySchemaItem struct {
	ID              string         `dynamodbav:"id"`
	MappingID       string         `dynamodbav:"mappingId,omitempty"`
	PropertyName    string         `dynamodbav:"propertyName"`
	DisplayName     string         `dynamodbav:"displayName,omitempty"`
	Description     string         `dynamodbav:"description,omitempty"`
	DataType        string         `dynamodbav:"dataType,omitempty"`
	Required        bool           `dynamodbav:"required"`
	DefaultValue    any            `dynamodbav:"defaultValue,omitempty"`
	ValidationRules map[string]any `dynamodbav:"validationRules,omitempty"`
	DisplayOrder    int            `dynamodbav:"displayOrder"`
	CreatedAt       string         `dynamodbav:"createdAt"`
	UpdatedAt       string         `dynamodbav:"updatedAt"`
}

// NewPropertySchemaRepository creates a new PropertySchemaRepository
func NewPropertySchemaRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *PropertySchemaRepository {
	r := &PropertySchemaRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.PropertySchema]{
		table:    tables.PropertySchemas,
		toItem:   propertySchemaToItem,
		fromItem: propertySchemaFromItem,
		id:       func(p *entities.PropertySchema) uuid.UUID { return p.ID },
		setID:    func(p *entities.PropertySchema, id uuid.UUID) { p.ID = id },
		timestamps: func(p *entities.PropertySchema) (time.Time, time.Time) {
			return p.CreatedAt, p.UpdatedAt
		},
		setTimestamps: func(p *entities.PropertySchema, createdAt, updatedAt time.Time) {
			p.CreatedAt = createdAt
			p.UpdatedAt = updatedAt
		},
	})
	return r
}

var _ ports.PropertySchemaRepository = (*PropertySchemaRepository)(nil)

func propertySchemaToItem(p *entities.PropertySchema) (item, error) {
	it, err := attributevalue.MarshalMap(propertySchemaItem{
		ID:              p.ID.String(),
		MappingID:       uuidString(p.MappingID),
		PropertyName:    p.PropertyName,
		DisplayName:     p.DisplayName,
		Description:     p.Description,
		DataType:        string(p.DataType),
		Required:        p.Required,
		DefaultValue:    p.DefaultValue,
		ValidationRules: p.ValidationRules,
		DisplayOrder:    p.DisplayOrder,
		CreatedAt:       formatTime(p.CreatedAt),
		UpdatedAt:       formatTime(p.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map property schema").WithCause(err)
	}
	return it, nil
}

func propertySchemaFromItem(it item) (*entities.PropertySchema, error) {
	var rec propertySchemaItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored property schema").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, err
	}
	mappingID, err := parseUUID(rec.MappingID)
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
		DefaultValue:    rec.DefaultValue,
		ValidationRules: rec.ValidationRules,
		DisplayOrder:    rec.DisplayOrder,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

// FindByMappingID returns the mapping's schemas ordered by DisplayOrder.
func (r *PropertySchemaRepository) FindByMappingID(ctx context.Context, mappingID uuid.UUID) ([]*entities.PropertySchema, error) {
	if mappingID == uuid.Nil {
		return nil, nil
	}
	schemas, err := r.queryIndex(ctx, gsiSchemaMappingID, "mappingId", stringValue(mappingID.String()))
	if err != nil {
		return nil, err
	}
	sort.SliceStable(schemas, func(i, j int) bool {
		return schemas[i].DisplayOrder < schemas[j].DisplayOrder
	})
	return schemas, nil
}

// FindByMappingIDAndRequired queries the mapping index and filters the
// required flag in memory.
func (r *PropertySchemaRepository) FindByMappingIDAndRequired(ctx context.Context, mappingID uuid.UUID, required bool) ([]*entities.PropertySchema, error) {
	if mappingID == uuid.Nil {
		return nil, nil
	}
	all, err := r.FindByMappingID(ctx, mappingID)
	if err != nil {
		return nil, err
	}
	matched := make([]*entities.PropertySchema, 0, len(all))
	for _, schema := range all {
		if schema.Required == required {
			matched = append(matched, schema)
		}
	}
	return matched, nil
}
