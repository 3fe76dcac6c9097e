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

// ResourceTypeRepository implements ports.ResourceTypeRepository on
// DynamoDB.
type ResourceTypeRepository struct {
	*repository[entities.ResourceType]
}

type resourceTypeItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	DisplayName string `dynamodbav:"displayName,omitempty"`
	Description string `dynamodbav:"description,omitempty"`
	Category    string `dynamodbav:"category,omitempty"`
	Enabled     bool   `dynamodbav:"enabled"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// NewResourceTypeRepository creates a new ResourceTypeRepository
func NewResourceTypeRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *ResourceTypeRepository {
	r := &ResourceTypeRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.ResourceType]{
		table:    tables.ResourceTypes,
		toItem:   resourceTypeToItem,
		fromItem: resourceTypeFromItem,
		id:       func(t *entities.ResourceType) uuid.UUID { return t.ID },
		setID:    func(t *entities.ResourceType, id uuid.UUID) { t.ID = id },
		timestamps: func(t *entities.ResourceType) (time.Time, time.Time) {
			return t.CreatedAt, t.UpdatedAt
		},
		setTimestamps: func(t *entities.ResourceType, createdAt, updatedAt time.Time) {
			t.CreatedAt = createdAt
			t.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, t *entities.ResourceType) error {
			return r.checkNameUnique(ctx, t)
		},
	})
	return r
}

var _ ports.ResourceTypeRepository = (*ResourceTypeRepository)(nil)

func resourceTypeToItem(t *entities.ResourceType) (item, error) {
	it, err := attributevalue.MarshalMap(resourceTypeItem{
		ID:          t.ID.String(),
		Name:        t.Name,
		DisplayName: t.DisplayName,
		Description: t.Description,
		Category:    string(t.Category),
		Enabled:     t.Enabled,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map resource type").WithCause(err)
	}
	return it, nil
}

func resourceTypeFromItem(it item) (*entities.ResourceType, error) {
	var rec resourceTypeItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored resource type").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
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

	return &entities.ResourceType{
		ID:          id,
		Name:        rec.Name,
		DisplayName: rec.DisplayName,
		Description: rec.Description,
		Category:    entities.ResourceCategory(rec.Category),
		Enabled:     rec.Enabled,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *ResourceTypeRepository) checkNameUnique(ctx context.Context, t *entities.ResourceType) error {
	if t.Name == "" {
		return nil
	}
	existing, err := r.FindByName(ctx, t.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != t.ID {
		return apperrors.NewConflictError(fmt.Sprintf("resource type %q already exists", t.Name))
	}
	return nil
}

// FindByName returns the single resource type with the given unique
// name, or nil when none exists.
func (r *ResourceTypeRepository) FindByName(ctx context.Context, name string) (*entities.ResourceType, error) {
	if name == "" {
		return nil, nil
	}
	matches, err := r.queryIndex(ctx, gsiResourceTypeName, "name", stringValue(name))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *ResourceTypeRepository) FindByCategory(ctx context.Context, category entities.ResourceCategory) ([]*entities.ResourceType, error) {
	if category == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiResourceTypeCategory, "category", stringValue(string(category)))
}

func (r *ResourceTypeRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceType, error) {
	return r.queryIndex(ctx, gsiResourceTypeEnabled, "enabled", boolValue(enabled))
}
