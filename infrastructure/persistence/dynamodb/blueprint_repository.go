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

// BlueprintRepository implements ports.BlueprintRepository on DynamoDB.
type BlueprintRepository struct {
	*repository[entities.Blueprint]
}

type blueprintItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	IsActive    bool   `dynamodbav:"isActive"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// NewBlueprintRepository creates a new BlueprintRepository
func NewBlueprintRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *BlueprintRepository {
	r := &BlueprintRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.Blueprint]{
		table:    tables.Blueprints,
		toItem:   blueprintToItem,
		fromItem: blueprintFromItem,
		id:       func(b *entities.Blueprint) uuid.UUID { return b.ID },
		setID:    func(b *entities.Blueprint, id uuid.UUID) { b.ID = id },
		timestamps: func(b *entities.Blueprint) (time.Time, time.Time) {
			return b.CreatedAt, b.UpdatedAt
		},
		setTimestamps: func(b *entities.Blueprint, createdAt, updatedAt time.Time) {
			b.CreatedAt = createdAt
			b.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, b *entities.Blueprint) error {
			return r.checkNameUnique(ctx, b)
		},
	})
	return r
}

var _ ports.BlueprintRepository = (*BlueprintRepository)(nil)

func blueprintToItem(b *entities.Blueprint) (item, error) {
	it, err := attributevalue.MarshalMap(blueprintItem{
		ID:          b.ID.String(),
		Name:        b.Name,
		Description: b.Description,
		IsActive:    b.IsActive,
		CreatedAt:   formatTime(b.CreatedAt),
		UpdatedAt:   formatTime(b.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map blueprint").WithCause(err)
	}
	return it, nil
}

func blueprintFromItem(it item) (*entities.Blueprint, error) {
	var rec blueprintItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored blueprint").WithCause(err)
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

	return &entities.Blueprint{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		IsActive:    rec.IsActive,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *BlueprintRepository) checkNameUnique(ctx context.Context, b *entities.Blueprint) error {
	if b.Name == "" {
		return nil
	}
	existing, err := r.FindByName(ctx, b.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != b.ID {
		return apperrors.NewConflictError(fmt.Sprintf("blueprint %q already exists", b.Name))
	}
	return nil
}

// SaveWithOptimisticLock commits only if the stored updatedAt still
// equals expectedUpdatedAt.
func (r *BlueprintRepository) SaveWithOptimisticLock(ctx context.Context, blueprint *entities.Blueprint, expectedUpdatedAt time.Time) (*entities.Blueprint, error) {
	return r.saveWithLock(ctx, blueprint, expectedUpdatedAt)
}

// FindByName returns the single blueprint with the given unique name, or
// nil when none exists.
func (r *BlueprintRepository) FindByName(ctx context.Context, name string) (*entities.Blueprint, error) {
	if name == "" {
		return nil, nil
	}
	matches, err := r.queryIndex(ctx, gsiBlueprintName, "name", stringValue(name))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *BlueprintRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Blueprint, error) {
	return r.queryIndex(ctx, gsiBlueprintIsActive, "isActive", boolValue(isActive))
}
