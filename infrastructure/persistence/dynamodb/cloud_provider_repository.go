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

// CloudProviderRepository implements ports.CloudProviderRepository on
// DynamoDB.
type CloudProviderRepository struct {
	*repository[entities.CloudProvider]
}

type cloudProviderItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	DisplayName string `dynamodbav:"displayName,omitempty"`
	Description string `dynamodbav:"description,omitempty"`
	Enabled     bool   `dynamodbav:"enabled"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// NewCloudProviderRepository creates a new CloudProviderRepository
func NewCloudProviderRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *CloudProviderRepository {
	r := &CloudProviderRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.CloudProvider]{
		table:    tables.CloudProviders,
		toItem:   cloudProviderToItem,
		fromItem: cloudProviderFromItem,
		id:       func(p *entities.CloudProvider) uuid.UUID { return p.ID },
		setID:    func(p *entities.CloudProvider, id uuid.UUID) { p.ID = id },
		timestamps: func(p *entities.CloudProvider) (time.Time, time.Time) {
			return p.CreatedAt, p.UpdatedAt
		},
		setTimestamps: func(p *entities.CloudProvider, createdAt, updatedAt time.Time) {
			p.CreatedAt = createdAt
			p.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, p *entities.CloudProvider) error {
			return r.checkNameUnique(ctx, p)
		},
	})
	return r
}

var _ ports.CloudProviderRepository = (*CloudProviderRepository)(nil)

func cloudProviderToItem(p *entities.CloudProvider) (item, error) {
	it, err := attributevalue.MarshalMap(cloudProviderItem{
		ID:          p.ID.String(),
		Name:        p.Name,
		DisplayName: p.DisplayName,
		Description: p.Description,
		Enabled:     p.Enabled,
		CreatedAt:   formatTime(p.CreatedAt),
		UpdatedAt:   formatTime(p.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map cloud provider").WithCause(err)
	}
	return it, nil
}

func cloudProviderFromItem(it item) (*entities.CloudProvider, error) {
	var rec cloudProviderItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored cloud provider").WithCause(err)
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

	return &entities.CloudProvider{
		ID:          id,
		Name:        rec.Name,
		DisplayName: rec.DisplayName,
		Description: rec.Description,
		Enabled:     rec.Enabled,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *CloudProviderRepository) checkNameUnique(ctx context.Context, p *entities.CloudProvider) error {
	if p.Name == "" {
		return nil
	}
	existing, err := r.FindByName(ctx, p.Name)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != p.ID {
		return apperrors.NewConflictError(fmt.Sprintf("cloud provider %q already exists", p.Name))
	}
	return nil
}

// FindByName returns the single provider with the given unique name, or
// nil when none exists.
func (r *CloudProviderRepository) FindByName(ctx context.Context, name string) (*entities.CloudProvider, error) {
	if name == "" {
		return nil, nil
	}
	matches, err := r.queryIndex(ctx, gsiProviderName, "name", stringValue(name))
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *CloudProviderRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.CloudProvider, error) {
	return r.queryIndex(ctx, gsiProviderEnabled, "enabled", boolValue(enabled))
}
