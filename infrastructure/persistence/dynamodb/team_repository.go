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

// TeamRepository implements ports.TeamRepository on DynamoDB.
type TeamRepository struct {
	*repository[entities.Team]
}

type teamItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	Description string `dynamodbav:"description,omitempty"`
	IsActive    bool   `dynamodbav:"isActive"`
	CreatedAt   string `dynamodbav:"createdAt"`
	UpdatedAt   string `dynamodbav:"updatedAt"`
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *TeamRepository {
	r := &TeamRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.Team]{
		table:    tables.Teams,
		toItem:   teamToItem,
		fromItem: teamFromItem,
		id:       func(t *entities.Team) uuid.UUID { return t.ID },
		setID:    func(t *entities.Team, id uuid.UUID) { t.ID = id },
		timestamps: func(t *entities.Team) (time.Time, time.Time) {
			return t.CreatedAt, t.UpdatedAt
		},
		setTimestamps: func(t *entities.Team, createdAt, updatedAt time.Time) {
			t.CreatedAt = createdAt
			t.UpdatedAt = updatedAt
		},
	})
	return r
}

var _ ports.TeamRepository = (*TeamRepository)(nil)

func teamToItem(t *entities.Team) (item, error) {
	it, err := attributevalue.MarshalMap(teamItem{
		ID:          t.ID.String(),
		Name:        t.Name,
		Description: t.Description,
		IsActive:    t.IsActive,
		CreatedAt:   formatTime(t.CreatedAt),
		UpdatedAt:   formatTime(t.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map team").WithCause(err)
	}
	return it, nil
}

func teamFromItem(it item) (*entities.Team, error) {
	var rec teamItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored team").WithCause(err)
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

	return &entities.Team{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		IsActive:    rec.IsActive,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (r *TeamRepository) FindByName(ctx context.Context, name string) ([]*entities.Team, error) {
	if name == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiTeamName, "name", stringValue(name))
}

func (r *TeamRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Team, error) {
	return r.queryIndex(ctx, gsiTeamIsActive, "isActive", boolValue(isActive))
}
