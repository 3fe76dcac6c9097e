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

// StackRepository implements ports.StackRepository on DynamoDB.
type StackRepository struct {
	*repository[entities.Stack]
}

// stackItem is the attribute representation of a stack. Absent optional
// fields map to absent attributes, not null sentinels.
type stackItem struct {
	ID                  string         `dynamodbav:"id"`
	Name                string         `dynamodbav:"name"`
	Description         string         `dynamodbav:"description,omitempty"`
	CloudName           string         `dynamodbav:"cloudName,omitempty"`
	RoutePath           string         `dynamodbav:"routePath,omitempty"`
	RepositoryURL       string         `dynamodbav:"repositoryUrl,omitempty"`
	StackType           string         `dynamodbav:"stackType,omitempty"`
	ProgrammingLanguage string         `dynamodbav:"programmingLanguage,omitempty"`
	IsPublic            bool           `dynamodbav:"isPublic"`
	CreatedBy           string         `dynamodbav:"createdBy,omitempty"`
	TeamID              string         `dynamodbav:"teamId,omitempty"`
	BlueprintID         string         `dynamodbav:"blueprintId,omitempty"`
	CloudProviderID     string         `dynamodbav:"cloudProviderId,omitempty"`
	EphemeralPrefix     string         `dynamodbav:"ephemeralPrefix,omitempty"`
	Configuration       map[string]any `dynamodbav:"configuration,omitempty"`
	CreatedAt           string         `dynamodbav:"createdAt"`
	UpdatedAt           string         `dynamodbav:"updatedAt"`
}

// NewStackRepository creates a new StackRepository
func NewStackRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *StackRepository {
	r := &StackRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.Stack]{
		table:    tables.Stacks,
		toItem:   stackToItem,
		fromItem: stackFromItem,
		id:       func(s *entities.Stack) uuid.UUID { return s.ID },
		setID:    func(s *entities.Stack, id uuid.UUID) { s.ID = id },
		timestamps: func(s *entities.Stack) (time.Time, time.Time) {
			return s.CreatedAt, s.UpdatedAt
		},
		setTimestamps: func(s *entities.Stack, createdAt, updatedAt time.Time) {
			s.CreatedAt = createdAt
			s.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, s *entities.Stack) error {
			return r.checkNameOwnerUnique(ctx, s)
		},
	})
	return r
}

var _ ports.StackRepository = (*StackRepository)(nil)

func stackToItem(s *entities.Stack) (item, error) {
	it, err := attributevalue.MarshalMap(stackItem{
		ID:                  s.ID.String(),
		Name:                s.Name,
		Description:         s.Description,
		CloudName:           s.CloudName,
		RoutePath:           s.RoutePath,
		RepositoryURL:       s.RepositoryURL,
		StackType:           string(s.StackType),
		ProgrammingLanguage: string(s.ProgrammingLanguage),
		IsPublic:            s.IsPublic,
		CreatedBy:           s.CreatedBy,
		TeamID:              uuidString(s.TeamID),
		BlueprintID:         uuidString(s.BlueprintID),
		CloudProviderID:     uuidString(s.CloudProviderID),
		EphemeralPrefix:     s.EphemeralPrefix,
		Configuration:       s.Configuration,
		CreatedAt:           formatTime(s.CreatedAt),
		UpdatedAt:           formatTime(s.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map stack").WithCause(err)
	}
	return it, nil
}

func stackFromItem(it item) (*entities.Stack, error) {
	var rec stackItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored stack").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, err
	}
	teamID, err := parseUUID(rec.TeamID)
	if err != nil {
		return nil, err
	}
	blueprintID, err := parseUUID(rec.BlueprintID)
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

	return &entities.Stack{
		ID:                  id,
		Name:                rec.Name,
		Description:         rec.Description,
		CloudName:           rec.CloudName,
		RoutePath:           rec.RoutePath,
		RepositoryURL:       rec.RepositoryURL,
		StackType:           entities.StackType(rec.StackType),
		ProgrammingLanguage: entities.ProgrammingLanguage(rec.ProgrammingLanguage),
		IsPublic:            rec.IsPublic,
		CreatedBy:           rec.CreatedBy,
		TeamID:              teamID,
		BlueprintID:         blueprintID,
		CloudProviderID:     providerID,
		EphemeralPrefix:     rec.EphemeralPrefix,
		Configuration:       rec.Configuration,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

// checkNameOwnerUnique enforces the (name, createdBy) invariant with a
// query before the write. The check and the write are not one atomic
// step, so two simultaneous first saves can slip through; the relational
// backend closes that window with a real unique index.
func (r *StackRepository) checkNameOwnerUnique(ctx context.Context, s *entities.Stack) error {
	if s.Name == "" || s.CreatedBy == "" {
		return nil
	}
	owned, err := r.queryIndex(ctx, gsiStackCreatedBy, "createdBy", stringValue(s.CreatedBy))
	if err != nil {
		return err
	}
	for _, existing := range owned {
		if existing.Name == s.Name && existing.ID != s.ID {
			return apperrors.NewConflictError(fmt.Sprintf(
				"stack %q already exists for %s", s.Name, s.CreatedBy))
		}
	}
	return nil
}

// SaveWithOptimisticLock commits only if the stored updatedAt still
// equals expectedUpdatedAt.
func (r *StackRepository) SaveWithOptimisticLock(ctx context.Context, stack *entities.Stack, expectedUpdatedAt time.Time) (*entities.Stack, error) {
	return r.saveWithLock(ctx, stack, expectedUpdatedAt)
}

func (r *StackRepository) FindByCreatedBy(ctx context.Context, createdBy string) ([]*entities.Stack, error) {
	if createdBy == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiStackCreatedBy, "createdBy", stringValue(createdBy))
}

func (r *StackRepository) FindByStackType(ctx context.Context, stackType entities.StackType) ([]*entities.Stack, error) {
	if stackType == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiStackType, "stackType", stringValue(string(stackType)))
}

func (r *StackRepository) FindByTeamID(ctx context.Context, teamID uuid.UUID) ([]*entities.Stack, error) {
	if teamID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiStackTeamID, "teamId", stringValue(teamID.String()))
}

func (r *StackRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.Stack, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiStackCloudProviderID, "cloudProviderId", stringValue(cloudProviderID.String()))
}

func (r *StackRepository) FindByEphemeralPrefix(ctx context.Context, prefix string) ([]*entities.Stack, error) {
	if prefix == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiStackEphemeral, "ephemeralPrefix", stringValue(prefix))
}

// FindByBlueprintID has no backing index and scans the full table.
func (r *StackRepository) FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.Stack, error) {
	if blueprintID == uuid.Nil {
		return nil, nil
	}
	return r.scanFilter(ctx, func(s *entities.Stack) bool {
		return s.BlueprintID == blueprintID
	})
}

// FindByCloudProviderAndCreatedBy queries the cloud-provider index and
// filters the owner in memory.
func (r *StackRepository) FindByCloudProviderAndCreatedBy(ctx context.Context, cloudProviderID uuid.UUID, createdBy string) ([]*entities.Stack, error) {
	if cloudProviderID == uuid.Nil || createdBy == "" {
		return nil, nil
	}
	byProvider, err := r.FindByCloudProviderID(ctx, cloudProviderID)
	if err != nil {
		return nil, err
	}
	matched := make([]*entities.Stack, 0, len(byProvider))
	for _, s := range byProvider {
		if s.CreatedBy == createdBy {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (r *StackRepository) ExistsByNameAndCreatedBy(ctx context.Context, name, createdBy string) (bool, error) {
	if name == "" || createdBy == "" {
		return false, nil
	}
	owned, err := r.FindByCreatedBy(ctx, createdBy)
	if err != nil {
		return false, err
	}
	for _, s := range owned {
		if s.Name == name {
			return true, nil
		}
	}
	return false, nil
}
