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

// StackRepository implements ports.StackRepository on a relational
// engine. The (name, created_by) invariant is a real unique index here,
// so duplicate saves fail inside the write itself.
type StackRepository struct {
	*repository[entities.Stack]
}

var stackColumns = []string{
	"id", "name", "description", "cloud_name", "route_path",
	"repository_url", "stack_type", "programming_language", "is_public",
	"created_by", "team_id", "blueprint_id", "cloud_provider_id",
	"ephemeral_prefix", "configuration", "created_at", "updated_at",
}

type stackRow struct {
	ID                  string  `db:"id"`
	Name                string  `db:"name"`
	Description         string  `db:"description"`
	CloudName           string  `db:"cloud_name"`
	RoutePath           string  `db:"route_path"`
	RepositoryURL       string  `db:"repository_url"`
	StackType           string  `db:"stack_type"`
	ProgrammingLanguage string  `db:"programming_language"`
	IsPublic            bool    `db:"is_public"`
	CreatedBy           string  `db:"created_by"`
	TeamID              *string `db:"team_id"`
	BlueprintID         *string `db:"blueprint_id"`
	CloudProviderID     *string `db:"cloud_provider_id"`
	EphemeralPrefix     string  `db:"ephemeral_prefix"`
	Configuration       *string `db:"configuration"`
	CreatedAt           string  `db:"created_at"`
	UpdatedAt           string  `db:"updated_at"`
}

// NewStackRepository creates a new StackRepository
func NewStackRepository(db *sqlx.DB, logger *zap.Logger) *StackRepository {
	return &StackRepository{repository: newRepository(db, logger, sqlMapping[entities.Stack]{
		table:    "stacks",
		columns:  stackColumns,
		toRow:    stackToRow,
		fromRows: stackFromRows,
		id:       func(s *entities.Stack) uuid.UUID { return s.ID },
		setID:    func(s *entities.Stack, id uuid.UUID) { s.ID = id },
		timestamps: func(s *entities.Stack) (time.Time, time.Time) {
			return s.CreatedAt, s.UpdatedAt
		},
		setTimestamps: func(s *entities.Stack, createdAt, updatedAt time.Time) {
			s.CreatedAt = createdAt
			s.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.StackRepository = (*StackRepository)(nil)

func stackToRow(s *entities.Stack) (map[string]any, error) {
	configuration, err := encodeJSON(s.Configuration)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":                   s.ID.String(),
		"name":                 s.Name,
		"description":          s.Description,
		"cloud_name":           s.CloudName,
		"route_path":           s.RoutePath,
		"repository_url":       s.RepositoryURL,
		"stack_type":           string(s.StackType),
		"programming_language": string(s.ProgrammingLanguage),
		"is_public":            s.IsPublic,
		"created_by":           s.CreatedBy,
		"team_id":              nullableUUID(s.TeamID),
		"blueprint_id":         nullableUUID(s.BlueprintID),
		"cloud_provider_id":    nullableUUID(s.CloudProviderID),
		"ephemeral_prefix":     s.EphemeralPrefix,
		"configuration":        configuration,
		"created_at":           formatTime(s.CreatedAt),
		"updated_at":           formatTime(s.UpdatedAt),
	}, nil
}

func stackFromRows(rows *sqlx.Rows) (*entities.Stack, error) {
	var rec stackRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored stack").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	teamID, err := parseNullUUID(rec.TeamID)
	if err != nil {
		return nil, err
	}
	blueprintID, err := parseNullUUID(rec.BlueprintID)
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
		Configuration:       configuration,
		CreatedAt:           createdAt,
		UpdatedAt:           updatedAt,
	}, nil
}

// SaveWithOptimisticLock commits only if the stored updated_at still
// equals expectedUpdatedAt.
func (r *StackRepository) SaveWithOptimisticLock(ctx context.Context, stack *entities.Stack, expectedUpdatedAt time.Time) (*entities.Stack, error) {
	return r.saveWithLock(ctx, stack, expectedUpdatedAt)
}

func (r *StackRepository) FindByCreatedBy(ctx context.Context, createdBy string) ([]*entities.Stack, error) {
	if createdBy == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "created_by = ?", createdBy)
}

func (r *StackRepository) FindByStackType(ctx context.Context, stackType entities.StackType) ([]*entities.Stack, error) {
	if stackType == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "stack_type = ?", string(stackType))
}

func (r *StackRepository) FindByTeamID(ctx context.Context, teamID uuid.UUID) ([]*entities.Stack, error) {
	if teamID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "team_id = ?", teamID.String())
}

func (r *StackRepository) FindByCloudProviderID(ctx context.Context, cloudProviderID uuid.UUID) ([]*entities.Stack, error) {
	if cloudProviderID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "cloud_provider_id = ?", cloudProviderID.String())
}

func (r *StackRepository) FindByEphemeralPrefix(ctx context.Context, prefix string) ([]*entities.Stack, error) {
	if prefix == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "ephemeral_prefix = ?", prefix)
}

func (r *StackRepository) FindByBlueprintID(ctx context.Context, blueprintID uuid.UUID) ([]*entities.Stack, error) {
	if blueprintID == uuid.Nil {
		return nil, nil
	}
	return r.findWhere(ctx, "blueprint_id = ?", blueprintID.String())
}

func (r *StackRepository) FindByCloudProviderAndCreatedBy(ctx context.Context, cloudProviderID uuid.UUID, createdBy string) ([]*entities.Stack, error) {
	if cloudProviderID == uuid.Nil || createdBy == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "cloud_provider_id = ? AND created_by = ?",
		cloudProviderID.String(), createdBy)
}

func (r *StackRepository) ExistsByNameAndCreatedBy(ctx context.Context, name, createdBy string) (bool, error) {
	if name == "" || createdBy == "" {
		return false, nil
	}
	var count int64
	query := r.db.Rebind("SELECT COUNT(*) FROM stacks WHERE name = ? AND created_by = ?")
	if err := r.db.GetContext(ctx, &count, query, name, createdBy); err != nil {
		return false, apperrors.NewDatabaseError("select stacks", err)
	}
	return count > 0, nil
}
