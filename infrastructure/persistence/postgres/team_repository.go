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

// TeamRepository implements ports.TeamRepository on a relational engine.
// Team names are not unique, so FindByName returns a slice.
type TeamRepository struct {
	*repository[entities.Team]
}

var teamColumns = []string{
	"id", "name", "description", "is_active", "created_at", "updated_at",
}

type teamRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(db *sqlx.DB, logger *zap.Logger) *TeamRepository {
	return &TeamRepository{repository: newRepository(db, logger, sqlMapping[entities.Team]{
		table:    "teams",
		columns:  teamColumns,
		toRow:    teamToRow,
		fromRows: teamFromRows,
		id:       func(t *entities.Team) uuid.UUID { return t.ID },
		setID:    func(t *entities.Team, id uuid.UUID) { t.ID = id },
		timestamps: func(t *entities.Team) (time.Time, time.Time) {
			return t.CreatedAt, t.UpdatedAt
		},
		setTimestamps: func(t *entities.Team, createdAt, updatedAt time.Time) {
			t.CreatedAt = createdAt
			t.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.TeamRepository = (*TeamRepository)(nil)

func teamToRow(t *entities.Team) (map[string]any, error) {
	return map[string]any{
		"id":          t.ID.String(),
		"name":        t.Name,
		"description": t.Description,
		"is_active":   t.IsActive,
		"created_at":  formatTime(t.CreatedAt),
		"updated_at":  formatTime(t.UpdatedAt),
	}, nil
}

func teamFromRows(rows *sqlx.Rows) (*entities.Team, error) {
	var rec teamRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored team").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
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
	return r.findWhere(ctx, "name = ?", name)
}

func (r *TeamRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Team, error) {
	return r.findWhere(ctx, "is_active = ?", isActive)
}
