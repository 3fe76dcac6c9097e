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

// BlueprintRepository implements ports.BlueprintRepository on a
// relational engine. Blueprint names carry a unique index.
type BlueprintRepository struct {
	*repository[entities.Blueprint]
}

var blueprintColumns = []string{
	"id", "name", "description", "is_active", "created_at", "updated_at",
}

type blueprintRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	IsActive    bool   `db:"is_active"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// NewBlueprintRepository creates a new BlueprintRepository
func NewBlueprintRepository(db *sqlx.DB, logger *zap.Logger) *BlueprintRepository {
	return &BlueprintRepository{repository: newRepository(db, logger, sqlMapping[entities.Blueprint]{
		table:    "blueprints",
		columns:  blueprintColumns,
		toRow:    blueprintToRow,
		fromRows: blueprintFromRows,
		id:       func(b *entities.Blueprint) uuid.UUID { return b.ID },
		setID:    func(b *entities.Blueprint, id uuid.UUID) { b.ID = id },
		timestamps: func(b *entities.Blueprint) (time.Time, time.Time) {
			return b.CreatedAt, b.UpdatedAt
		},
		setTimestamps: func(b *entities.Blueprint, createdAt, updatedAt time.Time) {
			b.CreatedAt = createdAt
			b.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.BlueprintRepository = (*BlueprintRepository)(nil)

func blueprintToRow(b *entities.Blueprint) (map[string]any, error) {
	return map[string]any{
		"id":          b.ID.String(),
		"name":        b.Name,
		"description": b.Description,
		"is_active":   b.IsActive,
		"created_at":  formatTime(b.CreatedAt),
		"updated_at":  formatTime(b.UpdatedAt),
	}, nil
}

func blueprintFromRows(rows *sqlx.Rows) (*entities.Blueprint, error) {
	var rec blueprintRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored blueprint").WithCause(err)
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

	return &entities.Blueprint{
		ID:          id,
		Name:        rec.Name,
		Description: rec.Description,
		IsActive:    rec.IsActive,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}

// SaveWithOptimisticLock commits only if the stored updated_at still
// equals expectedUpdatedAt.
func (r *BlueprintRepository) SaveWithOptimisticLock(ctx context.Context, blueprint *entities.Blueprint, expectedUpdatedAt time.Time) (*entities.Blueprint, error) {
	return r.saveWithLock(ctx, blueprint, expectedUpdatedAt)
}

// FindByName returns the single blueprint with the given unique name,
// or nil when none exists.
func (r *BlueprintRepository) FindByName(ctx context.Context, name string) (*entities.Blueprint, error) {
	if name == "" {
		return nil, nil
	}
	matches, err := r.findWhere(ctx, "name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *BlueprintRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.Blueprint, error) {
	return r.findWhere(ctx, "is_active = ?", isActive)
}
