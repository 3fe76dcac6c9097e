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

// ResourceTypeRepository implements ports.ResourceTypeRepository on a
// relational engine. Resource type names carry a unique index.
type ResourceTypeRepository struct {
	*repository[entities.ResourceType]
}

var resourceTypeColumns = []string{
	"id", "name", "display_name", "description", "category", "enabled",
	"created_at", "updated_at",
}

type resourceTypeRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	Description string `db:"description"`
	Category    string `db:"category"`
	Enabled     bool   `db:"enabled"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// NewResourceTypeRepository creates a new ResourceTypeRepository
func NewResourceTypeRepository(db *sqlx.DB, logger *zap.Logger) *ResourceTypeRepository {
	return &ResourceTypeRepository{repository: newRepository(db, logger, sqlMapping[entities.ResourceType]{
		table:    "resource_types",
		columns:  resourceTypeColumns,
		toRow:    resourceTypeToRow,
		fromRows: resourceTypeFromRows,
		id:       func(rt *entities.ResourceType) uuid.UUID { return rt.ID },
		setID:    func(rt *entities.ResourceType, id uuid.UUID) { rt.ID = id },
		timestamps: func(rt *entities.ResourceType) (time.Time, time.Time) {
			return rt.CreatedAt, rt.UpdatedAt
		},
		setTimestamps: func(rt *entities.ResourceType, createdAt, updatedAt time.Time) {
			rt.CreatedAt = createdAt
			rt.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.ResourceTypeRepository = (*ResourceTypeRepository)(nil)

func resourceTypeToRow(rt *entities.ResourceType) (map[string]any, error) {
	return map[string]any{
		"id":           rt.ID.String(),
		"name":         rt.Name,
		"display_name": rt.DisplayName,
		"description":  rt.Description,
		"category":     string(rt.Category),
		"enabled":      rt.Enabled,
		"created_at":   formatTime(rt.CreatedAt),
		"updated_at":   formatTime(rt.UpdatedAt),
	}, nil
}

func resourceTypeFromRows(rows *sqlx.Rows) (*entities.ResourceType, error) {
	var rec resourceTypeRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored resource type").WithCause(err)
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

// FindByName returns the single resource type with the given unique
// name, or nil when none exists.
func (r *ResourceTypeRepository) FindByName(ctx context.Context, name string) (*entities.ResourceType, error) {
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

func (r *ResourceTypeRepository) FindByCategory(ctx context.Context, category entities.ResourceCategory) ([]*entities.ResourceType, error) {
	if category == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "category = ?", string(category))
}

func (r *ResourceTypeRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.ResourceType, error) {
	return r.findWhere(ctx, "enabled = ?", enabled)
}
