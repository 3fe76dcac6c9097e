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

// CloudProviderRepository implements ports.CloudProviderRepository on a
// relational engine. Provider names carry a unique index.
type CloudProviderRepository struct {
	*repository[entities.CloudProvider]
}

var cloudProviderColumns = []string{
	"id", "name", "display_name", "description", "enabled",
	"created_at", "updated_at",
}

type cloudProviderRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	DisplayName string `db:"display_name"`
	Description string `db:"description"`
	Enabled     bool   `db:"enabled"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// NewCloudProviderRepository creates a new CloudProviderRepository
func NewCloudProviderRepository(db *sqlx.DB, logger *zap.Logger) *CloudProviderRepository {
	return &CloudProviderRepository{repository: newRepository(db, logger, sqlMapping[entities.CloudProvider]{
		table:    "cloud_providers",
		columns:  cloudProviderColumns,
		toRow:    cloudProviderToRow,
		fromRows: cloudProviderFromRows,
		id:       func(p *entities.CloudProvider) uuid.UUID { return p.ID },
		setID:    func(p *entities.CloudProvider, id uuid.UUID) { p.ID = id },
		timestamps: func(p *entities.CloudProvider) (time.Time, time.Time) {
			return p.CreatedAt, p.UpdatedAt
		},
		setTimestamps: func(p *entities.CloudProvider, createdAt, updatedAt time.Time) {
			p.CreatedAt = createdAt
			p.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.CloudProviderRepository = (*CloudProviderRepository)(nil)

func cloudProviderToRow(p *entities.CloudProvider) (map[string]any, error) {
	return map[string]any{
		"id":           p.ID.String(),
		"name":         p.Name,
		"display_name": p.DisplayName,
		"description":  p.Description,
		"enabled":      p.Enabled,
		"created_at":   formatTime(p.CreatedAt),
		"updated_at":   formatTime(p.UpdatedAt),
	}, nil
}

func cloudProviderFromRows(rows *sqlx.Rows) (*entities.CloudProvider, error) {
	var rec cloudProviderRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored cloud provider").WithCause(err)
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

// FindByName returns the single provider with the given unique name, or
// nil when none exists.
func (r *CloudProviderRepository) FindByName(ctx context.Context, name string) (*entities.CloudProvider, error) {
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

func (r *CloudProviderRepository) FindByEnabled(ctx context.Context, enabled bool) ([]*entities.CloudProvider, error) {
	return r.findWhere(ctx, "enabled = ?", enabled)
}
