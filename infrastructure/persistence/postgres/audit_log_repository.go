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

// AuditLogRepository implements ports.AdminAuditLogRepository on a
// relational engine. Entries are append-only; the table has no
// updated_at column, and Timestamp defaults to the write time when
// unset.
type AuditLogRepository struct {
	*repository[entities.AdminAuditLog]
}

var auditLogColumns = []string{
	"id", "user_email", "action", "entity_type", "entity_id", "details",
	"timestamp", "created_at",
}

type auditLogRow struct {
	ID         string  `db:"id"`
	UserEmail  string  `db:"user_email"`
	Action     string  `db:"action"`
	EntityType string  `db:"entity_type"`
	EntityID   *string `db:"entity_id"`
	Details    *string `db:"details"`
	Timestamp  string  `db:"timestamp"`
	CreatedAt  string  `db:"created_at"`
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *sqlx.DB, logger *zap.Logger) *AuditLogRepository {
	return &AuditLogRepository{repository: newRepository(db, logger, sqlMapping[entities.AdminAuditLog]{
		table:    "admin_audit_logs",
		columns:  auditLogColumns,
		toRow:    auditLogToRow,
		fromRows: auditLogFromRows,
		id:       func(l *entities.AdminAuditLog) uuid.UUID { return l.ID },
		setID:    func(l *entities.AdminAuditLog, id uuid.UUID) { l.ID = id },
		timestamps: func(l *entities.AdminAuditLog) (time.Time, time.Time) {
			return l.CreatedAt, time.Time{}
		},
		setTimestamps: func(l *entities.AdminAuditLog, createdAt, _ time.Time) {
			l.CreatedAt = createdAt
			if l.Timestamp.IsZero() {
				l.Timestamp = createdAt
			}
		},
	})}
}

var _ ports.AdminAuditLogRepository = (*AuditLogRepository)(nil)

func auditLogToRow(l *entities.AdminAuditLog) (map[string]any, error) {
	details, err := encodeJSON(l.Details)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":          l.ID.String(),
		"user_email":  l.UserEmail,
		"action":      l.Action,
		"entity_type": l.EntityType,
		"entity_id":   nullableUUID(l.EntityID),
		"details":     details,
		"timestamp":   formatTime(l.Timestamp),
		"created_at":  formatTime(l.CreatedAt),
	}, nil
}

func auditLogFromRows(rows *sqlx.Rows) (*entities.AdminAuditLog, error) {
	var rec auditLogRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored audit log entry").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	entityID, err := parseNullUUID(rec.EntityID)
	if err != nil {
		return nil, err
	}
	details, err := decodeJSONMap(rec.Details)
	if err != nil {
		return nil, err
	}
	timestamp, err := parseTime(rec.Timestamp)
	if err != nil {
		return nil, err
	}
	createdAt, err := parseTime(rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	return &entities.AdminAuditLog{
		ID:         id,
		UserEmail:  rec.UserEmail,
		Action:     rec.Action,
		EntityType: rec.EntityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  timestamp,
		CreatedAt:  createdAt,
	}, nil
}

func (r *AuditLogRepository) FindByUserEmail(ctx context.Context, userEmail string) ([]*entities.AdminAuditLog, error) {
	if userEmail == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "user_email = ?", userEmail)
}

func (r *AuditLogRepository) FindByEntityType(ctx context.Context, entityType string) ([]*entities.AdminAuditLog, error) {
	if entityType == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "entity_type = ?", entityType)
}

func (r *AuditLogRepository) FindByAction(ctx context.Context, action string) ([]*entities.AdminAuditLog, error) {
	if action == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "action = ?", action)
}
