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

// AuditLogRepository implements ports.AdminAuditLogRepository on
// DynamoDB. Entries are append-only; the base Save still stamps
// createdAt, and Timestamp defaults to the write time when unset.
type AuditLogRepository struct {
	*repository[entities.AdminAuditLog]
}

type auditLogItem struct {
	ID         string         `dynamodbav:"id"`
	UserEmail  string         `dynamodbav:"userEmail,omitempty"`
	Action     string         `dynamodbav:"action,omitempty"`
	EntityType string         `dynamodbav:"entityType,omitempty"`
	EntityID   string         `dynamodbav:"entityId,omitempty"`
	Details    map[string]any `dynamodbav:"details,omitempty"`
	Timestamp  string         `dynamodbav:"timestamp"`
	CreatedAt  string         `dynamodbav:"createdAt"`
	UpdatedAt  string         `dynamodbav:"updatedAt"`
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *AuditLogRepository {
	r := &AuditLogRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.AdminAuditLog]{
		table:    tables.AuditLogs,
		toItem:   auditLogToItem,
		fromItem: auditLogFromItem,
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
	})
	return r
}

var _ ports.AdminAuditLogRepository = (*AuditLogRepository)(nil)

func auditLogToItem(l *entities.AdminAuditLog) (item, error) {
	it, err := attributevalue.MarshalMap(auditLogItem{
		ID:         l.ID.String(),
		UserEmail:  l.UserEmail,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   uuidString(l.EntityID),
		Details:    l.Details,
		Timestamp:  formatTime(l.Timestamp),
		CreatedAt:  formatTime(l.CreatedAt),
		UpdatedAt:  formatTime(l.CreatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map audit log entry").WithCause(err)
	}
	return it, nil
}

func auditLogFromItem(it item) (*entities.AdminAuditLog, error) {
	var rec auditLogItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored audit log entry").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, err
	}
	entityID, err := parseUUID(rec.EntityID)
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
		Details:    rec.Details,
		Timestamp:  timestamp,
		CreatedAt:  createdAt,
	}, nil
}

func (r *AuditLogRepository) FindByUserEmail(ctx context.Context, userEmail string) ([]*entities.AdminAuditLog, error) {
	if userEmail == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiAuditUserEmail, "userEmail", stringValue(userEmail))
}

func (r *AuditLogRepository) FindByEntityType(ctx context.Context, entityType string) ([]*entities.AdminAuditLog, error) {
	if entityType == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiAuditEntityType, "entityType", stringValue(entityType))
}

func (r *AuditLogRepository) FindByAction(ctx context.Context, action string) ([]*entities.AdminAuditLog, error) {
	if action == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiAuditAction, "action", stringValue(action))
}
