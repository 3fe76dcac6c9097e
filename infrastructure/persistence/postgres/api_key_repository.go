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

// APIKeyRepository implements ports.APIKeyRepository on a relational
// engine. key_hash carries a unique index, and rotation runs inside a
// database transaction.
type APIKeyRepository struct {
	*repository[entities.APIKey]
}

var apiKeyColumns = []string{
	"id", "key_name", "key_hash", "key_prefix", "key_type", "user_email",
	"created_by_email", "expires_at", "last_used_at", "revoked_at",
	"revoked_by_email", "is_active", "created_at", "updated_at",
}

type apiKeyRow struct {
	ID             string  `db:"id"`
	KeyName        string  `db:"key_name"`
	KeyHash        string  `db:"key_hash"`
	KeyPrefix      string  `db:"key_prefix"`
	KeyType        string  `db:"key_type"`
	UserEmail      string  `db:"user_email"`
	CreatedByEmail string  `db:"created_by_email"`
	ExpiresAt      *string `db:"expires_at"`
	LastUsedAt     *string `db:"last_used_at"`
	RevokedAt      *string `db:"revoked_at"`
	RevokedByEmail string  `db:"revoked_by_email"`
	IsActive       bool    `db:"is_active"`
	CreatedAt      string  `db:"created_at"`
	UpdatedAt      string  `db:"updated_at"`
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *sqlx.DB, logger *zap.Logger) *APIKeyRepository {
	return &APIKeyRepository{repository: newRepository(db, logger, sqlMapping[entities.APIKey]{
		table:    "api_keys",
		columns:  apiKeyColumns,
		toRow:    apiKeyToRow,
		fromRows: apiKeyFromRows,
		id:       func(k *entities.APIKey) uuid.UUID { return k.ID },
		setID:    func(k *entities.APIKey, id uuid.UUID) { k.ID = id },
		timestamps: func(k *entities.APIKey) (time.Time, time.Time) {
			return k.CreatedAt, k.UpdatedAt
		},
		setTimestamps: func(k *entities.APIKey, createdAt, updatedAt time.Time) {
			k.CreatedAt = createdAt
			k.UpdatedAt = updatedAt
		},
	})}
}

var _ ports.APIKeyRepository = (*APIKeyRepository)(nil)

func apiKeyToRow(k *entities.APIKey) (map[string]any, error) {
	return map[string]any{
		"id":               k.ID.String(),
		"key_name":         k.KeyName,
		"key_hash":         k.KeyHash,
		"key_prefix":       k.KeyPrefix,
		"key_type":         string(k.KeyType),
		"user_email":       k.UserEmail,
		"created_by_email": k.CreatedByEmail,
		"expires_at":       nullableTime(k.ExpiresAt),
		"last_used_at":     nullableTime(k.LastUsedAt),
		"revoked_at":       nullableTime(k.RevokedAt),
		"revoked_by_email": k.RevokedByEmail,
		"is_active":        k.IsActive,
		"created_at":       formatTime(k.CreatedAt),
		"updated_at":       formatTime(k.UpdatedAt),
	}, nil
}

func apiKeyFromRows(rows *sqlx.Rows) (*entities.APIKey, error) {
	var rec apiKeyRow
	if err := rows.StructScan(&rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored API key").WithCause(err)
	}

	id, err := uuid.Parse(rec.ID)
	if err != nil {
		return nil, apperrors.NewInternalError("malformed stored identifier").WithCause(err)
	}
	expiresAt, err := parseNullTime(rec.ExpiresAt)
	if err != nil {
		return nil, err
	}
	lastUsedAt, err := parseNullTime(rec.LastUsedAt)
	if err != nil {
		return nil, err
	}
	revokedAt, err := parseNullTime(rec.RevokedAt)
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

	return &entities.APIKey{
		ID:             id,
		KeyName:        rec.KeyName,
		KeyHash:        rec.KeyHash,
		KeyPrefix:      rec.KeyPrefix,
		KeyType:        entities.APIKeyType(rec.KeyType),
		UserEmail:      rec.UserEmail,
		CreatedByEmail: rec.CreatedByEmail,
		ExpiresAt:      expiresAt,
		LastUsedAt:     lastUsedAt,
		RevokedAt:      revokedAt,
		RevokedByEmail: rec.RevokedByEmail,
		IsActive:       rec.IsActive,
		CreatedAt:      createdAt,
		UpdatedAt:      updatedAt,
	}, nil
}

// SaveWithOptimisticLock commits only if the stored updated_at still
// equals expectedUpdatedAt.
func (r *APIKeyRepository) SaveWithOptimisticLock(ctx context.Context, key *entities.APIKey, expectedUpdatedAt time.Time) (*entities.APIKey, error) {
	return r.saveWithLock(ctx, key, expectedUpdatedAt)
}

// RotateKey revokes oldKey and creates newKey in one database
// transaction. The revocation update is guarded by oldKey's current
// updated_at and by is_active: if the guard matches zero rows the
// transaction rolls back and neither key is touched.
func (r *APIKeyRepository) RotateKey(ctx context.Context, oldKey, newKey *entities.APIKey) (*entities.APIKey, error) {
	if oldKey == nil || newKey == nil {
		return nil, apperrors.NewValidationError("both keys must be provided for rotation")
	}
	if oldKey.ID == uuid.Nil {
		return nil, apperrors.NewValidationError("old key id is required for rotation")
	}

	now := advance(oldKey.UpdatedAt)
	expected := oldKey.UpdatedAt

	revoked := *oldKey
	revoked.IsActive = false
	revoked.RevokedAt = &now
	if revoked.RevokedByEmail == "" {
		revoked.RevokedByEmail = newKey.CreatedByEmail
	}
	revoked.UpdatedAt = now

	if newKey.ID == uuid.Nil {
		newKey.ID = uuid.New()
	}
	newKey.IsActive = true
	if newKey.CreatedAt.IsZero() {
		newKey.CreatedAt = now
	}
	newKey.UpdatedAt = now

	newRow, err := apiKeyToRow(newKey)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewDatabaseError("begin rotation transaction", err)
	}
	defer tx.Rollback()

	revokeSQL := r.db.Rebind(`UPDATE api_keys
		SET is_active = ?, revoked_at = ?, revoked_by_email = ?, updated_at = ?
		WHERE id = ? AND updated_at = ? AND is_active = ?`)
	res, err := tx.ExecContext(ctx, revokeSQL,
		false, formatTime(now), revoked.RevokedByEmail, formatTime(now),
		oldKey.ID.String(), formatTime(expected), true)
	if err != nil {
		return nil, apperrors.NewDatabaseError("revoke API key", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, apperrors.NewDatabaseError("revoke API key", err)
	}
	if affected == 0 {
		return nil, apperrors.NewOptimisticLockError(
			"API key was modified or already revoked, rotation aborted")
	}

	if _, err := tx.NamedExecContext(ctx, r.upsertSQL, newRow); err != nil {
		return nil, wrapWriteError("create rotated API key", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, apperrors.NewDatabaseError("commit rotation transaction", err)
	}

	r.logger.Info("rotated API key",
		zap.String("oldKeyID", revoked.ID.String()),
		zap.String("newKeyID", newKey.ID.String()),
	)

	*oldKey = revoked
	return newKey, nil
}

// FindByKeyHash returns the single key with the given unique hash, or
// nil when none exists.
func (r *APIKeyRepository) FindByKeyHash(ctx context.Context, keyHash string) (*entities.APIKey, error) {
	if keyHash == "" {
		return nil, nil
	}
	matches, err := r.findWhere(ctx, "key_hash = ?", keyHash)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	return matches[0], nil
}

func (r *APIKeyRepository) FindByUserEmail(ctx context.Context, userEmail string) ([]*entities.APIKey, error) {
	if userEmail == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "user_email = ?", userEmail)
}

func (r *APIKeyRepository) FindByKeyType(ctx context.Context, keyType entities.APIKeyType) ([]*entities.APIKey, error) {
	if keyType == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "key_type = ?", string(keyType))
}

func (r *APIKeyRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.APIKey, error) {
	return r.findWhere(ctx, "is_active = ?", isActive)
}

func (r *APIKeyRepository) FindByCreatedByEmail(ctx context.Context, createdByEmail string) ([]*entities.APIKey, error) {
	if createdByEmail == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "created_by_email = ?", createdByEmail)
}

func (r *APIKeyRepository) FindByUserEmailAndIsActive(ctx context.Context, userEmail string, isActive bool) ([]*entities.APIKey, error) {
	if userEmail == "" {
		return nil, nil
	}
	return r.findWhere(ctx, "user_email = ? AND is_active = ?", userEmail, isActive)
}
