package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	apperrors "idp-backend/pkg/errors"
)

// APIKeyRepository implements ports.APIKeyRepository on DynamoDB.
type APIKeyRepository struct {
	*repository[entities.APIKey]
}

type apiKeyItem struct {
	ID             string `dynamodbav:"id"`
	KeyName        string `dynamodbav:"keyName"`
	KeyHash        string `dynamodbav:"keyHash"`
	KeyPrefix      string `dynamodbav:"keyPrefix,omitempty"`
	KeyType        string `dynamodbav:"keyType,omitempty"`
	UserEmail      string `dynamodbav:"userEmail,omitempty"`
	CreatedByEmail string `dynamodbav:"createdByEmail,omitempty"`
	ExpiresAt      string `dynamodbav:"expiresAt,omitempty"`
	LastUsedAt     string `dynamodbav:"lastUsedAt,omitempty"`
	RevokedAt      string `dynamodbav:"revokedAt,omitempty"`
	RevokedByEmail string `dynamodbav:"revokedByEmail,omitempty"`
	IsActive       bool   `dynamodbav:"isActive"`
	CreatedAt      string `dynamodbav:"createdAt"`
	UpdatedAt      string `dynamodbav:"updatedAt"`
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(client Client, tx *TransactionManager, tables Tables, logger *zap.Logger) *APIKeyRepository {
	r := &APIKeyRepository{}
	r.repository = newRepository(client, tx, logger, mapping[entities.APIKey]{
		table:    tables.APIKeys,
		toItem:   apiKeyToItem,
		fromItem: apiKeyFromItem,
		id:       func(k *entities.APIKey) uuid.UUID { return k.ID },
		setID:    func(k *entities.APIKey, id uuid.UUID) { k.ID = id },
		timestamps: func(k *entities.APIKey) (time.Time, time.Time) {
			return k.CreatedAt, k.UpdatedAt
		},
		setTimestamps: func(k *entities.APIKey, createdAt, updatedAt time.Time) {
			k.CreatedAt = createdAt
			k.UpdatedAt = updatedAt
		},
		checkConflict: func(ctx context.Context, k *entities.APIKey) error {
			return r.checkHashUnique(ctx, k)
		},
	})
	return r
}

var _ ports.APIKeyRepository = (*APIKeyRepository)(nil)

func apiKeyToItem(k *entities.APIKey) (item, error) {
	it, err := attributevalue.MarshalMap(apiKeyItem{
		ID:             k.ID.String(),
		KeyName:        k.KeyName,
		KeyHash:        k.KeyHash,
		KeyPrefix:      k.KeyPrefix,
		KeyType:        string(k.KeyType),
		UserEmail:      k.UserEmail,
		CreatedByEmail: k.CreatedByEmail,
		ExpiresAt:      formatOptTime(k.ExpiresAt),
		LastUsedAt:     formatOptTime(k.LastUsedAt),
		RevokedAt:      formatOptTime(k.RevokedAt),
		RevokedByEmail: k.RevokedByEmail,
		IsActive:       k.IsActive,
		CreatedAt:      formatTime(k.CreatedAt),
		UpdatedAt:      formatTime(k.UpdatedAt),
	})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to map API key").WithCause(err)
	}
	return it, nil
}

func apiKeyFromItem(it item) (*entities.APIKey, error) {
	var rec apiKeyItem
	if err := attributevalue.UnmarshalMap(it, &rec); err != nil {
		return nil, apperrors.NewInternalError("failed to map stored API key").WithCause(err)
	}

	id, err := parseUUID(rec.ID)
	if err != nil {
		return nil, err
	}
	expiresAt, err := parseOptTime(rec.ExpiresAt)
	if err != nil {
		return nil, err
	}
	lastUsedAt, err := parseOptTime(rec.LastUsedAt)
	if err != nil {
		return nil, err
	}
	revokedAt, err := parseOptTime(rec.RevokedAt)
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

func (r *APIKeyRepository) checkHashUnique(ctx context.Context, k *entities.APIKey) error {
	if k.KeyHash == "" {
		return nil
	}
	existing, err := r.FindByKeyHash(ctx, k.KeyHash)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != k.ID {
		return apperrors.NewConflictError("an API key with the same hash already exists")
	}
	return nil
}

// SaveWithOptimisticLock commits only if the stored updatedAt still
// equals expectedUpdatedAt.
func (r *APIKeyRepository) SaveWithOptimisticLock(ctx context.Context, key *entities.APIKey, expectedUpdatedAt time.Time) (*entities.APIKey, error) {
	return r.saveWithLock(ctx, key, expectedUpdatedAt)
}

// RotateKey revokes oldKey and creates newKey in a single atomic
// transaction. The revocation is conditioned on oldKey's current
// updatedAt and on it still being active: if either check fails, neither
// key is touched.
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

	oldItem, err := apiKeyToItem(&revoked)
	if err != nil {
		return nil, err
	}
	newItem, err := apiKeyToItem(newKey)
	if err != nil {
		return nil, err
	}

	writes := []TransactionWrite{
		PutWriteWithCondition(
			r.m.table,
			oldItem,
			"updatedAt = :expectedUpdatedAt AND isActive = :active",
			nil,
			item{
				":expectedUpdatedAt": &types.AttributeValueMemberS{Value: formatTime(expected)},
				":active":            &types.AttributeValueMemberBOOL{Value: true},
			},
			fmt.Sprintf("revoke API key %s", revoked.ID),
		),
		PutWrite(r.m.table, newItem, fmt.Sprintf("create API key %s", newKey.ID)),
	}

	if err := r.tx.ExecuteTransaction(ctx, writes); err != nil {
		if apperrors.IsTransactionFailed(err) {
			return nil, apperrors.NewOptimisticLockError(
				"API key was modified or already revoked, rotation aborted").WithCause(err)
		}
		return nil, err
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
	matches, err := r.queryIndex(ctx, gsiKeyHash, "keyHash", stringValue(keyHash))
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
	return r.queryIndex(ctx, gsiKeyUserEmail, "userEmail", stringValue(userEmail))
}

func (r *APIKeyRepository) FindByKeyType(ctx context.Context, keyType entities.APIKeyType) ([]*entities.APIKey, error) {
	if keyType == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiKeyType, "keyType", stringValue(string(keyType)))
}

func (r *APIKeyRepository) FindByIsActive(ctx context.Context, isActive bool) ([]*entities.APIKey, error) {
	return r.queryIndex(ctx, gsiKeyIsActive, "isActive", boolValue(isActive))
}

func (r *APIKeyRepository) FindByCreatedByEmail(ctx context.Context, createdByEmail string) ([]*entities.APIKey, error) {
	if createdByEmail == "" {
		return nil, nil
	}
	return r.queryIndex(ctx, gsiKeyCreatedByEmail, "createdByEmail", stringValue(createdByEmail))
}

// FindByUserEmailAndIsActive queries the user-email index and filters
// the active flag in memory.
func (r *APIKeyRepository) FindByUserEmailAndIsActive(ctx context.Context, userEmail string, isActive bool) ([]*entities.APIKey, error) {
	if userEmail == "" {
		return nil, nil
	}
	byEmail, err := r.FindByUserEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	matched := make([]*entities.APIKey, 0, len(byEmail))
	for _, k := range byEmail {
		if k.IsActive == isActive {
			matched = append(matched, k)
		}
	}
	return matched, nil
}
