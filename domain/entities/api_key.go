package entities

import (
	"time"

	"github.com/google/uuid"
)

// APIKey is a credential for programmatic access. Only the SHA-256 hash of
// the key material is ever stored; KeyHash is unique across all keys.
type APIKey struct {
	ID             uuid.UUID  `json:"id"`
	KeyName        string     `json:"keyName"`
	KeyHash        string     `json:"-"`
	KeyPrefix      string     `json:"keyPrefix"`
	KeyType        APIKeyType `json:"keyType"`
	UserEmail      string     `json:"userEmail"`
	CreatedByEmail string     `json:"createdByEmail"`
	ExpiresAt      *time.Time `json:"expiresAt,omitempty"`
	LastUsedAt     *time.Time `json:"lastUsedAt,omitempty"`
	RevokedAt      *time.Time `json:"revokedAt,omitempty"`
	RevokedByEmail string     `json:"revokedByEmail,omitempty"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// IsExpired reports whether the key has an expiry in the past.
func (k *APIKey) IsExpired() bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(time.Now())
}

// IsValid reports whether the key can currently authenticate requests.
func (k *APIKey) IsValid() bool {
	return k.IsActive && k.RevokedAt == nil && !k.IsExpired()
}

// Revoke marks the key inactive without deleting it, preserving the
// audit trail of who revoked it and when.
func (k *APIKey) Revoke(byEmail string, at time.Time) {
	k.IsActive = false
	k.RevokedAt = &at
	k.RevokedByEmail = byEmail
}
