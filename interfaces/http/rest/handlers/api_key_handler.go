package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/pkg/auth"
	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
	"idp-backend/pkg/utils"
)

// APIKeyHandler handles API key lifecycle requests. Raw key material is
// returned exactly once, on creation or rotation; only the hash is stored.
type APIKeyHandler struct {
	keys   ports.APIKeyRepository
	logger *zap.Logger
}

// NewAPIKeyHandler creates a new API key handler
func NewAPIKeyHandler(keys ports.APIKeyRepository, logger *zap.Logger) *APIKeyHandler {
	return &APIKeyHandler{keys: keys, logger: logger}
}

// CreateAPIKeyRequest represents the request body for issuing a key
type CreateAPIKeyRequest struct {
	KeyName   string             `json:"keyName" validate:"required,min=1,max=100"`
	KeyType   entities.APIKeyType `json:"keyType" validate:"required,oneof=USER SYSTEM"`
	UserEmail string             `json:"userEmail" validate:"required,email"`
	ExpiresAt *time.Time         `json:"expiresAt,omitempty"`
}

// IssuedKeyResponse wraps a stored key together with its raw material.
// The raw key cannot be recovered after this response.
type IssuedKeyResponse struct {
	Key    *entities.APIKey `json:"key"`
	RawKey string           `json:"rawKey"`
}

// CreateAPIKey handles POST /api-keys
func (h *APIKeyHandler) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	var req CreateAPIKeyRequest
	if err := common.ParseJSONBody(w, r, &req, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), err.Error())
		return
	}
	if req.ExpiresAt != nil && req.ExpiresAt.Before(time.Now()) {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), "expiresAt must be in the future")
		return
	}

	principal, ok := common.GetPrincipal(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	material, err := auth.GenerateKey()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	saved, err := h.keys.Save(r.Context(), &entities.APIKey{
		KeyName:        req.KeyName,
		KeyHash:        material.Hash,
		KeyPrefix:      material.Prefix,
		KeyType:        req.KeyType,
		UserEmail:      req.UserEmail,
		CreatedByEmail: principal.UserEmail,
		ExpiresAt:      req.ExpiresAt,
		IsActive:       true,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("issued API key",
		zap.String("keyId", saved.ID.String()),
		zap.String("userEmail", saved.UserEmail),
		zap.String("createdBy", principal.UserEmail))
	common.RespondJSON(w, http.StatusCreated, IssuedKeyResponse{Key: saved, RawKey: material.Raw})
}

// ListAPIKeys handles GET /api-keys with optional userEmail, keyType and
// active filters.
func (h *APIKeyHandler) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userEmail := r.URL.Query().Get("userEmail")
	active, activePresent := queryBool(r, "active")

	var (
		keys []*entities.APIKey
		err  error
	)
	switch {
	case userEmail != "" && activePresent:
		keys, err = h.keys.FindByUserEmailAndIsActive(ctx, userEmail, active)
	case userEmail != "":
		keys, err = h.keys.FindByUserEmail(ctx, userEmail)
	case activePresent:
		keys, err = h.keys.FindByIsActive(ctx, active)
	case r.URL.Query().Get("keyType") != "":
		keys, err = h.keys.FindByKeyType(ctx, entities.APIKeyType(r.URL.Query().Get("keyType")))
	case r.URL.Query().Get("createdBy") != "":
		keys, err = h.keys.FindByCreatedByEmail(ctx, r.URL.Query().Get("createdBy"))
	default:
		keys, err = h.keys.FindAll(ctx)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, keys)
}

// GetAPIKey handles GET /api-keys/{keyID}
func (h *APIKeyHandler) GetAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "keyID")
	if !ok {
		return
	}
	key, err := h.keys.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if key == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "API key not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, key)
}

// RevokeAPIKey handles DELETE /api-keys/{keyID}. Keys are revoked, not
// deleted, so the audit trail survives.
func (h *APIKeyHandler) RevokeAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "keyID")
	if !ok {
		return
	}

	principal, pok := common.GetPrincipal(r.Context())
	if !pok {
		common.RespondError(w, http.StatusUnauthorized,
			string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	key, err := h.keys.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if key == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "API key not found")
		return
	}
	if key.RevokedAt != nil {
		common.RespondJSON(w, http.StatusOK, key)
		return
	}

	expected := key.UpdatedAt
	key.Revoke(principal.UserEmail, time.Now().UTC())
	updated, err := h.keys.SaveWithOptimisticLock(r.Context(), key, expected)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("revoked API key",
		zap.String("keyId", updated.ID.String()),
		zap.String("revokedBy", principal.UserEmail))
	common.RespondJSON(w, http.StatusOK, updated)
}

// RotateAPIKey handles POST /api-keys/{keyID}/rotate. The old key is
// revoked and a replacement issued in one atomic step.
func (h *APIKeyHandler) RotateAPIKey(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "keyID")
	if !ok {
		return
	}

	principal, pok := common.GetPrincipal(r.Context())
	if !pok {
		common.RespondError(w, http.StatusUnauthorized,
			string(apperrors.ErrorTypeUnauthorized), "authentication required")
		return
	}

	oldKey, err := h.keys.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if oldKey == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "API key not found")
		return
	}

	material, err := auth.GenerateKey()
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	newKey := &entities.APIKey{
		KeyName:        oldKey.KeyName,
		KeyHash:        material.Hash,
		KeyPrefix:      material.Prefix,
		KeyType:        oldKey.KeyType,
		UserEmail:      oldKey.UserEmail,
		CreatedByEmail: principal.UserEmail,
		ExpiresAt:      oldKey.ExpiresAt,
		IsActive:       true,
	}

	rotated, err := h.keys.RotateKey(r.Context(), oldKey, newKey)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Info("rotated API key",
		zap.String("oldKeyId", oldKey.ID.String()),
		zap.String("newKeyId", rotated.ID.String()),
		zap.String("rotatedBy", principal.UserEmail))
	common.RespondJSON(w, http.StatusOK, IssuedKeyResponse{Key: rotated, RawKey: material.Raw})
}
