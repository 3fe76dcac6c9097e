package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
	"idp-backend/pkg/utils"
)

// StackHandler handles stack-related HTTP requests
type StackHandler struct {
	stacks ports.StackRepository
	logger *zap.Logger
}

// NewStackHandler creates a new stack handler
func NewStackHandler(stacks ports.StackRepository, logger *zap.Logger) *StackHandler {
	return &StackHandler{stacks: stacks, logger: logger}
}

// CreateStackRequest represents the request body for creating a stack
type CreateStackRequest struct {
	Name                string         `json:"name" validate:"required,min=1,max=100"`
	Description         string         `json:"description,omitempty" validate:"omitempty,max=500"`
	CloudName           string         `json:"cloudName,omitempty"`
	RoutePath           string         `json:"routePath,omitempty"`
	RepositoryURL       string         `json:"repositoryUrl,omitempty" validate:"omitempty,url"`
	StackType           string         `json:"stackType" validate:"required"`
	ProgrammingLanguage string         `json:"programmingLanguage,omitempty"`
	IsPublic            bool           `json:"isPublic,omitempty"`
	TeamID              *uuid.UUID     `json:"teamId,omitempty"`
	BlueprintID         *uuid.UUID     `json:"blueprintId,omitempty"`
	CloudProviderID     *uuid.UUID     `json:"cloudProviderId,omitempty"`
	EphemeralPrefix     string         `json:"ephemeralPrefix,omitempty"`
	Configuration       map[string]any `json:"configuration,omitempty"`
}

// UpdateStackRequest carries the changed fields plus the version the
// caller last observed; the update is rejected if the stack moved on.
type UpdateStackRequest struct {
	Description       *string        `json:"description,omitempty" validate:"omitempty,max=500"`
	RepositoryURL     *string        `json:"repositoryUrl,omitempty" validate:"omitempty,url"`
	IsPublic          *bool          `json:"isPublic,omitempty"`
	Configuration     map[string]any `json:"configuration,omitempty"`
	ExpectedUpdatedAt string         `json:"expectedUpdatedAt" validate:"required"`
}

// CreateStack handles POST /stacks
func (h *StackHandler) CreateStack(w http.ResponseWriter, r *http.Request) {
	var req CreateStackRequest
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

	principal, ok := common.GetPrincipal(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized,
			string(apperrors.ErrorTypeUnauthorized), "Unauthorized")
		return
	}

	stack := &entities.Stack{
		Name:                req.Name,
		Description:         req.Description,
		CloudName:           req.CloudName,
		RoutePath:           req.RoutePath,
		RepositoryURL:       req.RepositoryURL,
		StackType:           entities.StackType(req.StackType),
		ProgrammingLanguage: entities.ProgrammingLanguage(req.ProgrammingLanguage),
		IsPublic:            req.IsPublic,
		CreatedBy:           principal.UserEmail,
		EphemeralPrefix:     req.EphemeralPrefix,
		Configuration:       req.Configuration,
	}
	if req.TeamID != nil {
		stack.TeamID = *req.TeamID
	}
	if req.BlueprintID != nil {
		stack.BlueprintID = *req.BlueprintID
	}
	if req.CloudProviderID != nil {
		stack.CloudProviderID = *req.CloudProviderID
	}

	saved, err := h.stacks.Save(r.Context(), stack)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, saved)
}

// ListStacks handles GET /stacks. A single filter parameter selects the
// matching finder; cloudProviderId and createdBy may be combined.
func (h *StackHandler) ListStacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ctx := r.Context()

	var (
		stacks []*entities.Stack
		err    error
	)
	switch {
	case q.Get("cloudProviderId") != "" && q.Get("createdBy") != "":
		stacks, err = h.findByUUIDParam(ctx, q.Get("cloudProviderId"),
			func(ctx context.Context, id uuid.UUID) ([]*entities.Stack, error) {
				return h.stacks.FindByCloudProviderAndCreatedBy(ctx, id, q.Get("createdBy"))
			})
	case q.Get("createdBy") != "":
		stacks, err = h.stacks.FindByCreatedBy(ctx, q.Get("createdBy"))
	case q.Get("stackType") != "":
		stacks, err = h.stacks.FindByStackType(ctx, entities.StackType(q.Get("stackType")))
	case q.Get("teamId") != "":
		stacks, err = h.findByUUIDParam(ctx, q.Get("teamId"), h.stacks.FindByTeamID)
	case q.Get("cloudProviderId") != "":
		stacks, err = h.findByUUIDParam(ctx, q.Get("cloudProviderId"), h.stacks.FindByCloudProviderID)
	case q.Get("blueprintId") != "":
		stacks, err = h.findByUUIDParam(ctx, q.Get("blueprintId"), h.stacks.FindByBlueprintID)
	case q.Get("ephemeralPrefix") != "":
		stacks, err = h.stacks.FindByEphemeralPrefix(ctx, q.Get("ephemeralPrefix"))
	default:
		stacks, err = h.stacks.FindAll(ctx)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, stacks)
}

func (h *StackHandler) findByUUIDParam(ctx context.Context, raw string, find func(context.Context, uuid.UUID) ([]*entities.Stack, error)) ([]*entities.Stack, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("malformed id in query")
	}
	return find(ctx, id)
}

// GetStack handles GET /stacks/{stackID}
func (h *StackHandler) GetStack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "stackID")
	if !ok {
		return
	}

	stack, err := h.stacks.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if stack == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "stack not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, stack)
}

// UpdateStack handles PUT /stacks/{stackID} with optimistic locking.
func (h *StackHandler) UpdateStack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "stackID")
	if !ok {
		return
	}

	var req UpdateStackRequest
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
	expected, err := parseVersion(req.ExpectedUpdatedAt)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	stack, err := h.stacks.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if stack == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "stack not found")
		return
	}

	if req.Description != nil {
		stack.Description = *req.Description
	}
	if req.RepositoryURL != nil {
		stack.RepositoryURL = *req.RepositoryURL
	}
	if req.IsPublic != nil {
		stack.IsPublic = *req.IsPublic
	}
	if req.Configuration != nil {
		stack.Configuration = req.Configuration
	}

	updated, err := h.stacks.SaveWithOptimisticLock(r.Context(), stack, expected)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteStack handles DELETE /stacks/{stackID}
func (h *StackHandler) DeleteStack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "stackID")
	if !ok {
		return
	}
	if err := h.stacks.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
