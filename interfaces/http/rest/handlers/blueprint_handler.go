package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
	"idp-backend/pkg/utils"
)

// BlueprintHandler handles blueprint-related HTTP requests, including
// the resources a blueprint declares.
type BlueprintHandler struct {
	blueprints ports.BlueprintRepository
	resources  ports.BlueprintResourceRepository
	logger     *zap.Logger
}

// NewBlueprintHandler creates a new blueprint handler
func NewBlueprintHandler(blueprints ports.BlueprintRepository, resources ports.BlueprintResourceRepository, logger *zap.Logger) *BlueprintHandler {
	return &BlueprintHandler{blueprints: blueprints, resources: resources, logger: logger}
}

// CreateBlueprintRequest represents the request body for creating a blueprint
type CreateBlueprintRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// UpdateBlueprintRequest carries changed fields plus the observed version.
type UpdateBlueprintRequest struct {
	Description       *string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive          *bool   `json:"isActive,omitempty"`
	ExpectedUpdatedAt string  `json:"expectedUpdatedAt" validate:"required"`
}

// CreateResourceRequest represents the request body for declaring a
// blueprint resource.
type CreateResourceRequest struct {
	Name            string         `json:"name" validate:"required,min=1,max=100"`
	Description     string         `json:"description,omitempty" validate:"omitempty,max=500"`
	ResourceTypeID  uuid.UUID      `json:"resourceTypeId" validate:"required"`
	CloudProviderID uuid.UUID      `json:"cloudProviderId" validate:"required"`
	CloudType       string         `json:"cloudType,omitempty"`
	Configuration   map[string]any `json:"configuration,omitempty"`
}

// CreateBlueprint handles POST /blueprints
func (h *BlueprintHandler) CreateBlueprint(w http.ResponseWriter, r *http.Request) {
	var req CreateBlueprintRequest
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

	blueprint := &entities.Blueprint{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if req.IsActive != nil {
		blueprint.IsActive = *req.IsActive
	}

	saved, err := h.blueprints.Save(r.Context(), blueprint)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, saved)
}

// ListBlueprints handles GET /blueprints, optionally filtered by name or
// active state.
func (h *BlueprintHandler) ListBlueprints(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if name := r.URL.Query().Get("name"); name != "" {
		blueprint, err := h.blueprints.FindByName(ctx, name)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if blueprint == nil {
			common.RespondJSON(w, http.StatusOK, []*entities.Blueprint{})
			return
		}
		common.RespondJSON(w, http.StatusOK, []*entities.Blueprint{blueprint})
		return
	}

	if active, present := queryBool(r, "active"); present {
		blueprints, err := h.blueprints.FindByIsActive(ctx, active)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, blueprints)
		return
	}

	blueprints, err := h.blueprints.FindAll(ctx)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, blueprints)
}

// GetBlueprint handles GET /blueprints/{blueprintID}
func (h *BlueprintHandler) GetBlueprint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blueprintID")
	if !ok {
		return
	}

	blueprint, err := h.blueprints.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if blueprint == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "blueprint not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, blueprint)
}

// UpdateBlueprint handles PUT /blueprints/{blueprintID} with optimistic
// locking.
func (h *BlueprintHandler) UpdateBlueprint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blueprintID")
	if !ok {
		return
	}

	var req UpdateBlueprintRequest
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

	blueprint, err := h.blueprints.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if blueprint == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "blueprint not found")
		return
	}

	if req.Description != nil {
		blueprint.Description = *req.Description
	}
	if req.IsActive != nil {
		blueprint.IsActive = *req.IsActive
	}

	updated, err := h.blueprints.SaveWithOptimisticLock(r.Context(), blueprint, expected)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteBlueprint handles DELETE /blueprints/{blueprintID}, removing the
// blueprint's declared resources with it.
func (h *BlueprintHandler) DeleteBlueprint(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blueprintID")
	if !ok {
		return
	}

	resources, err := h.resources.FindByBlueprintID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(resources))
	for _, res := range resources {
		ids = append(ids, res.ID)
	}
	if err := h.resources.DeleteAll(r.Context(), ids); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.blueprints.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListResources handles GET /blueprints/{blueprintID}/resources
func (h *BlueprintHandler) ListResources(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blueprintID")
	if !ok {
		return
	}
	resources, err := h.resources.FindByBlueprintID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resources)
}

// CreateResource handles POST /blueprints/{blueprintID}/resources
func (h *BlueprintHandler) CreateResource(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "blueprintID")
	if !ok {
		return
	}

	blueprint, err := h.blueprints.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if blueprint == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "blueprint not found")
		return
	}

	var req CreateResourceRequest
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

	saved, err := h.resources.Save(r.Context(), &entities.BlueprintResource{
		Name:            req.Name,
		Description:     req.Description,
		BlueprintID:     id,
		ResourceTypeID:  req.ResourceTypeID,
		CloudProviderID: req.CloudProviderID,
		CloudType:       req.CloudType,
		IsActive:        true,
		Configuration:   req.Configuration,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, saved)
}

// DeleteResource handles DELETE /blueprints/{blueprintID}/resources/{resourceID}
func (h *BlueprintHandler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	resourceID, ok := pathID(w, r, "resourceID")
	if !ok {
		return
	}
	if err := h.resources.Delete(r.Context(), resourceID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
