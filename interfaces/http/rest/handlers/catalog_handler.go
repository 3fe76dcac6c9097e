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

// CatalogHandler handles the admin catalog: cloud providers, resource
// types, their cloud mappings and per-mapping property schemas. Every
// mutation is recorded in the admin audit trail.
type CatalogHandler struct {
	providers ports.CloudProviderRepository
	types     ports.ResourceTypeRepository
	mappings  ports.ResourceTypeCloudMappingRepository
	schemas   ports.PropertySchemaRepository
	audit     ports.AdminAuditLogRepository
	logger    *zap.Logger
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(repos *ports.Repositories, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		providers: repos.CloudProviders,
		types:     repos.ResourceTypes,
		mappings:  repos.Mappings,
		schemas:   repos.PropertySchemas,
		audit:     repos.AuditLogs,
		logger:    logger,
	}
}

// CloudProviderRequest represents the request body for creating or
// updating a cloud provider
type CloudProviderRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	DisplayName string `json:"displayName" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	Enabled     *bool  `json:"enabled,omitempty"`
}

// ResourceTypeRequest represents the request body for creating or
// updating a resource type
type ResourceTypeRequest struct {
	Name        string                    `json:"name" validate:"required,min=1,max=100"`
	DisplayName string                    `json:"displayName" validate:"required,min=1,max=100"`
	Description string                    `json:"description,omitempty" validate:"omitempty,max=500"`
	Category    entities.ResourceCategory `json:"category" validate:"required,oneof=SHARED NON_SHARED BOTH"`
	Enabled     *bool                     `json:"enabled,omitempty"`
}

// MappingRequest represents the request body for binding a resource type
// to a cloud provider
type MappingRequest struct {
	ResourceTypeID          uuid.UUID                   `json:"resourceTypeId" validate:"required"`
	CloudProviderID         uuid.UUID                   `json:"cloudProviderId" validate:"required"`
	TerraformModuleLocation string                      `json:"terraformModuleLocation" validate:"required"`
	ModuleLocationType      entities.ModuleLocationType `json:"moduleLocationType" validate:"required,oneof=GIT FILE_SYSTEM REGISTRY"`
	Enabled                 *bool                       `json:"enabled,omitempty"`
}

// PropertySchemaRequest represents the request body for declaring a
// configurable property on a mapping
type PropertySchemaRequest struct {
	PropertyName    string                    `json:"propertyName" validate:"required,min=1,max=100"`
	DisplayName     string                    `json:"displayName" validate:"required,min=1,max=100"`
	Description     string                    `json:"description,omitempty" validate:"omitempty,max=500"`
	DataType        entities.PropertyDataType `json:"dataType" validate:"required,oneof=STRING NUMBER BOOLEAN LIST"`
	Required        bool                      `json:"required"`
	DefaultValue    any                       `json:"defaultValue,omitempty"`
	ValidationRules map[string]any            `json:"validationRules,omitempty"`
	DisplayOrder    int                       `json:"displayOrder" validate:"gte=0"`
}

// recordAdminAction appends to the audit trail. Audit failures are
// logged but never fail the request that already succeeded.
func (h *CatalogHandler) recordAdminAction(ctx context.Context, action, entityType string, entityID uuid.UUID, details map[string]any) {
	principal, ok := common.GetPrincipal(ctx)
	userEmail := ""
	if ok {
		userEmail = principal.UserEmail
	}
	_, err := h.audit.Save(ctx, &entities.AdminAuditLog{
		UserEmail:  userEmail,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
	if err != nil {
		h.logger.Error("failed to record admin action",
			zap.String("action", action),
			zap.String("entityType", entityType),
			zap.String("entityId", entityID.String()),
			zap.Error(err))
	}
}

// ListCloudProviders handles GET /cloud-providers
func (h *CatalogHandler) ListCloudProviders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if name := r.URL.Query().Get("name"); name != "" {
		provider, err := h.providers.FindByName(ctx, name)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if provider == nil {
			common.RespondJSON(w, http.StatusOK, []*entities.CloudProvider{})
			return
		}
		common.RespondJSON(w, http.StatusOK, []*entities.CloudProvider{provider})
		return
	}
	if enabled, present := queryBool(r, "enabled"); present {
		providers, err := h.providers.FindByEnabled(ctx, enabled)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, providers)
		return
	}

	providers, err := h.providers.FindAll(ctx)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, providers)
}

// CreateCloudProvider handles POST /cloud-providers
func (h *CatalogHandler) CreateCloudProvider(w http.ResponseWriter, r *http.Request) {
	var req CloudProviderRequest
	if !h.decode(w, r, &req) {
		return
	}

	provider := &entities.CloudProvider{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Enabled:     true,
	}
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}

	saved, err := h.providers.Save(r.Context(), provider)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "CREATE", "CloudProvider", saved.ID,
		map[string]any{"name": saved.Name})
	common.RespondJSON(w, http.StatusCreated, saved)
}

// GetCloudProvider handles GET /cloud-providers/{providerID}
func (h *CatalogHandler) GetCloudProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}
	provider, err := h.providers.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if provider == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "cloud provider not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, provider)
}

// UpdateCloudProvider handles PUT /cloud-providers/{providerID}
func (h *CatalogHandler) UpdateCloudProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}
	var req CloudProviderRequest
	if !h.decode(w, r, &req) {
		return
	}

	provider, err := h.providers.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if provider == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "cloud provider not found")
		return
	}

	provider.Name = req.Name
	provider.DisplayName = req.DisplayName
	provider.Description = req.Description
	if req.Enabled != nil {
		provider.Enabled = *req.Enabled
	}

	updated, err := h.providers.Save(r.Context(), provider)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "UPDATE", "CloudProvider", updated.ID,
		map[string]any{"name": updated.Name})
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteCloudProvider handles DELETE /cloud-providers/{providerID}
func (h *CatalogHandler) DeleteCloudProvider(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "providerID")
	if !ok {
		return
	}
	if err := h.providers.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "DELETE", "CloudProvider", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ListResourceTypes handles GET /resource-types
func (h *CatalogHandler) ListResourceTypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if name := r.URL.Query().Get("name"); name != "" {
		rt, err := h.types.FindByName(ctx, name)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if rt == nil {
			common.RespondJSON(w, http.StatusOK, []*entities.ResourceType{})
			return
		}
		common.RespondJSON(w, http.StatusOK, []*entities.ResourceType{rt})
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		types, err := h.types.FindByCategory(ctx, entities.ResourceCategory(category))
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, types)
		return
	}
	if enabled, present := queryBool(r, "enabled"); present {
		types, err := h.types.FindByEnabled(ctx, enabled)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, types)
		return
	}

	types, err := h.types.FindAll(ctx)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, types)
}

// CreateResourceType handles POST /resource-types
func (h *CatalogHandler) CreateResourceType(w http.ResponseWriter, r *http.Request) {
	var req ResourceTypeRequest
	if !h.decode(w, r, &req) {
		return
	}

	rt := &entities.ResourceType{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Description: req.Description,
		Category:    req.Category,
		Enabled:     true,
	}
	if req.Enabled != nil {
		rt.Enabled = *req.Enabled
	}

	saved, err := h.types.Save(r.Context(), rt)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "CREATE", "ResourceType", saved.ID,
		map[string]any{"name": saved.Name, "category": string(saved.Category)})
	common.RespondJSON(w, http.StatusCreated, saved)
}

// GetResourceType handles GET /resource-types/{typeID}
func (h *CatalogHandler) GetResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "typeID")
	if !ok {
		return
	}
	rt, err := h.types.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if rt == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "resource type not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, rt)
}

// UpdateResourceType handles PUT /resource-types/{typeID}
func (h *CatalogHandler) UpdateResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "typeID")
	if !ok {
		return
	}
	var req ResourceTypeRequest
	if !h.decode(w, r, &req) {
		return
	}

	rt, err := h.types.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if rt == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "resource type not found")
		return
	}

	rt.Name = req.Name
	rt.DisplayName = req.DisplayName
	rt.Description = req.Description
	rt.Category = req.Category
	if req.Enabled != nil {
		rt.Enabled = *req.Enabled
	}

	updated, err := h.types.Save(r.Context(), rt)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "UPDATE", "ResourceType", updated.ID,
		map[string]any{"name": updated.Name})
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteResourceType handles DELETE /resource-types/{typeID}
func (h *CatalogHandler) DeleteResourceType(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "typeID")
	if !ok {
		return
	}
	if err := h.types.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "DELETE", "ResourceType", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// ListMappings handles GET /mappings with optional resourceTypeId,
// cloudProviderId and enabled filters.
func (h *CatalogHandler) ListMappings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rawType := r.URL.Query().Get("resourceTypeId")
	rawProvider := r.URL.Query().Get("cloudProviderId")

	if rawType != "" && rawProvider != "" {
		typeID, err := uuid.Parse(rawType)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest,
				string(apperrors.ErrorTypeValidation), "resourceTypeId must be a UUID")
			return
		}
		providerID, err := uuid.Parse(rawProvider)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest,
				string(apperrors.ErrorTypeValidation), "cloudProviderId must be a UUID")
			return
		}
		mapping, err := h.mappings.FindByResourceTypeAndCloudProvider(ctx, typeID, providerID)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		if mapping == nil {
			common.RespondJSON(w, http.StatusOK, []*entities.ResourceTypeCloudMapping{})
			return
		}
		common.RespondJSON(w, http.StatusOK, []*entities.ResourceTypeCloudMapping{mapping})
		return
	}

	var (
		mappings []*entities.ResourceTypeCloudMapping
		err      error
	)
	switch {
	case rawType != "":
		var typeID uuid.UUID
		if typeID, err = uuid.Parse(rawType); err != nil {
			common.RespondError(w, http.StatusBadRequest,
				string(apperrors.ErrorTypeValidation), "resourceTypeId must be a UUID")
			return
		}
		mappings, err = h.mappings.FindByResourceTypeID(ctx, typeID)
	case rawProvider != "":
		var providerID uuid.UUID
		if providerID, err = uuid.Parse(rawProvider); err != nil {
			common.RespondError(w, http.StatusBadRequest,
				string(apperrors.ErrorTypeValidation), "cloudProviderId must be a UUID")
			return
		}
		mappings, err = h.mappings.FindByCloudProviderID(ctx, providerID)
	default:
		if enabled, present := queryBool(r, "enabled"); present {
			mappings, err = h.mappings.FindByEnabled(ctx, enabled)
		} else {
			mappings, err = h.mappings.FindAll(ctx)
		}
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, mappings)
}

// CreateMapping handles POST /mappings
func (h *CatalogHandler) CreateMapping(w http.ResponseWriter, r *http.Request) {
	var req MappingRequest
	if !h.decode(w, r, &req) {
		return
	}

	mapping := &entities.ResourceTypeCloudMapping{
		ResourceTypeID:          req.ResourceTypeID,
		CloudProviderID:         req.CloudProviderID,
		TerraformModuleLocation: req.TerraformModuleLocation,
		ModuleLocationType:      req.ModuleLocationType,
		Enabled:                 true,
	}
	if req.Enabled != nil {
		mapping.Enabled = *req.Enabled
	}

	saved, err := h.mappings.Save(r.Context(), mapping)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "CREATE", "ResourceTypeCloudMapping", saved.ID,
		map[string]any{
			"resourceTypeId":  saved.ResourceTypeID.String(),
			"cloudProviderId": saved.CloudProviderID.String(),
		})
	common.RespondJSON(w, http.StatusCreated, saved)
}

// GetMapping handles GET /mappings/{mappingID}
func (h *CatalogHandler) GetMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mappingID")
	if !ok {
		return
	}
	mapping, err := h.mappings.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if mapping == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "mapping not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, mapping)
}

// UpdateMapping handles PUT /mappings/{mappingID}
func (h *CatalogHandler) UpdateMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mappingID")
	if !ok {
		return
	}
	var req MappingRequest
	if !h.decode(w, r, &req) {
		return
	}

	mapping, err := h.mappings.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if mapping == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "mapping not found")
		return
	}

	mapping.ResourceTypeID = req.ResourceTypeID
	mapping.CloudProviderID = req.CloudProviderID
	mapping.TerraformModuleLocation = req.TerraformModuleLocation
	mapping.ModuleLocationType = req.ModuleLocationType
	if req.Enabled != nil {
		mapping.Enabled = *req.Enabled
	}

	updated, err := h.mappings.Save(r.Context(), mapping)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "UPDATE", "ResourceTypeCloudMapping", updated.ID, nil)
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteMapping handles DELETE /mappings/{mappingID}, removing its
// property schemas with it.
func (h *CatalogHandler) DeleteMapping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mappingID")
	if !ok {
		return
	}

	schemas, err := h.schemas.FindByMappingID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	ids := make([]uuid.UUID, 0, len(schemas))
	for _, schema := range schemas {
		ids = append(ids, schema.ID)
	}
	if err := h.schemas.DeleteAll(r.Context(), ids); err != nil {
		respondError(w, h.logger, err)
		return
	}

	if err := h.mappings.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "DELETE", "ResourceTypeCloudMapping", id,
		map[string]any{"deletedSchemas": len(ids)})
	w.WriteHeader(http.StatusNoContent)
}

// ListPropertySchemas handles GET /mappings/{mappingID}/property-schemas,
// ordered by display order. An optional required filter narrows the list.
func (h *CatalogHandler) ListPropertySchemas(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mappingID")
	if !ok {
		return
	}

	if required, present := queryBool(r, "required"); present {
		schemas, err := h.schemas.FindByMappingIDAndRequired(r.Context(), id, required)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, schemas)
		return
	}

	schemas, err := h.schemas.FindByMappingID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, schemas)
}

// CreatePropertySchema handles POST /mappings/{mappingID}/property-schemas
func (h *CatalogHandler) CreatePropertySchema(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "mappingID")
	if !ok {
		return
	}

	mapping, err := h.mappings.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if mapping == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "mapping not found")
		return
	}

	var req PropertySchemaRequest
	if !h.decode(w, r, &req) {
		return
	}

	saved, err := h.schemas.Save(r.Context(), &entities.PropertySchema{
		MappingID:       id,
		PropertyName:    req.PropertyName,
		DisplayName:     req.DisplayName,
		Description:     req.Description,
		DataType:        req.DataType,
		Required:        req.Required,
		DefaultValue:    req.DefaultValue,
		ValidationRules: req.ValidationRules,
		DisplayOrder:    req.DisplayOrder,
	})
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "CREATE", "PropertySchema", saved.ID,
		map[string]any{"mappingId": id.String(), "propertyName": saved.PropertyName})
	common.RespondJSON(w, http.StatusCreated, saved)
}

// DeletePropertySchema handles DELETE /mappings/{mappingID}/property-schemas/{schemaID}
func (h *CatalogHandler) DeletePropertySchema(w http.ResponseWriter, r *http.Request) {
	schemaID, ok := pathID(w, r, "schemaID")
	if !ok {
		return
	}
	if err := h.schemas.Delete(r.Context(), schemaID); err != nil {
		respondError(w, h.logger, err)
		return
	}
	h.recordAdminAction(r.Context(), "DELETE", "PropertySchema", schemaID, nil)
	w.WriteHeader(http.StatusNoContent)
}

// decode parses and validates a JSON request body, writing the error
// response itself when the body is rejected.
func (h *CatalogHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := common.ParseJSONBody(w, r, v, maxBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), "Invalid request body: "+err.Error())
		return false
	}
	if err := utils.ValidateStruct(v); err != nil {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), err.Error())
		return false
	}
	return true
}
