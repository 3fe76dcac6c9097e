package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
	"idp-backend/pkg/utils"
)

// TeamHandler handles team management requests.
type TeamHandler struct {
	teams  ports.TeamRepository
	logger *zap.Logger
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teams ports.TeamRepository, logger *zap.Logger) *TeamHandler {
	return &TeamHandler{teams: teams, logger: logger}
}

// TeamRequest represents the request body for creating or updating a team
type TeamRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100"`
	Description string `json:"description,omitempty" validate:"omitempty,max=500"`
	IsActive    *bool  `json:"isActive,omitempty"`
}

// CreateTeam handles POST /teams
func (h *TeamHandler) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req TeamRequest
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

	team := &entities.Team{Name: req.Name, Description: req.Description, IsActive: true}
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}

	saved, err := h.teams.Save(r.Context(), team)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, saved)
}

// ListTeams handles GET /teams, optionally filtered by name.
func (h *TeamHandler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if name := r.URL.Query().Get("name"); name != "" {
		teams, err := h.teams.FindByName(ctx, name)
		if err != nil {
			respondError(w, h.logger, err)
			return
		}
		common.RespondJSON(w, http.StatusOK, teams)
		return
	}

	teams, err := h.teams.FindAll(ctx)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, teams)
}

// GetTeam handles GET /teams/{teamID}
func (h *TeamHandler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	team, err := h.teams.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if team == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "team not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, team)
}

// UpdateTeam handles PUT /teams/{teamID}
func (h *TeamHandler) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}

	var req TeamRequest
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

	team, err := h.teams.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if team == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "team not found")
		return
	}

	team.Name = req.Name
	team.Description = req.Description
	if req.IsActive != nil {
		team.IsActive = *req.IsActive
	}

	updated, err := h.teams.Save(r.Context(), team)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

// DeleteTeam handles DELETE /teams/{teamID}
func (h *TeamHandler) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "teamID")
	if !ok {
		return
	}
	if err := h.teams.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
