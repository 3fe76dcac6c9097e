package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"idp-backend/application/ports"
	"idp-backend/domain/entities"
	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
)

// AuditHandler serves the read-only admin audit trail.
type AuditHandler struct {
	audit  ports.AdminAuditLogRepository
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(audit ports.AdminAuditLogRepository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{audit: audit, logger: logger}
}

// ListAuditLogs handles GET /audit-logs with optional userEmail,
// entityType and action filters.
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		logs []*entities.AdminAuditLog
		err  error
	)
	switch {
	case r.URL.Query().Get("userEmail") != "":
		logs, err = h.audit.FindByUserEmail(ctx, r.URL.Query().Get("userEmail"))
	case r.URL.Query().Get("entityType") != "":
		logs, err = h.audit.FindByEntityType(ctx, r.URL.Query().Get("entityType"))
	case r.URL.Query().Get("action") != "":
		logs, err = h.audit.FindByAction(ctx, r.URL.Query().Get("action"))
	default:
		logs, err = h.audit.FindAll(ctx)
	}
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, logs)
}

// GetAuditLog handles GET /audit-logs/{logID}
func (h *AuditHandler) GetAuditLog(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "logID")
	if !ok {
		return
	}
	entry, err := h.audit.FindByID(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if entry == nil {
		common.RespondError(w, http.StatusNotFound,
			string(apperrors.ErrorTypeNotFound), "audit log entry not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, entry)
}
