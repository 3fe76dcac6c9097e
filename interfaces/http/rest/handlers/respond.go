package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"idp-backend/pkg/common"
	apperrors "idp-backend/pkg/errors"
)

// maxBodyBytes bounds every JSON request body.
const maxBodyBytes = 1 << 20

// respondError maps a repository or domain error onto the HTTP response.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		if status >= http.StatusInternalServerError {
			logger.Error(appErr.Message, zap.String("errorType", string(appErr.Type)), zap.Error(err))
		}
		common.RespondError(w, status, string(appErr.Type), appErr.Message)
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError,
		string(apperrors.ErrorTypeInternal), "An internal error occurred")
}

// pathID parses the named UUID path parameter, writing a 400 itself when
// the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		common.RespondError(w, http.StatusBadRequest,
			string(apperrors.ErrorTypeValidation), "malformed id in path")
		return uuid.Nil, false
	}
	return id, true
}

// queryBool reads an optional boolean query parameter.
func queryBool(r *http.Request, name string) (value, present bool) {
	switch r.URL.Query().Get(name) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// parseVersion parses the expectedUpdatedAt value guarding a locked
// update.
func parseVersion(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(
			"expectedUpdatedAt must be an RFC 3339 timestamp")
	}
	return t, nil
}
