package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"canopy/internal/domain"
	"canopy/internal/httputil"
)

// handleError converts domain errors to problem responses
func handleError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrNotInitialized):
		httputil.RespondError(w, http.StatusServiceUnavailable, "folder is not loaded, retry shortly")
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]any{
			"resource_type": conflictErr.ResourceType,
			"resource_id":   conflictErr.ResourceID,
		})
	default:
		logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}
