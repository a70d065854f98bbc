package handler

import (
	"context"
	"log/slog"
	"net/http"

	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/httputil"
)

// SessionProvider returns the folder service of a user, opening it on first use
type SessionProvider interface {
	Get(ctx context.Context, userID string) (folderSvc.FolderService, error)
}

// ContentReader reads the stored payload of a view
type ContentReader interface {
	Content(ctx context.Context, view models.View) (*folderRepo.ViewContent, error)
}

// FolderHandler serves the workspace, view, trash and import routes
type FolderHandler struct {
	sessions SessionProvider
	content  ContentReader
	logger   *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(sessions SessionProvider, content ContentReader, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		sessions: sessions,
		content:  content,
		logger:   logger,
	}
}

// service resolves the folder service of the caller; on failure the
// response is already written.
func (h *FolderHandler) service(w http.ResponseWriter, r *http.Request) (folderSvc.FolderService, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "user not authenticated")
		return nil, false
	}

	svc, err := h.sessions.Get(r.Context(), userID)
	if err != nil {
		handleError(w, r, err, h.logger)
		return nil, false
	}
	return svc, true
}

func (h *FolderHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	handleError(w, r, err, h.logger)
}

// HealthCheck handles GET /health
func (h *FolderHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
