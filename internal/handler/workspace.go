package handler

import (
	"net/http"

	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/httputil"
)

// ListWorkspaces handles GET /api/workspaces
func (h *FolderHandler) ListWorkspaces(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.GetAllWorkspaces(r.Context()))
}

// CreateWorkspace handles POST /api/workspaces
func (h *FolderHandler) CreateWorkspace(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req folderSvc.CreateWorkspaceParams
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ws, err := svc.CreateWorkspace(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, ws)
}

// GetCurrentWorkspace handles GET /api/workspaces/current
func (h *FolderHandler) GetCurrentWorkspace(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	ws, err := svc.GetCurrentWorkspace(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	views, err := svc.GetCurrentWorkspaceViews(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, workspaceResponse{Workspace: *ws, Views: views})
}

// GetWorkspace handles GET /api/workspaces/{id}
func (h *FolderHandler) GetWorkspace(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	ws, err := svc.GetWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws)
}

// OpenWorkspace handles POST /api/workspaces/{id}/open
func (h *FolderHandler) OpenWorkspace(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	ws, err := svc.OpenWorkspace(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ws)
}

// GetWorkspaceViews handles GET /api/workspaces/{id}/views
func (h *FolderHandler) GetWorkspaceViews(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	views, err := svc.GetWorkspaceViews(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}
