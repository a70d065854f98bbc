package handler

import "net/http"

// RegisterRoutes mounts every API route on mux (Go 1.22+ patterns)
func RegisterRoutes(mux *http.ServeMux, folders *FolderHandler, notifications *NotificationHandler) {
	mux.HandleFunc("GET /health", folders.HealthCheck)

	// Workspaces
	mux.HandleFunc("GET /api/workspaces", folders.ListWorkspaces)
	mux.HandleFunc("POST /api/workspaces", folders.CreateWorkspace)
	mux.HandleFunc("GET /api/workspaces/current", folders.GetCurrentWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}", folders.GetWorkspace)
	mux.HandleFunc("POST /api/workspaces/{id}/open", folders.OpenWorkspace)
	mux.HandleFunc("GET /api/workspaces/{id}/views", folders.GetWorkspaceViews)

	// Views
	mux.HandleFunc("POST /api/views", folders.CreateView)
	mux.HandleFunc("GET /api/views/current", folders.GetCurrentView)
	mux.HandleFunc("PUT /api/views/current", folders.SetCurrentView)
	mux.HandleFunc("GET /api/views/{id}", folders.GetView)
	mux.HandleFunc("PATCH /api/views/{id}", folders.UpdateView)
	mux.HandleFunc("DELETE /api/views/{id}", folders.DeleteView)
	mux.HandleFunc("GET /api/views/{id}/children", folders.GetViewChildren)
	mux.HandleFunc("GET /api/views/{id}/content", folders.GetViewContent)
	mux.HandleFunc("POST /api/views/{id}/move", folders.MoveView)
	mux.HandleFunc("POST /api/views/{id}/duplicate", folders.DuplicateView)
	mux.HandleFunc("POST /api/views/{id}/close", folders.CloseView)

	// Trash
	mux.HandleFunc("GET /api/trash", folders.ListTrash)
	mux.HandleFunc("POST /api/trash/restore", folders.RestoreAllTrash)
	mux.HandleFunc("DELETE /api/trash", folders.DeleteAllTrash)
	mux.HandleFunc("POST /api/trash/{id}/restore", folders.RestoreTrash)
	mux.HandleFunc("DELETE /api/trash/{id}", folders.DeleteTrash)

	// Import
	mux.HandleFunc("POST /api/import", folders.Import)

	// Notifications (SSE)
	mux.HandleFunc("GET /api/notifications", notifications.Stream)
}
