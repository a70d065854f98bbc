package handler

import (
	"net/http"

	"canopy/internal/httputil"
)

// ListTrash handles GET /api/trash
func (h *FolderHandler) ListTrash(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	httputil.RespondJSON(w, http.StatusOK, svc.GetAllTrash(r.Context()))
}

// RestoreTrash handles POST /api/trash/{id}/restore
func (h *FolderHandler) RestoreTrash(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.RestoreTrash(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreAllTrash handles POST /api/trash/restore
func (h *FolderHandler) RestoreAllTrash(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.RestoreAllTrash(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTrash handles DELETE /api/trash/{id}
func (h *FolderHandler) DeleteTrash(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.DeleteTrash(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllTrash handles DELETE /api/trash
func (h *FolderHandler) DeleteAllTrash(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}
	if err := svc.DeleteAllTrash(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
