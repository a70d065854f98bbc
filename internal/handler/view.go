package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/httputil"
)

// CreateView handles POST /api/views
// Returns 201 with the created view
func (h *FolderHandler) CreateView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req folderSvc.CreateViewParams
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := svc.CreateViewWithParams(r.Context(), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// GetView handles GET /api/views/{id}
func (h *FolderHandler) GetView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	node, err := svc.GetView(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// GetViewChildren handles GET /api/views/{id}/children
// Lists every child record, trashed ones included
func (h *FolderHandler) GetViewChildren(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	views, err := svc.GetViewsBelongTo(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, views)
}

// GetViewContent handles GET /api/views/{id}/content
func (h *FolderHandler) GetViewContent(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	node, err := svc.GetView(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.content.Content(r.Context(), models.View{ID: node.ID, Layout: node.Layout})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contentResponse{
		ViewID:    c.ViewID,
		Layout:    c.Layout,
		Body:      string(c.Body),
		WordCount: c.WordCount,
		Meta:      c.Meta,
		UpdatedAt: c.UpdatedAt,
	})
}

// UpdateView handles PATCH /api/views/{id}
func (h *FolderHandler) UpdateView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req updateViewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	id := r.PathValue("id")
	err := svc.UpdateViewWithParams(r.Context(), &folderSvc.UpdateViewParams{
		ViewID: id,
		Name:   req.Name,
		Desc:   req.Desc.Patch(),
		Layout: req.Layout,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	node, err := svc.GetView(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteView handles DELETE /api/views/{id}
// Moves the view to the trash; ?permanent=true deletes it with its descendants
func (h *FolderHandler) DeleteView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	permanent := false
	if raw := r.URL.Query().Get("permanent"); raw != "" {
		var err error
		if permanent, err = strconv.ParseBool(raw); err != nil {
			httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid permanent flag %q", raw))
			return
		}
	}

	id := r.PathValue("id")
	var err error
	if permanent {
		err = svc.DeleteView(r.Context(), id)
	} else {
		err = svc.MoveViewToTrash(r.Context(), id)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MoveView handles POST /api/views/{id}/move
func (h *FolderHandler) MoveView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req moveViewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", domain.ErrValidation, err))
		return
	}

	if err := svc.MoveView(r.Context(), r.PathValue("id"), req.From, req.To); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateView handles POST /api/views/{id}/duplicate
func (h *FolderHandler) DuplicateView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	view, err := svc.DuplicateView(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, view)
}

// CloseView handles POST /api/views/{id}/close
func (h *FolderHandler) CloseView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	if err := svc.CloseView(r.Context(), r.PathValue("id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetCurrentView handles GET /api/views/current
func (h *FolderHandler) GetCurrentView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	node, err := svc.GetCurrentView(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, node)
}

// SetCurrentView handles PUT /api/views/current
func (h *FolderHandler) SetCurrentView(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.service(w, r)
	if !ok {
		return
	}

	var req setCurrentViewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := svc.SetCurrentView(r.Context(), req.ViewID); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
