package handler

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	models "canopy/internal/domain/models/folder"
	"canopy/internal/httputil"
)

// workspaceResponse is the current workspace with its top-level views
type workspaceResponse struct {
	models.Workspace
	Views []models.ViewNode `json:"views"`
}

// updateViewRequest is the PATCH body of a view. A null desc clears it.
type updateViewRequest struct {
	Name   *string                 `json:"name"`
	Desc   httputil.OptionalString `json:"desc"`
	Layout *models.ViewLayout      `json:"layout"`
}

// moveViewRequest reorders a view among its siblings
type moveViewRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (r moveViewRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.Min(0)),
		validation.Field(&r.To, validation.Min(0)),
	)
}

// setCurrentViewRequest selects the current view; an empty id clears it
type setCurrentViewRequest struct {
	ViewID string `json:"view_id"`
}

// contentResponse is the stored payload of a view
type contentResponse struct {
	ViewID    string            `json:"view_id"`
	Layout    string            `json:"layout"`
	Body      string            `json:"body"`
	WordCount int               `json:"word_count"`
	Meta      map[string]string `json:"meta,omitempty"`
	UpdatedAt time.Time         `json:"updated_at"`
}
