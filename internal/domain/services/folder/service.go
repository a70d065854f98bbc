package folder

import (
	"context"

	models "canopy/internal/domain/models/folder"
)

// FolderService is the public surface of the folder manager
type FolderService interface {
	Initialize(ctx context.Context, userID, workspaceID string) error
	InitializeWithNewUser(ctx context.Context, userID, workspaceID string) error
	Clear(ctx context.Context, userID string)

	// Workspaces
	CreateWorkspace(ctx context.Context, params *CreateWorkspaceParams) (*models.Workspace, error)
	OpenWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error)
	GetWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error)
	GetAllWorkspaces(ctx context.Context) []models.Workspace
	GetCurrentWorkspace(ctx context.Context) (*models.Workspace, error)
	GetCurrentWorkspaceViews(ctx context.Context) ([]models.ViewNode, error)
	GetWorkspaceViews(ctx context.Context, workspaceID string) ([]models.ViewNode, error)

	// Views
	CreateViewWithParams(ctx context.Context, params *CreateViewParams) (*models.View, error)
	CreateViewWithData(ctx context.Context, viewID, name string, layout models.ViewLayout, data []byte) error
	CloseView(ctx context.Context, viewID string) error
	GetView(ctx context.Context, viewID string) (*models.ViewNode, error)
	GetViewsBelongTo(ctx context.Context, parentViewID string) ([]models.View, error)
	DeleteView(ctx context.Context, viewID string) error
	MoveViewToTrash(ctx context.Context, viewID string) error
	MoveView(ctx context.Context, viewID string, from, to int) error
	UpdateViewWithParams(ctx context.Context, params *UpdateViewParams) error
	DuplicateView(ctx context.Context, viewID string) (*models.View, error)
	SetCurrentView(ctx context.Context, viewID string) error
	GetCurrentView(ctx context.Context) (*models.ViewNode, error)

	// Trash
	GetAllTrash(ctx context.Context) []models.TrashInfo
	RestoreTrash(ctx context.Context, trashID string) error
	RestoreAllTrash(ctx context.Context) error
	DeleteTrash(ctx context.Context, trashID string) error
	DeleteAllTrash(ctx context.Context) error

	Import(ctx context.Context, params *ImportParams) (*models.View, error)
}

// CreateWorkspaceParams represents a workspace creation request
type CreateWorkspaceParams struct {
	Name string `json:"name"`
	Desc string `json:"desc,omitempty"`
}

// CreateViewParams represents a view creation request
type CreateViewParams struct {
	ViewID       string            `json:"view_id,omitempty"` // generated when empty
	ParentViewID string            `json:"parent_view_id"`
	Name         string            `json:"name"`
	Desc         string            `json:"desc,omitempty"`
	Layout       models.ViewLayout `json:"layout"`
	InitialData  []byte            `json:"initial_data,omitempty"` // empty = built-in template
	Meta         map[string]string `json:"meta,omitempty"`
	SetAsCurrent bool              `json:"set_as_current,omitempty"`
}

// UpdateViewParams applies only the non-nil fields
type UpdateViewParams struct {
	ViewID string             `json:"view_id"`
	Name   *string            `json:"name,omitempty"`
	Desc   *string            `json:"desc,omitempty"`
	Layout *models.ViewLayout `json:"layout,omitempty"`
}

// ImportParams requires exactly one of Data or FilePath
type ImportParams struct {
	ParentViewID string            `json:"parent_view_id"`
	Name         string            `json:"name"`
	Layout       models.ViewLayout `json:"layout"`
	Data         []byte            `json:"data,omitempty"`
	FilePath     *string           `json:"file_path,omitempty"`
}
