package folder

import (
	"context"

	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// Folder is one loaded tree snapshot as offered by the collaboration engine.
// All methods are synchronous and never block on I/O; callers serialise access.
type Folder interface {
	// Workspaces
	GetWorkspace(id string) (*models.Workspace, bool)
	GetAllWorkspaces() []models.Workspace
	CreateWorkspace(ws models.Workspace)
	GetCurrentWorkspaceID() (string, bool)
	SetCurrentWorkspace(id string)
	GetWorkspaceViews(workspaceID string) []models.View

	// Views
	GetView(id string) (*models.View, bool)
	GetViews(ids []string) []models.View
	GetViewsBelongTo(parentID string) []models.View
	InsertView(view models.View)
	DeleteViews(ids []string)
	MoveView(id string, from, to int) (*models.View, bool)
	UpdateView(id string, update models.ViewUpdate) (*models.View, bool)
	GetCurrentView() (string, bool)
	SetCurrentView(id string)

	// Trash
	GetAllTrash() []models.TrashInfo
	AddTrash(records []models.TrashRecord)
	DeleteTrash(ids []string)
	ClearTrash()

	// CreateWithData replaces the whole content with a seed
	CreateWithData(data *models.FolderData)

	// SubscribeStateChange returns the collaboration state stream of this folder.
	// The stream survives Reload and is closed by Close.
	SubscribeStateChange() <-chan models.StateChange

	// Reload rebuilds the folder from the collaboration store. The returned
	// folder shares this folder's change channels.
	Reload(ctx context.Context) (Folder, error)

	// Close releases the collaboration session and closes every change channel
	Close() error
}

// FolderContext carries the change channels the engine publishes to
type FolderContext struct {
	ViewChanges  chan models.ViewChange
	TrashChanges chan models.TrashChange
}

// NewFolderContext creates buffered change channels
func NewFolderContext(buffer int) FolderContext {
	return FolderContext{
		ViewChanges:  make(chan models.ViewChange, buffer),
		TrashChanges: make(chan models.TrashChange, buffer),
	}
}

// Handle identifies the collaborative object backing one user's folder
type Handle struct {
	UserID      string
	WorkspaceID string
	Store       folderRepo.SnapshotStore
}

// CollabEngine builds folders from collaborative storage
type CollabEngine interface {
	GetOrCreate(ctx context.Context, handle Handle, fctx FolderContext) (Folder, error)
}
