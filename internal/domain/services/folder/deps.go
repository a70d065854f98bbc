package folder

import (
	"context"

	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// FolderUser is the session provider the manager asks for identity and storage
type FolderUser interface {
	UserID() (string, error)

	// CollabStore returns the snapshot store of the user. An error means the
	// user has no persisted tree; initialisation then becomes a no-op.
	CollabStore() (folderRepo.SnapshotStore, error)
}

// CloudService creates workspace records outside the tree
type CloudService interface {
	CreateWorkspace(ctx context.Context, userID, name string) (*models.Workspace, error)
	ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error)
}

// NotificationSink delivers notifications. Send is best-effort and must not block.
type NotificationSink interface {
	Send(n models.Notification)
}
