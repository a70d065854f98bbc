package folder

import (
	"context"
	"time"

	models "canopy/internal/domain/models/folder"
)

// Snapshot is one persisted folder revision
type Snapshot struct {
	WorkspaceID string
	UserID      string
	Data        *models.FolderData
	Origin      string // id of the engine instance that wrote it
	UpdatedAt   time.Time
}

// SnapshotStore persists folder snapshots
type SnapshotStore interface {
	// Load returns the latest snapshot; domain.ErrNotFound when none exists
	Load(ctx context.Context, workspaceID string) (*Snapshot, error)

	// Save upserts the snapshot and announces it to every feed subscriber
	Save(ctx context.Context, snapshot *Snapshot) error
}

// SnapshotFeed announces saves made by any engine instance
type SnapshotFeed interface {
	// Watch calls fn with the writer's origin for every save of workspaceID.
	// The returned func unsubscribes.
	Watch(workspaceID string, fn func(origin string)) (unsubscribe func())
}
