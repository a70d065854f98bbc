package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// WorkspaceRepository records workspaces per user in process memory
type WorkspaceRepository struct {
	mu         sync.Mutex
	workspaces map[string][]models.Workspace
}

var _ folderSvc.CloudService = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository creates an empty repository
func NewWorkspaceRepository() *WorkspaceRepository {
	return &WorkspaceRepository{workspaces: make(map[string][]models.Workspace)}
}

func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, userID, name string) (*models.Workspace, error) {
	ws := models.Workspace{
		ID:         uuid.NewString(),
		Name:       name,
		ChildViews: []string{},
		CreatedAt:  time.Now(),
	}

	r.mu.Lock()
	r.workspaces[userID] = append(r.workspaces[userID], ws)
	r.mu.Unlock()

	out := ws.Clone()
	return &out, nil
}

// ListWorkspaces returns the workspaces of a user, oldest first
func (r *WorkspaceRepository) ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.Workspace, 0, len(r.workspaces[userID]))
	for _, ws := range r.workspaces[userID] {
		out = append(out, ws.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
