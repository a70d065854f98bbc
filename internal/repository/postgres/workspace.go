package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// WorkspaceRepository records the workspaces of each user. It is the cloud
// service the folder manager asks for new workspace ids.
type WorkspaceRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

var _ folderSvc.CloudService = (*WorkspaceRepository)(nil)

// NewWorkspaceRepository creates a new workspace repository
func NewWorkspaceRepository(config *RepositoryConfig) *WorkspaceRepository {
	return &WorkspaceRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// CreateWorkspace inserts a workspace record with a fresh id
func (r *WorkspaceRepository) CreateWorkspace(ctx context.Context, userID, name string) (*models.Workspace, error) {
	ws := &models.Workspace{
		ID:         uuid.NewString(),
		Name:       name,
		ChildViews: []string{},
		CreatedAt:  time.Now(),
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, name, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, r.tables.Workspaces)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, ws.ID, userID, ws.Name, ws.CreatedAt).Scan(&ws.CreatedAt)
	if err != nil {
		if isPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("workspace %s already exists", ws.ID),
				ResourceType: "workspace",
				ResourceID:   ws.ID,
			}
		}
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	return ws, nil
}

// ListWorkspaces returns the workspaces of a user, oldest first
func (r *WorkspaceRepository) ListWorkspaces(ctx context.Context, userID string) ([]models.Workspace, error) {
	query := fmt.Sprintf(`
		SELECT id, name, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at, id
	`, r.tables.Workspaces)

	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := []models.Workspace{}
	for rows.Next() {
		ws := models.Workspace{ChildViews: []string{}}
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}

	return workspaces, nil
}
