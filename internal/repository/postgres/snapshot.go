package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	"canopy/internal/domain/repositories"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// DefaultNotifyChannel is the LISTEN/NOTIFY channel announcing snapshot saves
const DefaultNotifyChannel = "folder_snapshots"

// snapshotNotice is the NOTIFY payload of one save
type snapshotNotice struct {
	WorkspaceID string `json:"workspace_id"`
	Origin      string `json:"origin"`
}

// SnapshotRepository persists folder snapshots as JSONB and announces every
// save on a NOTIFY channel in the same transaction.
type SnapshotRepository struct {
	pool    *pgxpool.Pool
	tables  *TableNames
	tx      repositories.TransactionManager
	channel string
	logger  *slog.Logger
}

var _ folderRepo.SnapshotStore = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a snapshot repository notifying on channel
func NewSnapshotRepository(config *RepositoryConfig, tx repositories.TransactionManager, channel string) *SnapshotRepository {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	return &SnapshotRepository{
		pool:    config.Pool,
		tables:  config.Tables,
		tx:      tx,
		channel: channel,
		logger:  config.Logger,
	}
}

// Load retrieves the latest snapshot of a workspace
func (r *SnapshotRepository) Load(ctx context.Context, workspaceID string) (*folderRepo.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT workspace_id, user_id, data, origin, updated_at
		FROM %s
		WHERE workspace_id = $1
	`, r.tables.FolderSnapshots)

	var (
		snap folderRepo.Snapshot
		raw  []byte
	)
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, workspaceID).Scan(
		&snap.WorkspaceID,
		&snap.UserID,
		&raw,
		&snap.Origin,
		&snap.UpdatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder snapshot %s: %w", workspaceID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("load folder snapshot: %w", err)
	}

	data := models.NewFolderData()
	if err := json.Unmarshal(raw, data); err != nil {
		return nil, fmt.Errorf("decode folder snapshot %s: %w", workspaceID, err)
	}
	snap.Data = data
	return &snap, nil
}

// Save upserts the snapshot and notifies listeners once the transaction commits
func (r *SnapshotRepository) Save(ctx context.Context, snapshot *folderRepo.Snapshot) error {
	raw, err := json.Marshal(snapshot.Data)
	if err != nil {
		return fmt.Errorf("encode folder snapshot: %w", err)
	}
	notice, err := json.Marshal(snapshotNotice{WorkspaceID: snapshot.WorkspaceID, Origin: snapshot.Origin})
	if err != nil {
		return fmt.Errorf("encode snapshot notice: %w", err)
	}

	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now()
	}

	upsert := fmt.Sprintf(`
		INSERT INTO %s (workspace_id, user_id, data, origin, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workspace_id) DO UPDATE
		SET data = EXCLUDED.data, origin = EXCLUDED.origin, updated_at = EXCLUDED.updated_at
	`, r.tables.FolderSnapshots)

	return r.tx.ExecTx(ctx, func(ctx context.Context) error {
		exec := GetExecutor(ctx, r.pool)
		if _, err := exec.Exec(ctx, upsert,
			snapshot.WorkspaceID,
			snapshot.UserID,
			raw,
			snapshot.Origin,
			snapshot.UpdatedAt,
		); err != nil {
			return fmt.Errorf("save folder snapshot: %w", err)
		}
		if _, err := exec.Exec(ctx, `SELECT pg_notify($1, $2)`, r.channel, string(notice)); err != nil {
			return fmt.Errorf("notify folder snapshot: %w", err)
		}
		return nil
	})
}
