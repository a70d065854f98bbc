package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the tables of one environment when missing
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	statements := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				name       TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.Workspaces),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_user_idx ON %s (user_id, created_at)`,
			tables.Workspaces, tables.Workspaces),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				workspace_id TEXT PRIMARY KEY,
				user_id      TEXT NOT NULL,
				data         JSONB NOT NULL,
				origin       TEXT NOT NULL,
				updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.FolderSnapshots),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				view_id    TEXT PRIMARY KEY,
				layout     TEXT NOT NULL,
				body       BYTEA NOT NULL,
				word_count INTEGER NOT NULL DEFAULT 0,
				meta       JSONB,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, tables.ViewContents),
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// DropSchema drops every table of the environment
func DropSchema(ctx context.Context, pool *pgxpool.Pool, tables *TableNames) error {
	for _, table := range []string{tables.ViewContents, tables.FolderSnapshots, tables.Workspaces} {
		if _, err := pool.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s CASCADE`, table)); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return nil
}

// ClearUser removes the workspaces, snapshots and view contents of one user.
// View contents are found through the snapshots, so they go first.
func ClearUser(ctx context.Context, pool *pgxpool.Pool, tables *TableNames, userID string) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin clear: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	statements := []string{
		fmt.Sprintf(`
			DELETE FROM %s WHERE view_id IN (
				SELECT jsonb_object_keys(data->'views') FROM %s WHERE user_id = $1
			)`, tables.ViewContents, tables.FolderSnapshots),
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, tables.FolderSnapshots),
		fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1`, tables.Workspaces),
	}
	for _, stmt := range statements {
		if _, err := tx.Exec(ctx, stmt, userID); err != nil {
			return fmt.Errorf("clear user %s: %w", userID, err)
		}
	}
	return tx.Commit(ctx)
}
