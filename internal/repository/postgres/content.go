package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/domain"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// ContentRepository stores view payloads
type ContentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

var _ folderRepo.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates a new content repository
func NewContentRepository(config *RepositoryConfig) *ContentRepository {
	return &ContentRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Upsert creates or replaces the content of a view, keeping its created_at
func (r *ContentRepository) Upsert(ctx context.Context, content *folderRepo.ViewContent) error {
	var meta []byte
	if len(content.Meta) > 0 {
		var err error
		if meta, err = json.Marshal(content.Meta); err != nil {
			return fmt.Errorf("encode content meta: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (view_id, layout, body, word_count, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (view_id) DO UPDATE
		SET layout = EXCLUDED.layout,
		    body = EXCLUDED.body,
		    word_count = EXCLUDED.word_count,
		    meta = EXCLUDED.meta,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at
	`, r.tables.ViewContents)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		content.ViewID,
		content.Layout,
		content.Body,
		content.WordCount,
		meta,
		content.CreatedAt,
		content.UpdatedAt,
	).Scan(&content.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert view content: %w", err)
	}
	return nil
}

// Get retrieves the content of a view
func (r *ContentRepository) Get(ctx context.Context, viewID string) (*folderRepo.ViewContent, error) {
	query := fmt.Sprintf(`
		SELECT view_id, layout, body, word_count, meta, created_at, updated_at
		FROM %s
		WHERE view_id = $1
	`, r.tables.ViewContents)

	var (
		c    folderRepo.ViewContent
		meta []byte
	)
	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, viewID).Scan(
		&c.ViewID,
		&c.Layout,
		&c.Body,
		&c.WordCount,
		&meta,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("content of view %s: %w", viewID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get view content: %w", err)
	}

	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &c.Meta); err != nil {
			return nil, fmt.Errorf("decode content meta: %w", err)
		}
	}
	return &c, nil
}

// Delete removes the content of a view
func (r *ContentRepository) Delete(ctx context.Context, viewID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE view_id = $1`, r.tables.ViewContents)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, viewID)
	if err != nil {
		return fmt.Errorf("delete view content: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("content of view %s: %w", viewID, domain.ErrNotFound)
	}
	return nil
}
