package memory

import (
	"bytes"
	"context"
	"maps"
	"sync"

	"canopy/internal/domain"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// ContentRepository keeps view content in process memory
type ContentRepository struct {
	mu       sync.RWMutex
	contents map[string]folderRepo.ViewContent
}

var _ folderRepo.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository creates an empty repository
func NewContentRepository() *ContentRepository {
	return &ContentRepository{contents: make(map[string]folderRepo.ViewContent)}
}

func (r *ContentRepository) Upsert(ctx context.Context, content *folderRepo.ViewContent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyContent(*content)
	if existing, ok := r.contents[content.ViewID]; ok {
		stored.CreatedAt = existing.CreatedAt
	}
	r.contents[content.ViewID] = stored
	return nil
}

func (r *ContentRepository) Get(ctx context.Context, viewID string) (*folderRepo.ViewContent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.contents[viewID]
	if !ok {
		return nil, domain.NewNotFound("content of view %s not found", viewID)
	}
	out := copyContent(c)
	return &out, nil
}

func (r *ContentRepository) Delete(ctx context.Context, viewID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.contents[viewID]; !ok {
		return domain.NewNotFound("content of view %s not found", viewID)
	}
	delete(r.contents, viewID)
	return nil
}

// Len returns the number of stored contents
func (r *ContentRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contents)
}

func copyContent(c folderRepo.ViewContent) folderRepo.ViewContent {
	c.Body = bytes.Clone(c.Body)
	c.Meta = maps.Clone(c.Meta)
	return c
}
