package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"canopy/internal/config"
	"canopy/internal/domain"
	folderRepo "canopy/internal/domain/repositories/folder"
	"canopy/internal/utils"
)

// contentStore is the persistence shared by the handlers: the repository plus
// a cache of the views a client currently has open.
type contentStore struct {
	repo       folderRepo.ContentRepository
	importRoot string
	logger     *slog.Logger

	mu   sync.Mutex
	open map[string]folderRepo.ViewContent
}

func newContentStore(repo folderRepo.ContentRepository, importRoot string, logger *slog.Logger) *contentStore {
	return &contentStore{
		repo:       repo,
		importRoot: importRoot,
		logger:     logger,
		open:       make(map[string]folderRepo.ViewContent),
	}
}

func (s *contentStore) load(ctx context.Context, viewID string) (*folderRepo.ViewContent, error) {
	s.mu.Lock()
	cached, ok := s.open[viewID]
	s.mu.Unlock()
	if ok {
		return &cached, nil
	}

	c, err := s.repo.Get(ctx, viewID)
	if err != nil {
		return nil, fmt.Errorf("load content of %s: %w", viewID, err)
	}

	s.mu.Lock()
	s.open[viewID] = *c
	s.mu.Unlock()
	return c, nil
}

func (s *contentStore) save(ctx context.Context, c *folderRepo.ViewContent) error {
	now := time.Now()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := s.repo.Upsert(ctx, c); err != nil {
		return fmt.Errorf("save content of %s: %w", c.ViewID, err)
	}

	s.mu.Lock()
	if _, ok := s.open[c.ViewID]; ok {
		s.open[c.ViewID] = *c
	}
	s.mu.Unlock()
	return nil
}

func (s *contentStore) evict(viewID string) {
	s.mu.Lock()
	delete(s.open, viewID)
	s.mu.Unlock()
}

func (s *contentStore) remove(ctx context.Context, viewID string) error {
	s.evict(viewID)
	if err := s.repo.Delete(ctx, viewID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("remove content of %s: %w", viewID, err)
	}
	return nil
}

func (s *contentStore) isOpen(viewID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.open[viewID]
	return ok
}

// readImportFile reads a file below the import root, bounded by MaxImportBytes
func (s *contentStore) readImportFile(path string) (string, []byte, error) {
	resolved, err := utils.ResolveImportPath(s.importRoot, path)
	if err != nil {
		return "", nil, domain.NewValidation("%v", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil, domain.NewNotFound("import file %s not found", path)
		}
		return "", nil, fmt.Errorf("stat import file: %w", err)
	}
	if info.IsDir() {
		return "", nil, domain.NewValidation("import path %s is a directory", path)
	}
	if info.Size() > config.MaxImportBytes {
		return "", nil, domain.NewValidation("import file exceeds %d bytes", config.MaxImportBytes)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		return "", nil, fmt.Errorf("read import file: %w", err)
	}
	return resolved, data, nil
}

func mergeMeta(base, override map[string]string) map[string]string {
	if len(base) == 0 && len(override) == 0 {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
