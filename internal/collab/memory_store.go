package collab

import (
	"context"
	"sync"

	"canopy/internal/domain"
	folderRepo "canopy/internal/domain/repositories/folder"
)

// MemoryStore keeps snapshots in process memory. It implements both
// SnapshotStore and SnapshotFeed, so several engines sharing one store behave
// like remote collaborators.
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string]*folderRepo.Snapshot
	watchers  map[string]map[int]func(origin string)
	nextWatch int
	saves     int
}

var (
	_ folderRepo.SnapshotStore = (*MemoryStore)(nil)
	_ folderRepo.SnapshotFeed  = (*MemoryStore)(nil)
)

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots: make(map[string]*folderRepo.Snapshot),
		watchers:  make(map[string]map[int]func(string)),
	}
}

// Load returns a copy of the latest snapshot
func (m *MemoryStore) Load(ctx context.Context, workspaceID string) (*folderRepo.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap, ok := m.snapshots[workspaceID]
	if !ok {
		return nil, domain.NewNotFound("folder snapshot %s not found", workspaceID)
	}
	out := *snap
	out.Data = snap.Data.Clone()
	return &out, nil
}

// Save stores a copy and notifies watchers outside the lock
func (m *MemoryStore) Save(ctx context.Context, snapshot *folderRepo.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := *snapshot
	stored.Data = snapshot.Data.Clone()

	m.mu.Lock()
	m.snapshots[snapshot.WorkspaceID] = &stored
	m.saves++
	fns := make([]func(string), 0, len(m.watchers[snapshot.WorkspaceID]))
	for _, fn := range m.watchers[snapshot.WorkspaceID] {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(snapshot.Origin)
	}
	return nil
}

// Watch registers fn for saves of workspaceID
func (m *MemoryStore) Watch(workspaceID string, fn func(origin string)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextWatch
	m.nextWatch++
	if m.watchers[workspaceID] == nil {
		m.watchers[workspaceID] = make(map[int]func(string))
	}
	m.watchers[workspaceID][id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.watchers[workspaceID], id)
	}
}

// Saves reports how many snapshots were written
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
