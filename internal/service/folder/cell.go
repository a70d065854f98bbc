package folder

import (
	"sync"

	"canopy/internal/domain"
	folderSvc "canopy/internal/domain/services/folder"
)

// folderCell holds at most one loaded snapshot behind a mutex.
// Callbacks run with the lock held and must not block or call out to handlers.
type folderCell struct {
	mu     sync.Mutex
	folder folderSvc.Folder
}

// withFolder applies fn to the loaded folder, or returns def when none is loaded
func withFolder[T any](c *folderCell, def T, fn func(f folderSvc.Folder) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folder == nil {
		return def
	}
	return fn(c.folder)
}

// readFolder is withFolder for fallible reads; an empty cell is ErrNotInitialized
func readFolder[T any](c *folderCell, fn func(f folderSvc.Folder) (T, error)) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folder == nil {
		var zero T
		return zero, domain.ErrNotInitialized
	}
	return fn(c.folder)
}

// update applies fn to the loaded folder and fails with ErrNotInitialized when empty
func (c *folderCell) update(fn func(f folderSvc.Folder) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.folder == nil {
		return domain.ErrNotInitialized
	}
	return fn(c.folder)
}

// replace installs f and returns the previous folder
func (c *folderCell) replace(f folderSvc.Folder) folderSvc.Folder {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.folder
	c.folder = f
	return old
}

// take empties the cell and returns what it held
func (c *folderCell) take() folderSvc.Folder {
	return c.replace(nil)
}

func (c *folderCell) loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.folder != nil
}

// cellHandle is a non-owning reference to a registered cell
type cellHandle uint64

// cellRegistry resolves handles to cells. Listeners hold handles, never cells,
// so releasing the handle is enough to make them stop.
type cellRegistry struct {
	mu    sync.RWMutex
	next  cellHandle
	cells map[cellHandle]*folderCell
}

func newCellRegistry() *cellRegistry {
	return &cellRegistry{cells: make(map[cellHandle]*folderCell)}
}

func (r *cellRegistry) register(c *folderCell) cellHandle {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.cells[r.next] = c
	return r.next
}

func (r *cellRegistry) lookup(h cellHandle) (*folderCell, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[h]
	return c, ok
}

// reinstall puts f back into the cell of h. It fails when h was released in the
// meantime, so a torn-down session never gets a snapshot back.
func (r *cellRegistry) reinstall(h cellHandle, f folderSvc.Folder) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.cells[h]
	if !ok {
		return false
	}
	c.replace(f)
	return true
}

func (r *cellRegistry) release(h cellHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, h)
}
