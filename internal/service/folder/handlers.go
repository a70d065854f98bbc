package folder

import (
	"sort"
	"sync"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// HandlerRegistry maps view layouts to the content handler that owns them.
// Registration stays open so new layouts can be plugged in at startup.
//
// Thread-safe for concurrent access.
type HandlerRegistry struct {
	mu       sync.RWMutex
	handlers map[models.ViewLayout]folderSvc.ContentHandler
}

// NewHandlerRegistry creates an empty registry
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		handlers: make(map[models.ViewLayout]folderSvc.ContentHandler),
	}
}

// Register associates a handler with one or more layouts, replacing previous entries
func (r *HandlerRegistry) Register(handler folderSvc.ContentHandler, layouts ...models.ViewLayout) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range layouts {
		r.handlers[l] = handler
	}
}

// Get returns the handler of a layout or an UnknownLayoutError
func (r *HandlerRegistry) Get(layout models.ViewLayout) (folderSvc.ContentHandler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[layout]
	if !ok {
		return nil, &domain.UnknownLayoutError{Layout: string(layout)}
	}
	return h, nil
}

// Layouts lists the registered layouts, sorted
func (r *HandlerRegistry) Layouts() []models.ViewLayout {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ViewLayout, 0, len(r.handlers))
	for l := range r.handlers {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
