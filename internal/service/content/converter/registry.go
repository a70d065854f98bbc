package converter

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	contentSvc "canopy/internal/domain/services/content"
)

// Registry routes imported files to a converter, by extension first and by
// media type when the name carries no known extension.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu           sync.RWMutex
	byExtension  map[string]contentSvc.Converter // key: ".html"
	byMediaType  map[string]contentSvc.Converter // key: "text/html"
	fallbackType string
}

// NewRegistry creates a registry with the markdown, text and html converters.
// Content that matches nothing is treated as markdown.
func NewRegistry() *Registry {
	r := &Registry{
		byExtension:  make(map[string]contentSvc.Converter),
		byMediaType:  make(map[string]contentSvc.Converter),
		fallbackType: "text/markdown",
	}
	r.Register(NewMarkdownConverter())
	r.Register(NewTextConverter())
	r.Register(NewHTMLConverter())
	return r
}

// Register adds a converter under its extensions and media types.
// Extensions are normalised to lowercase with a leading dot.
func (r *Registry) Register(c contentSvc.Converter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range c.Extensions() {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		r.byExtension[ext] = c
	}
	for _, mt := range c.MediaTypes() {
		r.byMediaType[strings.ToLower(mt)] = c
	}
}

// ForExtension returns the converter of a file extension, or nil
func (r *Registry) ForExtension(ext string) contentSvc.Converter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byExtension[strings.ToLower(ext)]
}

// ForMediaType returns the converter of a media type, or nil. Parameters such
// as charset are ignored.
func (r *Registry) ForMediaType(mediaType string) contentSvc.Converter {
	if parsed, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = parsed
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byMediaType[strings.ToLower(mediaType)]
}

// Resolve picks the converter for a named payload. A name with an unknown
// extension is an error; a name without extension falls back to sniffing.
func (r *Registry) Resolve(name string, content []byte) (contentSvc.Converter, error) {
	if ext := filepath.Ext(name); ext != "" {
		if c := r.ForExtension(ext); c != nil {
			return c, nil
		}
		return nil, fmt.Errorf("unsupported file type: %s", ext)
	}

	return r.Sniff(content), nil
}

// Sniff picks a converter from the leading bytes of content. Anything not
// recognised as a richer format is treated as markdown.
func (r *Registry) Sniff(content []byte) contentSvc.Converter {
	sniffed := http.DetectContentType(content)
	if c := r.ForMediaType(sniffed); c != nil && !strings.HasPrefix(sniffed, "text/plain") {
		return c
	}
	return r.ForMediaType(r.fallbackType)
}

// Convert resolves the converter for name and converts content
func (r *Registry) Convert(ctx context.Context, name string, content []byte) (string, error) {
	c, err := r.Resolve(name, content)
	if err != nil {
		return "", err
	}
	return c.Convert(ctx, content)
}

// Extensions returns all registered extensions, sorted
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExtension))
	for ext := range r.byExtension {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
