package folder

import (
	"context"
	"time"
)

// ViewContent is the stored payload of a view
type ViewContent struct {
	ViewID    string            `json:"view_id"`
	Layout    string            `json:"layout"`
	Body      []byte            `json:"body"`
	WordCount int               `json:"word_count"`
	Meta      map[string]string `json:"meta,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// ContentRepository defines data access for view payloads
type ContentRepository interface {
	// Upsert creates or replaces the content of a view
	Upsert(ctx context.Context, content *ViewContent) error

	// Get retrieves the content of a view
	Get(ctx context.Context, viewID string) (*ViewContent, error)

	// Delete removes the content of a view
	Delete(ctx context.Context, viewID string) error
}
