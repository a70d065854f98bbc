package folder

import (
	"context"

	models "canopy/internal/domain/models/folder"
)

// ContentHandler owns the payload of every view of one layout.
// The folder manager decides when to call it; it never touches the tree.
type ContentHandler interface {
	// CreateBuiltInView materialises the default content of a new view
	CreateBuiltInView(ctx context.Context, userID, viewID, name string, layout models.ViewLayout) error

	// CreateViewWithViewData materialises a new view from caller supplied bytes
	CreateViewWithViewData(ctx context.Context, userID, viewID, name string, data []byte, layout models.ViewLayout, meta map[string]string) error

	// CloseView releases whatever the handler keeps open for the view
	CloseView(ctx context.Context, viewID string) error

	// DuplicateView returns bytes suitable for CreateViewWithViewData
	DuplicateView(ctx context.Context, viewID string) ([]byte, error)

	// DidUpdateView is called after the view record changed (e.g. layout switch)
	DidUpdateView(ctx context.Context, old, updated models.View) error

	ImportFromBytes(ctx context.Context, viewID, name string, data []byte) error
	ImportFromFilePath(ctx context.Context, viewID, name, filePath string) error
}

// ContentRemover is implemented by handlers that can purge stored content
// when a view is physically deleted.
type ContentRemover interface {
	RemoveView(ctx context.Context, viewID string) error
}
