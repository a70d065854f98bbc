package content

import (
	"context"
	"log/slog"

	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
	"canopy/internal/service/content/converter"
	"canopy/internal/service/folder"
)

// Handlers bundles the content handlers with the layout registry they are
// registered in.
type Handlers struct {
	Registry *folder.HandlerRegistry
	Document *DocumentHandler
	Grid     *GridHandler
}

// NewHandlers registers the document handler for documents and the grid
// handler for every tabular layout.
func NewHandlers(repo folderRepo.ContentRepository, importRoot string, logger *slog.Logger) *Handlers {
	h := &Handlers{
		Registry: folder.NewHandlerRegistry(),
		Document: NewDocumentHandler(repo, converter.NewRegistry(), importRoot, logger.With("handler", "document")),
		Grid:     NewGridHandler(repo, importRoot, logger.With("handler", "grid")),
	}
	h.Registry.Register(h.Document, models.LayoutDocument)
	h.Registry.Register(h.Grid, models.LayoutGrid, models.LayoutBoard, models.LayoutCalendar)
	return h
}

// Content returns the stored content of a view through the handler of its layout
func (h *Handlers) Content(ctx context.Context, view models.View) (*folderRepo.ViewContent, error) {
	if view.Layout == models.LayoutDocument {
		return h.Document.Content(ctx, view.ID)
	}
	return h.Grid.Content(ctx, view.ID)
}
