package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
	"canopy/internal/service/content/converter"
	"canopy/internal/utils"
)

// DocumentHandler stores markdown documents. Imported html and plain text are
// converted to markdown; YAML frontmatter becomes view metadata.
type DocumentHandler struct {
	store      *contentStore
	converters *converter.Registry
	logger     *slog.Logger
}

// NewDocumentHandler creates a document handler. importRoot bounds
// ImportFromFilePath; empty disables path imports.
func NewDocumentHandler(repo folderRepo.ContentRepository, converters *converter.Registry, importRoot string, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		store:      newContentStore(repo, importRoot, logger),
		converters: converters,
		logger:     logger,
	}
}

func (h *DocumentHandler) CreateBuiltInView(ctx context.Context, userID, viewID, name string, layout models.ViewLayout) error {
	body := []byte(fmt.Sprintf("# %s\n", name))
	return h.put(ctx, viewID, layout, body, nil)
}

func (h *DocumentHandler) CreateViewWithViewData(ctx context.Context, userID, viewID, name string, data []byte, layout models.ViewLayout, meta map[string]string) error {
	if !utf8.Valid(data) {
		return domain.NewValidation("document content must be valid UTF-8")
	}
	front, body, err := utils.SplitFrontmatter(data)
	if err != nil {
		return domain.NewValidation("%v", err)
	}
	return h.put(ctx, viewID, layout, body, mergeMeta(front, meta))
}

func (h *DocumentHandler) put(ctx context.Context, viewID string, layout models.ViewLayout, body []byte, meta map[string]string) error {
	return h.store.save(ctx, &folderRepo.ViewContent{
		ViewID:    viewID,
		Layout:    layout.String(),
		Body:      body,
		WordCount: utils.CountWords(string(body)),
		Meta:      meta,
	})
}

func (h *DocumentHandler) CloseView(ctx context.Context, viewID string) error {
	h.store.evict(viewID)
	return nil
}

// DuplicateView returns the body with its metadata rendered back as frontmatter
func (h *DocumentHandler) DuplicateView(ctx context.Context, viewID string) ([]byte, error) {
	c, err := h.store.load(ctx, viewID)
	if err != nil {
		return nil, err
	}
	if len(c.Meta) == 0 {
		return bytes.Clone(c.Body), nil
	}

	front, err := yaml.Marshal(c.Meta)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(front)
	buf.WriteString("---\n")
	buf.Write(c.Body)
	return buf.Bytes(), nil
}

// DidUpdateView converts the document into a grid when the view switches to
// a tabular layout: every non-blank line becomes a row.
func (h *DocumentHandler) DidUpdateView(ctx context.Context, old, updated models.View) error {
	if old.Layout == updated.Layout {
		return nil
	}
	c, err := h.store.load(ctx, updated.ID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}

	if isTabular(updated.Layout) {
		g := gridFromMarkdown(string(c.Body))
		c.Body, err = g.encode()
		if err != nil {
			return err
		}
		c.WordCount = g.wordCount()
	}
	c.Layout = updated.Layout.String()

	h.logger.Debug("document layout changed",
		"view_id", updated.ID,
		"from", old.Layout,
		"to", updated.Layout,
	)
	if err := h.store.save(ctx, c); err != nil {
		return err
	}
	// the grid handler owns the view from now on
	if isTabular(updated.Layout) {
		h.store.evict(updated.ID)
	}
	return nil
}

// ImportFromBytes picks a converter from the extension of name, or by sniffing
func (h *DocumentHandler) ImportFromBytes(ctx context.Context, viewID, name string, data []byte) error {
	conv := h.converters.ForExtension(filepath.Ext(name))
	if conv == nil {
		conv = h.converters.Sniff(data)
	}
	markdown, err := conv.Convert(ctx, data)
	if err != nil {
		return domain.NewValidation("import %s: %v", name, err)
	}
	return h.CreateViewWithViewData(ctx, "", viewID, name, []byte(markdown), models.LayoutDocument,
		map[string]string{"source": conv.Name()})
}

func (h *DocumentHandler) ImportFromFilePath(ctx context.Context, viewID, name, filePath string) error {
	resolved, data, err := h.store.readImportFile(filePath)
	if err != nil {
		return err
	}
	conv, err := h.converters.Resolve(resolved, data)
	if err != nil {
		return domain.NewValidation("%v", err)
	}
	markdown, err := conv.Convert(ctx, data)
	if err != nil {
		return domain.NewValidation("import %s: %v", filePath, err)
	}

	h.logger.Info("document imported",
		"view_id", viewID,
		"file", filepath.Base(resolved),
		"converter", conv.Name(),
	)
	return h.CreateViewWithViewData(ctx, "", viewID, name, []byte(markdown), models.LayoutDocument,
		map[string]string{"source": conv.Name(), "file": filepath.Base(resolved)})
}

func (h *DocumentHandler) RemoveView(ctx context.Context, viewID string) error {
	return h.store.remove(ctx, viewID)
}

// Content returns the stored content of a view
func (h *DocumentHandler) Content(ctx context.Context, viewID string) (*folderRepo.ViewContent, error) {
	return h.store.load(ctx, viewID)
}
