package content

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
	"canopy/internal/utils"
)

// maxGridColumns bounds the width of a grid
const maxGridColumns = 256

var defaultGridColumns = []string{"Name", "Notes"}

// gridBody is the stored form of grid, board and calendar views
type gridBody struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

func decodeGrid(data []byte) (*gridBody, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var g gridBody
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("invalid grid: %w", err)
	}
	if g.Rows == nil {
		g.Rows = [][]string{}
	}
	return &g, g.validate()
}

func (g *gridBody) validate() error {
	if len(g.Columns) == 0 {
		return errors.New("grid needs at least one column")
	}
	if len(g.Columns) > maxGridColumns {
		return fmt.Errorf("grid exceeds %d columns", maxGridColumns)
	}
	seen := make(map[string]struct{}, len(g.Columns))
	for _, col := range g.Columns {
		if strings.TrimSpace(col) == "" {
			return errors.New("grid column names cannot be blank")
		}
		if _, dup := seen[col]; dup {
			return fmt.Errorf("duplicate grid column %q", col)
		}
		seen[col] = struct{}{}
	}
	for i, row := range g.Rows {
		if len(row) != len(g.Columns) {
			return fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(g.Columns))
		}
	}
	return nil
}

func (g *gridBody) encode() ([]byte, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode grid: %w", err)
	}
	return data, nil
}

func (g *gridBody) wordCount() int {
	n := 0
	for _, row := range g.Rows {
		for _, cell := range row {
			n += utils.CountWords(cell)
		}
	}
	return n
}

// markdown renders the grid as a markdown table
func (g *gridBody) markdown() string {
	var b strings.Builder
	writeRow := func(cells []string) {
		b.WriteString("|")
		for _, c := range cells {
			b.WriteString(" ")
			b.WriteString(strings.ReplaceAll(strings.ReplaceAll(c, "|", `\|`), "\n", " "))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}
	writeRow(g.Columns)
	b.WriteString("|")
	for range g.Columns {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for _, row := range g.Rows {
		writeRow(row)
	}
	return b.String()
}

// gridFromMarkdown turns every non-blank line of a document into a row
func gridFromMarkdown(markdown string) *gridBody {
	g := &gridBody{Columns: defaultGridColumns, Rows: [][]string{}}
	for _, line := range strings.Split(markdown, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "#->*"))
		if line == "" {
			continue
		}
		g.Rows = append(g.Rows, []string{line, ""})
	}
	return g
}

// gridFromCSV reads a CSV table whose first record is the header
func gridFromCSV(data []byte) (*gridBody, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("invalid csv header: %w", err)
	}

	g := &gridBody{Columns: header, Rows: [][]string{}}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		g.Rows = append(g.Rows, record)
	}
	return g, g.validate()
}

func isTabular(layout models.ViewLayout) bool {
	switch layout {
	case models.LayoutGrid, models.LayoutBoard, models.LayoutCalendar:
		return true
	}
	return false
}

// GridHandler stores tabular views (grid, board and calendar) as JSON
// columns and rows.
type GridHandler struct {
	store  *contentStore
	logger *slog.Logger
}

// NewGridHandler creates a grid handler. importRoot bounds ImportFromFilePath;
// empty disables path imports.
func NewGridHandler(repo folderRepo.ContentRepository, importRoot string, logger *slog.Logger) *GridHandler {
	return &GridHandler{
		store:  newContentStore(repo, importRoot, logger),
		logger: logger,
	}
}

func (h *GridHandler) CreateBuiltInView(ctx context.Context, userID, viewID, name string, layout models.ViewLayout) error {
	return h.put(ctx, viewID, layout, &gridBody{Columns: defaultGridColumns, Rows: [][]string{}}, nil)
}

func (h *GridHandler) CreateViewWithViewData(ctx context.Context, userID, viewID, name string, data []byte, layout models.ViewLayout, meta map[string]string) error {
	g, err := decodeGrid(data)
	if err != nil {
		return domain.NewValidation("%v", err)
	}
	return h.put(ctx, viewID, layout, g, meta)
}

func (h *GridHandler) put(ctx context.Context, viewID string, layout models.ViewLayout, g *gridBody, meta map[string]string) error {
	body, err := g.encode()
	if err != nil {
		return err
	}
	return h.store.save(ctx, &folderRepo.ViewContent{
		ViewID:    viewID,
		Layout:    layout.String(),
		Body:      body,
		WordCount: g.wordCount(),
		Meta:      meta,
	})
}

func (h *GridHandler) CloseView(ctx context.Context, viewID string) error {
	h.store.evict(viewID)
	return nil
}

func (h *GridHandler) DuplicateView(ctx context.Context, viewID string) ([]byte, error) {
	c, err := h.store.load(ctx, viewID)
	if err != nil {
		return nil, err
	}
	return bytes.Clone(c.Body), nil
}

// DidUpdateView re-tags the content between tabular layouts and renders a
// markdown table when the view becomes a document.
func (h *GridHandler) DidUpdateView(ctx context.Context, old, updated models.View) error {
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

	if updated.Layout == models.LayoutDocument {
		g, err := decodeGrid(c.Body)
		if err != nil {
			return err
		}
		c.Body = []byte(g.markdown())
		c.WordCount = utils.CountWords(string(c.Body))
	}
	c.Layout = updated.Layout.String()
	if err := h.store.save(ctx, c); err != nil {
		return err
	}
	if updated.Layout == models.LayoutDocument {
		h.store.evict(updated.ID)
	}
	return nil
}

// ImportFromBytes accepts grid JSON or CSV with a header record
func (h *GridHandler) ImportFromBytes(ctx context.Context, viewID, name string, data []byte) error {
	var (
		g   *gridBody
		err error
	)
	if json.Valid(data) {
		g, err = decodeGrid(data)
	} else {
		g, err = gridFromCSV(data)
	}
	if err != nil {
		return domain.NewValidation("import %s: %v", name, err)
	}
	return h.put(ctx, viewID, models.LayoutGrid, g, nil)
}

func (h *GridHandler) ImportFromFilePath(ctx context.Context, viewID, name, filePath string) error {
	resolved, data, err := h.store.readImportFile(filePath)
	if err != nil {
		return err
	}

	var g *gridBody
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".csv":
		g, err = gridFromCSV(data)
	case ".json":
		g, err = decodeGrid(data)
	default:
		return domain.NewValidation("unsupported file type for grid import: %s", ext)
	}
	if err != nil {
		return domain.NewValidation("import %s: %v", filePath, err)
	}

	h.logger.Info("grid imported",
		"view_id", viewID,
		"file", filepath.Base(resolved),
		"rows", len(g.Rows),
	)
	return h.put(ctx, viewID, models.LayoutGrid, g, map[string]string{"file": filepath.Base(resolved)})
}

func (h *GridHandler) RemoveView(ctx context.Context, viewID string) error {
	return h.store.remove(ctx, viewID)
}

// Content returns the stored content of a view
func (h *GridHandler) Content(ctx context.Context, viewID string) (*folderRepo.ViewContent, error) {
	return h.store.load(ctx, viewID)
}
