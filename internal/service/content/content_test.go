package content

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	"canopy/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHandlers(t *testing.T) (*Handlers, *memory.ContentRepository, string) {
	t.Helper()
	root := t.TempDir()
	repo := memory.NewContentRepository()
	return NewHandlers(repo, root, testLogger()), repo, root
}

func TestNewHandlers_RegistersLayouts(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	for _, layout := range []models.ViewLayout{models.LayoutDocument, models.LayoutGrid, models.LayoutBoard, models.LayoutCalendar} {
		_, err := h.Registry.Get(layout)
		assert.NoError(t, err, layout)
	}
	doc, _ := h.Registry.Get(models.LayoutDocument)
	assert.Same(t, h.Document, doc)
	board, _ := h.Registry.Get(models.LayoutBoard)
	assert.Same(t, h.Grid, board)
}

func TestDocumentHandler_BuiltIn(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, h.Document.CreateBuiltInView(ctx, "u", "v1", "Meeting notes", models.LayoutDocument))

	c, err := h.Document.Content(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "# Meeting notes\n", string(c.Body))
	assert.Equal(t, 2, c.WordCount)
	assert.Equal(t, "document", c.Layout)
}

func TestDocumentHandler_FrontmatterRoundTrip(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	data := []byte("---\nauthor: Ada\n---\n# Draft\n")
	require.NoError(t, h.Document.CreateViewWithViewData(ctx, "u", "v1", "Draft", data, models.LayoutDocument,
		map[string]string{"status": "wip"}))

	c, err := h.Document.Content(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "# Draft\n", string(c.Body))
	assert.Equal(t, map[string]string{"author": "Ada", "status": "wip"}, c.Meta)

	dup, err := h.Document.DuplicateView(ctx, "v1")
	require.NoError(t, err)
	require.NoError(t, h.Document.CreateViewWithViewData(ctx, "u", "v2", "Draft (copy)", dup, models.LayoutDocument, nil))

	copied, err := h.Document.Content(ctx, "v2")
	require.NoError(t, err)
	assert.Equal(t, c.Body, copied.Body)
	assert.Equal(t, c.Meta, copied.Meta)
}

func TestDocumentHandler_RejectsInvalidUTF8(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	err := h.Document.CreateViewWithViewData(context.Background(), "u", "v1", "bin", []byte{0xff, 0xfe, 0x00}, models.LayoutDocument, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentHandler_ImportFromBytes(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	html := []byte("<!DOCTYPE html><html><body><h2>Plan</h2><script>steal()</script><p>ship it</p></body></html>")
	require.NoError(t, h.Document.ImportFromBytes(ctx, "v1", "Plan", html))

	c, err := h.Document.Content(ctx, "v1")
	require.NoError(t, err)
	assert.Contains(t, string(c.Body), "## Plan")
	assert.NotContains(t, string(c.Body), "steal")
	assert.Equal(t, "html", c.Meta["source"])
}

func TestDocumentHandler_ImportFromFilePath(t *testing.T) {
	h, _, root := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("# literally\nhello"), 0o600))

	require.NoError(t, h.Document.ImportFromFilePath(ctx, "v1", "Notes", "notes.txt"))
	c, err := h.Document.Content(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "\\# literally\nhello", string(c.Body))
	assert.Equal(t, "notes.txt", c.Meta["file"])

	err = h.Document.ImportFromFilePath(ctx, "v2", "Escape", "../outside.md")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = h.Document.ImportFromFilePath(ctx, "v3", "Missing", "missing.md")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, os.WriteFile(filepath.Join(root, "photo.png"), []byte("png"), 0o600))
	err = h.Document.ImportFromFilePath(ctx, "v4", "Photo", "photo.png")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentHandler_PathImportDisabled(t *testing.T) {
	h := NewHandlers(memory.NewContentRepository(), "", testLogger())

	err := h.Document.ImportFromFilePath(context.Background(), "v1", "n", "/tmp/a.md")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestDocumentHandler_SwitchToGrid(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, h.Document.CreateViewWithViewData(ctx, "u", "v1", "Todo", []byte("# Todo\n\n- buy milk\n- call mom\n"), models.LayoutDocument, nil))

	old := models.View{ID: "v1", Layout: models.LayoutDocument}
	updated := models.View{ID: "v1", Layout: models.LayoutBoard}
	require.NoError(t, h.Document.DidUpdateView(ctx, old, updated))

	c, err := h.Grid.Content(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, "board", c.Layout)

	var g gridBody
	require.NoError(t, json.Unmarshal(c.Body, &g))
	assert.Equal(t, [][]string{{"Todo", ""}, {"buy milk", ""}, {"call mom", ""}}, g.Rows)
}

func TestDocumentHandler_DidUpdateWithoutContent(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	err := h.Document.DidUpdateView(context.Background(),
		models.View{ID: "ghost", Layout: models.LayoutDocument},
		models.View{ID: "ghost", Layout: models.LayoutGrid})
	assert.NoError(t, err)
}

func TestGridHandler_CreateWithData(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "valid", data: `{"columns":["Task","Owner"],"rows":[["write","ann"]]}`},
		{name: "no rows", data: `{"columns":["Task"]}`},
		{name: "ragged row", data: `{"columns":["Task","Owner"],"rows":[["write"]]}`, wantErr: true},
		{name: "no columns", data: `{"columns":[],"rows":[]}`, wantErr: true},
		{name: "duplicate column", data: `{"columns":["a","a"],"rows":[]}`, wantErr: true},
		{name: "unknown field", data: `{"columns":["a"],"cells":[]}`, wantErr: true},
		{name: "not json", data: `a,b`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, _ := newTestHandlers(t)
			err := h.Grid.CreateViewWithViewData(context.Background(), "u", "g", "Grid", []byte(tt.data), models.LayoutGrid, nil)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGridHandler_ImportCSV(t *testing.T) {
	h, _, root := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, h.Grid.ImportFromBytes(ctx, "g1", "Tasks", []byte("Task, Owner\nwrite docs, ann\nreview, bo\n")))
	c, err := h.Grid.Content(ctx, "g1")
	require.NoError(t, err)

	var g gridBody
	require.NoError(t, json.Unmarshal(c.Body, &g))
	assert.Equal(t, []string{"Task", "Owner"}, g.Columns)
	assert.Len(t, g.Rows, 2)
	assert.Equal(t, 5, c.WordCount)

	require.NoError(t, os.WriteFile(filepath.Join(root, "t.csv"), []byte("a,b\n1,2\n"), 0o600))
	require.NoError(t, h.Grid.ImportFromFilePath(ctx, "g2", "T", "t.csv"))

	require.NoError(t, os.WriteFile(filepath.Join(root, "t.md"), []byte("# no"), 0o600))
	err = h.Grid.ImportFromFilePath(ctx, "g3", "T", "t.md")
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = h.Grid.ImportFromBytes(ctx, "g4", "Ragged", []byte("a,b\n1\n"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestGridHandler_SwitchToDocument(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, h.Grid.CreateViewWithViewData(ctx, "u", "g", "Grid",
		[]byte(`{"columns":["Task","Note"],"rows":[["a|b","x"]]}`), models.LayoutGrid, nil))

	require.NoError(t, h.Grid.DidUpdateView(ctx,
		models.View{ID: "g", Layout: models.LayoutGrid},
		models.View{ID: "g", Layout: models.LayoutDocument}))

	c, err := h.Document.Content(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, "| Task | Note |\n|---|---|\n| a\\|b | x |\n", string(c.Body))
	assert.Equal(t, "document", c.Layout)
}

func TestHandlers_CloseAndRemove(t *testing.T) {
	h, repo, _ := newTestHandlers(t)
	ctx := context.Background()

	require.NoError(t, h.Grid.CreateBuiltInView(ctx, "u", "g", "Grid", models.LayoutCalendar))
	_, err := h.Grid.Content(ctx, "g")
	require.NoError(t, err)
	assert.True(t, h.Grid.store.isOpen("g"))

	require.NoError(t, h.Grid.CloseView(ctx, "g"))
	assert.False(t, h.Grid.store.isOpen("g"))

	require.NoError(t, h.Grid.RemoveView(ctx, "g"))
	assert.Equal(t, 0, repo.Len())
	_, err = h.Grid.Content(ctx, "g")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// removing twice is fine
	assert.NoError(t, h.Grid.RemoveView(ctx, "g"))
}
