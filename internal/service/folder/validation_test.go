package folder

import (
	"context"
	"strings"
	"testing"

	"canopy/internal/config"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidateCreateViewParams(t *testing.T) {
	tests := []struct {
		name    string
		params  folderSvc.CreateViewParams
		wantErr bool
	}{
		{name: "valid", params: folderSvc.CreateViewParams{ParentViewID: "p", Name: "n", Layout: models.LayoutGrid}},
		{name: "missing parent", params: folderSvc.CreateViewParams{Name: "n", Layout: models.LayoutGrid}, wantErr: true},
		{name: "missing layout", params: folderSvc.CreateViewParams{ParentViewID: "p", Name: "n"}, wantErr: true},
		{name: "unknown layout", params: folderSvc.CreateViewParams{ParentViewID: "p", Name: "n", Layout: models.ViewLayout("slides")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreateViewParams(&tt.params)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateUpdateViewParams(t *testing.T) {
	tests := []struct {
		name    string
		params  folderSvc.UpdateViewParams
		wantErr bool
	}{
		{name: "name only", params: folderSvc.UpdateViewParams{ViewID: "v", Name: ptr("n")}},
		{name: "nothing to change", params: folderSvc.UpdateViewParams{ViewID: "v"}},
		{name: "missing view id", params: folderSvc.UpdateViewParams{Name: ptr("n")}, wantErr: true},
		{name: "empty name", params: folderSvc.UpdateViewParams{ViewID: "v", Name: ptr("")}, wantErr: true},
		{name: "name too long", params: folderSvc.UpdateViewParams{ViewID: "v", Name: ptr(strings.Repeat("a", config.MaxViewNameLength+1))}, wantErr: true},
		{name: "known layout", params: folderSvc.UpdateViewParams{ViewID: "v", Layout: ptr(models.LayoutBoard)}},
		{name: "unknown layout", params: folderSvc.UpdateViewParams{ViewID: "v", Layout: ptr(models.ViewLayout("slides"))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateUpdateViewParams(&tt.params)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateImportParams(t *testing.T) {
	path := "/tmp/a.md"
	empty := ""

	tests := []struct {
		name    string
		params  folderSvc.ImportParams
		wantErr bool
	}{
		{name: "data", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.LayoutDocument, Data: []byte("x")}},
		{name: "path", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.LayoutDocument, FilePath: &path}},
		{name: "neither", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.LayoutDocument}, wantErr: true},
		{name: "empty path counts as missing", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.LayoutDocument, FilePath: &empty}, wantErr: true},
		{name: "both", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.LayoutDocument, Data: []byte("x"), FilePath: &path}, wantErr: true},
		{name: "missing name", params: folderSvc.ImportParams{ParentViewID: "p", Layout: models.LayoutDocument, Data: []byte("x")}, wantErr: true},
		{name: "unknown layout", params: folderSvc.ImportParams{ParentViewID: "p", Name: "n", Layout: models.ViewLayout("slides"), Data: []byte("x")}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateImportParams(&tt.params)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDefaultFolderBuilder_Build(t *testing.T) {
	builder, err := NewDefaultFolderBuilder()
	require.NoError(t, err)

	handler := newScriptedHandler()
	handlers := NewHandlerRegistry()
	handlers.Register(handler, models.LayoutDocument, models.LayoutGrid)

	data, ws, err := builder.Build(context.Background(), "u", "ws", handlers)
	require.NoError(t, err)

	assert.Equal(t, "ws", ws.ID)
	assert.Equal(t, "ws", data.CurrentWorkspaceID)
	require.Len(t, ws.ChildViews, 2)
	assert.Equal(t, ws.ChildViews[0], data.CurrentViewID)
	assert.Len(t, data.Views, 4)

	for id, v := range data.Views {
		_, ok := handler.created[id]
		assert.True(t, ok, "content of %s (%s) not created", v.Name, id)
		if v.ParentViewID != "ws" {
			parent := data.Views[v.ParentViewID]
			assert.Contains(t, parent.Children, id)
		}
	}
}

func TestDefaultFolderBuilder_MissingHandler(t *testing.T) {
	builder, err := NewDefaultFolderBuilder()
	require.NoError(t, err)

	handlers := NewHandlerRegistry()
	handlers.Register(newScriptedHandler(), models.LayoutDocument)

	_, _, err = builder.Build(context.Background(), "u", "ws", handlers)
	assert.Error(t, err)
}
