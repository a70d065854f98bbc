package handler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"canopy/internal/collab"
	models "canopy/internal/domain/models/folder"
	"canopy/internal/handler/sse"
	"canopy/internal/httputil"
	"canopy/internal/notification"
	"canopy/internal/repository/memory"
	"canopy/internal/service/content"
	"canopy/internal/service/folder"
)

const testUser = "user-1"

type testServer struct {
	mux *http.ServeMux
	hub *notification.Hub
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := testLogger()

	builder, err := folder.NewDefaultFolderBuilder()
	require.NoError(t, err)

	handlers := content.NewHandlers(memory.NewContentRepository(), t.TempDir(), logger)
	store := collab.NewMemoryStore()
	hub := notification.NewHub(64, logger)
	sessions := folder.NewSessions(
		collab.NewEngine(store, logger),
		handlers.Registry,
		memory.NewWorkspaceRepository(),
		builder,
		store,
		hub,
		folder.Options{EventBuffer: 64},
		logger,
	)
	t.Cleanup(func() { sessions.CloseAll(context.Background()) })

	mux := http.NewServeMux()
	RegisterRoutes(mux,
		NewFolderHandler(sessions, handlers, logger),
		NewNotificationHandler(hub, sessions, &sse.Config{KeepAliveInterval: time.Hour}, logger),
	)
	return &testServer{mux: mux, hub: hub}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req = httputil.WithUserID(req, testUser)

	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) firstView(t *testing.T) models.ViewNode {
	t.Helper()
	rec := s.do(t, http.MethodGet, "/api/workspaces/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ws := decode[workspaceResponse](t, rec)
	require.NotEmpty(t, ws.Views)
	return ws.Views[0]
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestFolderRoutes_RequireUser(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/workspaces", nil)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWorkspaceRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/api/workspaces/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	current := decode[workspaceResponse](t, rec)
	assert.Equal(t, "Workspace", current.Name)
	assert.Len(t, current.Views, 2)

	rec = s.do(t, http.MethodPost, "/api/workspaces", map[string]string{"name": "Research"})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[models.Workspace](t, rec)
	assert.Equal(t, "Research", created.Name)

	rec = s.do(t, http.MethodGet, "/api/workspaces", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Workspace](t, rec), 2)

	rec = s.do(t, http.MethodPost, "/api/workspaces/"+created.ID+"/open", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/workspaces/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.ID, decode[workspaceResponse](t, rec).ID)

	rec = s.do(t, http.MethodGet, "/api/workspaces/"+created.ID+"/views", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]models.ViewNode](t, rec))

	rec = s.do(t, http.MethodGet, "/api/workspaces/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestViewRoutes(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	rec := s.do(t, http.MethodPost, "/api/views", map[string]any{
		"parent_view_id": parent.ID,
		"name":           "Notes",
		"layout":         "document",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	view := decode[models.View](t, rec)
	assert.Equal(t, parent.ID, view.ParentViewID)

	rec = s.do(t, http.MethodGet, "/api/views/"+view.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[contentResponse](t, rec)
	assert.Equal(t, "# Notes\n", body.Body)

	rec = s.do(t, http.MethodPatch, "/api/views/"+view.ID, map[string]any{"name": "Ideas", "desc": "scratch"})
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode[models.ViewNode](t, rec)
	assert.Equal(t, "Ideas", node.Name)
	assert.Equal(t, "scratch", node.Desc)

	rec = s.do(t, http.MethodPatch, "/api/views/"+view.ID, map[string]any{"desc": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[models.ViewNode](t, rec).Desc)

	rec = s.do(t, http.MethodGet, "/api/views/"+parent.ID+"/children", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	children := decode[[]models.View](t, rec)
	require.NotEmpty(t, children)
	assert.Equal(t, view.ID, children[len(children)-1].ID)

	rec = s.do(t, http.MethodPost, "/api/views/"+view.ID+"/move", map[string]int{"from": len(children) - 1, "to": 0})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/views/"+parent.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, view.ID, decode[models.ViewNode](t, rec).ChildViews[0].ID)

	rec = s.do(t, http.MethodPost, "/api/views/"+view.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Ideas (copy)", decode[models.View](t, rec).Name)

	rec = s.do(t, http.MethodPut, "/api/views/current", map[string]string{"view_id": view.ID})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/views/current", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, view.ID, decode[models.ViewNode](t, rec).ID)

	rec = s.do(t, http.MethodPost, "/api/views/"+view.ID+"/close", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestViewRoutes_BadRequests(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{name: "unknown field", method: http.MethodPost, path: "/api/views", body: map[string]any{"parent_view_id": parent.ID, "name": "x", "layout": "document", "colour": "red"}, want: http.StatusBadRequest},
		{name: "unknown layout", method: http.MethodPost, path: "/api/views", body: map[string]any{"parent_view_id": parent.ID, "name": "x", "layout": "slides"}, want: http.StatusBadRequest},
		{name: "missing parent", method: http.MethodPost, path: "/api/views", body: map[string]any{"parent_view_id": "nope", "name": "x", "layout": "document"}, want: http.StatusNotFound},
		{name: "negative move index", method: http.MethodPost, path: "/api/views/" + parent.ID + "/move", body: map[string]int{"from": -1, "to": 0}, want: http.StatusBadRequest},
		{name: "bad permanent flag", method: http.MethodDelete, path: "/api/views/" + parent.ID + "?permanent=maybe", want: http.StatusBadRequest},
		{name: "missing view", method: http.MethodGet, path: "/api/views/nope", want: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.want >= 400 {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
		})
	}
}

func TestTrashRoutes(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)
	require.NotEmpty(t, parent.ChildViews)
	child := parent.ChildViews[0]

	rec := s.do(t, http.MethodDelete, "/api/views/"+child.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/trash", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	trash := decode[[]models.TrashInfo](t, rec)
	require.Len(t, trash, 1)
	assert.Equal(t, child.ID, trash[0].ID)

	rec = s.do(t, http.MethodPost, "/api/trash/"+child.ID+"/restore", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/trash", nil)
	assert.Empty(t, decode[[]models.TrashInfo](t, rec))

	rec = s.do(t, http.MethodDelete, "/api/views/"+child.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodDelete, "/api/trash", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/views/"+child.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteView_Permanent(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	rec := s.do(t, http.MethodDelete, "/api/views/"+parent.ID+"?permanent=true", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/views/"+parent.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/trash", nil)
	assert.Empty(t, decode[[]models.TrashInfo](t, rec))

	// trashing a view that is already gone is a no-op
	rec = s.do(t, http.MethodDelete, "/api/views/"+parent.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestImport_JSON(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	rec := s.do(t, http.MethodPost, "/api/import", map[string]any{
		"parent_view_id": parent.ID,
		"name":           "people.csv",
		"layout":         "grid",
		"data":           []byte("name,role\nada,engineer\n"),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	view := decode[models.View](t, rec)
	assert.Equal(t, models.LayoutGrid, view.Layout)

	rec = s.do(t, http.MethodGet, "/api/views/"+view.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"columns":["name","role"],"rows":[["ada","engineer"]]}`, decode[contentResponse](t, rec).Body)
}

func TestImport_Multipart(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("parent_view_id", parent.ID))
	part, err := mw.CreateFormFile("file", "page.html")
	require.NoError(t, err)
	_, err = part.Write([]byte("<h1>Title</h1><p>Body<script>alert(1)</script></p>"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req = httputil.WithUserID(req, testUser)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	view := decode[models.View](t, rec)
	assert.Equal(t, "page.html", view.Name)
	assert.Equal(t, models.LayoutDocument, view.Layout)

	rec = s.do(t, http.MethodGet, "/api/views/"+view.ID+"/content", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[contentResponse](t, rec).Body
	assert.Contains(t, body, "# Title")
	assert.NotContains(t, body, "alert")
}

func TestImport_RequiresSource(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	rec := s.do(t, http.MethodPost, "/api/import", map[string]any{
		"parent_view_id": parent.ID,
		"name":           "empty",
		"layout":         "document",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNotificationStream(t *testing.T) {
	s := newTestServer(t)
	parent := s.firstView(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mux.ServeHTTP(w, httputil.WithUserID(r, testUser))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/notifications?topic="+parent.ID, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	require.Eventually(t, func() bool { return s.hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	rec := s.do(t, http.MethodPost, "/api/views", map[string]any{
		"parent_view_id": parent.ID,
		"name":           "Live",
		"layout":         "document",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	scanner := bufio.NewScanner(resp.Body)
	var event, data string
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "event: "); ok {
			event = v
		}
		if v, ok := strings.CutPrefix(line, "data: "); ok {
			data = v
		}
		if line == "" && data != "" {
			break
		}
	}
	require.NoError(t, scanner.Err())

	assert.Equal(t, string(models.NotifyChildViewsUpdated), event)
	var n struct {
		Topic string `json:"topic"`
		Kind  string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(data), &n))
	assert.Equal(t, parent.ID, n.Topic)

	cancel()
	require.Eventually(t, func() bool { return s.hub.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}
