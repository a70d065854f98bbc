package folder

import (
	"context"
	"sync"
	"testing"

	"canopy/internal/collab"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sinkTable struct {
	mu    sync.Mutex
	sinks map[string]*recordingSink
}

func (t *sinkTable) Sink(userID string) folderSvc.NotificationSink {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sinks == nil {
		t.sinks = make(map[string]*recordingSink)
	}
	if _, ok := t.sinks[userID]; !ok {
		t.sinks[userID] = &recordingSink{}
	}
	return t.sinks[userID]
}

func newTestSessions(t *testing.T) (*Sessions, *scriptedHandler, *fakeCloud, *sinkTable) {
	t.Helper()
	builder, err := NewDefaultFolderBuilder()
	require.NoError(t, err)

	store := collab.NewMemoryStore()
	handler := newScriptedHandler()
	handlers := NewHandlerRegistry()
	handlers.Register(handler, models.LayoutDocument, models.LayoutGrid)
	cloud := newFakeCloud()
	sinks := &sinkTable{}

	s := NewSessions(
		collab.NewEngine(store, testLogger()),
		handlers,
		cloud,
		builder,
		store,
		sinks,
		Options{EventBuffer: 64},
		testLogger(),
	)
	t.Cleanup(func() { s.CloseAll(context.Background()) })
	return s, handler, cloud, sinks
}

func TestSessions_NewUserGetsDefaultWorkspace(t *testing.T) {
	s, handler, cloud, sinks := newTestSessions(t)
	ctx := context.Background()

	svc, err := s.Get(ctx, "alice")
	require.NoError(t, err)

	workspaces, err := cloud.ListWorkspaces(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, workspaces, 1)

	current, err := svc.GetCurrentWorkspace(ctx)
	require.NoError(t, err)
	assert.Equal(t, workspaces[0].ID, current.ID)
	assert.Equal(t, "Workspace", current.Name)

	views, err := svc.GetCurrentWorkspaceViews(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "Getting started", views[0].Name)
	assert.Len(t, views[0].ChildViews, 2)

	// every seeded view had its content materialised
	assert.Equal(t, 4, handler.callCount("with_data")+handler.callCount("built_in"))

	sink := sinks.Sink("alice").(*recordingSink)
	assert.Equal(t, 1, sink.count("alice", models.NotifyWorkspaceCreated))
}

func TestSessions_GetReusesManager(t *testing.T) {
	s, _, cloud, _ := newTestSessions(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]folderSvc.FolderService, 4)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			svc, err := s.Get(ctx, "bob")
			assert.NoError(t, err)
			results[i] = svc
		}()
	}
	wg.Wait()

	for _, svc := range results[1:] {
		assert.Same(t, results[0], svc)
	}
	assert.Equal(t, 1, s.Len())

	workspaces, err := cloud.ListWorkspaces(ctx, "bob")
	require.NoError(t, err)
	assert.Len(t, workspaces, 1)
}

func TestSessions_OpenOutlivesCancelledCaller(t *testing.T) {
	s, _, cloud, _ := newTestSessions(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, err := s.Get(ctx, "carol")
	require.NoError(t, err)
	require.NotNil(t, svc)
	assert.Equal(t, 1, s.Len())

	workspaces, err := cloud.ListWorkspaces(context.Background(), "carol")
	require.NoError(t, err)
	assert.Len(t, workspaces, 1)
}

func TestSessions_ReopenKeepsTree(t *testing.T) {
	s, _, cloud, _ := newTestSessions(t)
	ctx := context.Background()

	svc, err := s.Get(ctx, "carol")
	require.NoError(t, err)
	views, err := svc.GetCurrentWorkspaceViews(ctx)
	require.NoError(t, err)
	first := views[0].ID

	s.Close(ctx, "carol")
	assert.Equal(t, 0, s.Len())

	svc, err = s.Get(ctx, "carol")
	require.NoError(t, err)

	node, err := svc.GetView(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Getting started", node.Name)

	workspaces, err := cloud.ListWorkspaces(ctx, "carol")
	require.NoError(t, err)
	assert.Len(t, workspaces, 1)
}
