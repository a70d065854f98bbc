package folder

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Options tunes the manager
type Options struct {
	// CoalesceWindow batches change notifications; zero sends them per event
	CoalesceWindow time.Duration

	// EventBuffer is the capacity of the view and trash change channels
	EventBuffer int
}

// DefaultOptions returns the options used when none are configured
func DefaultOptions() Options {
	return Options{
		CoalesceWindow: 50 * time.Millisecond,
		EventBuffer:    100,
	}
}

// maxPurgeConcurrency bounds concurrent content removals after physical deletion
const maxPurgeConcurrency = 4

// Manager owns one user's folder: a single shared snapshot slot, the change
// dispatcher reacting to it and the content handlers behind each layout.
//
// The cell lock is only held for synchronous tree work. Handler calls happen
// outside it and their result is committed afterwards, so a reload that runs
// concurrently either finishes first or makes the commit fail with
// ErrNotInitialized.
type Manager struct {
	user     folderSvc.FolderUser
	engine   folderSvc.CollabEngine
	handlers *HandlerRegistry
	cloud    folderSvc.CloudService
	defaults *DefaultFolderBuilder
	notifier *notifier
	opts     Options
	logger   *slog.Logger

	cell     *folderCell
	registry *cellRegistry

	// lifeMu serialises Initialize and Clear
	lifeMu     sync.Mutex
	handle     cellHandle
	dispatcher *dispatcher
}

var _ folderSvc.FolderService = (*Manager)(nil)

// NewManager creates an uninitialised manager
func NewManager(
	user folderSvc.FolderUser,
	engine folderSvc.CollabEngine,
	handlers *HandlerRegistry,
	cloud folderSvc.CloudService,
	defaults *DefaultFolderBuilder,
	sink folderSvc.NotificationSink,
	opts Options,
	logger *slog.Logger,
) *Manager {
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = DefaultOptions().EventBuffer
	}
	return &Manager{
		user:     user,
		engine:   engine,
		handlers: handlers,
		cloud:    cloud,
		defaults: defaults,
		notifier: newNotifier(sink, logger),
		opts:     opts,
		logger:   logger,
		cell:     &folderCell{},
		registry: newCellRegistry(),
	}
}

// --- lifecycle ---

// Initialize loads or creates the folder of the workspace and starts the
// change dispatcher. A user without a collaboration store is left
// uninitialised without error.
func (m *Manager) Initialize(ctx context.Context, userID, workspaceID string) error {
	store, err := m.user.CollabStore()
	if err != nil {
		m.logger.Info("no collab store for user, folder not loaded",
			"user_id", userID,
			"workspace_id", workspaceID,
			"reason", err,
		)
		return nil
	}

	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()

	m.teardownLocked(ctx)

	fctx := folderSvc.NewFolderContext(m.opts.EventBuffer)
	handle := folderSvc.Handle{UserID: userID, WorkspaceID: workspaceID, Store: store}
	f, err := m.engine.GetOrCreate(ctx, handle, fctx)
	if err != nil {
		return fmt.Errorf("open folder: %w", err)
	}

	m.cell.replace(f)
	m.handle = m.registry.register(m.cell)
	m.dispatcher = newDispatcher(
		m.registry,
		m.handle,
		workspaceID,
		fctx,
		f.SubscribeStateChange(),
		m.notifier,
		m.opts.CoalesceWindow,
		m.logger.With("user_id", userID),
	)
	m.dispatcher.start()

	m.logger.Info("folder initialized", "user_id", userID, "workspace_id", workspaceID)
	return nil
}

// InitializeWithNewUser initialises the folder and seeds the default workspace
func (m *Manager) InitializeWithNewUser(ctx context.Context, userID, workspaceID string) error {
	if err := m.Initialize(ctx, userID, workspaceID); err != nil {
		return err
	}
	if m.defaults == nil {
		return nil
	}

	data, ws, err := m.defaults.Build(ctx, userID, workspaceID, m.handlers)
	if err != nil {
		return fmt.Errorf("build default folder: %w", err)
	}

	err = m.cell.update(func(f folderSvc.Folder) error {
		f.CreateWithData(data)
		return nil
	})
	if err != nil {
		m.logger.Debug("default folder not applied", "user_id", userID, "reason", err)
	}

	m.notifier.send(models.Notification{
		Topic:   userID,
		Kind:    models.NotifyWorkspaceCreated,
		Payload: []models.Workspace{*ws},
	})
	return nil
}

// Clear tears the session down: the snapshot is closed and the dispatcher stops
func (m *Manager) Clear(ctx context.Context, userID string) {
	m.lifeMu.Lock()
	defer m.lifeMu.Unlock()
	m.teardownLocked(ctx)
	m.logger.Info("folder cleared", "user_id", userID)
}

func (m *Manager) teardownLocked(ctx context.Context) {
	if m.handle == 0 {
		return
	}
	m.registry.release(m.handle)
	if f := m.cell.take(); f != nil {
		if err := f.Close(); err != nil {
			m.logger.Warn("failed to close folder", "error", err)
		}
	}
	m.dispatcher.wait(ctx)
	m.handle = 0
	m.dispatcher = nil
}

// --- workspaces ---

func (m *Manager) CreateWorkspace(ctx context.Context, params *folderSvc.CreateWorkspaceParams) (*models.Workspace, error) {
	if err := validateCreateWorkspaceParams(params); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	userID, err := m.user.UserID()
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}

	ws, err := m.cloud.CreateWorkspace(ctx, userID, params.Name)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}

	err = m.cell.update(func(f folderSvc.Folder) error {
		f.CreateWorkspace(*ws)
		f.SetCurrentWorkspace(ws.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.notifier.send(models.Notification{
		Topic:   userID,
		Kind:    models.NotifyWorkspaceCreated,
		Payload: []models.Workspace{*ws},
	})
	return ws, nil
}

// OpenWorkspace makes the workspace current
func (m *Manager) OpenWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	var ws *models.Workspace
	err := m.cell.update(func(f folderSvc.Folder) error {
		found, ok := f.GetWorkspace(workspaceID)
		if !ok {
			return domain.NewNotFound("can't open not existing workspace %s", workspaceID)
		}
		f.SetCurrentWorkspace(workspaceID)
		ws = found
		return nil
	})
	return ws, err
}

func (m *Manager) GetWorkspace(ctx context.Context, workspaceID string) (*models.Workspace, error) {
	return readFolder(m.cell, func(f folderSvc.Folder) (*models.Workspace, error) {
		ws, ok := f.GetWorkspace(workspaceID)
		if !ok {
			return nil, domain.NewNotFound("workspace %s not found", workspaceID)
		}
		return ws, nil
	})
}

func (m *Manager) GetAllWorkspaces(ctx context.Context) []models.Workspace {
	return withFolder(m.cell, []models.Workspace{}, func(f folderSvc.Folder) []models.Workspace {
		return f.GetAllWorkspaces()
	})
}

func (m *Manager) GetCurrentWorkspace(ctx context.Context) (*models.Workspace, error) {
	return readFolder(m.cell, func(f folderSvc.Folder) (*models.Workspace, error) {
		id, ok := f.GetCurrentWorkspaceID()
		if !ok {
			return nil, domain.NewNotFound("can not find the workspace")
		}
		ws, ok := f.GetWorkspace(id)
		if !ok {
			return nil, domain.NewNotFound("workspace %s not found", id)
		}
		return ws, nil
	})
}

// GetCurrentWorkspaceViews is empty when no workspace is current
func (m *Manager) GetCurrentWorkspaceViews(ctx context.Context) ([]models.ViewNode, error) {
	return withFolder(m.cell, []models.ViewNode{}, func(f folderSvc.Folder) []models.ViewNode {
		id, ok := f.GetCurrentWorkspaceID()
		if !ok {
			return []models.ViewNode{}
		}
		return workspaceViewNodes(f, id)
	}), nil
}

func (m *Manager) GetWorkspaceViews(ctx context.Context, workspaceID string) ([]models.ViewNode, error) {
	return withFolder(m.cell, []models.ViewNode{}, func(f folderSvc.Folder) []models.ViewNode {
		return workspaceViewNodes(f, workspaceID)
	}), nil
}

// --- views ---

// CreateViewWithParams materialises the content first and only then inserts
// the view, so a view is never visible without its content.
func (m *Manager) CreateViewWithParams(ctx context.Context, params *folderSvc.CreateViewParams) (*models.View, error) {
	p := *params
	if p.ViewID == "" {
		p.ViewID = uuid.NewString()
	}
	if err := validateCreateViewParams(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	handler, err := m.handlers.Get(p.Layout)
	if err != nil {
		return nil, err
	}
	userID, err := m.user.UserID()
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if err := m.checkParent(p.ParentViewID); err != nil {
		return nil, err
	}

	if len(p.InitialData) == 0 {
		m.logger.Debug("create view with built-in data", "view_id", p.ViewID, "layout", p.Layout)
		err = handler.CreateBuiltInView(ctx, userID, p.ViewID, p.Name, p.Layout)
	} else {
		m.logger.Debug("create view with view data", "view_id", p.ViewID, "layout", p.Layout, "bytes", len(p.InitialData))
		err = handler.CreateViewWithViewData(ctx, userID, p.ViewID, p.Name, p.InitialData, p.Layout, p.Meta)
	}
	if err != nil {
		return nil, fmt.Errorf("create view content: %w", err)
	}

	view := models.View{
		ID:           p.ViewID,
		ParentViewID: p.ParentViewID,
		Name:         p.Name,
		Desc:         p.Desc,
		Layout:       p.Layout,
		Children:     []string{},
		CreatedAt:    time.Now(),
	}
	if err := m.commitView(ctx, handler, view, p.SetAsCurrent); err != nil {
		return nil, err
	}
	return &view, nil
}

func (m *Manager) checkParent(parentID string) error {
	_, err := readFolder(m.cell, func(f folderSvc.Folder) (struct{}, error) {
		if !parentExists(f, parentID) {
			return struct{}{}, domain.NewNotFound("parent %s not found", parentID)
		}
		return struct{}{}, nil
	})
	return err
}

// commitView inserts a view whose content already exists. When the commit
// fails the content is discarded again.
func (m *Manager) commitView(ctx context.Context, handler folderSvc.ContentHandler, view models.View, setAsCurrent bool) error {
	var setting *models.Notification
	err := m.cell.update(func(f folderSvc.Folder) error {
		if !parentExists(f, view.ParentViewID) {
			return domain.NewNotFound("parent %s not found", view.ParentViewID)
		}
		f.InsertView(view)
		if setAsCurrent {
			f.SetCurrentView(view.ID)
			setting = workspaceSettingNotification(f)
		}
		return nil
	})
	if err != nil {
		if remover, ok := handler.(folderSvc.ContentRemover); ok {
			if rmErr := remover.RemoveView(ctx, view.ID); rmErr != nil {
				m.logger.Warn("failed to discard content of uncommitted view", "view_id", view.ID, "error", rmErr)
			}
		}
		return fmt.Errorf("insert view: %w", err)
	}

	m.logger.Info("view created", "view_id", view.ID, "parent_view_id", view.ParentViewID, "layout", view.Layout)
	m.notifier.parentViewsDidChange(m.cell, []string{view.ParentViewID})
	if setting != nil {
		m.notifier.send(*setting)
	}
	return nil
}

// CreateViewWithData creates content only; the tree is left untouched
func (m *Manager) CreateViewWithData(ctx context.Context, viewID, name string, layout models.ViewLayout, data []byte) error {
	userID, err := m.user.UserID()
	if err != nil {
		return fmt.Errorf("resolve user: %w", err)
	}
	handler, err := m.handlers.Get(layout)
	if err != nil {
		return err
	}
	if err := handler.CreateViewWithViewData(ctx, userID, viewID, name, data, layout, map[string]string{}); err != nil {
		return fmt.Errorf("create view content: %w", err)
	}
	return nil
}

func (m *Manager) CloseView(ctx context.Context, viewID string) error {
	view, err := m.lookupView(viewID)
	if err != nil {
		return err
	}
	handler, err := m.handlers.Get(view.Layout)
	if err != nil {
		return err
	}
	return handler.CloseView(ctx, viewID)
}

// lookupView returns the raw view record, trashed or not
func (m *Manager) lookupView(viewID string) (*models.View, error) {
	return readFolder(m.cell, func(f folderSvc.Folder) (*models.View, error) {
		v, ok := f.GetView(viewID)
		if !ok {
			return nil, domain.NewNotFound("view %s not found", viewID)
		}
		return v, nil
	})
}

// GetView returns the view with its non-trashed direct children. Deeper levels
// are resolved by calling again.
func (m *Manager) GetView(ctx context.Context, viewID string) (*models.ViewNode, error) {
	return readFolder(m.cell, func(f folderSvc.Folder) (*models.ViewNode, error) {
		return getViewNode(f, viewID)
	})
}

func (m *Manager) GetViewsBelongTo(ctx context.Context, parentViewID string) ([]models.View, error) {
	return withFolder(m.cell, []models.View{}, func(f folderSvc.Folder) []models.View {
		return f.GetViewsBelongTo(parentViewID)
	}), nil
}

// DeleteView removes the view and its descendants physically, bypassing trash
func (m *Manager) DeleteView(ctx context.Context, viewID string) error {
	var layouts map[string]models.ViewLayout
	var visibleParent string
	err := m.cell.update(func(f folderSvc.Folder) error {
		v, ok := f.GetView(viewID)
		if !ok {
			return nil
		}
		if _, trashed := trashIDSet(f)[viewID]; !trashed {
			visibleParent = v.ParentViewID
		}
		layouts = layoutsOf(f, []string{viewID})
		f.DeleteViews([]string{viewID})
		return nil
	})
	if err != nil {
		return err
	}

	if visibleParent != "" {
		m.notifier.parentViewsDidChange(m.cell, []string{visibleParent})
	}
	m.purgeContent(ctx, layouts)
	return nil
}

// MoveViewToTrash records a trash entry and clears the current view when it was trashed.
// Descendants are not trashed; they disappear from listings with their ancestor.
// A view that vanished in the meantime is logged and ignored.
func (m *Manager) MoveViewToTrash(ctx context.Context, viewID string) error {
	var found bool
	err := m.cell.update(func(f folderSvc.Folder) error {
		if _, found = f.GetView(viewID); found {
			moveToTrash(f, viewID, time.Now())
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !found {
		m.logger.Warn("couldn't find the view to trash", "view_id", viewID)
	}
	return nil
}

// MoveView reorders the view among its siblings. An unknown view is logged and ignored.
func (m *Manager) MoveView(ctx context.Context, viewID string, from, to int) error {
	var parentID string
	var moved bool
	err := m.cell.update(func(f folderSvc.Folder) error {
		if v, ok := f.MoveView(viewID, from, to); ok {
			parentID, moved = v.ParentViewID, true
		}
		return nil
	})
	if err != nil {
		return err
	}
	if !moved {
		m.logger.Warn("couldn't find the view to move", "view_id", viewID, "from", from, "to", to)
		return nil
	}
	m.notifier.parentViewsDidChange(m.cell, []string{parentID})
	return nil
}

// UpdateViewWithParams applies the present fields, lets the handler react and
// then notifies. The notification is best-effort.
func (m *Manager) UpdateViewWithParams(ctx context.Context, params *folderSvc.UpdateViewParams) error {
	if err := validateUpdateViewParams(params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	update := models.ViewUpdate{Name: params.Name, Desc: params.Desc, Layout: params.Layout}
	var old, updated *models.View
	err := m.cell.update(func(f folderSvc.Folder) error {
		v, ok := f.GetView(params.ViewID)
		if !ok {
			return domain.NewNotFound("view %s not found", params.ViewID)
		}
		old = v
		updated, _ = f.UpdateView(params.ViewID, update)
		return nil
	})
	if err != nil {
		return err
	}

	if handler, err := m.handlers.Get(old.Layout); err == nil {
		if err := handler.DidUpdateView(ctx, *old, *updated); err != nil {
			return fmt.Errorf("did update view: %w", err)
		}
	}

	node, err := m.GetView(ctx, params.ViewID)
	if err != nil {
		m.logger.Debug("view update not notified", "view_id", params.ViewID, "reason", err)
		return nil
	}
	m.notifier.parentViewsDidChange(m.cell, []string{node.ParentViewID})
	m.notifier.send(models.Notification{
		Topic:   node.ID,
		Kind:    models.NotifyViewUpdated,
		Payload: node,
	})
	return nil
}

// DuplicateView copies the view and its content under the same parent
func (m *Manager) DuplicateView(ctx context.Context, viewID string) (*models.View, error) {
	view, err := m.lookupView(viewID)
	if err != nil {
		return nil, fmt.Errorf("can't duplicate the view: %w", err)
	}
	handler, err := m.handlers.Get(view.Layout)
	if err != nil {
		return nil, err
	}
	data, err := handler.DuplicateView(ctx, view.ID)
	if err != nil {
		return nil, fmt.Errorf("duplicate view content: %w", err)
	}

	return m.CreateViewWithParams(ctx, &folderSvc.CreateViewParams{
		ViewID:       uuid.NewString(),
		ParentViewID: view.ParentViewID,
		Name:         view.Name + " (copy)",
		Desc:         view.Desc,
		Layout:       view.Layout,
		InitialData:  data,
		SetAsCurrent: true,
	})
}

// SetCurrentView selects a view; an empty id clears the selection
func (m *Manager) SetCurrentView(ctx context.Context, viewID string) error {
	var setting *models.Notification
	err := m.cell.update(func(f folderSvc.Folder) error {
		if viewID != "" {
			if _, ok := f.GetView(viewID); !ok {
				return domain.NewNotFound("view %s not found", viewID)
			}
		}
		f.SetCurrentView(viewID)
		setting = workspaceSettingNotification(f)
		return nil
	})
	if err != nil {
		return err
	}
	if setting != nil {
		m.notifier.send(*setting)
	}
	return nil
}

// workspaceSettingNotification describes the current workspace and view, or
// nil when no workspace is current
func workspaceSettingNotification(f folderSvc.Folder) *models.Notification {
	wsID, ok := f.GetCurrentWorkspaceID()
	if !ok {
		return nil
	}
	ws, ok := f.GetWorkspace(wsID)
	if !ok {
		return nil
	}
	setting := models.WorkspaceSetting{Workspace: ws}
	if current, ok := f.GetCurrentView(); ok {
		if node, err := getViewNode(f, current); err == nil {
			setting.CurrentView = node
		}
	}
	return &models.Notification{
		Topic:   wsID,
		Kind:    models.NotifyWorkspaceSettingUpdated,
		Payload: setting,
	}
}

func (m *Manager) GetCurrentView(ctx context.Context) (*models.ViewNode, error) {
	return readFolder(m.cell, func(f folderSvc.Folder) (*models.ViewNode, error) {
		current, ok := f.GetCurrentView()
		if !ok {
			return nil, domain.NewNotFound("no current view")
		}
		return getViewNode(f, current)
	})
}

// --- trash ---

func (m *Manager) GetAllTrash(ctx context.Context) []models.TrashInfo {
	return withFolder(m.cell, []models.TrashInfo{}, func(f folderSvc.Folder) []models.TrashInfo {
		return f.GetAllTrash()
	})
}

// RestoreTrash removes the trash record; the view becomes visible again
func (m *Manager) RestoreTrash(ctx context.Context, trashID string) error {
	return m.cell.update(func(f folderSvc.Folder) error {
		f.DeleteTrash([]string{trashID})
		return nil
	})
}

func (m *Manager) RestoreAllTrash(ctx context.Context) error {
	err := m.cell.update(func(f folderSvc.Folder) error {
		f.ClearTrash()
		return nil
	})
	if err != nil {
		return err
	}
	m.notifier.send(emptyTrashNotification())
	return nil
}

// DeleteTrash removes the trash record and the view behind it permanently
func (m *Manager) DeleteTrash(ctx context.Context, trashID string) error {
	var layouts map[string]models.ViewLayout
	err := m.cell.update(func(f folderSvc.Folder) error {
		layouts = layoutsOf(f, []string{trashID})
		purgeTrash(f, []string{trashID})
		return nil
	})
	if err != nil {
		return err
	}
	m.purgeContent(ctx, layouts)
	return nil
}

func (m *Manager) DeleteAllTrash(ctx context.Context) error {
	var layouts map[string]models.ViewLayout
	err := m.cell.update(func(f folderSvc.Folder) error {
		trash := f.GetAllTrash()
		ids := make([]string, 0, len(trash))
		for _, t := range trash {
			ids = append(ids, t.ID)
		}
		layouts = layoutsOf(f, ids)
		purgeAllTrash(f)
		return nil
	})
	if err != nil {
		return err
	}
	m.notifier.send(emptyTrashNotification())
	m.purgeContent(ctx, layouts)
	return nil
}

// purgeContent drops stored content of physically deleted views. Failures are
// logged; the tree is already consistent.
func (m *Manager) purgeContent(ctx context.Context, layouts map[string]models.ViewLayout) {
	if len(layouts) == 0 {
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPurgeConcurrency)
	for viewID, layout := range layouts {
		handler, err := m.handlers.Get(layout)
		if err != nil {
			continue
		}
		remover, ok := handler.(folderSvc.ContentRemover)
		if !ok {
			continue
		}
		g.Go(func() error {
			if err := remover.RemoveView(gctx, viewID); err != nil {
				return fmt.Errorf("remove content of view %s: %w", viewID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		m.logger.Warn("failed to purge view content", "error", err)
	}
}

// --- import ---

// Import ingests external content through the layout's handler and inserts
// the view like CreateViewWithParams does
func (m *Manager) Import(ctx context.Context, params *folderSvc.ImportParams) (*models.View, error) {
	if err := validateImportParams(params); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	handler, err := m.handlers.Get(params.Layout)
	if err != nil {
		return nil, err
	}
	if err := m.checkParent(params.ParentViewID); err != nil {
		return nil, err
	}

	viewID := uuid.NewString()
	if len(params.Data) > 0 {
		err = handler.ImportFromBytes(ctx, viewID, params.Name, params.Data)
	} else {
		err = handler.ImportFromFilePath(ctx, viewID, params.Name, *params.FilePath)
	}
	if err != nil {
		return nil, fmt.Errorf("import view content: %w", err)
	}

	view := models.View{
		ID:           viewID,
		ParentViewID: params.ParentViewID,
		Name:         params.Name,
		Layout:       params.Layout,
		Children:     []string{},
		CreatedAt:    time.Now(),
	}
	if err := m.commitView(ctx, handler, view, false); err != nil {
		return nil, err
	}
	return &view, nil
}

