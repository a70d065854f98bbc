package folder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	folderRepo "canopy/internal/domain/repositories/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"golang.org/x/sync/singleflight"
)

// openTimeout bounds a shared open, which no single caller may cancel
const openTimeout = 30 * time.Second

// SinkProvider hands out per-user notification sinks
type SinkProvider interface {
	Sink(userID string) folderSvc.NotificationSink
}

// errNoCollabStore leaves a manager uninitialised on purpose
var errNoCollabStore = errors.New("no collab store configured")

// sessionUser is the FolderUser of one authenticated user
type sessionUser struct {
	userID string
	store  folderRepo.SnapshotStore
}

func (u *sessionUser) UserID() (string, error) {
	return u.userID, nil
}

func (u *sessionUser) CollabStore() (folderRepo.SnapshotStore, error) {
	if u.store == nil {
		return nil, errNoCollabStore
	}
	return u.store, nil
}

// Sessions keeps one Manager per user, opened lazily on first use
type Sessions struct {
	engine   folderSvc.CollabEngine
	handlers *HandlerRegistry
	cloud    folderSvc.CloudService
	defaults *DefaultFolderBuilder
	store    folderRepo.SnapshotStore
	sinks    SinkProvider
	opts     Options
	logger   *slog.Logger

	mu       sync.Mutex
	managers map[string]*Manager
	opening  singleflight.Group
}

// NewSessions creates the session table
func NewSessions(
	engine folderSvc.CollabEngine,
	handlers *HandlerRegistry,
	cloud folderSvc.CloudService,
	defaults *DefaultFolderBuilder,
	store folderRepo.SnapshotStore,
	sinks SinkProvider,
	opts Options,
	logger *slog.Logger,
) *Sessions {
	return &Sessions{
		engine:   engine,
		handlers: handlers,
		cloud:    cloud,
		defaults: defaults,
		store:    store,
		sinks:    sinks,
		opts:     opts,
		logger:   logger,
		managers: make(map[string]*Manager),
	}
}

// Get returns the user's manager, opening it on first use. Concurrent first
// calls for the same user share one open.
func (s *Sessions) Get(ctx context.Context, userID string) (folderSvc.FolderService, error) {
	if m, ok := s.lookup(userID); ok {
		return m, nil
	}

	v, err, _ := s.opening.Do(userID, func() (any, error) {
		if m, ok := s.lookup(userID); ok {
			return m, nil
		}
		openCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), openTimeout)
		defer cancel()
		m, err := s.open(openCtx, userID)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.managers[userID] = m
		s.mu.Unlock()
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Manager), nil
}

func (s *Sessions) lookup(userID string) (*Manager, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.managers[userID]
	return m, ok
}

// open initialises the folder of an existing user, or provisions and seeds the
// first workspace of a new one
func (s *Sessions) open(ctx context.Context, userID string) (*Manager, error) {
	m := NewManager(
		&sessionUser{userID: userID, store: s.store},
		s.engine,
		s.handlers,
		s.cloud,
		s.defaults,
		s.sinks.Sink(userID),
		s.opts,
		s.logger.With("user_id", userID),
	)

	workspaces, err := s.cloud.ListWorkspaces(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}

	if len(workspaces) > 0 {
		workspaceID := workspaces[0].ID
		if err := m.Initialize(ctx, userID, workspaceID); err != nil {
			return nil, err
		}
		if len(m.GetAllWorkspaces(ctx)) > 0 {
			return m, nil
		}
		// Workspace record without a tree, e.g. a lost snapshot
		s.logger.Warn("workspace has no folder snapshot, seeding defaults",
			"user_id", userID,
			"workspace_id", workspaceID,
		)
		if err := m.InitializeWithNewUser(ctx, userID, workspaceID); err != nil {
			return nil, err
		}
		return m, nil
	}

	name := "Workspace"
	if s.defaults != nil {
		name = s.defaults.WorkspaceName()
	}
	ws, err := s.cloud.CreateWorkspace(ctx, userID, name)
	if err != nil {
		return nil, fmt.Errorf("create first workspace: %w", err)
	}
	if err := m.InitializeWithNewUser(ctx, userID, ws.ID); err != nil {
		return nil, err
	}
	s.logger.Info("new user folder created", "user_id", userID, "workspace_id", ws.ID)
	return m, nil
}

// Close tears down the user's session, if any
func (s *Sessions) Close(ctx context.Context, userID string) {
	s.mu.Lock()
	m, ok := s.managers[userID]
	delete(s.managers, userID)
	s.mu.Unlock()
	if ok {
		m.Clear(ctx, userID)
	}
}

// CloseAll tears down every session
func (s *Sessions) CloseAll(ctx context.Context) {
	s.mu.Lock()
	managers := s.managers
	s.managers = make(map[string]*Manager)
	s.mu.Unlock()

	for userID, m := range managers {
		m.Clear(ctx, userID)
	}
}

// Len reports the number of open sessions
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.managers)
}
