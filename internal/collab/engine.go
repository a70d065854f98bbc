package collab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderRepo "canopy/internal/domain/repositories/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"github.com/google/uuid"
)

// saveTimeout bounds one background snapshot write
const saveTimeout = 10 * time.Second

// Engine builds in-memory folders on top of a snapshot store.
// Every mutation is saved in the background (latest wins) and saves made by
// other engine instances surface as root-change signals.
type Engine struct {
	feed   folderRepo.SnapshotFeed
	origin string
	logger *slog.Logger
}

// NewEngine creates an engine. feed may be nil when no remote writers exist.
func NewEngine(feed folderRepo.SnapshotFeed, logger *slog.Logger) *Engine {
	return &Engine{
		feed:   feed,
		origin: uuid.NewString(),
		logger: logger,
	}
}

// Origin identifies this engine instance in saved snapshots
func (e *Engine) Origin() string {
	return e.origin
}

// GetOrCreate loads the persisted folder of the handle, or an empty one
func (e *Engine) GetOrCreate(ctx context.Context, handle folderSvc.Handle, fctx folderSvc.FolderContext) (folderSvc.Folder, error) {
	if handle.Store == nil {
		return nil, fmt.Errorf("collab: no snapshot store for workspace %s", handle.WorkspaceID)
	}

	data, err := loadData(ctx, handle)
	if err != nil {
		return nil, err
	}

	s := &session{
		handle:     handle,
		fctx:       fctx,
		stateCh:    make(chan models.StateChange, 1),
		saveSignal: make(chan struct{}, 1),
		done:       make(chan struct{}),
		origin:     e.origin,
		logger:     e.logger.With("workspace_id", handle.WorkspaceID),
	}
	s.wg.Add(1)
	go s.runSaver()

	if e.feed != nil {
		s.unwatch = e.feed.Watch(handle.WorkspaceID, func(origin string) {
			if origin != s.origin {
				s.signalRootChanged()
			}
		})
	}

	e.logger.Debug("folder opened",
		"workspace_id", handle.WorkspaceID,
		"user_id", handle.UserID,
		"views", len(data.Views),
	)

	return &memFolder{s: s, data: data}, nil
}

func loadData(ctx context.Context, handle folderSvc.Handle) (*models.FolderData, error) {
	snap, err := handle.Store.Load(ctx, handle.WorkspaceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return models.NewFolderData(), nil
		}
		return nil, fmt.Errorf("load folder snapshot: %w", err)
	}
	return normalize(snap.Data), nil
}

// normalize makes decoded snapshots safe to mutate
func normalize(data *models.FolderData) *models.FolderData {
	if data == nil {
		return models.NewFolderData()
	}
	if data.Workspaces == nil {
		data.Workspaces = make(map[string]models.Workspace)
	}
	if data.Views == nil {
		data.Views = make(map[string]models.View)
	}
	if data.Trash == nil {
		data.Trash = []models.TrashRecord{}
	}
	return data
}

// session is the part of a folder that survives reloads: channels, saver and feed subscription
type session struct {
	handle  folderSvc.Handle
	fctx    folderSvc.FolderContext
	stateCh chan models.StateChange
	origin  string
	logger  *slog.Logger
	unwatch func()

	// chMu guards the channels against sends after Close
	chMu   sync.RWMutex
	closed bool

	// saveMu keeps saves in revision order when Reload flushes beside the saver
	saveMu     sync.Mutex
	mu         sync.Mutex
	pending    *models.FolderData
	saveSignal chan struct{}
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
}

func (s *session) publishView(change models.ViewChange) {
	s.chMu.RLock()
	defer s.chMu.RUnlock()
	if s.closed || s.fctx.ViewChanges == nil {
		return
	}
	select {
	case s.fctx.ViewChanges <- change:
	default:
		s.logger.Warn("view change dropped, channel full", "kind", change.Kind.String())
	}
}

func (s *session) publishTrash(change models.TrashChange) {
	s.chMu.RLock()
	defer s.chMu.RUnlock()
	if s.closed || s.fctx.TrashChanges == nil {
		return
	}
	select {
	case s.fctx.TrashChanges <- change:
	default:
		s.logger.Warn("trash change dropped, channel full", "kind", change.Kind.String(), "ids", change.IDs)
	}
}

func (s *session) signalRootChanged() {
	s.chMu.RLock()
	defer s.chMu.RUnlock()
	if s.closed {
		return
	}
	// A pending signal already covers this one
	select {
	case s.stateCh <- models.StateChange{RootChanged: true}:
	default:
	}
}

// schedule queues data for the background saver, replacing any unsaved revision
func (s *session) schedule(data *models.FolderData) {
	s.mu.Lock()
	s.pending = data
	s.mu.Unlock()

	select {
	case s.saveSignal <- struct{}{}:
	default:
	}
}

func (s *session) runSaver() {
	defer s.wg.Done()
	for {
		select {
		case <-s.saveSignal:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *session) flush() {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	data := s.pending
	s.pending = nil
	s.mu.Unlock()
	if data == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()

	err := s.handle.Store.Save(ctx, &folderRepo.Snapshot{
		WorkspaceID: s.handle.WorkspaceID,
		UserID:      s.handle.UserID,
		Data:        data,
		Origin:      s.origin,
		UpdatedAt:   time.Now(),
	})
	if err != nil {
		s.logger.Error("failed to save folder snapshot", "error", err)
	}
}

func (s *session) close() {
	s.closeOnce.Do(func() {
		if s.unwatch != nil {
			s.unwatch()
		}
		close(s.done)
		s.wg.Wait()

		s.chMu.Lock()
		s.closed = true
		close(s.stateCh)
		if s.fctx.ViewChanges != nil {
			close(s.fctx.ViewChanges)
		}
		if s.fctx.TrashChanges != nil {
			close(s.fctx.TrashChanges)
		}
		s.chMu.Unlock()

		s.logger.Debug("folder closed")
	})
}
