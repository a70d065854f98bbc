package folder

import (
	"context"
	"log/slog"
	"time"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// reloadTimeout bounds one snapshot rebuild after a root change
const reloadTimeout = 30 * time.Second

type eventKind int

const (
	viewChanged eventKind = iota
	trashChanged
	rootReloaded
)

// event is the single internal shape of everything the dispatcher reacts to
type event struct {
	kind     eventKind
	parentID string   // viewChanged
	trashIDs []string // trashChanged
}

// dispatcher turns change streams into notifications. One goroutine consumes
// view, trash and root-change streams, so ordering and deduplication live here.
// Parent ids and trash dirtiness are accumulated for one coalescing window and
// flushed together; the trash list goes out before the parent payloads.
//
// The dispatcher never owns the cell. It resolves its handle on every event and
// stops silently once the handle is released or the streams are closed.
type dispatcher struct {
	registry    *cellRegistry
	handle      cellHandle
	workspaceID string
	notifier    *notifier
	window      time.Duration
	logger      *slog.Logger

	views <-chan models.ViewChange
	trash <-chan models.TrashChange
	state <-chan models.StateChange

	pendingParents map[string]struct{}
	trashDirty     bool

	done chan struct{}
}

func newDispatcher(
	registry *cellRegistry,
	handle cellHandle,
	workspaceID string,
	fctx folderSvc.FolderContext,
	state <-chan models.StateChange,
	n *notifier,
	window time.Duration,
	logger *slog.Logger,
) *dispatcher {
	return &dispatcher{
		registry:       registry,
		handle:         handle,
		workspaceID:    workspaceID,
		notifier:       n,
		window:         window,
		logger:         logger,
		views:          fctx.ViewChanges,
		trash:          fctx.TrashChanges,
		state:          state,
		pendingParents: make(map[string]struct{}),
		done:           make(chan struct{}),
	}
}

func (d *dispatcher) start() {
	go d.run()
}

// wait blocks until the dispatcher stopped or ctx is done
func (d *dispatcher) wait(ctx context.Context) {
	select {
	case <-d.done:
	case <-ctx.Done():
	}
}

func (d *dispatcher) run() {
	defer close(d.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if d.views == nil && d.trash == nil && d.state == nil {
			d.logger.Debug("folder change streams closed, dispatcher stopped")
			return
		}

		var ev event
		select {
		case change, ok := <-d.views:
			if !ok {
				d.views = nil
				continue
			}
			if change.Kind == models.ViewDeleted {
				// Removal is announced through the trash path
				continue
			}
			ev = event{kind: viewChanged, parentID: change.View.ParentViewID}

		case change, ok := <-d.trash:
			if !ok {
				d.trash = nil
				continue
			}
			ev = event{kind: trashChanged, trashIDs: change.IDs}

		case sc, ok := <-d.state:
			if !ok {
				d.state = nil
				continue
			}
			if !sc.RootChanged {
				continue
			}
			ev = event{kind: rootReloaded}

		case <-fire:
			fire = nil
			if !d.flush() {
				return
			}
			continue
		}

		if !d.apply(ev) {
			return
		}

		if !d.hasPending() || fire != nil {
			continue
		}
		if d.window <= 0 {
			if !d.flush() {
				return
			}
			continue
		}
		if timer == nil {
			timer = time.NewTimer(d.window)
		} else {
			timer.Reset(d.window)
		}
		fire = timer.C
	}
}

// apply folds one event into the pending batch. Returns false when the cell is gone.
func (d *dispatcher) apply(ev event) bool {
	cell, ok := d.registry.lookup(d.handle)
	if !ok {
		d.logger.Debug("folder released, dispatcher stopped")
		return false
	}

	switch ev.kind {
	case viewChanged:
		d.pendingParents[ev.parentID] = struct{}{}

	case trashChanged:
		parents := withFolder(cell, nil, func(f folderSvc.Folder) []string {
			return parentIDsOf(f, ev.trashIDs)
		})
		for _, id := range parents {
			d.pendingParents[id] = struct{}{}
		}
		d.trashDirty = true

	case rootReloaded:
		if !d.flush() {
			return false
		}
		return d.reload(cell)
	}
	return true
}

func (d *dispatcher) hasPending() bool {
	return d.trashDirty || len(d.pendingParents) > 0
}

// flush sends the batched notifications
func (d *dispatcher) flush() bool {
	if !d.hasPending() {
		return true
	}
	cell, ok := d.registry.lookup(d.handle)
	if !ok {
		return false
	}

	parents := sortedKeys(d.pendingParents)
	trashDirty := d.trashDirty
	d.pendingParents = make(map[string]struct{})
	d.trashDirty = false

	msgs := withFolder(cell, nil, func(f folderSvc.Folder) []models.Notification {
		var out []models.Notification
		if trashDirty {
			out = append(out, trashNotification(f))
		}
		return append(out, parentViewNotifications(f, parents, d.logger)...)
	})
	d.notifier.sendAll(msgs)
	return true
}

// reload swaps the snapshot for a rebuilt one. The cell stays empty while the
// rebuild runs, so concurrent callers see NotInitialized instead of stale data.
func (d *dispatcher) reload(cell *folderCell) bool {
	old := cell.take()
	if old == nil {
		return true
	}
	d.logger.Debug("reloading folder", "workspace_id", d.workspaceID)

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	next, err := old.Reload(ctx)
	if err != nil {
		d.logger.Error("failed to reload folder, keeping previous snapshot",
			"workspace_id", d.workspaceID,
			"error", err,
		)
		next = old
	} else {
		d.notifier.send(workspaceViewsNotification(next, d.workspaceID))
	}

	if !d.registry.reinstall(d.handle, next) {
		d.logger.Debug("folder released during reload, closing snapshot")
		if err := next.Close(); err != nil {
			d.logger.Warn("failed to close folder", "error", err)
		}
		return false
	}
	return true
}
