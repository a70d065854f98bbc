package collab

import (
	"context"
	"slices"
	"sort"
	"time"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// memFolder is one in-memory snapshot. It is not safe for concurrent use;
// the folder manager serialises access.
type memFolder struct {
	s    *session
	data *models.FolderData
}

var _ folderSvc.Folder = (*memFolder)(nil)

func (f *memFolder) changed() {
	f.s.schedule(f.data.Clone())
}

// --- workspaces ---

func (f *memFolder) GetWorkspace(id string) (*models.Workspace, bool) {
	ws, ok := f.data.Workspaces[id]
	if !ok {
		return nil, false
	}
	ws = ws.Clone()
	return &ws, true
}

func (f *memFolder) GetAllWorkspaces() []models.Workspace {
	out := make([]models.Workspace, 0, len(f.data.Workspaces))
	for _, ws := range f.data.Workspaces {
		out = append(out, ws.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (f *memFolder) CreateWorkspace(ws models.Workspace) {
	if ws.CreatedAt.IsZero() {
		ws.CreatedAt = time.Now()
	}
	if existing, ok := f.data.Workspaces[ws.ID]; ok && len(ws.ChildViews) == 0 {
		ws.ChildViews = existing.ChildViews
	}
	f.data.Workspaces[ws.ID] = ws.Clone()
	f.changed()
}

func (f *memFolder) GetCurrentWorkspaceID() (string, bool) {
	id := f.data.CurrentWorkspaceID
	return id, id != ""
}

func (f *memFolder) SetCurrentWorkspace(id string) {
	f.data.CurrentWorkspaceID = id
	f.changed()
}

func (f *memFolder) GetWorkspaceViews(workspaceID string) []models.View {
	ws, ok := f.data.Workspaces[workspaceID]
	if !ok {
		return []models.View{}
	}
	return f.GetViews(ws.ChildViews)
}

// --- views ---

func (f *memFolder) GetView(id string) (*models.View, bool) {
	v, ok := f.data.Views[id]
	if !ok {
		return nil, false
	}
	v = v.Clone()
	return &v, true
}

func (f *memFolder) GetViews(ids []string) []models.View {
	out := make([]models.View, 0, len(ids))
	for _, id := range ids {
		if v, ok := f.data.Views[id]; ok {
			out = append(out, v.Clone())
		}
	}
	return out
}

func (f *memFolder) GetViewsBelongTo(parentID string) []models.View {
	return f.GetViews(f.childIDs(parentID))
}

// childIDs returns the ordered child list of a view or workspace
func (f *memFolder) childIDs(parentID string) []string {
	if v, ok := f.data.Views[parentID]; ok {
		return v.Children
	}
	if ws, ok := f.data.Workspaces[parentID]; ok {
		return ws.ChildViews
	}
	return nil
}

func (f *memFolder) setChildIDs(parentID string, ids []string) {
	if v, ok := f.data.Views[parentID]; ok {
		v.Children = ids
		f.data.Views[parentID] = v
		return
	}
	if ws, ok := f.data.Workspaces[parentID]; ok {
		ws.ChildViews = ids
		f.data.Workspaces[parentID] = ws
	}
}

func (f *memFolder) InsertView(view models.View) {
	if view.CreatedAt.IsZero() {
		view.CreatedAt = time.Now()
	}
	if existing, ok := f.data.Views[view.ID]; ok && len(view.Children) == 0 {
		view.Children = existing.Children
	}
	if view.Children == nil {
		view.Children = []string{}
	}
	f.data.Views[view.ID] = view.Clone()

	siblings := f.childIDs(view.ParentViewID)
	if !slices.Contains(siblings, view.ID) {
		f.setChildIDs(view.ParentViewID, append(slices.Clone(siblings), view.ID))
	}

	f.changed()
	f.s.publishView(models.ViewChange{Kind: models.ViewCreated, View: view.Clone()})
}

// DeleteViews physically removes the views and all their descendants
func (f *memFolder) DeleteViews(ids []string) {
	doomed := f.collectDescendants(ids)
	if len(doomed) == 0 {
		return
	}

	removed := make([]string, 0, len(doomed))
	for _, id := range doomed {
		v, ok := f.data.Views[id]
		if !ok {
			continue
		}
		siblings := f.childIDs(v.ParentViewID)
		if i := slices.Index(siblings, id); i >= 0 {
			f.setChildIDs(v.ParentViewID, slices.Delete(slices.Clone(siblings), i, i+1))
		}
		delete(f.data.Views, id)
		removed = append(removed, id)
		if f.data.CurrentViewID == id {
			f.data.CurrentViewID = ""
		}
	}

	// Trash records of purged views are meaningless
	var pruned []string
	f.data.Trash = slices.DeleteFunc(f.data.Trash, func(r models.TrashRecord) bool {
		if _, alive := f.data.Views[r.ID]; alive {
			return false
		}
		pruned = append(pruned, r.ID)
		return true
	})

	f.changed()
	f.s.publishView(models.ViewChange{Kind: models.ViewDeleted, IDs: removed})
	if len(pruned) > 0 {
		f.s.publishTrash(models.TrashChange{Kind: models.TrashDeleted, IDs: pruned})
	}
}

func (f *memFolder) collectDescendants(ids []string) []string {
	seen := make(map[string]struct{})
	var out []string
	queue := slices.Clone(ids)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		v, ok := f.data.Views[id]
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		queue = append(queue, v.Children...)
	}
	return out
}

// MoveView reorders a view among its siblings. from is a hint; the view's
// actual position wins when they disagree. to is clamped to the list.
func (f *memFolder) MoveView(id string, from, to int) (*models.View, bool) {
	v, ok := f.data.Views[id]
	if !ok {
		return nil, false
	}
	siblings := slices.Clone(f.childIDs(v.ParentViewID))
	idx := from
	if idx < 0 || idx >= len(siblings) || siblings[idx] != id {
		idx = slices.Index(siblings, id)
	}
	if idx < 0 {
		return nil, false
	}

	siblings = slices.Delete(siblings, idx, idx+1)
	to = max(0, min(to, len(siblings)))
	siblings = slices.Insert(siblings, to, id)
	f.setChildIDs(v.ParentViewID, siblings)
	f.changed()

	v = v.Clone()
	return &v, true
}

func (f *memFolder) UpdateView(id string, update models.ViewUpdate) (*models.View, bool) {
	v, ok := f.data.Views[id]
	if !ok {
		return nil, false
	}
	if update.Empty() {
		v = v.Clone()
		return &v, true
	}
	update.Apply(&v)
	f.data.Views[id] = v
	f.changed()

	f.s.publishView(models.ViewChange{Kind: models.ViewUpdated, View: v.Clone()})
	v = v.Clone()
	return &v, true
}

func (f *memFolder) GetCurrentView() (string, bool) {
	id := f.data.CurrentViewID
	return id, id != ""
}

func (f *memFolder) SetCurrentView(id string) {
	f.data.CurrentViewID = id
	f.changed()
}

// --- trash ---

func (f *memFolder) GetAllTrash() []models.TrashInfo {
	out := make([]models.TrashInfo, 0, len(f.data.Trash))
	for _, r := range f.data.Trash {
		info := models.TrashInfo{ID: r.ID, CreatedAt: r.CreatedAt}
		if v, ok := f.data.Views[r.ID]; ok {
			info.Name = v.Name
		}
		out = append(out, info)
	}
	return out
}

func (f *memFolder) AddTrash(records []models.TrashRecord) {
	var added []string
	for _, r := range records {
		if slices.ContainsFunc(f.data.Trash, func(t models.TrashRecord) bool { return t.ID == r.ID }) {
			continue
		}
		f.data.Trash = append(f.data.Trash, r)
		added = append(added, r.ID)
	}
	if len(added) == 0 {
		return
	}
	f.changed()
	f.s.publishTrash(models.TrashChange{Kind: models.TrashCreated, IDs: added})
}

func (f *memFolder) DeleteTrash(ids []string) {
	var removed []string
	f.data.Trash = slices.DeleteFunc(f.data.Trash, func(r models.TrashRecord) bool {
		if slices.Contains(ids, r.ID) {
			removed = append(removed, r.ID)
			return true
		}
		return false
	})
	if len(removed) == 0 {
		return
	}
	f.changed()
	f.s.publishTrash(models.TrashChange{Kind: models.TrashDeleted, IDs: removed})
}

func (f *memFolder) ClearTrash() {
	if len(f.data.Trash) == 0 {
		return
	}
	ids := make([]string, 0, len(f.data.Trash))
	for _, r := range f.data.Trash {
		ids = append(ids, r.ID)
	}
	f.data.Trash = []models.TrashRecord{}
	f.changed()
	f.s.publishTrash(models.TrashChange{Kind: models.TrashDeleted, IDs: ids})
}

// --- lifecycle ---

func (f *memFolder) CreateWithData(data *models.FolderData) {
	f.data = normalize(data.Clone())
	f.changed()
}

func (f *memFolder) SubscribeStateChange() <-chan models.StateChange {
	return f.s.stateCh
}

func (f *memFolder) Reload(ctx context.Context) (folderSvc.Folder, error) {
	// An unsaved local revision is written first so memory and store agree
	f.s.flush()
	data, err := loadData(ctx, f.s.handle)
	if err != nil {
		return nil, err
	}
	f.s.logger.Debug("folder reloaded", "views", len(data.Views))
	return &memFolder{s: f.s, data: data}, nil
}

func (f *memFolder) Close() error {
	f.s.close()
	return nil
}
