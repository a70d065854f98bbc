package folder

import (
	"sort"
	"time"

	"canopy/internal/domain"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// Pure helpers over a loaded folder. They run inside the cell lock.

func trashIDSet(f folderSvc.Folder) map[string]struct{} {
	return models.TrashIDs(f.GetAllTrash())
}

func withoutTrashed(views []models.View, trash map[string]struct{}) []models.View {
	out := make([]models.View, 0, len(views))
	for _, v := range views {
		if _, trashed := trash[v.ID]; !trashed {
			out = append(out, v)
		}
	}
	return out
}

// getViewNode returns the view with its non-trashed direct children.
// Trashed or absent views are NotFound.
func getViewNode(f folderSvc.Folder, viewID string) (*models.ViewNode, error) {
	trash := trashIDSet(f)
	if _, trashed := trash[viewID]; trashed {
		return nil, domain.NewNotFound("view %s is in trash", viewID)
	}
	view, ok := f.GetView(viewID)
	if !ok {
		return nil, domain.NewNotFound("view %s not found", viewID)
	}
	children := withoutTrashed(f.GetViewsBelongTo(view.ID), trash)
	node := models.NewViewNode(*view, children)
	return &node, nil
}

// workspaceViewNodes lists the non-trashed top-level views of a workspace, each
// with its non-trashed children
func workspaceViewNodes(f folderSvc.Folder, workspaceID string) []models.ViewNode {
	trash := trashIDSet(f)
	views := withoutTrashed(f.GetWorkspaceViews(workspaceID), trash)
	nodes := make([]models.ViewNode, 0, len(views))
	for _, v := range views {
		children := withoutTrashed(f.GetViewsBelongTo(v.ID), trash)
		nodes = append(nodes, models.NewViewNode(v, children))
	}
	return nodes
}

// parentExists reports whether id names a view or a workspace
func parentExists(f folderSvc.Folder, id string) bool {
	if _, ok := f.GetWorkspace(id); ok {
		return true
	}
	_, ok := f.GetView(id)
	return ok
}

// parentIDsOf returns the distinct parent ids of the given views, sorted
func parentIDsOf(f folderSvc.Folder, viewIDs []string) []string {
	set := make(map[string]struct{})
	for _, v := range f.GetViews(viewIDs) {
		set[v.ParentViewID] = struct{}{}
	}
	return sortedKeys(set)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// moveToTrash records the view as trashed and clears the current-view
// selection when it pointed at the trashed view
func moveToTrash(f folderSvc.Folder, viewID string, now time.Time) {
	f.AddTrash([]models.TrashRecord{{ID: viewID, CreatedAt: now}})
	if current, ok := f.GetCurrentView(); ok && current == viewID {
		f.SetCurrentView("")
	}
}

// purgeTrash removes the trash records and the views behind them
func purgeTrash(f folderSvc.Folder, ids []string) {
	f.DeleteTrash(ids)
	f.DeleteViews(ids)
}

// purgeAllTrash empties the trash and deletes every trashed view, returning their ids
func purgeAllTrash(f folderSvc.Folder) []string {
	trash := f.GetAllTrash()
	ids := make([]string, 0, len(trash))
	for _, t := range trash {
		ids = append(ids, t.ID)
	}
	f.ClearTrash()
	f.DeleteViews(ids)
	return ids
}

// layoutsOf maps view ids (including descendants) to their layouts, used to
// purge content after physical deletion
func layoutsOf(f folderSvc.Folder, ids []string) map[string]models.ViewLayout {
	out := make(map[string]models.ViewLayout)
	queue := append([]string(nil), ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := out[id]; seen {
			continue
		}
		v, ok := f.GetView(id)
		if !ok {
			continue
		}
		out[id] = v.Layout
		queue = append(queue, v.Children...)
	}
	return out
}
