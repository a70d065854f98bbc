package folder

import "time"

// Workspace is the top-level container owning the top-level views.
// Which workspace is current is tracked by the folder, not by the workspace.
type Workspace struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	ChildViews []string  `json:"child_views"` // ordered top-level view ids
	CreatedAt  time.Time `json:"created_at"`
}

// Clone returns a deep copy
func (w Workspace) Clone() Workspace {
	w.ChildViews = append([]string(nil), w.ChildViews...)
	return w
}

// WorkspaceSetting is the payload of a current-view change
type WorkspaceSetting struct {
	Workspace   *Workspace `json:"workspace"`
	CurrentView *ViewNode  `json:"current_view,omitempty"`
}
