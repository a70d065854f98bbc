package folder

// FolderData is the serialisable content of a whole folder snapshot.
// The collaboration engine owns its encoding; the core only builds seeds.
type FolderData struct {
	Workspaces         map[string]Workspace `json:"workspaces"`
	Views              map[string]View      `json:"views"`
	Trash              []TrashRecord        `json:"trash"`
	CurrentWorkspaceID string               `json:"current_workspace_id,omitempty"`
	CurrentViewID      string               `json:"current_view_id,omitempty"`
}

// NewFolderData returns an empty folder
func NewFolderData() *FolderData {
	return &FolderData{
		Workspaces: make(map[string]Workspace),
		Views:      make(map[string]View),
		Trash:      []TrashRecord{},
	}
}

// Clone deep-copies the folder data
func (d *FolderData) Clone() *FolderData {
	out := &FolderData{
		Workspaces:         make(map[string]Workspace, len(d.Workspaces)),
		Views:              make(map[string]View, len(d.Views)),
		Trash:              append([]TrashRecord{}, d.Trash...),
		CurrentWorkspaceID: d.CurrentWorkspaceID,
		CurrentViewID:      d.CurrentViewID,
	}
	for id, ws := range d.Workspaces {
		out.Workspaces[id] = ws.Clone()
	}
	for id, v := range d.Views {
		out.Views[id] = v.Clone()
	}
	return out
}
