package folder

// NotificationKind names what changed
type NotificationKind string

const (
	NotifyWorkspaceCreated        NotificationKind = "workspace_created"
	NotifyWorkspaceViewsUpdated   NotificationKind = "workspace_views_updated"
	NotifyWorkspaceSettingUpdated NotificationKind = "workspace_setting_updated"
	NotifyChildViewsUpdated       NotificationKind = "child_views_updated"
	NotifyViewUpdated             NotificationKind = "view_updated"
	NotifyTrashUpdated            NotificationKind = "trash_updated"
)

// TrashTopic is the topic every trash notification is sent to
const TrashTopic = "trash"

// Notification is one outbound message. Topic is a workspace id, a view id or TrashTopic.
type Notification struct {
	Topic   string           `json:"topic"`
	Kind    NotificationKind `json:"kind"`
	Payload any              `json:"payload"`
}
