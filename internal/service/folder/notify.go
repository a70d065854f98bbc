package folder

import (
	"log/slog"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// notifier builds notification payloads from locked reads and hands them to the
// sink after the lock is released. Delivery is fire-and-forget.
type notifier struct {
	sink   folderSvc.NotificationSink
	logger *slog.Logger
}

func newNotifier(sink folderSvc.NotificationSink, logger *slog.Logger) *notifier {
	return &notifier{sink: sink, logger: logger}
}

// send delivers one notification; sink failures never reach the caller
func (n *notifier) send(msg models.Notification) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("notification sink failed",
				"topic", msg.Topic,
				"kind", msg.Kind,
				"error", r,
			)
		}
	}()
	n.sink.Send(msg)
}

func (n *notifier) sendAll(msgs []models.Notification) {
	for _, msg := range msgs {
		n.send(msg)
	}
}

// parentViewsDidChange notifies every parent that its child list changed
func (n *notifier) parentViewsDidChange(cell *folderCell, parentIDs []string) {
	if len(parentIDs) == 0 {
		return
	}
	msgs := withFolder(cell, nil, func(f folderSvc.Folder) []models.Notification {
		return parentViewNotifications(f, parentIDs, n.logger)
	})
	n.sendAll(msgs)
}

// parentViewNotifications computes one payload per parent id. A parent equal
// to the current workspace yields the workspace view list, since workspaces
// are not stored as views.
func parentViewNotifications(f folderSvc.Folder, parentIDs []string, logger *slog.Logger) []models.Notification {
	workspaceID, ok := f.GetCurrentWorkspaceID()
	if !ok {
		return nil
	}

	trash := trashIDSet(f)
	msgs := make([]models.Notification, 0, len(parentIDs))
	for _, parentID := range parentIDs {
		if parentID == workspaceID {
			msgs = append(msgs, workspaceViewsNotification(f, workspaceID))
			continue
		}

		parent, ok := f.GetView(parentID)
		if !ok {
			logger.Debug("skip child views notification, parent view missing", "parent_view_id", parentID)
			continue
		}
		children := withoutTrashed(f.GetViewsBelongTo(parentID), trash)
		logger.Debug("child views updated", "parent_view_id", parentID, "child_views_count", len(children))

		msgs = append(msgs, models.Notification{
			Topic:   parentID,
			Kind:    models.NotifyChildViewsUpdated,
			Payload: models.NewViewNode(*parent, children),
		})
	}
	return msgs
}

func workspaceViewsNotification(f folderSvc.Folder, workspaceID string) models.Notification {
	return models.Notification{
		Topic:   workspaceID,
		Kind:    models.NotifyWorkspaceViewsUpdated,
		Payload: workspaceViewNodes(f, workspaceID),
	}
}

func trashNotification(f folderSvc.Folder) models.Notification {
	return models.Notification{
		Topic:   models.TrashTopic,
		Kind:    models.NotifyTrashUpdated,
		Payload: f.GetAllTrash(),
	}
}

func emptyTrashNotification() models.Notification {
	return models.Notification{
		Topic:   models.TrashTopic,
		Kind:    models.NotifyTrashUpdated,
		Payload: []models.TrashInfo{},
	}
}
