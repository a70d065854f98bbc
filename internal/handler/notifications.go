package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"canopy/internal/handler/sse"
	"canopy/internal/httputil"
	"canopy/internal/notification"
)

// NotificationHandler streams folder notifications over SSE
type NotificationHandler struct {
	hub      *notification.Hub
	sessions SessionProvider
	config   *sse.Config
	logger   *slog.Logger
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(hub *notification.Hub, sessions SessionProvider, config *sse.Config, logger *slog.Logger) *NotificationHandler {
	if config == nil {
		config = sse.DefaultConfig()
	}
	return &NotificationHandler{
		hub:      hub,
		sessions: sessions,
		config:   config,
		logger:   logger,
	}
}

// Stream handles GET /api/notifications
// Repeated topic parameters filter the stream; none receives every topic.
// Each notification is an event named after its kind with the notification as data.
func (h *NotificationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "user not authenticated")
		return
	}

	// the user's folder must be open for anything to be published
	if _, err := h.sessions.Get(r.Context(), userID); err != nil {
		handleError(w, r, err, h.logger)
		return
	}

	topics := r.URL.Query()["topic"]
	sub := h.hub.Subscribe(userID, topics)
	defer sub.Close()

	writer, err := sse.NewWriter(w)
	if err != nil {
		httputil.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	clientID := uuid.NewString()
	logger := h.logger.With("user_id", userID, "client_id", clientID)
	logger.Debug("SSE stream established", "topics", topics)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if h.config.KeepAliveInterval > 0 {
		keepAlive := sse.NewTickerKeepAlive(h.config.KeepAliveInterval)
		stopped := keepAlive.Start(writer, logger)
		go func() {
			select {
			case <-stopped:
				cancel()
			case <-ctx.Done():
			}
		}()
		defer func() {
			keepAlive.Stop()
			<-stopped
		}()
	}

	for {
		n, err := sub.Next(ctx)
		if err != nil {
			logger.Debug("SSE stream ended", "reason", err)
			return
		}

		if err := writer.WriteEvent(string(n.Kind), n); err != nil {
			logger.Info("client disconnected during event write", "error", err)
			return
		}
	}
}
