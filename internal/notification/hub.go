package notification

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
)

// DefaultQueueSize is the per-subscriber queue bound
const DefaultQueueSize = 64

// Hub fans notifications out to subscribers. Delivery is best-effort: each
// subscriber owns a bounded queue and the oldest entry is dropped when it is full.
// Send never blocks.
type Hub struct {
	mu        sync.RWMutex
	subs      map[*Subscription]struct{}
	queueSize int
	dropped   atomic.Int64
	logger    *slog.Logger
}

// NewHub creates a hub with the given per-subscriber queue size
func NewHub(queueSize int, logger *slog.Logger) *Hub {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Hub{
		subs:      make(map[*Subscription]struct{}),
		queueSize: queueSize,
		logger:    logger,
	}
}

// Sink returns a NotificationSink scoped to one user
func (h *Hub) Sink(userID string) folderSvc.NotificationSink {
	return &userSink{hub: h, userID: userID}
}

type userSink struct {
	hub    *Hub
	userID string
}

func (s *userSink) Send(n models.Notification) {
	s.hub.publish(s.userID, n)
}

// Subscribe registers a subscriber for the user's notifications. An empty
// topic list receives every topic.
func (h *Hub) Subscribe(userID string, topics []string) *Subscription {
	sub := &Subscription{
		hub:    h,
		userID: userID,
		topics: make(map[string]struct{}, len(topics)),
		limit:  h.queueSize,
		ready:  make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	for _, t := range topics {
		sub.topics[t] = struct{}{}
	}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) publish(userID string, n models.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs {
		if sub.userID != userID || !sub.wants(n.Topic) {
			continue
		}
		if sub.push(n) {
			h.dropped.Add(1)
			h.logger.Warn("notification dropped, subscriber queue full",
				"user_id", userID,
				"topic", n.Topic,
				"kind", n.Kind,
			)
		}
	}
}

// Dropped reports how many notifications were discarded
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Subscribers reports the current subscriber count
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Subscription is one subscriber's bounded queue
type Subscription struct {
	hub    *Hub
	userID string
	topics map[string]struct{}
	limit  int

	mu    sync.Mutex
	queue []models.Notification
	ready chan struct{}

	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscription) wants(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	_, ok := s.topics[topic]
	return ok
}

// push enqueues n and reports whether an older entry was dropped
func (s *Subscription) push(n models.Notification) (dropped bool) {
	s.mu.Lock()
	if len(s.queue) >= s.limit {
		s.queue = s.queue[1:]
		dropped = true
	}
	s.queue = append(s.queue, n)
	s.mu.Unlock()

	select {
	case s.ready <- struct{}{}:
	default:
	}
	return dropped
}

// Next blocks until a notification is available, ctx is done or the subscription is closed
func (s *Subscription) Next(ctx context.Context) (models.Notification, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			n := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return n, nil
		}
		s.mu.Unlock()

		select {
		case <-s.ready:
		case <-s.done:
			return models.Notification{}, context.Canceled
		case <-ctx.Done():
			return models.Notification{}, ctx.Err()
		}
	}
}

// Close unregisters the subscription. Safe to call multiple times.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.hub.remove(s)
		close(s.done)
	})
}
