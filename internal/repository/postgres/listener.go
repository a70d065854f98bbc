package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	folderRepo "canopy/internal/domain/repositories/folder"
)

const (
	listenRetryMin = time.Second
	listenRetryMax = 30 * time.Second
)

// SnapshotListener holds one connection in LISTEN on the snapshot channel and
// fans notices out to the watchers of each workspace.
type SnapshotListener struct {
	pool    *pgxpool.Pool
	channel string
	logger  *slog.Logger

	mu       sync.Mutex
	watchers map[string]map[int]func(origin string)
	next     int

	cancel context.CancelFunc
	done   chan struct{}
}

var _ folderRepo.SnapshotFeed = (*SnapshotListener)(nil)

// NewSnapshotListener creates a listener; Start connects it
func NewSnapshotListener(pool *pgxpool.Pool, channel string, logger *slog.Logger) *SnapshotListener {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	return &SnapshotListener{
		pool:     pool,
		channel:  channel,
		logger:   logger,
		watchers: make(map[string]map[int]func(string)),
	}
}

// Start connects and begins listening. The first connection is made before
// returning so a misconfigured database fails fast; later failures reconnect
// with backoff until Close.
func (l *SnapshotListener) Start(ctx context.Context) error {
	conn, err := l.listen(ctx)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	go l.run(runCtx, conn)
	return nil
}

func (l *SnapshotListener) listen(ctx context.Context) (*pgx.Conn, error) {
	pooled, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener connection: %w", err)
	}
	// a LISTENing connection must never go back to the pool
	conn := pooled.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("snapshot listener connected", "channel", l.channel)
	return conn, nil
}

func (l *SnapshotListener) run(ctx context.Context, conn *pgx.Conn) {
	defer close(l.done)
	retry := listenRetryMin

	for {
		if conn == nil {
			var err error
			conn, err = l.listen(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("snapshot listener reconnect failed", "error", err, "retry_in", retry)
				select {
				case <-ctx.Done():
					return
				case <-time.After(retry):
				}
				retry = min(retry*2, listenRetryMax)
				continue
			}
			retry = listenRetryMin
		}

		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			_ = conn.Close(context.Background())
			conn = nil
			if ctx.Err() != nil {
				return
			}
			l.logger.Warn("snapshot listener lost connection", "error", err)
			continue
		}
		l.dispatch(n.Payload)
	}
}

// dispatch calls the watchers of the announced workspace outside the lock
func (l *SnapshotListener) dispatch(payload string) {
	var notice snapshotNotice
	if err := json.Unmarshal([]byte(payload), &notice); err != nil {
		l.logger.Warn("malformed snapshot notice", "payload", payload, "error", err)
		return
	}

	l.mu.Lock()
	fns := make([]func(string), 0, len(l.watchers[notice.WorkspaceID]))
	for _, fn := range l.watchers[notice.WorkspaceID] {
		fns = append(fns, fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(notice.Origin)
	}
}

// Watch registers fn for saves of workspaceID
func (l *SnapshotListener) Watch(workspaceID string, fn func(origin string)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	id := l.next
	l.next++
	if l.watchers[workspaceID] == nil {
		l.watchers[workspaceID] = make(map[int]func(string))
	}
	l.watchers[workspaceID][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.watchers[workspaceID], id)
			if len(l.watchers[workspaceID]) == 0 {
				delete(l.watchers, workspaceID)
			}
		})
	}
}

// Close stops listening and waits for the listener goroutine
func (l *SnapshotListener) Close() error {
	if l.cancel == nil {
		return errors.New("snapshot listener not started")
	}
	l.cancel()
	<-l.done
	return nil
}
