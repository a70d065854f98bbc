package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"canopy/internal/collab"
	"canopy/internal/config"
	folderRepo "canopy/internal/domain/repositories/folder"
	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/notification"
	"canopy/internal/repository/memory"
	"canopy/internal/repository/postgres"
	"canopy/internal/service/content"
	"canopy/internal/service/folder"
)

// Services holds the folder stack shared by the server and the seed command
type Services struct {
	Sessions *folder.Sessions
	Content  *content.Handlers
	Hub      *notification.Hub
	Pool     *pgxpool.Pool // nil when running on in-memory stores

	listener *postgres.SnapshotListener
}

// storage is the persistence half of the stack
type storage struct {
	snapshots folderRepo.SnapshotStore
	feed      folderRepo.SnapshotFeed
	contents  folderRepo.ContentRepository
	cloud     folderSvc.CloudService
}

// SetupServices connects storage and builds the folder sessions.
// Without a database URL every store is in memory and nothing survives a restart.
func SetupServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{}

	var st storage
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set - folders are kept in memory only")
		store := collab.NewMemoryStore()
		st = storage{
			snapshots: store,
			feed:      store,
			contents:  memory.NewContentRepository(),
			cloud:     memory.NewWorkspaceRepository(),
		}
	} else {
		var err error
		st, err = s.connect(ctx, cfg, logger)
		if err != nil {
			s.Close(ctx)
			return nil, err
		}
	}

	builder, err := folder.NewDefaultFolderBuilder()
	if err != nil {
		s.Close(ctx)
		return nil, fmt.Errorf("load default folder: %w", err)
	}

	s.Content = content.NewHandlers(st.contents, cfg.ImportRoot, logger)
	s.Hub = notification.NewHub(cfg.NotificationQueueSize, logger)
	s.Sessions = folder.NewSessions(
		collab.NewEngine(st.feed, logger),
		s.Content.Registry,
		st.cloud,
		builder,
		st.snapshots,
		s.Hub,
		folder.Options{
			CoalesceWindow: cfg.CoalesceWindow,
			EventBuffer:    cfg.EventBuffer,
		},
		logger,
	)

	logger.Info("folder services initialized",
		"persistent", s.Pool != nil,
		"import_root", cfg.ImportRoot,
		"coalesce_window", cfg.CoalesceWindow,
	)
	return s, nil
}

func (s *Services) connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage, error) {
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConn)
	if err != nil {
		return storage{}, fmt.Errorf("connect database: %w", err)
	}
	s.Pool = pool
	logger.Info("database connected", "max_conns", cfg.DatabaseMaxConn)

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		return storage{}, err
	}

	listener := postgres.NewSnapshotListener(pool, cfg.NotifyChannel, logger)
	if err := listener.Start(ctx); err != nil {
		return storage{}, fmt.Errorf("start snapshot listener: %w", err)
	}
	s.listener = listener

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	txManager := postgres.NewTransactionManager(pool, logger)

	return storage{
		snapshots: postgres.NewSnapshotRepository(repoConfig, txManager, cfg.NotifyChannel),
		feed:      listener,
		contents:  postgres.NewContentRepository(repoConfig),
		cloud:     postgres.NewWorkspaceRepository(repoConfig),
	}, nil
}

// Close flushes every open folder, then releases the listener and the pool
func (s *Services) Close(ctx context.Context) error {
	var errs []error
	if s.Sessions != nil {
		s.Sessions.CloseAll(ctx)
	}
	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if s.Pool != nil {
		s.Pool.Close()
	}
	return errors.Join(errs...)
}
