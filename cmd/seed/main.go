package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"canopy/internal/config"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"
	"canopy/internal/repository/postgres"
	"canopy/internal/service"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a folder")
	clearData := flag.Bool("clear-data", false, "Clear the user's workspaces and views (keep schema)")
	userID := flag.String("user", "", "User to seed (defaults to DEV_USER_ID)")
	importDir := flag.String("dir", "", "Directory whose files are imported under a new top-level view")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL must be set; seeding an in-memory store has no effect")
	}

	user := *userID
	if user == "" {
		user = os.Getenv("DEV_USER_ID")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx := context.Background()
	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, 2)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		log.Println("🗑️  Dropping all tables...")
		if err := postgres.DropSchema(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		pool.Close()
		log.Println("✅ Tables dropped")
	}

	// SetupServices ensures the schema
	services, err := service.SetupServices(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up services: %v", err)
	}
	defer services.Close(ctx)
	log.Printf("✅ Schema ready (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	if *schemaOnly {
		return
	}
	if user == "" {
		log.Fatalf("--user or DEV_USER_ID is required to seed a folder")
	}

	if *clearData {
		log.Printf("🧹 Clearing folder data of %s...", user)
		if err := postgres.ClearUser(ctx, services.Pool, tables, user); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared")
		return
	}

	// Opening the folder of a new user seeds the default workspace
	svc, err := services.Sessions.Get(ctx, user)
	if err != nil {
		log.Fatalf("Failed to open folder of %s: %v", user, err)
	}
	ws, err := svc.GetCurrentWorkspace(ctx)
	if err != nil {
		log.Fatalf("Failed to read current workspace: %v", err)
	}
	log.Printf("🌱 Folder of %s ready (workspace %q, %s)", user, ws.Name, ws.ID)

	if *importDir != "" {
		if err := importDirectory(ctx, svc, ws.ID, *importDir); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
	}

	log.Println("🎉 Seeding complete!")
}

// importDirectory mirrors dir as a view tree below the workspace: directories
// become documents and every file is imported with its own layout.
func importDirectory(ctx context.Context, svc folderSvc.FolderService, workspaceID, dir string) error {
	root, err := svc.CreateViewWithParams(ctx, &folderSvc.CreateViewParams{
		ParentViewID: workspaceID,
		Name:         filepath.Base(filepath.Clean(dir)),
		Layout:       models.LayoutDocument,
	})
	if err != nil {
		return fmt.Errorf("create root view: %w", err)
	}

	parents := map[string]string{".": root.ID}
	imported := 0

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil || rel == "." {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		parentID := parents[filepath.Dir(rel)]
		if d.IsDir() {
			view, err := svc.CreateViewWithParams(ctx, &folderSvc.CreateViewParams{
				ParentViewID: parentID,
				Name:         d.Name(),
				Layout:       models.LayoutDocument,
			})
			if err != nil {
				return fmt.Errorf("create view for %s: %w", rel, err)
			}
			parents[rel] = view.ID
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		view, err := svc.Import(ctx, &folderSvc.ImportParams{
			ParentViewID: parentID,
			Name:         d.Name(),
			Layout:       layoutFor(d.Name()),
			Data:         data,
		})
		if err != nil {
			log.Printf("❌ Failed to import %s: %v", rel, err)
			return nil
		}
		imported++
		log.Printf("✅ Imported %s (ID: %s, layout: %s)", rel, view.ID, view.Layout)
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("📝 Imported %d files from %s", imported, dir)
	return nil
}

func layoutFor(name string) models.ViewLayout {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".json":
		return models.LayoutGrid
	default:
		return models.LayoutDocument
	}
}
