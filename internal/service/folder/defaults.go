package folder

import (
	"context"
	"embed"
	"fmt"
	"time"

	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFiles embed.FS

// maxSeedConcurrency bounds concurrent handler calls while seeding
const maxSeedConcurrency = 4

type defaultTemplate struct {
	Workspace struct {
		Name string `yaml:"name"`
	} `yaml:"workspace"`
	Views []defaultView `yaml:"views"`
}

type defaultView struct {
	Name     string        `yaml:"name"`
	Layout   string        `yaml:"layout"`
	Desc     string        `yaml:"desc"`
	Body     string        `yaml:"body"`
	Children []defaultView `yaml:"children"`
}

// DefaultFolderBuilder produces the seed folder of a new user from the embedded template
type DefaultFolderBuilder struct {
	template defaultTemplate
}

// NewDefaultFolderBuilder loads the embedded template
func NewDefaultFolderBuilder() (*DefaultFolderBuilder, error) {
	const filename = "defaults/workspace.yaml"
	data, err := defaultFiles.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	var tmpl defaultTemplate
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", filename, err)
	}
	if err := checkDefaultViews(tmpl.Views); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", filename, err)
	}
	return &DefaultFolderBuilder{template: tmpl}, nil
}

func checkDefaultViews(views []defaultView) error {
	for _, v := range views {
		if _, err := models.ParseViewLayout(v.Layout); err != nil {
			return fmt.Errorf("view %q: %w", v.Name, err)
		}
		if err := checkDefaultViews(v.Children); err != nil {
			return err
		}
	}
	return nil
}

// WorkspaceName is the name given to a new user's first workspace
func (b *DefaultFolderBuilder) WorkspaceName() string {
	return b.template.Workspace.Name
}

type seedTask struct {
	view models.View
	body []byte
}

// Build materialises the content of every template view through the handlers,
// then returns the seed data and the workspace it creates. Content is created
// before the tree exists, so no seeded view is ever visible without content.
func (b *DefaultFolderBuilder) Build(ctx context.Context, userID, workspaceID string, handlers *HandlerRegistry) (*models.FolderData, *models.Workspace, error) {
	now := time.Now()
	data := models.NewFolderData()
	ws := models.Workspace{
		ID:        workspaceID,
		Name:      b.template.Workspace.Name,
		CreatedAt: now,
	}

	var tasks []seedTask
	var walk func(parentID string, views []defaultView) []string
	walk = func(parentID string, views []defaultView) []string {
		ids := make([]string, 0, len(views))
		for _, dv := range views {
			layout, _ := models.ParseViewLayout(dv.Layout)
			view := models.View{
				ID:           uuid.NewString(),
				ParentViewID: parentID,
				Name:         dv.Name,
				Desc:         dv.Desc,
				Layout:       layout,
				CreatedAt:    now,
			}
			view.Children = walk(view.ID, dv.Children)
			data.Views[view.ID] = view
			tasks = append(tasks, seedTask{view: view, body: []byte(dv.Body)})
			ids = append(ids, view.ID)
		}
		return ids
	}
	ws.ChildViews = walk(workspaceID, b.template.Views)

	resolved := make([]folderSvc.ContentHandler, len(tasks))
	for i, task := range tasks {
		handler, err := handlers.Get(task.view.Layout)
		if err != nil {
			return nil, nil, err
		}
		resolved[i] = handler
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxSeedConcurrency)
	for i, task := range tasks {
		handler := resolved[i]
		g.Go(func() error {
			v := task.view
			if len(task.body) == 0 {
				return handler.CreateBuiltInView(gctx, userID, v.ID, v.Name, v.Layout)
			}
			return handler.CreateViewWithViewData(gctx, userID, v.ID, v.Name, task.body, v.Layout, nil)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("seed default views: %w", err)
	}

	data.Workspaces[ws.ID] = ws
	data.CurrentWorkspaceID = ws.ID
	if len(ws.ChildViews) > 0 {
		data.CurrentViewID = ws.ChildViews[0]
	}

	out := ws.Clone()
	return data, &out, nil
}
