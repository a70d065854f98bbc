package folder

import (
	"errors"

	"canopy/internal/config"
	models "canopy/internal/domain/models/folder"
	folderSvc "canopy/internal/domain/services/folder"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var knownLayouts = []any{
	models.LayoutDocument,
	models.LayoutGrid,
	models.LayoutBoard,
	models.LayoutCalendar,
}

func validateCreateWorkspaceParams(p *folderSvc.CreateWorkspaceParams) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Name,
			validation.Required,
			validation.Length(1, config.MaxWorkspaceNameLength),
		),
		validation.Field(&p.Desc, validation.Length(0, config.MaxViewDescLength)),
	)
}

func validateCreateViewParams(p *folderSvc.CreateViewParams) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ParentViewID, validation.Required),
		validation.Field(&p.Name,
			validation.Required,
			validation.Length(1, config.MaxViewNameLength),
		),
		validation.Field(&p.Desc, validation.Length(0, config.MaxViewDescLength)),
		validation.Field(&p.Layout, validation.Required, validation.In(knownLayouts...)),
	)
}

func validateUpdateViewParams(p *folderSvc.UpdateViewParams) error {
	return validation.ValidateStruct(p,
		validation.Field(&p.ViewID, validation.Required),
		validation.Field(&p.Name,
			validation.NilOrNotEmpty,
			validation.Length(1, config.MaxViewNameLength),
		),
		validation.Field(&p.Desc, validation.Length(0, config.MaxViewDescLength)),
		validation.Field(&p.Layout, validation.NilOrNotEmpty, validation.In(knownLayouts...)),
	)
}

var errImportSource = errors.New("exactly one of data or file_path is required")

func validateImportParams(p *folderSvc.ImportParams) error {
	hasData := len(p.Data) > 0
	hasPath := p.FilePath != nil && *p.FilePath != ""
	if hasData == hasPath {
		return errImportSource
	}
	return validation.ValidateStruct(p,
		validation.Field(&p.ParentViewID, validation.Required),
		validation.Field(&p.Name,
			validation.Required,
			validation.Length(1, config.MaxViewNameLength),
		),
		validation.Field(&p.Layout, validation.Required, validation.In(knownLayouts...)),
		validation.Field(&p.Data, validation.Length(0, config.MaxImportBytes)),
	)
}
