package config

const (
	// MaxWorkspaceNameLength is the maximum length for workspace names.
	// Limited to 255 to fit in PostgreSQL VARCHAR(255).
	MaxWorkspaceNameLength = 255

	// MaxViewNameLength is the maximum length for view names.
	// Same as workspace names for consistency.
	MaxViewNameLength = 255

	// MaxViewDescLength is the maximum length for view descriptions.
	MaxViewDescLength = 2000

	// MaxImportBytes caps the payload of a single import, raw or uploaded.
	MaxImportBytes = 10 << 20
)
