package content

import "context"

// Converter turns an imported file into the markdown stored for document views.
//
// Implementations must be stateless and safe for concurrent use.
type Converter interface {
	// Convert transforms input to markdown
	Convert(ctx context.Context, input []byte) (markdown string, err error)

	// Extensions lists the file extensions handled, with leading dot
	Extensions() []string

	// MediaTypes lists the media types handled, e.g. "text/html"
	MediaTypes() []string

	// Name is used in logs
	Name() string
}
