package converter

import (
	"context"
	"strings"

	contentSvc "canopy/internal/domain/services/content"
)

// markdownConverter stores markdown as is, with line endings normalised
type markdownConverter struct{}

// NewMarkdownConverter creates the markdown converter
func NewMarkdownConverter() contentSvc.Converter {
	return &markdownConverter{}
}

func (c *markdownConverter) Convert(ctx context.Context, input []byte) (string, error) {
	return strings.ReplaceAll(string(input), "\r\n", "\n"), nil
}

func (c *markdownConverter) Extensions() []string {
	return []string{".md", ".markdown"}
}

func (c *markdownConverter) MediaTypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

func (c *markdownConverter) Name() string {
	return "markdown"
}
