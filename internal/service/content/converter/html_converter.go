package converter

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	contentSvc "canopy/internal/domain/services/content"
	"canopy/internal/service/content/converter/sanitizer"
)

// htmlConverter sanitises HTML and then renders it as markdown
type htmlConverter struct {
	sanitizer *sanitizer.HTMLSanitizer
	converter *md.Converter
}

// NewHTMLConverter creates the html converter
func NewHTMLConverter() contentSvc.Converter {
	return &htmlConverter{
		sanitizer: sanitizer.NewHTMLSanitizer(),
		converter: md.NewConverter("", true, nil),
	}
}

func (c *htmlConverter) Convert(ctx context.Context, input []byte) (string, error) {
	clean := c.sanitizer.Sanitize(string(input))

	markdown, err := c.converter.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}
	return strings.TrimSpace(markdown) + "\n", nil
}

func (c *htmlConverter) Extensions() []string {
	return []string{".html", ".htm"}
}

func (c *htmlConverter) MediaTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (c *htmlConverter) Name() string {
	return "html"
}
