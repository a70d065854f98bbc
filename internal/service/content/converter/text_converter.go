package converter

import (
	"context"
	"strings"

	contentSvc "canopy/internal/domain/services/content"
)

// textConverter imports plain text. Characters markdown would interpret at
// line start are escaped so the text renders verbatim.
type textConverter struct{}

// NewTextConverter creates the plain text converter
func NewTextConverter() contentSvc.Converter {
	return &textConverter{}
}

func (c *textConverter) Convert(ctx context.Context, input []byte) (string, error) {
	lines := strings.Split(strings.ReplaceAll(string(input), "\r\n", "\n"), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, ">") {
			lines[i] = `\` + line
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (c *textConverter) Extensions() []string {
	return []string{".txt", ".text"}
}

func (c *textConverter) MediaTypes() []string {
	return []string{"text/plain"}
}

func (c *textConverter) Name() string {
	return "plaintext"
}
