package utils

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// SplitFrontmatter separates a leading YAML frontmatter block from a markdown
// body. Content without frontmatter is returned unchanged with nil metadata.
// Scalar values are kept as strings; nested values are rejected.
//
// Expected format:
// ---
// author: Ada
// tags: draft
// ---
// # Markdown content here
func SplitFrontmatter(content []byte) (map[string]string, []byte, error) {
	normalized := bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(normalized, []byte("---\n")) {
		return nil, content, nil
	}

	lines := bytes.Split(normalized, []byte("\n"))
	closing := -1
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), frontmatterDelim) {
			closing = i
			break
		}
	}
	if closing < 0 {
		// an opening rule without a closing one is a thematic break, not frontmatter
		return nil, content, nil
	}

	var raw map[string]any
	if err := yaml.Unmarshal(bytes.Join(lines[1:closing], []byte("\n")), &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse YAML frontmatter: %w", err)
	}

	meta := make(map[string]string, len(raw))
	for k, v := range raw {
		switch v.(type) {
		case map[string]any, []any:
			return nil, nil, fmt.Errorf("frontmatter field %q must be a scalar", k)
		case nil:
			meta[k] = ""
		default:
			meta[k] = fmt.Sprint(v)
		}
	}

	body := bytes.TrimLeft(bytes.Join(lines[closing+1:], []byte("\n")), "\n")
	return meta, body, nil
}
