package converter

import (
	"context"
	"strings"
	"testing"
)

func TestRegistry_ResolveByExtension(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		file string
		want string
	}{
		{"a.md", "markdown"},
		{"A.MARKDOWN", "markdown"},
		{"notes.txt", "plaintext"},
		{"page.html", "html"},
		{"page.htm", "html"},
	}
	for _, tt := range tests {
		c, err := r.Resolve(tt.file, nil)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.file, err)
		}
		if c.Name() != tt.want {
			t.Errorf("Resolve(%q) = %s, want %s", tt.file, c.Name(), tt.want)
		}
	}

	if _, err := r.Resolve("image.png", nil); err == nil {
		t.Error("expected error for unsupported extension")
	}
}

func TestRegistry_ResolveBySniffing(t *testing.T) {
	r := NewRegistry()

	c, err := r.Resolve("", []byte("<!DOCTYPE html><html><body><p>hi</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "html" {
		t.Errorf("sniffed html resolved to %s", c.Name())
	}

	c, err = r.Resolve("", []byte("# plain markdown"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "markdown" {
		t.Errorf("unknown text resolved to %s, want markdown", c.Name())
	}
}

func TestRegistry_ForMediaTypeIgnoresParams(t *testing.T) {
	r := NewRegistry()
	c := r.ForMediaType("text/html; charset=utf-8")
	if c == nil || c.Name() != "html" {
		t.Errorf("expected html converter, got %v", c)
	}
}

func TestHTMLConverter_Sanitizes(t *testing.T) {
	out, err := NewHTMLConverter().Convert(context.Background(),
		[]byte(`<h1>Title</h1><script>alert(1)</script><p onclick="x()">Body <strong>bold</strong></p>`))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "alert") {
		t.Errorf("script survived conversion: %q", out)
	}
	if !strings.Contains(out, "# Title") || !strings.Contains(out, "**bold**") {
		t.Errorf("unexpected markdown: %q", out)
	}
}

func TestTextConverter_EscapesMarkup(t *testing.T) {
	out, err := NewTextConverter().Convert(context.Background(), []byte("# not a heading\r\nplain"))
	if err != nil {
		t.Fatal(err)
	}
	if out != "\\# not a heading\nplain" {
		t.Errorf("unexpected text: %q", out)
	}
}
