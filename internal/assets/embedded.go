package assets

import (
	"embed"
	"fmt"
)

// styles holds the print stylesheet appended to every snapshot and the
// stylesheet of the Markdown preview.
//
//go:embed styles/*.css
var styles embed.FS

// templates holds the snapshot and preview page templates.
//
//go:embed templates/*.html
var templates embed.FS

// EmbeddedLoader serves the assets compiled into the binary. It is the
// fallback of every Resolver and needs no setup.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadStyle returns the built-in stylesheet name ("print" or "preview"),
// given without its .css extension.
func (e *EmbeddedLoader) LoadStyle(name string) (string, error) {
	return readEmbedded(styles, name, "styles", ".css", ErrStyleNotFound)
}

// LoadTemplate returns the built-in template name ("snapshot" or
// "preview"), given without its .html extension.
func (e *EmbeddedLoader) LoadTemplate(name string) (string, error) {
	return readEmbedded(templates, name, "templates", ".html", ErrTemplateNotFound)
}

func readEmbedded(fsys embed.FS, name, dir, ext string, notFound error) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	content, err := fsys.ReadFile(dir + "/" + name + ext)
	if err != nil {
		return "", fmt.Errorf("%w: %q", notFound, name)
	}
	return string(content), nil
}

var _ Loader = (*EmbeddedLoader)(nil)
