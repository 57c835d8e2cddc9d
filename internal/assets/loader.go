package assets

// Loader loads stylesheets and templates by name, without extension.
type Loader interface {
	// LoadStyle returns ErrStyleNotFound when the style does not exist.
	LoadStyle(name string) (string, error)
	// LoadTemplate returns ErrTemplateNotFound when the template does not
	// exist.
	LoadTemplate(name string) (string, error)
}
