// Package assets provides the stylesheets and HTML templates used to build
// snapshot and preview documents.
//
// # Loaders
//
//	Loader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in assets compiled into the binary
//	    ├── FilesystemLoader  - overrides from a directory on disk
//	    └── Resolver          - custom first, embedded as fallback
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css      # print, preview
//	└── templates/
//	    └── {name}.html     # snapshot, preview
//
// Asset names are validated and filesystem reads stay inside basePath, with
// symlinks resolved before the check.
package assets

// Built-in asset names.
const (
	StylePrint       = "print"
	StylePreview     = "preview"
	TemplateSnapshot = "snapshot"
	TemplatePreview  = "preview"
)
