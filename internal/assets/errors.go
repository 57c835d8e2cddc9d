package assets

import "errors"

// Sentinel errors for asset operations.
var (
	// ErrStyleNotFound indicates no stylesheet exists under the name, in the
	// override directory or the built-in set.
	ErrStyleNotFound = errors.New("style not found")

	// ErrTemplateNotFound indicates no snapshot or preview template exists
	// under the name.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrInvalidAssetName indicates a name that is empty or carries a path
	// separator, a dot or a NUL byte.
	ErrInvalidAssetName = errors.New("invalid asset name")

	// ErrInvalidBasePath indicates the --asset-path or assets.basePath
	// setting does not name a readable directory.
	ErrInvalidBasePath = errors.New("invalid base path")

	// ErrAssetRead indicates an override file exists but could not be read.
	ErrAssetRead = errors.New("failed to read asset")

	// ErrPathTraversal indicates a resolved override path, symlinks
	// included, points outside the base directory.
	ErrPathTraversal = errors.New("path traversal detected")
)
