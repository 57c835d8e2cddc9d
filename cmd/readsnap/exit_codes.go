package main

import (
	"errors"
	"os"

	"github.com/alnah/go-readsnap"
	"github.com/alnah/go-readsnap/internal/assets"
	"github.com/alnah/go-readsnap/internal/config"
)

// Exit codes for the readsnap CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess   = 0 // Every input extracted
	ExitGeneral   = 1 // General/unexpected error
	ExitUsage     = 2 // Invalid flags, config, or validation
	ExitIO        = 3 // Input not readable, output not writable
	ExitBrowser   = 4 // Browser/Chrome errors
	ExitNoContent = 5 // No content scope found
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	if errors.Is(err, readsnap.ErrNoContentFound) {
		return ExitNoContent
	}

	if errors.Is(err, readsnap.ErrBrowserConnect) ||
		errors.Is(err, readsnap.ErrPageCreate) ||
		errors.Is(err, readsnap.ErrPageLoad) ||
		errors.Is(err, readsnap.ErrPDFGeneration) {
		return ExitBrowser
	}

	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadInput) ||
		errors.Is(err, ErrWriteOutput) {
		return ExitIO
	}

	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrFieldTooLong) ||
		errors.Is(err, config.ErrInvalidValue) ||
		errors.Is(err, readsnap.ErrInvalidOptions) ||
		errors.Is(err, assets.ErrInvalidBasePath) {
		return ExitUsage
	}

	return ExitGeneral
}
