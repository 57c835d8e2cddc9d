package readsnap

import (
	"errors"

	"github.com/alnah/go-readsnap/internal/browser"
	"github.com/alnah/go-readsnap/internal/inline"
	"github.com/alnah/go-readsnap/internal/locate"
	"github.com/alnah/go-readsnap/internal/ready"
	"github.com/alnah/go-readsnap/internal/scope"
)

// Sentinel errors for extraction.
var (
	// ErrNoContentFound means no locator strategy produced a content scope.
	ErrNoContentFound = locate.ErrNoContentFound

	// ErrExtractionFault wraps unexpected failures while reading or
	// transforming a scope, including recovered panics.
	ErrExtractionFault = errors.New("extraction failed")

	// ErrPartialAssetFailure reports images left as remote references. It is
	// never returned by ExtractMarkdown; see MarkdownDocument.Err.
	ErrPartialAssetFailure = inline.ErrPartialAssetFailure

	// ErrTimeoutExceeded reports a readiness wait that gave up. Readiness
	// failures are logged, not returned.
	ErrTimeoutExceeded = ready.ErrTimeoutExceeded

	ErrNilScope        = errors.New("scope cannot be nil")
	ErrNilResult       = errors.New("result cannot be nil")
	ErrInvalidOptions  = errors.New("invalid options")
	ErrInvalidSelector = scope.ErrInvalidSelector
)

// Browser errors.
var (
	ErrBrowserConnect = browser.ErrBrowserConnect
	ErrPageCreate     = browser.ErrPageCreate
	ErrPageLoad       = browser.ErrPageLoad
	ErrPDFGeneration  = browser.ErrPDFGeneration
)
