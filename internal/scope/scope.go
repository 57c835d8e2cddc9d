// Package scope defines content scopes: document-like trees that may be
// nested inside frames or encapsulated behind shadow hosts, and that may
// turn out to be inaccessible when their origin differs from the caller's.
//
// The live browser implementation lives in internal/browser. This package
// provides the contracts and an offline implementation over saved HTML.
package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/andybalholm/cascadia"
)

// ErrInvalidSelector is returned when a CSS selector cannot be compiled.
var ErrInvalidSelector = errors.New("invalid selector")

// ValidateSelector reports ErrInvalidSelector when selector does not
// compile.
func ValidateSelector(selector string) error {
	if _, err := cascadia.Compile(selector); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidSelector, selector, err)
	}
	return nil
}

// Document is a serialized snapshot of a scope root.
type Document struct {
	// HTML is the markup of the scope root: a full document for frames and
	// top-level pages, a fragment for shadow roots.
	HTML    string
	BaseURI string
	Title   string
}

// SourceKind identifies a style-defining node.
type SourceKind string

const (
	// SourceStyle is an embedded <style> block.
	SourceStyle SourceKind = "style"
	// SourceLink is a <link rel="stylesheet"> element.
	SourceLink SourceKind = "link"
)

// StyleSource is a style-defining node as found in a scope, before any
// collection policy is applied.
type StyleSource struct {
	Kind  SourceKind
	Media string

	// Text is the literal source of a style block.
	Text string

	// Rules holds the cssText of each rule in the live rule list. It is
	// only meaningful when Readable is true.
	Rules    []string
	Readable bool

	// Href is the absolute stylesheet URL of a link.
	Href    string
	BaseURI string
}

// Scope is an accessible content scope.
type Scope interface {
	// Document serializes the scope root.
	Document(ctx context.Context) (*Document, error)

	// Styles lists style-defining nodes in document order.
	Styles(ctx context.Context) ([]StyleSource, error)

	// BodyTextLen returns the rune length of the scope's rendered body text.
	BodyTextLen(ctx context.Context) (int, error)

	// Has reports whether selector matches inside the scope.
	Has(ctx context.Context, selector string) (bool, error)

	// ShadowRoot enters the encapsulated sub-tree of the first element
	// matching hostSelector. It reports false when there is no such host or
	// the host has no accessible root.
	ShadowRoot(ctx context.Context, hostSelector string) (Scope, bool)

	// Frames returns the embedded sub-documents matching selector.
	Frames(ctx context.Context, selector string) ([]Frame, error)
}

// Frame is an opaque handle on an embedded sub-document.
type Frame interface {
	// Root returns the frame's content scope, or false when the frame is
	// cross-origin, detached or not loaded.
	Root(ctx context.Context) (Scope, bool)
}
