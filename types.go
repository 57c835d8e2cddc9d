package readsnap

import (
	"time"

	"github.com/alnah/go-readsnap/internal/browser"
	"github.com/alnah/go-readsnap/internal/config"
	"github.com/alnah/go-readsnap/internal/inline"
	"github.com/alnah/go-readsnap/internal/markdown"
	"github.com/alnah/go-readsnap/internal/scope"
	"github.com/alnah/go-readsnap/internal/styles"
)

// Scope is a document-like tree the extractor reads: a live page, a frame,
// a shadow root or a parsed HTML file.
type Scope = scope.Scope

// Page is a live browser tab. It is a Scope and can run the readiness
// sequence.
type Page = browser.Page

// StaticScope is an offline Scope parsed from saved HTML.
type StaticScope = scope.Static

// StyleRecord is one stylesheet collected from a scope.
type StyleRecord = styles.Record

// Style record kinds.
const (
	StyleInline         = styles.KindInline
	StyleLinkedInlined  = styles.KindLinkedInlined
	StyleLinkedExternal = styles.KindLinkedExternal
)

// ImageRef is an image referenced by a Markdown document.
type ImageRef = markdown.ImageRef

// Config is the YAML configuration of an Extractor.
type Config = config.Config

// DefaultConfig returns the configuration used when none is given.
func DefaultConfig() *Config { return config.DefaultConfig() }

// LoadConfig reads a configuration by name or path. See WithConfig.
func LoadConfig(nameOrPath string) (*Config, error) { return config.LoadConfig(nameOrPath) }

// Options are the per-call conversion options.
type Options struct {
	// StripUI removes host chrome and hidden elements.
	StripUI bool

	// FixPrint removes print countermeasures from collected styles.
	FixPrint bool

	// Ready runs the readiness sequence on scopes that support it before
	// extracting.
	Ready bool

	// StepDelay is the pause per scroll step. Zero uses the configured
	// delay.
	StepDelay time.Duration
}

// ExtractionResult is a sanitized content scope with its styles.
type ExtractionResult struct {
	// BodyMarkup is the inner HTML of the sanitized body.
	BodyMarkup string        `json:"bodyMarkup"`
	Styles     []StyleRecord `json:"styles"`
	Title      string        `json:"title"`
	BaseURI    string        `json:"baseURI"`
	// Scrolled reports whether the readiness sequence ran first.
	Scrolled bool `json:"scrolled"`
	// Strategy names the locator rule that chose the scope, when one ran.
	Strategy string `json:"strategy,omitempty"`
}

// MarkdownDocument is a scope rendered to Markdown.
type MarkdownDocument struct {
	Text  string `json:"markdownText"`
	Title string `json:"title"`
	// Images lists every image referenced, with the URL as extracted.
	Images []ImageRef `json:"images"`
	// Embedded counts images inlined as data URIs.
	Embedded int `json:"embedded"`
	// FailedImages lists remote URLs left as written.
	FailedImages []string `json:"failedImages,omitempty"`
}

// Err returns ErrPartialAssetFailure when some images were not inlined.
func (d *MarkdownDocument) Err() error {
	rep := inline.Report{Total: d.Embedded + len(d.FailedImages), Failed: d.FailedImages}
	return rep.Err()
}
