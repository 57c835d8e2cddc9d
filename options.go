package readsnap

import (
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog"
)

// Option configures an Extractor.
type Option func(*Extractor)

// defaultTimeout bounds one entry operation, readiness included.
const defaultTimeout = 2 * time.Minute

// WithConfig sets the configuration. It is validated by NewExtractor.
func WithConfig(cfg *Config) Option {
	return func(e *Extractor) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(e *Extractor) {
		e.log = log
	}
}

// WithHTTPClient sets the client used to fetch images.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Extractor) {
		e.client = c
	}
}

// WithTimeout bounds each entry operation.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("readsnap: WithTimeout duration must be positive")
	}
	return func(e *Extractor) {
		e.timeout = d
	}
}

// WithBrowser makes Open and PrintPDF use an already connected browser.
// Close leaves it running.
func WithBrowser(b *rod.Browser) Option {
	return func(e *Extractor) {
		e.rodBrowser = b
	}
}

// WithAssetPath loads the snapshot and preview assets from a directory,
// falling back to the embedded ones for any file it lacks.
func WithAssetPath(path string) Option {
	return func(e *Extractor) {
		e.assetPath = path
	}
}
