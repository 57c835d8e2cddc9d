package readsnap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap/internal/assets"
	"github.com/alnah/go-readsnap/internal/browser"
	"github.com/alnah/go-readsnap/internal/config"
	"github.com/alnah/go-readsnap/internal/inline"
	"github.com/alnah/go-readsnap/internal/locate"
	"github.com/alnah/go-readsnap/internal/markdown"
	"github.com/alnah/go-readsnap/internal/preview"
	"github.com/alnah/go-readsnap/internal/ready"
	"github.com/alnah/go-readsnap/internal/sanitize"
	"github.com/alnah/go-readsnap/internal/scope"
	"github.com/alnah/go-readsnap/internal/styles"
)

// Extractor runs the extraction pipeline. Create with NewExtractor and call
// Close when done. It is safe for concurrent use; calls share one browser.
type Extractor struct {
	cfg        *Config
	log        zerolog.Logger
	client     *http.Client
	timeout    time.Duration
	assetPath  string
	rodBrowser *rod.Browser

	locator  *locate.Locator
	stripper *sanitize.Sanitizer
	keeper   *sanitize.Sanitizer
	renderer *markdown.Renderer
	inliner  *inline.Inliner
	assets   *assets.Resolver
	preview  *preview.Renderer

	readyOpts ready.Options
	pageOpts  browser.PageOptions

	mu      sync.Mutex
	browser *browser.Browser
}

// NewExtractor builds an Extractor from the default configuration and opts.
// Returns ErrInvalidOptions when the configuration does not validate.
func NewExtractor(opts ...Option) (*Extractor, error) {
	e := &Extractor{
		cfg:     DefaultConfig(),
		log:     zerolog.Nop(),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if e.client == nil {
		e.client = &http.Client{}
	}

	host := e.cfg.Host
	e.locator = locate.New(locate.Options{
		HostSelector:  host.ShadowHost,
		FrameSelector: host.ContentFrame,
		ContentMarker: host.ContentMarker,
		FrameTextMin:  e.cfg.Locate.FrameTextMin,
		BodyTextMin:   e.cfg.Locate.BodyTextMin,
		MaxDepth:      e.cfg.Locate.MaxDepth,
	}, e.log)

	sanitizeOpts := sanitize.Options{
		ExtraUISelectors: host.ExtraUISelectors,
		WarningPhrase:    host.WarningPhrase,
		BannerSlack:      host.BannerSlack,
		LazyAttrs:        host.LazyAttrs,
	}
	var err error
	if e.keeper, err = sanitize.New(sanitizeOpts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	sanitizeOpts.StripUI = true
	if e.stripper, err = sanitize.New(sanitizeOpts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	detect := true
	if host.DetectLanguage != nil {
		detect = *host.DetectLanguage
	}
	if e.renderer, err = markdown.New(markdown.Options{MathSelector: host.MathSelector, DetectLanguage: detect}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	img := e.cfg.Images
	if img.Inline {
		e.inliner = inline.New(e.client, inline.Options{
			Concurrency:       img.Concurrency,
			Timeout:           config.Duration(img.Timeout),
			MaxBytes:          img.MaxBytes,
			RequestsPerSecond: img.RequestsPerSecond,
			UserAgent:         img.UserAgent,
		}, e.log)
	}

	assetPath := e.assetPath
	if assetPath == "" {
		assetPath = e.cfg.Assets.BasePath
	}
	if e.assets, err = assets.NewResolver(assetPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if e.preview, err = preview.New(e.assets); err != nil {
		return nil, err
	}

	r := e.cfg.Readiness
	e.readyOpts = ready.Options{
		StepPixels:     r.StepPixels,
		StepDelay:      config.Duration(r.StepDelay),
		FinalPause:     config.Duration(r.FinalPause),
		PollInterval:   config.Duration(r.PollInterval),
		PollCeiling:    config.Duration(r.PollCeiling),
		TopPause:       config.Duration(r.TopPause),
		TypesetTimeout: config.Duration(r.TypesetTimeout),
		ImageTimeout:   config.Duration(r.ImageTimeout),
		SettleDelay:    config.Duration(r.SettleDelay),
	}
	e.pageOpts = browser.PageOptions{
		PlaceholderSelector: host.PlaceholderSelector,
		NavigationTimeout:   config.Duration(e.cfg.Browser.NavigationTimeout),
	}
	return e, nil
}

// Config returns the configuration in use. It must not be modified.
func (e *Extractor) Config() *Config {
	return e.cfg
}

// ExtractContent sanitizes sc itself and collects its styles.
func (e *Extractor) ExtractContent(ctx context.Context, sc Scope, opts Options) (*ExtractionResult, error) {
	return e.extract(ctx, sc, opts, false)
}

// ExtractContentFromWrapper locates the content scope inside sc first,
// crossing shadow roots and frames. Returns ErrNoContentFound when no
// strategy qualifies.
func (e *Extractor) ExtractContentFromWrapper(ctx context.Context, sc Scope, opts Options) (*ExtractionResult, error) {
	return e.extract(ctx, sc, opts, true)
}

func (e *Extractor) extract(ctx context.Context, sc Scope, opts Options, wrapper bool) (res *ExtractionResult, err error) {
	defer recoverFault(&res, &err)

	if sc == nil {
		return nil, ErrNilScope
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	scrolled := opts.Ready && e.runReadiness(ctx, sc, opts.StepDelay)

	target, strategy := sc, ""
	if wrapper {
		loc, err := e.locator.Locate(ctx, sc)
		if err != nil {
			return nil, e.fault(ctx, err)
		}
		target, strategy = loc.Scope, string(loc.Strategy)
	}

	doc, err := target.Document(ctx)
	if err != nil {
		return nil, e.fault(ctx, err)
	}
	records, err := styles.Collect(ctx, target, opts.FixPrint)
	if err != nil {
		return nil, e.fault(ctx, err)
	}
	clean, err := e.sanitizer(opts.StripUI).Sanitize(doc)
	if err != nil {
		return nil, e.fault(ctx, err)
	}

	e.log.Debug().Str("stage", "extract").Str("strategy", strategy).Int("styles", len(records)).Bool("scrolled", scrolled).Msg("content extracted")
	return &ExtractionResult{
		BodyMarkup: sanitize.BodyHTML(clean),
		Styles:     records,
		Title:      doc.Title,
		BaseURI:    doc.BaseURI,
		Scrolled:   scrolled,
		Strategy:   strategy,
	}, nil
}

// ExtractMarkdown locates the content scope inside sc, renders it to
// Markdown and, when enabled, inlines its remote images. Images that fail
// are kept as remote references and listed in the result; see
// MarkdownDocument.Err.
func (e *Extractor) ExtractMarkdown(ctx context.Context, sc Scope, opts Options) (res *MarkdownDocument, err error) {
	defer recoverFault(&res, &err)

	if sc == nil {
		return nil, ErrNilScope
	}
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if opts.Ready {
		e.runReadiness(ctx, sc, opts.StepDelay)
	}

	loc, err := e.locator.Locate(ctx, sc)
	if err != nil {
		return nil, e.fault(ctx, err)
	}
	doc, err := loc.Scope.Document(ctx)
	if err != nil {
		return nil, e.fault(ctx, err)
	}
	clean, err := e.sanitizer(opts.StripUI).Sanitize(doc)
	if err != nil {
		return nil, e.fault(ctx, err)
	}
	out := e.renderer.Render(sanitize.Body(clean))

	res = &MarkdownDocument{
		Text:   out.Text,
		Title:  e.title(ctx, sc, loc.Scope, doc.Title),
		Images: out.Images,
	}
	if res.Images == nil {
		res.Images = []ImageRef{}
	}
	if e.inliner != nil {
		text, rep := e.inliner.Inline(ctx, out.Text)
		// A deadline during retrieval degrades to remote images; the
		// rendered text is kept.
		if err := ctx.Err(); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		res.Text = text
		res.Embedded = len(rep.Embedded)
		res.FailedImages = rep.Failed
		if err := rep.Err(); err != nil {
			e.log.Warn().Str("stage", "inline").Strs("urls", rep.Failed).Err(err).Msg("images left as remote references")
		}
	}
	return res, nil
}

// title prefers the located scope's title and falls back to the outer one,
// since frame documents are often untitled.
func (e *Extractor) title(ctx context.Context, outer, inner Scope, title string) string {
	if title != "" || outer == inner {
		return title
	}
	if doc, err := outer.Document(ctx); err == nil {
		return doc.Title
	}
	return ""
}

// RunReadinessSequence scrolls sc so lazy content renders, then waits for
// math typesetting and images. Every wait is bounded and failures are
// logged. Scopes without a browser behind them are left alone.
func (e *Extractor) RunReadinessSequence(ctx context.Context, sc Scope, stepDelay time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Str("stage", "ready").Interface("panic", r).Msg("readiness sequence aborted")
		}
	}()
	if sc == nil {
		return
	}
	e.runReadiness(ctx, sc, stepDelay)
}

// runReadiness reports whether the sequence ran.
func (e *Extractor) runReadiness(ctx context.Context, sc Scope, stepDelay time.Duration) bool {
	drv, ok := sc.(ready.Driver)
	if !ok {
		e.log.Debug().Str("stage", "ready").Msg("scope cannot scroll, skipping readiness")
		return false
	}
	opts := e.readyOpts
	if stepDelay > 0 {
		opts.StepDelay = stepDelay
	}
	rep := ready.New(drv, opts, e.log).Run(ctx)
	if err := rep.Err(); err != nil {
		e.log.Warn().Str("stage", "ready").Int("steps", rep.Steps).Int("remaining", rep.Remaining).Err(err).Msg("readiness incomplete")
	}
	return true
}

func (e *Extractor) sanitizer(stripUI bool) *sanitize.Sanitizer {
	if stripUI {
		return e.stripper
	}
	return e.keeper
}

// fault classifies err. Context errors and ErrNoContentFound pass through;
// anything else becomes ErrExtractionFault.
func (e *Extractor) fault(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrNoContentFound):
		return err
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", ErrExtractionFault, err)
}

// recoverFault turns a panic in an entry operation into ErrExtractionFault.
func recoverFault[T any](res **T, err *error) {
	if r := recover(); r != nil {
		*res = nil
		*err = fmt.Errorf("%w: internal error: %v", ErrExtractionFault, r)
	}
}

// Load parses saved HTML into an offline scope. baseURI resolves relative
// URLs; empty leaves them as written.
func (e *Extractor) Load(r io.Reader, baseURI string) (*StaticScope, error) {
	return scope.Parse(r, baseURI)
}

// LoadFile parses a saved HTML file. Same-directory frame sources are
// readable as embedded documents.
func (e *Extractor) LoadFile(path string) (*StaticScope, error) {
	return scope.ParseFile(path)
}

// Preview renders doc as a standalone HTML page with typeset math.
func (e *Extractor) Preview(ctx context.Context, doc *MarkdownDocument) (string, error) {
	if doc == nil {
		return "", ErrNilResult
	}
	return e.preview.Render(ctx, doc.Title, doc.Text)
}
