package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog"

	"github.com/alnah/go-readsnap/internal/ready"
	"github.com/alnah/go-readsnap/internal/scope"
)

// Defaults.
const (
	DefaultPlaceholderSelector = `.lazy-placeholder, [data-placeholder], img[data-src]:not([src])`
	DefaultNavigationTimeout   = 30 * time.Second
)

// PageOptions configures pages opened by a Browser.
type PageOptions struct {
	// PlaceholderSelector matches elements still waiting for lazy content.
	PlaceholderSelector string
	NavigationTimeout   time.Duration
}

func (o PageOptions) withDefaults() PageOptions {
	if o.PlaceholderSelector == "" {
		o.PlaceholderSelector = DefaultPlaceholderSelector
	}
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = DefaultNavigationTimeout
	}
	return o
}

// Compile-time interface checks
var (
	_ scope.Scope  = (*Page)(nil)
	_ scope.Frame  = (*frame)(nil)
	_ ready.Driver = (*Page)(nil)
)

// Page is a live content scope: a top-level page, a frame document or a
// shadow root inside either.
type Page struct {
	page  *rod.Page
	root  *rod.Element // shadow root; nil for documents
	opts  PageOptions
	log   zerolog.Logger
	owned bool
}

// Open navigates a new tab to url and waits for the load event. A load that
// does not settle in time is logged and tolerated.
func (b *Browser) Open(ctx context.Context, url string, opts PageOptions) (*Page, error) {
	opts = opts.withDefaults()
	rp, err := b.newPage()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}

	navCtx, cancel := context.WithTimeout(ctx, opts.NavigationTimeout)
	defer cancel()

	if err := rp.Context(navCtx).Navigate(url); err != nil {
		_ = rp.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrPageLoad, url, err)
	}
	if err := rp.Context(navCtx).WaitLoad(); err != nil {
		if ctx.Err() != nil {
			_ = rp.Close()
			return nil, ctx.Err()
		}
		b.log.Warn().Str("stage", "browser").Str("url", url).Err(err).Msg("load event did not fire in time")
	}
	return &Page{page: rp, opts: opts, log: b.log, owned: true}, nil
}

// Adopt wraps a page the caller already controls. Close leaves it open.
func Adopt(rp *rod.Page, opts PageOptions, log zerolog.Logger) *Page {
	return &Page{page: rp, opts: opts.withDefaults(), log: log}
}

// Rod returns the underlying rod page.
func (p *Page) Rod() *rod.Page { return p.page }

// Close closes a tab opened by Open.
func (p *Page) Close() error {
	if !p.owned {
		return nil
	}
	return p.page.Close()
}

// eval runs a page-side function on the scope root and decodes its JSON
// result into out.
func (p *Page) eval(ctx context.Context, js string, out any, args ...any) error {
	var (
		res *proto.RuntimeRemoteObject
		err error
	)
	if p.root != nil {
		res, err = p.root.Context(ctx).Eval(js, args...)
	} else {
		res, err = p.page.Context(ctx).Eval(js, args...)
	}
	if err != nil {
		return err
	}
	return decode(res, out)
}

// evalTop runs a page-side function on the top document of the page.
func (p *Page) evalTop(ctx context.Context, js string, out any, args ...any) error {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return err
	}
	return decode(res, out)
}

func decode(res *proto.RuntimeRemoteObject, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal([]byte(res.Value.Str()), out); err != nil {
		return fmt.Errorf("decoding page result: %w", err)
	}
	return nil
}

func (p *Page) elements(ctx context.Context, selector string) (rod.Elements, error) {
	if p.root != nil {
		return p.root.Context(ctx).Elements(selector)
	}
	return p.page.Context(ctx).Elements(selector)
}

// Document implements scope.Scope.
func (p *Page) Document(ctx context.Context) (*scope.Document, error) {
	var doc scope.Document
	if err := p.eval(ctx, documentJS, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Styles implements scope.Scope. Rule lists of cross-origin sheets are not
// readable and come back empty.
func (p *Page) Styles(ctx context.Context) ([]scope.StyleSource, error) {
	var srcs []scope.StyleSource
	if err := p.eval(ctx, stylesJS, &srcs); err != nil {
		return nil, err
	}
	return srcs, nil
}

// BodyTextLen implements scope.Scope.
func (p *Page) BodyTextLen(ctx context.Context) (int, error) {
	var n int
	err := p.eval(ctx, bodyTextLenJS, &n)
	return n, err
}

// Has implements scope.Scope.
func (p *Page) Has(ctx context.Context, selector string) (bool, error) {
	if err := scope.ValidateSelector(selector); err != nil {
		return false, err
	}
	var ok bool
	err := p.eval(ctx, hasJS, &ok, selector)
	return ok, err
}

// ShadowRoot implements scope.Scope. Closed roots are reached too: the
// protocol describes them like open ones.
func (p *Page) ShadowRoot(ctx context.Context, hostSelector string) (scope.Scope, bool) {
	if scope.ValidateSelector(hostSelector) != nil {
		return nil, false
	}
	hosts, err := p.elements(ctx, hostSelector)
	if err != nil || len(hosts) == 0 {
		return nil, false
	}
	sr, err := hosts.First().Context(ctx).ShadowRoot()
	if err != nil {
		p.log.Debug().Str("stage", "browser").Str("host", hostSelector).Err(err).Msg("no shadow root")
		return nil, false
	}
	return &Page{page: p.page, root: sr, opts: p.opts, log: p.log}, true
}

// Frames implements scope.Scope. An empty selector matches every frame.
func (p *Page) Frames(ctx context.Context, selector string) ([]scope.Frame, error) {
	if selector == "" {
		selector = "iframe, frame"
	}
	if err := scope.ValidateSelector(selector); err != nil {
		return nil, err
	}
	els, err := p.elements(ctx, selector)
	if err != nil {
		return nil, err
	}
	var frames []scope.Frame
	for _, el := range els {
		if isFrame(el) {
			frames = append(frames, &frame{el: el, parent: p})
		}
	}
	return frames, nil
}

// isFrame reads the tag from the remote object description, e.g.
// "iframe#content.reader".
func isFrame(el *rod.Element) bool {
	desc := strings.ToLower(el.Object.Description)
	return strings.HasPrefix(desc, "iframe") || strings.HasPrefix(desc, "frame")
}

type frame struct {
	el     *rod.Element
	parent *Page
}

// Root implements scope.Frame. Cross-origin frames throw on contentDocument
// access and report false.
func (f *frame) Root(ctx context.Context) (scope.Scope, bool) {
	res, err := f.el.Context(ctx).Eval(frameAccessibleJS)
	if err != nil {
		return nil, false
	}
	var ok bool
	if decode(res, &ok) != nil || !ok {
		return nil, false
	}
	fp, err := f.el.Context(ctx).Frame()
	if err != nil {
		return nil, false
	}
	return &Page{page: fp, opts: f.parent.opts, log: f.parent.log}, true
}

// Metrics implements ready.Driver.
func (p *Page) Metrics(ctx context.Context) (ready.Metrics, error) {
	var m ready.Metrics
	err := p.evalTop(ctx, metricsJS, &m)
	return m, err
}

// ScrollTo implements ready.Driver.
func (p *Page) ScrollTo(ctx context.Context, y int) error {
	return p.evalTop(ctx, scrollToJS, nil, y)
}

// Placeholders implements ready.Driver. The count spans open shadow roots
// and same-origin frames.
func (p *Page) Placeholders(ctx context.Context) (int, error) {
	var n int
	err := p.evalTop(ctx, placeholdersJS, &n, p.opts.PlaceholderSelector)
	return n, err
}

// Typeset implements ready.Driver.
func (p *Page) Typeset(ctx context.Context) error {
	return p.evalTop(ctx, typesetJS, nil)
}

// AwaitTypeset implements ready.Driver.
func (p *Page) AwaitTypeset(ctx context.Context) error {
	return p.evalTop(ctx, awaitTypesetJS, nil)
}

// ImageCount implements ready.Driver.
func (p *Page) ImageCount(ctx context.Context) (int, error) {
	var n int
	err := p.evalTop(ctx, imageCountJS, &n)
	return n, err
}

// WaitImage implements ready.Driver.
func (p *Page) WaitImage(ctx context.Context, i int) error {
	return p.evalTop(ctx, waitImageJS, nil, i)
}
