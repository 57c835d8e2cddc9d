// Package sanitize cleans a copy of a content scope for printing and
// Markdown conversion.
package sanitize

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
	"github.com/alnah/go-readsnap/internal/scope"
)

// uiSelectors match reading-app chrome: landmarks, floating panels and the
// annotation layer.
var uiSelectors = []string{
	"nav",
	"header",
	"footer",
	`[role="navigation"]`,
	`[role="dialog"]`,
	`[class*="toolbar"]`,
	`[class*="sidebar"]`,
	`[class*="modal"]`,
	`[class*="overlay"]`,
	`[class*="floating"]`,
	`[class*="annotation"]`,
	`[class*="highlight"]`,
	"reader-toolbar",
	"reader-annotations",
	"#reader-controls",
}

// UISelectors returns the built-in chrome selectors.
func UISelectors() []string {
	return append([]string(nil), uiSelectors...)
}

// DefaultLazyAttrs are tried in order when an image has no usable src.
var DefaultLazyAttrs = []string{"data-src", "data-lazy-src", "data-original"}

// DefaultBannerSlack bounds how much text an ancestor of the print warning
// may hold beyond the phrase itself and still be removed with it.
const DefaultBannerSlack = 40

// Options configures a Sanitizer.
type Options struct {
	// StripUI removes chrome and hidden elements.
	StripUI bool

	// ExtraUISelectors are appended to the built-in chrome selectors.
	ExtraUISelectors []string

	// WarningPhrase is the host's print-warning text. Empty disables banner
	// removal.
	WarningPhrase string

	// BannerSlack overrides DefaultBannerSlack when positive.
	BannerSlack int

	// LazyAttrs overrides DefaultLazyAttrs when non-empty.
	LazyAttrs []string
}

// Sanitizer cleans content trees. It is safe for concurrent use.
type Sanitizer struct {
	opts Options
	ui   string
}

// New validates the selector set and returns a Sanitizer.
func New(opts Options) (*Sanitizer, error) {
	sels := append(UISelectors(), opts.ExtraUISelectors...)
	for _, sel := range sels {
		if err := scope.ValidateSelector(sel); err != nil {
			return nil, err
		}
	}
	if opts.BannerSlack <= 0 {
		opts.BannerSlack = DefaultBannerSlack
	}
	if len(opts.LazyAttrs) == 0 {
		opts.LazyAttrs = DefaultLazyAttrs
	}
	return &Sanitizer{opts: opts, ui: strings.Join(sels, ", ")}, nil
}

// Sanitize parses a serialized scope and cleans the result. The scope
// itself is never touched.
func (s *Sanitizer) Sanitize(doc *scope.Document) (*goquery.Document, error) {
	root, err := dom.Parse(doc.HTML)
	if err != nil {
		return nil, fmt.Errorf("parsing scope markup: %w", err)
	}
	return s.clean(root, doc.BaseURI), nil
}

// Clean returns a cleaned deep copy of root.
func (s *Sanitizer) Clean(root *html.Node, baseURI string) *goquery.Document {
	return s.clean(dom.Clone(root), baseURI)
}

func (s *Sanitizer) clean(root *html.Node, baseURI string) *goquery.Document {
	doc := goquery.NewDocumentFromNode(root)

	doc.Find("script").Remove()
	if s.opts.StripUI {
		s.stripUI(doc)
	}
	if s.opts.WarningPhrase != "" {
		removeBanner(root, s.opts.WarningPhrase, s.opts.BannerSlack)
	}
	s.absolutizeImages(doc, baseURI)
	absolutizeStyles(doc, baseURI)
	return doc
}

func (s *Sanitizer) stripUI(doc *goquery.Document) {
	doc.Find(s.ui).Not("html, head, body").Remove()

	// Removable already exempts subtrees holding images, tables, figures,
	// math and svg.
	var hidden []*html.Node
	doc.Find("*").Each(func(_ int, el *goquery.Selection) {
		if dom.Removable(el.Nodes[0]) {
			hidden = append(hidden, el.Nodes[0])
		}
	})
	for _, n := range hidden {
		dom.Remove(n)
	}
}

// Body returns the body of a sanitized document, or the document itself
// when it has none.
func Body(doc *goquery.Document) *html.Node {
	if body := doc.Find("body").First(); body.Length() > 0 {
		return body.Nodes[0]
	}
	return doc.Nodes[0]
}

// BodyHTML serializes the children of Body.
func BodyHTML(doc *goquery.Document) string {
	return dom.InnerHTML(Body(doc))
}

func (s *Sanitizer) absolutizeImages(doc *goquery.Document, baseURI string) {
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		if src == "" || strings.HasPrefix(src, "data:") {
			for _, attr := range s.opts.LazyAttrs {
				if lazy := strings.TrimSpace(img.AttrOr(attr, "")); lazy != "" {
					src = lazy
					break
				}
			}
		}
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		img.SetAttr("src", Resolve(baseURI, src))
	})
}

var cssURL = regexp.MustCompile(`url\(\s*(['"]?)([^'")]*)(['"]?)\s*\)`)

func absolutizeStyles(doc *goquery.Document, baseURI string) {
	doc.Find("[style]").Each(func(_ int, el *goquery.Selection) {
		style := el.AttrOr("style", "")
		if !strings.Contains(style, "url(") {
			return
		}
		el.SetAttr("style", RewriteURLs(style, baseURI))
	})
}

// RewriteURLs resolves every url(...) reference in css against baseURI.
// data: URIs and references that fail to resolve are left unchanged.
func RewriteURLs(css, baseURI string) string {
	return cssURL.ReplaceAllStringFunc(css, func(m string) string {
		parts := cssURL.FindStringSubmatch(m)
		ref := strings.TrimSpace(parts[2])
		if ref == "" || strings.HasPrefix(strings.ToLower(ref), "data:") || strings.HasPrefix(ref, "#") {
			return m
		}
		abs := Resolve(baseURI, ref)
		if abs == ref {
			return m
		}
		return "url(" + parts[1] + abs + parts[3] + ")"
	})
}

// Resolve resolves ref against baseURI. It returns ref unchanged when
// either cannot be parsed or the base is not absolute.
func Resolve(baseURI, ref string) string {
	b, err := url.Parse(baseURI)
	if err != nil || !b.IsAbs() {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
