// Package preview renders extracted Markdown documents to a standalone HTML
// page for reading in a browser.
//
// Math spans written as $…$ and $$…$$ are kept out of goldmark and emitted
// with MathJax delimiters; the page loads MathJax only when math is present.
// Raw HTML in the Markdown is never rendered and the converted body passes
// through a bluemonday policy that allows data URI images.
package preview

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/alnah/go-readsnap/internal/assets"
)

// ErrHTMLConversion indicates Markdown to HTML conversion failed.
var ErrHTMLConversion = errors.New("HTML conversion failed")

// codeStyle is the chroma style for highlighted code blocks.
const codeStyle = "github"

// Renderer converts Markdown to preview pages. It is safe for concurrent
// use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	assets assets.Loader
	css    template.CSS
}

// New builds a Renderer whose page template and stylesheet come from
// loader.
func New(loader assets.Loader) (*Renderer, error) {
	css, err := loader.LoadStyle(assets.StylePreview)
	if err != nil {
		return nil, err
	}
	var code bytes.Buffer
	if err := chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(&code, styles.Get(codeStyle)); err != nil {
		return nil, fmt.Errorf("%w: code styles: %v", ErrHTMLConversion, err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
		),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithXHTML()),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowAttrs("class").Globally()
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")

	return &Renderer{
		md:     md,
		policy: policy,
		assets: loader,
		css:    assets.TrustedCSS(css + "\n" + code.String()),
	}, nil
}

type page struct {
	Title string
	CSS   template.CSS
	Body  template.HTML
	Math  bool
}

// Render converts markdown to a complete HTML page titled title. goldmark
// has no context support, so conversion runs in a goroutine and Render
// returns as soon as ctx is done.
func (r *Renderer) Render(ctx context.Context, title, markdown string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		body string
		math bool
		err  error
	}
	done := make(chan result, 1)
	go func() {
		body, math, err := r.body(markdown)
		done <- result{body, math, err}
	}()

	var res result
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return "", res.err
	}

	return assets.Render(r.assets, assets.TemplatePreview, page{
		Title: title,
		CSS:   r.css,
		Body:  template.HTML(res.body), // #nosec G203 -- sanitized by bluemonday
		Math:  res.math,
	})
}

// body converts and sanitizes markdown, then restores the math spans. It
// reports whether any math was found.
func (r *Renderer) body(markdown string) (string, bool, error) {
	protected, spans := protectMath(markdown)
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(protected), &buf); err != nil {
		return "", false, fmt.Errorf("%w: %v", ErrHTMLConversion, err)
	}
	return restoreMath(r.policy.Sanitize(buf.String()), spans), len(spans) > 0, nil
}
