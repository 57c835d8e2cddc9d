package readsnap

import (
	"context"
	"html/template"
	"net/url"
	"strings"

	"github.com/alnah/go-readsnap/internal/assets"
	"github.com/alnah/go-readsnap/internal/browser"
	"github.com/alnah/go-readsnap/internal/sanitize"
	"github.com/alnah/go-readsnap/internal/styles"
)

type snapshotStyle struct {
	Href template.URL
	CSS  template.CSS
}

type snapshotPage struct {
	BaseURI  template.URL
	Title    string
	Styles   []snapshotStyle
	PrintCSS template.CSS
	Body     template.HTML
}

// Snapshot assembles res into a standalone HTML document for printing.
//
// Inline and linked-inlined records become <style> elements, in order,
// with their url() references made absolute. Linked-external records
// become <link> elements so the renderer fetches them itself.
func (e *Extractor) Snapshot(res *ExtractionResult) (string, error) {
	if res == nil {
		return "", ErrNilResult
	}
	printCSS, err := e.assets.LoadStyle(assets.StylePrint)
	if err != nil {
		return "", err
	}

	page := snapshotPage{
		BaseURI:  safeURL(res.BaseURI),
		Title:    res.Title,
		PrintCSS: assets.TrustedCSS(printCSS),
		Body:     template.HTML(res.BodyMarkup), // #nosec G203 -- sanitized by ExtractContent
	}
	for _, rec := range res.Styles {
		switch rec.Kind {
		case styles.KindLinkedExternal:
			if href := safeURL(sanitize.Resolve(rec.BaseURI, rec.SourceHref)); href != "" {
				page.Styles = append(page.Styles, snapshotStyle{Href: href})
			}
		default:
			base := rec.BaseURI
			if rec.Kind == styles.KindLinkedInlined && rec.SourceHref != "" {
				base = sanitize.Resolve(rec.BaseURI, rec.SourceHref)
			}
			page.Styles = append(page.Styles, snapshotStyle{CSS: assets.TrustedCSS(sanitize.RewriteURLs(rec.CSSText, base))})
		}
	}
	return assets.Render(e.assets, assets.TemplateSnapshot, page)
}

// safeURL passes absolute http, https and file URLs through html/template
// unfiltered and drops anything else.
func safeURL(raw string) template.URL {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https", "file":
		return template.URL(u.String()) // #nosec G203 -- scheme checked
	}
	return ""
}

// PrintPDF prints the snapshot of res with Chrome. The title is used as the
// page footer.
func (e *Extractor) PrintPDF(ctx context.Context, res *ExtractionResult) ([]byte, error) {
	doc, err := e.Snapshot(res)
	if err != nil {
		return nil, err
	}
	b, err := e.ensureBrowser(ctx)
	if err != nil {
		return nil, err
	}
	return b.PrintPDF(ctx, doc, browser.PDFOptions{Footer: res.Title, Timeout: e.timeout})
}
