package scope

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
)

// Static is a content scope over saved HTML.
//
// Declarative shadow roots (<template shadowrootmode>) play the part of
// encapsulated sub-trees: their content is invisible to queries on the
// enclosing scope and reachable only through ShadowRoot. Frames are
// accessible when they carry srcdoc, or when their source is a file under
// the directory of the saved page; anything else counts as cross-origin.
type Static struct {
	root    *html.Node
	sel     *goquery.Selection
	baseURI string
	title   string
	dir     string
	shadow  bool
}

// Parse reads a saved document. baseURI resolves relative references and is
// overridden by a <base href> element.
func Parse(r io.Reader, baseURI string) (*Static, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	s := &Static{root: root, baseURI: baseURI}
	s.sel = goquery.NewDocumentFromNode(root).Selection

	if href, ok := s.find("base[href]").Attr("href"); ok {
		s.baseURI = resolve(baseURI, href)
	}
	s.title = strings.TrimSpace(s.find("title").First().Text())
	if u, err := url.Parse(s.baseURI); err == nil && u.Scheme == "file" {
		s.dir = filepath.Dir(filepath.FromSlash(u.Path))
	}
	return s, nil
}

// ParseFile reads a saved document from disk. Files next to it count as
// same-origin.
func ParseFile(path string) (*Static, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}
	data, err := os.ReadFile(abs) // #nosec G304 -- user-provided input path
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(bytes.NewReader(data), FileURL(abs))
}

// FileURL returns the file: URL of an absolute path.
func FileURL(abs string) string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String()
}

// find queries the scope, skipping template content so that shadow roots
// stay encapsulated.
func (s *Static) find(selector string) *goquery.Selection {
	return s.sel.Find(selector).FilterFunction(func(_ int, x *goquery.Selection) bool {
		return !s.insideTemplate(x.Nodes[0])
	})
}

func (s *Static) insideTemplate(n *html.Node) bool {
	for p := n.Parent; p != nil && p != s.root; p = p.Parent {
		if dom.LocalName(p) == "template" {
			return true
		}
	}
	return false
}

// Document implements Scope.
func (s *Static) Document(ctx context.Context) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	markup := dom.Render(s.root)
	if s.shadow {
		markup = dom.InnerHTML(s.root)
	}
	return &Document{HTML: markup, BaseURI: s.baseURI, Title: s.title}, nil
}

// Styles implements Scope. Embedded blocks expose only their literal text.
// Linked sheets are readable when they resolve to a same-origin file.
func (s *Static) Styles(ctx context.Context) ([]StyleSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var out []StyleSource
	s.find(`style, link[rel~="stylesheet"]`).Each(func(_ int, el *goquery.Selection) {
		media, _ := el.Attr("media")
		if goquery.NodeName(el) == "style" {
			out = append(out, StyleSource{
				Kind:    SourceStyle,
				Media:   media,
				Text:    el.Text(),
				BaseURI: s.baseURI,
			})
			return
		}
		href, _ := el.Attr("href")
		src := StyleSource{
			Kind:    SourceLink,
			Media:   media,
			Href:    resolve(s.baseURI, href),
			BaseURI: s.baseURI,
		}
		if data, ok := s.readLocal(src.Href); ok {
			src.Rules = []string{string(data)}
			src.Readable = true
		}
		out = append(out, src)
	})
	return out, nil
}

// BodyTextLen implements Scope.
func (s *Static) BodyTextLen(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	body := s.root
	if !s.shadow {
		body = dom.Find(s.root, dom.IsElement("body"))
		if body == nil {
			return 0, nil
		}
	}
	return utf8.RuneCountInString(strings.TrimSpace(dom.CollapseSpace(renderedText(body)))), nil
}

var inert = dom.IsElement("script", "style", "template", "noscript")

// renderedText is the text a browser would lay out: script, style and
// template content excluded.
func renderedText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		switch {
		case cur.Type == html.TextNode:
			b.WriteString(cur.Data)
			return
		case inert(cur):
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return b.String()
}

// Has implements Scope.
func (s *Static) Has(ctx context.Context, selector string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := ValidateSelector(selector); err != nil {
		return false, err
	}
	return s.find(selector).Length() > 0, nil
}

// ShadowRoot implements Scope.
func (s *Static) ShadowRoot(ctx context.Context, hostSelector string) (Scope, bool) {
	if ctx.Err() != nil || ValidateSelector(hostSelector) != nil {
		return nil, false
	}
	host := s.find(hostSelector).First()
	if host.Length() == 0 {
		return nil, false
	}
	tmpl := host.ChildrenFiltered("template[shadowrootmode], template[shadowroot]").First()
	if tmpl.Length() == 0 {
		return nil, false
	}
	root := tmpl.Nodes[0]
	return &Static{
		root:    root,
		sel:     goquery.NewDocumentFromNode(root).Selection,
		baseURI: s.baseURI,
		title:   s.title,
		dir:     s.dir,
		shadow:  true,
	}, true
}

// Frames implements Scope. An empty selector matches every iframe.
func (s *Static) Frames(ctx context.Context, selector string) ([]Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if selector == "" {
		selector = "iframe"
	}
	if err := ValidateSelector(selector); err != nil {
		return nil, err
	}
	var frames []Frame
	s.find(selector).Each(func(_ int, el *goquery.Selection) {
		if goquery.NodeName(el) == "iframe" || goquery.NodeName(el) == "frame" {
			frames = append(frames, &staticFrame{el: el, parent: s})
		}
	})
	return frames, nil
}

// readLocal reads a same-origin file: URL.
func (s *Static) readLocal(ref string) ([]byte, bool) {
	if s.dir == "" {
		return nil, false
	}
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != "file" {
		return nil, false
	}
	path := filepath.FromSlash(u.Path)
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, false
	}
	data, err := os.ReadFile(path) // #nosec G304 -- confined to the page directory
	if err != nil {
		return nil, false
	}
	return data, true
}

type staticFrame struct {
	el     *goquery.Selection
	parent *Static
}

func (f *staticFrame) Root(ctx context.Context) (Scope, bool) {
	if ctx.Err() != nil {
		return nil, false
	}
	if doc, ok := f.el.Attr("srcdoc"); ok {
		child, err := Parse(strings.NewReader(doc), f.parent.baseURI)
		if err != nil {
			return nil, false
		}
		child.dir = f.parent.dir
		return child, true
	}
	src, _ := f.el.Attr("src")
	if strings.TrimSpace(src) == "" {
		return nil, false
	}
	ref := resolve(f.parent.baseURI, src)
	data, ok := f.parent.readLocal(ref)
	if !ok {
		return nil, false
	}
	child, err := Parse(bytes.NewReader(data), ref)
	if err != nil {
		return nil, false
	}
	return child, true
}

// resolve resolves ref against base, returning ref unchanged when either
// fails to parse.
func resolve(base, ref string) string {
	ref = strings.TrimSpace(ref)
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
