// Package markdown renders sanitized content trees to Markdown.
//
// Rendering is a recursive descent keyed on tag names. The only state
// carried through the recursion is the list depth and the set of images
// seen so far; the Renderer itself holds configuration only and is safe
// for concurrent use.
package markdown

import (
	"fmt"
	"strings"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
	"github.com/alnah/go-readsnap/internal/mathml"
)

// DefaultMathSelector matches the containers produced by MathJax 2/3, KaTeX
// and bare MathML.
const DefaultMathSelector = "mjx-container, .MathJax_Display, .MathJax, .katex-display, .katex, math"

// ImageRef is an image referenced by the rendered document.
type ImageRef struct {
	URL string `json:"url"`
	Alt string `json:"altText"`
}

// Document is the output of a render.
type Document struct {
	Text   string
	Images []ImageRef
}

// Options configures a Renderer.
type Options struct {
	// MathSelector matches math containers. Empty uses DefaultMathSelector.
	MathSelector string

	// DetectLanguage guesses the fence language of unlabeled code blocks.
	DetectLanguage bool
}

// Renderer converts content trees to Markdown.
type Renderer struct {
	math   cascadia.Selector
	detect bool
}

// New returns a Renderer for opts.
func New(opts Options) (*Renderer, error) {
	sel := opts.MathSelector
	if strings.TrimSpace(sel) == "" {
		sel = DefaultMathSelector
	}
	compiled, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("math selector %q: %w", sel, err)
	}
	return &Renderer{math: compiled, detect: opts.DetectLanguage}, nil
}

// state is the recursion context.
type state struct {
	depth  int
	images *imageSet
}

type imageSet struct {
	seen map[string]bool
	refs []ImageRef
}

func (s *imageSet) add(url, alt string) {
	if s.seen[url] {
		return
	}
	s.seen[url] = true
	s.refs = append(s.refs, ImageRef{URL: url, Alt: alt})
}

// Render converts the subtree rooted at root.
func (r *Renderer) Render(root *html.Node) Document {
	if root == nil {
		return Document{}
	}
	st := state{images: &imageSet{seen: make(map[string]bool)}}
	return Document{
		Text:   Normalize(r.node(root, st)),
		Images: st.images.refs,
	}
}

// skipped elements carry no readable content.
var skipped = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"head": true, "title": true, "meta": true, "link": true,
	"iframe": true, "frame": true, "object": true, "embed": true,
	"canvas": true, "svg": true, "button": true, "input": true,
	"select": true, "textarea": true,
}

// paragraphs are wrapped like <p>.
var paragraphs = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "main": true,
	"aside": true, "header": true, "footer": true, "nav": true,
	"address": true, "details": true, "summary": true,
}

func (r *Renderer) node(n *html.Node, st state) string {
	switch n.Type {
	case html.TextNode:
		return dom.CollapseSpace(n.Data)
	case html.DocumentNode:
		return r.children(n, st)
	case html.ElementNode:
	default:
		return ""
	}

	name := dom.LocalName(n)
	if skipped[name] {
		return ""
	}
	if dom.IsHidden(n) && dom.MathRoot(n) == nil {
		return ""
	}
	if r.math.Match(n) {
		return r.mathContainer(n)
	}

	switch name {
	case "h1", "h2", "h3", "h4", "h5", "h6":
		text := strings.TrimSpace(dom.CollapseSpace(r.children(n, st)))
		if text == "" {
			return ""
		}
		return "\n\n" + strings.Repeat("#", int(name[1]-'0')) + " " + text + "\n\n"
	case "br":
		return "\n"
	case "hr":
		return "\n\n---\n\n"
	case "blockquote":
		return quote(r.children(n, st))
	case "pre":
		return r.codeBlock(n)
	case "code", "kbd", "samp", "tt":
		return inlineCode(dom.Text(n))
	case "strong", "b":
		return wrap("**", r.children(n, st))
	case "em", "i", "cite", "dfn":
		return wrap("*", r.children(n, st))
	case "del", "s", "strike":
		return wrap("~~", r.children(n, st))
	case "sup":
		return wrap("^", r.children(n, st))
	case "sub":
		return wrap("~", r.children(n, st))
	case "a":
		return link(n, r.children(n, st))
	case "img":
		return image(n, st)
	case "ul", "ol":
		return r.list(n, name == "ol", st)
	case "table":
		return r.table(n, st)
	case "figure":
		return r.figure(n, st)
	case "dt":
		return block(wrap("**", r.children(n, st)))
	case "dd":
		return "\n" + strings.TrimSpace(r.children(n, st)) + "\n"
	}
	if paragraphs[name] {
		return block(r.children(n, st))
	}
	return r.children(n, st)
}

// children concatenates the rendered children of n. A leading space is
// dropped when the output already ends in whitespace, so adjacent inline
// pieces never produce space runs.
func (r *Renderer) children(n *html.Node, st state) string {
	var b strings.Builder
	var last byte
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s := r.node(c, st)
		if b.Len() > 0 && (last == ' ' || last == '\n') {
			s = strings.TrimLeft(s, " ")
		}
		if s == "" {
			continue
		}
		b.WriteString(s)
		last = s[len(s)-1]
	}
	return b.String()
}

// block wraps non-empty content in blank lines.
func block(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return "\n\n" + s + "\n\n"
}

// wrap surrounds trimmed inline content with tok, keeping the outer
// spacing. Empty content renders nothing.
func wrap(tok, s string) string {
	core := strings.TrimSpace(s)
	if core == "" {
		return ""
	}
	lead, trail := "", ""
	if core[0] != s[0] {
		lead = " "
	}
	if core[len(core)-1] != s[len(s)-1] {
		trail = " "
	}
	return lead + tok + core + tok + trail
}

func inlineCode(s string) string {
	s = strings.TrimSpace(dom.CollapseSpace(s))
	if s == "" {
		return ""
	}
	if strings.Contains(s, "`") {
		return "`` " + s + " ``"
	}
	return "`" + s + "`"
}

func quote(s string) string {
	s = blankRuns.ReplaceAllString(strings.TrimSpace(s), "\n\n")
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = "> " + l
	}
	return "\n\n" + strings.Join(lines, "\n") + "\n\n"
}

func link(n *html.Node, text string) string {
	label := strings.TrimSpace(text)
	if label == "" {
		return ""
	}
	href := strings.TrimSpace(dom.Attr(n, "href"))
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return text
	}
	return "[" + label + "](" + destination(href) + ")"
}

var altEscaper = strings.NewReplacer("[", `\[`, "]", `\]`)

func image(n *html.Node, st state) string {
	src := strings.TrimSpace(dom.Attr(n, "src"))
	if src == "" {
		return ""
	}
	alt := strings.TrimSpace(dom.CollapseSpace(dom.Attr(n, "alt")))
	st.images.add(src, alt)
	return "![" + altEscaper.Replace(alt) + "](" + destination(src) + ")"
}

// destination makes a URL safe to place between parentheses.
func destination(u string) string {
	return strings.NewReplacer(" ", "%20", "(", "%28", ")", "%29").Replace(u)
}

func (r *Renderer) mathContainer(n *html.Node) string {
	root := dom.MathRoot(n)
	if root == nil {
		text := strings.TrimSpace(dom.CollapseSpace(dom.Text(n)))
		if text == "" {
			return ""
		}
		return " $" + text + "$ "
	}
	latex := mathml.Convert(root)
	if latex == "" {
		return ""
	}
	if displayMath(n, root) {
		return "\n\n$$\n" + latex + "\n$$\n\n"
	}
	return " $" + latex + "$ "
}

func displayMath(container, root *html.Node) bool {
	switch strings.ToLower(dom.Attr(container, "display")) {
	case "true", "block":
		return true
	}
	if dom.HasClass(container, "katex-display") || dom.HasClass(container, "MathJax_Display") {
		return true
	}
	return strings.EqualFold(dom.Attr(root, "display"), "block")
}
