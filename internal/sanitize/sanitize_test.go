package sanitize

// Notes:
// - Each test builds its own Sanitizer; the type holds no per-call state.
// - Banner tests call removeBanner directly to check the count of removed
//   nodes, which the public API does not expose.

import (
	"errors"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
	"github.com/alnah/go-readsnap/internal/scope"
)

const base = "https://reader.test/book/ch1.html"

func sanitize(t *testing.T, opts Options, markup string) *goquery.Document {
	t.Helper()
	s, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc, err := s.Sanitize(&scope.Document{HTML: markup, BaseURI: base})
	if err != nil {
		t.Fatalf("Sanitize() error = %v", err)
	}
	return doc
}

// ---------------------------------------------------------------------------
// TestSanitize_Scripts
// ---------------------------------------------------------------------------

func TestSanitize_Scripts(t *testing.T) {
	t.Parallel()

	for _, strip := range []bool{true, false} {
		doc := sanitize(t, Options{StripUI: strip}, `<p>a</p><script>alert(1)</script><div><script src="x.js"></script></div>`)
		if n := doc.Find("script").Length(); n != 0 {
			t.Errorf("StripUI=%v: %d scripts remain", strip, n)
		}
	}
}

// ---------------------------------------------------------------------------
// TestSanitize_StripUI
// ---------------------------------------------------------------------------

func TestSanitize_StripUI(t *testing.T) {
	t.Parallel()

	markup := `<body>
		<nav>menu</nav>
		<header class="top">title bar</header>
		<div role="dialog">popup</div>
		<div class="reader-toolbar-wrap">tools</div>
		<div class="note-annotation">note</div>
		<aside class="sidebar-left">toc</aside>
		<reader-toolbar>x</reader-toolbar>
		<div id="reader-controls">controls</div>
		<div class="custom-chrome">custom</div>
		<article><p>Real content</p></article>
	</body>`

	doc := sanitize(t, Options{StripUI: true, ExtraUISelectors: []string{".custom-chrome"}}, markup)

	sel := strings.Join(append(UISelectors(), ".custom-chrome"), ", ")
	if n := doc.Find(sel).Not("html, head, body").Length(); n != 0 {
		out, _ := doc.Html()
		t.Errorf("%d UI elements remain:\n%s", n, out)
	}
	if got := strings.TrimSpace(doc.Find("article").Text()); got != "Real content" {
		t.Errorf("article text = %q", got)
	}
	if doc.Find("body").Length() != 1 {
		t.Error("body removed")
	}
}

func TestSanitize_KeepUIWhenNotStripping(t *testing.T) {
	t.Parallel()

	doc := sanitize(t, Options{}, `<nav>menu</nav><div style="display:none">hidden</div><p>x</p>`)
	if doc.Find("nav").Length() != 1 {
		t.Error("nav removed with StripUI=false")
	}
	if doc.Find("div").Length() != 1 {
		t.Error("hidden div removed with StripUI=false")
	}
}

func TestSanitize_Hidden(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		keep   bool
	}{
		{"plain hidden", `<div id="t" style="display:none"><p>x</p></div>`, false},
		{"visibility hidden", `<div id="t" style="visibility: hidden">x</div>`, false},
		{"hidden attribute", `<div id="t" hidden>x</div>`, false},
		{"hidden with image", `<div id="t" style="display:none"><img src="a.png"></div>`, true},
		{"hidden with table", `<div id="t" style="display:none"><table><tr><td>1</td></tr></table></div>`, true},
		{"hidden with figure", `<div id="t" style="display:none"><figure>f</figure></div>`, true},
		{"hidden with math", `<div id="t" style="display:none"><math><mi>x</mi></math></div>`, true},
		{"hidden with svg", `<div id="t" style="display:none"><svg><circle r="1"></circle></svg></div>`, true},
		{"visible", `<div id="t">x</div>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := sanitize(t, Options{StripUI: true}, tt.markup)
			if got := doc.Find("#t").Length() == 1; got != tt.keep {
				t.Errorf("kept = %v, want %v", got, tt.keep)
			}
		})
	}
}

func TestClean_DoesNotMutateSource(t *testing.T) {
	t.Parallel()

	src, err := dom.Parse(`<nav>menu</nav><script>x()</script><img data-src="a.png"><p>body</p>`)
	if err != nil {
		t.Fatal(err)
	}
	before := dom.Render(src)

	s, err := New(Options{StripUI: true})
	if err != nil {
		t.Fatal(err)
	}
	out := s.Clean(src, base)

	if after := dom.Render(src); after != before {
		t.Errorf("source mutated:\nbefore %s\nafter  %s", before, after)
	}
	if out.Find("nav, script").Length() != 0 {
		t.Error("clean copy still has chrome")
	}
}

// ---------------------------------------------------------------------------
// TestSanitize_URLs
// ---------------------------------------------------------------------------

func TestSanitize_Images(t *testing.T) {
	t.Parallel()

	doc := sanitize(t, Options{}, `
		<img id="rel" src="img/a.png">
		<img id="abs" src="https://cdn.test/b.png">
		<img id="lazy" data-src="/static/c.png">
		<img id="placeholder" src="data:image/gif;base64,R0lGOD" data-lazy-src="d.png">
		<img id="inline" src="data:image/png;base64,iVBOR">
		<img id="none">`)

	tests := map[string]string{
		"rel":         "https://reader.test/book/img/a.png",
		"abs":         "https://cdn.test/b.png",
		"lazy":        "https://reader.test/static/c.png",
		"placeholder": "https://reader.test/book/d.png",
		"inline":      "data:image/png;base64,iVBOR",
		"none":        "",
	}
	for id, want := range tests {
		if got := doc.Find("#" + id).AttrOr("src", ""); got != want {
			t.Errorf("#%s src = %q, want %q", id, got, want)
		}
	}
}

func TestRewriteURLs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		css  string
		base string
		want string
	}{
		{"quoted", `background: url('bg.png')`, base, `background: url('https://reader.test/book/bg.png')`},
		{"double quoted", `background: url("/i/bg.png")`, base, `background: url("https://reader.test/i/bg.png")`},
		{"bare", `background:url(bg.png) no-repeat`, base, `background:url(https://reader.test/book/bg.png) no-repeat`},
		{"data uri untouched", `background: url(data:image/png;base64,AAA)`, base, `background: url(data:image/png;base64,AAA)`},
		{"relative base leaves value", `background: url(bg.png)`, "book/", `background: url(bg.png)`},
		{"already absolute", `background: url(https://x.test/a.png)`, base, `background: url(https://x.test/a.png)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := RewriteURLs(tt.css, tt.base); got != tt.want {
				t.Errorf("RewriteURLs() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSanitize_InlineStyles(t *testing.T) {
	t.Parallel()

	doc := sanitize(t, Options{}, `<div id="d" style="background-image: url(pic.jpg)">x</div>`)
	want := "background-image: url(https://reader.test/book/pic.jpg)"
	if got := doc.Find("#d").AttrOr("style", ""); got != want {
		t.Errorf("style = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// TestRemoveBanner
// ---------------------------------------------------------------------------

const phrase = "Printing is not supported"

func TestRemoveBanner(t *testing.T) {
	t.Parallel()

	root, err := dom.Parse(`<body>
		<div id="banner"><div class="inner"><span>Printing is not supported</span></div></div>
		<article id="content"><p>` + strings.Repeat("Long chapter text. ", 20) + `</p></article>
	</body>`)
	if err != nil {
		t.Fatal(err)
	}

	if n := removeBanner(root, phrase, DefaultBannerSlack); n != 3 {
		t.Errorf("removeBanner() removed %d nodes, want 3", n)
	}
	doc := goquery.NewDocumentFromNode(root)
	if doc.Find("#banner").Length() != 0 {
		t.Error("banner still present")
	}
	if doc.Find("#content").Length() != 1 {
		t.Error("content removed")
	}

	// Running again finds nothing.
	if n := removeBanner(root, phrase, DefaultBannerSlack); n != 0 {
		t.Errorf("second removeBanner() removed %d nodes, want 0", n)
	}
}

func TestRemoveBanner_SentenceBanner(t *testing.T) {
	t.Parallel()

	root, err := dom.Parse(`<body><main id="page">
		<div id="shell"><div id="banner">Printing is not supported. Please open this book in the reader application instead.</div></div>
		<article id="content"><p>` + strings.Repeat("Long chapter text. ", 20) + `</p></article>
	</main></body>`)
	if err != nil {
		t.Fatal(err)
	}

	// The holder and its wrapper go; the page around the chapter stays.
	if n := removeBanner(root, phrase, DefaultBannerSlack); n != 2 {
		t.Errorf("removeBanner() removed %d nodes, want 2", n)
	}
	doc := goquery.NewDocumentFromNode(root)
	if doc.Find("#banner, #shell").Length() != 0 {
		t.Error("banner still present")
	}
	if doc.Find("#page").Length() != 1 || doc.Find("#content").Length() != 1 {
		t.Error("content removed")
	}
}

func TestRemoveBanner_OverlappingChains(t *testing.T) {
	t.Parallel()

	root, err := dom.Parse(`<body><div id="wrap">
		<p>Printing is not supported</p><p>Printing is not supported</p>
	</div><p id="keep">` + strings.Repeat("x", 200) + `</p></body>`)
	if err != nil {
		t.Fatal(err)
	}

	// Both paragraphs and their shared wrapper, each marked once.
	if n := removeBanner(root, phrase, 60); n != 3 {
		t.Errorf("removeBanner() removed %d nodes, want 3", n)
	}
	doc := goquery.NewDocumentFromNode(root)
	if doc.Find("#wrap").Length() != 0 || doc.Find("#keep").Length() != 1 {
		out, _ := doc.Html()
		t.Errorf("unexpected tree:\n%s", out)
	}
}

func TestRemoveBanner_PhraseInsideLongText(t *testing.T) {
	t.Parallel()

	root, err := dom.Parse(`<body><p id="p">` + strings.Repeat("Chapter words ", 10) + phrase + ` and more.</p></body>`)
	if err != nil {
		t.Fatal(err)
	}
	if n := removeBanner(root, phrase, DefaultBannerSlack); n != 0 {
		t.Errorf("removeBanner() removed %d nodes from a content paragraph", n)
	}
}

func TestRemoveBanner_SplitAcrossElements(t *testing.T) {
	t.Parallel()

	root, err := dom.Parse(`<body><div id="b"><b>Printing</b> is not supported</div><p>content</p></body>`)
	if err != nil {
		t.Fatal(err)
	}
	if n := removeBanner(root, phrase, DefaultBannerSlack); n != 1 {
		t.Errorf("removeBanner() removed %d nodes, want 1", n)
	}
	if dom.Find(root, func(n *html.Node) bool { return dom.Attr(n, "id") == "b" }) != nil {
		t.Error("split banner still present")
	}
}

func TestNew_InvalidSelector(t *testing.T) {
	t.Parallel()

	_, err := New(Options{ExtraUISelectors: []string{"[[["}})
	if !errors.Is(err, scope.ErrInvalidSelector) {
		t.Errorf("New() error = %v, want ErrInvalidSelector", err)
	}
}
