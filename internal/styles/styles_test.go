package styles

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/alnah/go-readsnap/internal/scope"
)

// ---------------------------------------------------------------------------
// TestFromSources
// ---------------------------------------------------------------------------

func TestFromSources(t *testing.T) {
	t.Parallel()

	srcs := []scope.StyleSource{
		{Kind: scope.SourceStyle, Text: "p { color: red }", BaseURI: "https://a.test/"},
		{Kind: scope.SourceStyle, Media: "print", Text: "p { display: none }"},
		{Kind: scope.SourceLink, Href: "https://a.test/app.css", Readable: true, Rules: []string{"h1 { margin: 0 }", "h2 { margin: 0 }"}},
		{Kind: scope.SourceLink, Href: "https://cdn.test/font.css", BaseURI: "https://a.test/"},
		{Kind: scope.SourceLink, Media: "screen, print", Href: "https://a.test/both.css"},
	}

	got := FromSources(srcs, false)
	want := []Record{
		{Kind: KindInline, CSSText: "p { color: red }", BaseURI: "https://a.test/"},
		{Kind: KindLinkedInlined, CSSText: "h1 { margin: 0 }\nh2 { margin: 0 }", SourceHref: "https://a.test/app.css"},
		{Kind: KindLinkedExternal, SourceHref: "https://cdn.test/font.css", BaseURI: "https://a.test/"},
		{Kind: KindLinkedExternal, SourceHref: "https://a.test/both.css"},
	}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestFromSources_RuleReconstruction(t *testing.T) {
	t.Parallel()

	rules := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		rules = append(rules, ".r { order: 1 }")
	}

	tests := []struct {
		name     string
		text     string
		rules    []string
		readable bool
		want     string
	}{
		{"runtime rules recovered", "a { b: c }", rules, true, strings.Join(rules, "\n")},
		{"within slack keeps text", "a { b: c } d { e: f } g { h: i }", rules, true, "a { b: c } d { e: f } g { h: i }"},
		{"unreadable keeps text", "a { b: c }", rules, false, "a { b: c }"},
		{"empty text with few rules", "", rules[:3], true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := FromSources([]scope.StyleSource{{
				Kind: scope.SourceStyle, Text: tt.text, Rules: tt.rules, Readable: tt.readable,
			}}, false)
			if len(got) != 1 || got[0].CSSText != tt.want {
				t.Errorf("got %+v, want text %q", got, tt.want)
			}
		})
	}
}

func TestPrintOnly(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"":                     false,
		"print":                true,
		" PRINT ":              true,
		"only print":           true,
		"print and (color)":    true,
		"screen":               false,
		"screen, print":        false,
		"all":                  false,
		"print, print and (x)": true,
	}
	for media, want := range tests {
		if got := printOnly(media); got != want {
			t.Errorf("printOnly(%q) = %v, want %v", media, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// TestFixPrint
// ---------------------------------------------------------------------------

func TestFixPrint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		css  string
		want string
	}{
		{
			"print media block",
			"p{color:red}@media print{body{display:none}.a{b:c}}h1{x:y}",
			"p{color:red}h1{x:y}",
		},
		{
			"only print with query",
			"@media only print and (min-width: 1px) { html { visibility: hidden } }div{a:b}",
			"div{a:b}",
		},
		{
			"hide all body children",
			"body > * { display: none !important; }p{a:b}",
			"p{a:b}",
		},
		{
			"hide all descendants",
			"body *{visibility:hidden}",
			"",
		},
		{
			"warning pseudo element",
			`body::before { content: "Printing is not supported"; display: block }p{a:b}`,
			"p{a:b}",
		},
		{
			"html after",
			`html:after{content:'x'}`,
			"",
		},
		{
			"screen media kept",
			"@media screen{body{display:none}}",
			"@media screen{body{display:none}}",
		},
		{
			"ordinary body rule kept",
			"body{margin:0}body > p{display:none}",
			"body{margin:0}body > p{display:none}",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := FixPrint(tt.css); got != tt.want {
				t.Errorf("FixPrint() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFromSources_FixPrint(t *testing.T) {
	t.Parallel()

	srcs := []scope.StyleSource{
		{Kind: scope.SourceStyle, Text: "@media print{body{display:none}}p{a:b}"},
		{Kind: scope.SourceLink, Readable: true, Rules: []string{"body > * { display: none }", "h1 { a: b }"}},
	}
	got := FromSources(srcs, true)
	if got[0].CSSText != "p{a:b}" {
		t.Errorf("inline CSSText = %q", got[0].CSSText)
	}
	if got[1].CSSText != "\nh1 { a: b }" {
		t.Errorf("linked CSSText = %q", got[1].CSSText)
	}
}

// ---------------------------------------------------------------------------
// TestCollect
// ---------------------------------------------------------------------------

type failingScope struct{ scope.Scope }

func (failingScope) Styles(context.Context) ([]scope.StyleSource, error) {
	return nil, errors.New("frame detached")
}

func TestCollect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s, err := scope.Parse(strings.NewReader(`<html><head>
		<style>p{a:b}</style><style media="print">p{c:d}</style>
		<link rel="stylesheet" href="https://cdn.test/x.css">
	</head><body></body></html>`), "https://reader.test/")
	if err != nil {
		t.Fatal(err)
	}
	recs, err := Collect(ctx, s, true)
	if err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(recs) != 2 || recs[0].Kind != KindInline || recs[1].Kind != KindLinkedExternal {
		t.Errorf("Collect() = %+v", recs)
	}

	if _, err := Collect(ctx, failingScope{}, false); err == nil {
		t.Error("Collect() error = nil for failing scope")
	}
}
