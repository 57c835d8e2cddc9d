package markdown

// Notes:
// - Inputs go through dom.Parse so fragments get the same body context a
//   sanitized snapshot has.
// - Expected strings are the exact Markdown after Normalize; block
//   templates are compared literally.
// - Language detection through lexer analysis is heuristic, so only the
//   class-driven path is asserted exactly.

import (
	"strings"
	"testing"

	"github.com/alnah/go-readsnap/internal/dom"
)

func render(t *testing.T, opts Options, markup string) Document {
	t.Helper()
	r, err := New(opts)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	doc, err := dom.Parse(markup)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return r.Render(doc)
}

// ---------------------------------------------------------------------------
// TestRender
// ---------------------------------------------------------------------------

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		markup string
		want   string
	}{
		// Blocks
		{"heading and paragraph", `<h2> Title </h2><p>Body</p>`, "## Title\n\nBody"},
		{"heading levels", `<h1>A</h1><h6>F</h6>`, "# A\n\n###### F"},
		{"empty heading", `<h3> </h3><p>x</p>`, "x"},
		{"div as paragraph", `<div>one</div><div>two</div>`, "one\n\ntwo"},
		{"rule", `<p>a</p><hr><p>b</p>`, "a\n\n---\n\nb"},
		{"blockquote", `<blockquote><p>one</p><p>two</p></blockquote>`, "> one\n>\n> two"},
		{"line break", `<p>a<br>b</p>`, "a\nb"},

		// Inline
		{"strong and em", `<p>Some <strong>bold</strong> and <em> em </em>text</p>`, "Some **bold** and *em* text"},
		{"empty inline", `<p>a<strong> </strong>b</p>`, "ab"},
		{"superscript", `<p>x<sup>2</sup></p>`, "x^2^"},
		{"subscript", `<p>H<sub>2</sub>O</p>`, "H~2~O"},
		{"inline code", `<p>call <code>f()</code></p>`, "call `f()`"},
		{"inline code with backtick", "<p><code>a`b</code></p>", "`` a`b ``"},
		{"link", `<p><a href="https://example.com/x">site</a></p>`, "[site](https://example.com/x)"},
		{"empty link", `<p>a<a href="https://example.com"></a>b</p>`, "ab"},
		{"script link", `<p><a href="javascript:void(0)">go</a></p>`, "go"},
		{"whitespace collapsed", "<p>a\n\n   b\t c</p>", "a b c"},

		// Lists
		{"unordered", `<ul><li>a</li><li>b</li><li>c</li></ul>`, "- a\n- b\n- c"},
		{"ordered ignores source numbers", `<ol start="5"><li value="9">a</li><li>b</li><li>c</li></ol>`, "1. a\n2. b\n3. c"},
		{"nested", `<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>`, "- a\n  - b\n- c"},
		{"item paragraphs", `<ul><li><p>alpha</p></li><li><p>beta</p></li><li><p>gamma</p></li></ul>`, "- alpha\n- beta\n- gamma"},
		{"item divs", `<ol><li><div>one</div></li><li><div>two</div></li></ol>`, "1. one\n2. two"},
		{"item paragraph then nested list", `<ul><li><p>a</p><ul><li><p>b</p></li></ul></li></ul>`, "- a\n  - b"},
		{"item with two paragraphs", `<ul><li><p>x</p><p>y</p></li><li>z</li></ul>`, "- x\n  y\n- z"},
		{"three levels", `<ul><li>a<ul><li>b<ol><li>c</li></ol></li></ul></li></ul>`, "- a\n  - b\n    1. c"},
		{
			"item with code block",
			"<ul><li><p>Run</p><pre><code class=\"language-sh\">make\n\ntest</code></pre></li></ul>",
			"- Run\n  ```sh\n  make\n\n  test\n  ```",
		},
		{
			"numbering restarts per list",
			`<ol><li>a</li><li>b</li></ol><p>x</p><ol><li>c</li></ol>`,
			"1. a\n2. b\n\nx\n\n1. c",
		},

		// Tables
		{
			"ragged table with pipe",
			`<table><tr><td>a</td><td>b</td></tr><tr><td>1</td><td>x|y</td><td>3</td></tr><tr><td>z</td></tr></table>`,
			"| a | b |  |\n| --- | --- | --- |\n| 1 | x\\|y | 3 |\n| z |  |  |",
		},
		{
			"header cells are not required",
			`<table><tbody><tr><td>h1</td><td>h2</td></tr><tr><td>v1</td><td>line<br>two</td></tr></tbody></table>`,
			"| h1 | h2 |\n| --- | --- |\n| v1 | line two |",
		},

		// Figures and images
		{
			"figure with caption",
			`<figure><img src="https://x.test/a.png" alt="A"><figcaption> Fig 1 </figcaption></figure>`,
			"![A](https://x.test/a.png)\n\n*Fig 1*",
		},
		{"image without source", `<p><img alt="nothing"></p>`, ""},

		// Code blocks
		{
			"code block with class",
			"<pre><code class=\"language-go\">fmt.Println(\"hi\")\n</code></pre>",
			"```go\nfmt.Println(\"hi\")\n```",
		},
		{
			"code block keeps indentation",
			"<pre data-lang=\"Python\">def f():\n    return 1</pre>",
			"```python\ndef f():\n    return 1\n```",
		},
		{
			"fence grows past embedded fence",
			"<pre>```\nx\n```</pre>",
			"````\n```\nx\n```\n````",
		},

		// Hidden content
		{"hidden removed", `<p>keep</p><div style="display:none">gone</div>`, "keep"},
		{"skipped elements", `<p>a</p><script>var x</script><style>p{}</style><button>Menu</button>`, "a"},

		// Math
		{
			"inline math",
			`<p>Let <span class="katex"><math><mi>x</mi></math></span> be</p>`,
			"Let $x$ be",
		},
		{
			"display math",
			`<div class="katex-display"><span class="katex"><math display="block"><mfrac><mi>a</mi><mi>b</mi></mfrac></math></span></div>`,
			"$$\n\\frac{a}{b}\n$$",
		},
		{
			"mathjax display attribute",
			`<p>see</p><mjx-container display="true"><mjx-assistive-mml><math><msup><mi>x</mi><mn>2</mn></msup></math></mjx-assistive-mml></mjx-container>`,
			"see\n\n$$\nx^{2}\n$$",
		},
		{
			"math fallback to visible text",
			`<p>Area <span class="MathJax">πr²</span></p>`,
			"Area $πr²$",
		},
		{
			"hidden math kept",
			`<p>v <span style="display:none"><math><mi>y</mi></math></span></p>`,
			"v $y$",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := render(t, Options{}, tt.markup).Text
			if got != tt.want {
				t.Errorf("Render(%s)\n got: %q\nwant: %q", tt.markup, got, tt.want)
			}
		})
	}
}

func TestRender_ListLines(t *testing.T) {
	t.Parallel()

	got := render(t, Options{}, `<ul><li>one</li><li>two</li><li>three</li></ul>`).Text
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3: %q", len(lines), got)
	}
	for _, l := range lines {
		if !strings.HasPrefix(l, "- ") {
			t.Errorf("line %q does not start with \"- \"", l)
		}
	}
}

func TestRender_Images(t *testing.T) {
	t.Parallel()

	doc := render(t, Options{}, `
		<p><img src="https://x.test/a.png" alt="first"></p>
		<p><img src="https://x.test/b.png"></p>
		<p><img src="https://x.test/a.png" alt="again"></p>`)

	if len(doc.Images) != 2 {
		t.Fatalf("len(Images) = %d, want 2", len(doc.Images))
	}
	if doc.Images[0] != (ImageRef{URL: "https://x.test/a.png", Alt: "first"}) {
		t.Errorf("Images[0] = %+v", doc.Images[0])
	}
	if doc.Images[1].URL != "https://x.test/b.png" {
		t.Errorf("Images[1].URL = %q", doc.Images[1].URL)
	}
	if n := strings.Count(doc.Text, "![](https://x.test/b.png)"); n != 1 {
		t.Errorf("image b rendered %d times, want 1", n)
	}
}

func TestRender_Idempotent(t *testing.T) {
	t.Parallel()

	markup := `<h1>T</h1><p>a   b</p><ul><li>x<ul><li>y</li></ul></li></ul>
		<blockquote><p>q</p><p></p></blockquote><table><tr><td>1</td></tr></table>`
	got := render(t, Options{}, markup).Text
	if again := Normalize(got); again != got {
		t.Errorf("Normalize changed rendered output:\n%q\n%q", got, again)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("output has a run of three newlines: %q", got)
	}
}

func TestRender_MathSelector(t *testing.T) {
	t.Parallel()

	doc := render(t, Options{MathSelector: ".eq"}, `<p><span class="eq">E=mc²</span> and <span class="katex">k</span></p>`)
	if doc.Text != "$E=mc²$ and k" {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestRender_DetectLanguage(t *testing.T) {
	t.Parallel()

	doc := render(t, Options{DetectLanguage: true}, "<pre>#!/bin/bash\necho hi</pre>")
	if !strings.HasPrefix(doc.Text, "```") || !strings.HasSuffix(doc.Text, "\n```") {
		t.Errorf("Text = %q, want a fenced block", doc.Text)
	}
	if !strings.Contains(doc.Text, "echo hi") {
		t.Errorf("code body lost: %q", doc.Text)
	}
}

func TestNew_InvalidSelector(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{MathSelector: "[[["}); err == nil {
		t.Error("New() error = nil, want selector error")
	}
}

// ---------------------------------------------------------------------------
// TestNormalize
// ---------------------------------------------------------------------------

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"a\n\n\n\nb", "a\n\nb"},
		{"\n\n a  \n\n", "a"},
		{"x \n \n \ny", "x\n\ny"},
		{"already\n\nclean", "already\n\nclean"},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if twice := Normalize(got); twice != got {
			t.Errorf("Normalize not idempotent on %q: %q", got, twice)
		}
	}
}
