// Package mathml translates presentation MathML subtrees into LaTeX.
//
// Only the structural subset found in rendered reading-app pages is
// covered: tokens, scripts, fractions, radicals, over/under scripts,
// tables, fences and the usual transparent wrappers. Unknown elements
// contribute their converted children, so unfamiliar markup degrades to
// readable output instead of failing.
package mathml

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"

	"github.com/alnah/go-readsnap/internal/dom"
)

// Convert returns the LaTeX form of the MathML subtree rooted at n.
// It never fails: a fault anywhere in the subtree yields the subtree's
// collapsed text instead.
func Convert(n *html.Node) (latex string) {
	if n == nil {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			latex = strings.TrimSpace(dom.CollapseSpace(dom.Text(n)))
		}
	}()
	return strings.TrimSpace(convert(n))
}

func convert(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data)
	case html.ElementNode, html.DocumentNode:
	default:
		return ""
	}

	switch dom.LocalName(n) {
	case "mi":
		return identifier(leaf(n))
	case "mn":
		return leaf(n)
	case "mo":
		return operator(leaf(n))
	case "msup":
		a := args(n, 2)
		return base(a[0]) + "^{" + a[1] + "}"
	case "msub":
		a := args(n, 2)
		return base(a[0]) + "_{" + a[1] + "}"
	case "msubsup":
		a := args(n, 3)
		return base(a[0]) + "_{" + a[1] + "}^{" + a[2] + "}"
	case "mfrac":
		a := args(n, 2)
		return `\frac{` + a[0] + "}{" + a[1] + "}"
	case "msqrt":
		return `\sqrt{` + children(n) + "}"
	case "mroot":
		a := args(n, 2)
		return `\sqrt[` + a[1] + "]{" + a[0] + "}"
	case "mover":
		return over(n)
	case "munder":
		a := args(n, 2)
		return `\underset{` + a[1] + "}{" + a[0] + "}"
	case "munderover":
		a := args(n, 3)
		return base(a[0]) + "_{" + a[1] + "}^{" + a[2] + "}"
	case "mtable":
		return table(n)
	case "mspace":
		return thinSpace
	case "mtext":
		return text(leaf(n))
	case "ms":
		return text(`"` + leaf(n) + `"`)
	case "mfenced":
		return fenced(n)
	case "semantics":
		if kids := dom.Children(n); len(kids) > 0 {
			return convert(kids[0])
		}
		return ""
	case "annotation", "annotation-xml", "none", "mprescripts":
		return ""
	default:
		// math, mrow, mstyle, mpadded, mphantom, menclose, merror, mtd and
		// anything unrecognized.
		return children(n)
	}
}

// leaf returns the normalized text of a token element.
func leaf(n *html.Node) string {
	return norm.NFC.String(strings.TrimSpace(dom.CollapseSpace(dom.Text(n))))
}

// args converts the element children of n, padded with empty strings so
// that missing positions never fail.
func args(n *html.Node, want int) []string {
	out := make([]string, want)
	for i, c := range dom.Children(n) {
		if i >= want {
			break
		}
		out[i] = convert(c)
	}
	return out
}

func children(n *html.Node) string {
	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		parts = append(parts, convert(c))
	}
	return join(parts)
}

var trailingCommand = regexp.MustCompile(`\\[A-Za-z]+$`)

// join concatenates converted parts, separating a control word from a
// following letter so that "\alpha" + "x" does not become "\alphax".
func join(parts []string) string {
	var b strings.Builder
	prev := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		r, _ := utf8.DecodeRuneInString(p)
		if trailingCommand.MatchString(prev) && unicode.IsLetter(r) {
			b.WriteByte(' ')
		}
		b.WriteString(p)
		prev = p
	}
	return b.String()
}

func base(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}

func identifier(s string) string {
	if s == "" {
		return ""
	}
	if cmd, ok := identifiers[s]; ok {
		return cmd
	}
	if utf8.RuneCountInString(s) == 1 {
		return operator(s)
	}
	return text(s)
}

func operator(s string) string {
	if cmd, ok := operators[s]; ok {
		return cmd
	}
	return s
}

var textEscaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	"{", `\{`,
	"}", `\}`,
	"$", `\$`,
	"%", `\%`,
	"&", `\&`,
	"#", `\#`,
	"_", `\_`,
	"^", `\^{}`,
	"~", `\~{}`,
)

func text(s string) string {
	if s == "" {
		return ""
	}
	return `\text{` + textEscaper.Replace(s) + "}"
}

func over(n *html.Node) string {
	kids := dom.Children(n)
	a := args(n, 2)
	if len(kids) > 1 {
		if cmd, ok := accents[leaf(kids[1])]; ok && dom.LocalName(kids[1]) == "mo" {
			return cmd + "{" + a[0] + "}"
		}
	}
	return `\overset{` + a[1] + "}{" + a[0] + "}"
}

func table(n *html.Node) string {
	var rows []string
	for _, tr := range dom.Children(n) {
		cells := dom.Children(tr)
		if dom.LocalName(tr) == "mlabeledtr" && len(cells) > 0 {
			cells = cells[1:]
		}
		parts := make([]string, 0, len(cells))
		for _, td := range cells {
			parts = append(parts, convert(td))
		}
		rows = append(rows, strings.Join(parts, " & "))
	}
	return `\begin{matrix}` + strings.Join(rows, ` \\ `) + `\end{matrix}`
}

func fenced(n *html.Node) string {
	open := fenceAttr(n, "open", "(")
	closing := fenceAttr(n, "close", ")")

	seps := []string{","}
	if v, ok := dom.LookupAttr(n, "separators"); ok {
		seps = nil
		for _, r := range strings.TrimSpace(v) {
			if !unicode.IsSpace(r) {
				seps = append(seps, string(r))
			}
		}
	}

	parts := []string{`\left` + fence(open)}
	for i, c := range dom.Children(n) {
		if i > 0 && len(seps) > 0 {
			parts = append(parts, seps[min(i-1, len(seps)-1)])
		}
		parts = append(parts, convert(c))
	}
	parts = append(parts, `\right`+fence(closing))
	return join(parts)
}

func fenceAttr(n *html.Node, key, def string) string {
	if v, ok := dom.LookupAttr(n, key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func fence(s string) string {
	switch s {
	case "":
		return "."
	case "{":
		return `\{`
	case "}":
		return `\}`
	}
	if cmd, ok := operators[s]; ok && strings.HasPrefix(cmd, `\`) {
		return cmd
	}
	return s
}
