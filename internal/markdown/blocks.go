package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
)

// list renders ul/ol. Numbering restarts at 1 for every list regardless of
// start or value attributes. Lines are relative to the list; an enclosing
// item indents them.
func (r *Renderer) list(n *html.Node, ordered bool, st state) string {
	inner := state{depth: st.depth + 1, images: st.images}

	var lines []string
	num := 0
	for _, li := range dom.Children(n) {
		if dom.LocalName(li) != "li" {
			continue
		}
		num++
		marker := "- "
		if ordered {
			marker = strconv.Itoa(num) + ". "
		}
		lines = append(lines, marker+itemBody(r.children(li, inner)))
	}
	if len(lines) == 0 {
		return ""
	}
	joined := strings.Join(lines, "\n")
	if st.depth == 0 {
		return "\n\n" + joined + "\n\n"
	}
	return "\n" + joined + "\n"
}

// itemIndent aligns continuation lines under the item text.
const itemIndent = "  "

// itemBody folds a rendered list item onto its marker line: outer breaks
// are dropped, blank lines between blocks are removed and every following
// line is indented under the marker. Blank lines inside code fences stay.
func itemBody(s string) string {
	var out []string
	fence := ""
	for _, line := range strings.Split(strings.Trim(s, " \t\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case fence != "" && trimmed == fence:
			fence = ""
		case fence == "" && strings.HasPrefix(trimmed, "```"):
			fence = trimmed[:len(trimmed)-len(strings.TrimLeft(trimmed, "`"))]
		case fence == "" && trimmed == "":
			continue
		}
		switch {
		case len(out) == 0:
			out = append(out, strings.TrimLeft(line, " \t"))
		case line == "":
			out = append(out, "")
		default:
			out = append(out, itemIndent+line)
		}
	}
	return strings.Join(out, "\n")
}

var cellEscaper = strings.NewReplacer("|", `\|`, "\n", " ")

// table renders the first row as the header whatever its cell types, pads
// every row to the widest one and escapes pipes.
func (r *Renderer) table(n *html.Node, st state) string {
	var rows [][]string
	cols := 0
	for _, tr := range tableRows(n) {
		var cells []string
		for _, c := range dom.Children(tr) {
			if name := dom.LocalName(c); name != "td" && name != "th" {
				continue
			}
			text := cellEscaper.Replace(r.children(c, st))
			cells = append(cells, strings.TrimSpace(dom.CollapseSpace(text)))
		}
		rows = append(rows, cells)
		cols = max(cols, len(cells))
	}
	if cols == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n")
	for i, row := range rows {
		for len(row) < cols {
			row = append(row, "")
		}
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
		if i == 0 {
			b.WriteString("|" + strings.Repeat(" --- |", cols) + "\n")
		}
	}
	if caption := dom.Find(n, dom.IsElement("caption")); caption != nil {
		if text := strings.TrimSpace(dom.CollapseSpace(r.children(caption, st))); text != "" {
			b.WriteString("\n*" + text + "*\n")
		}
	}
	b.WriteString("\n")
	return b.String()
}

// tableRows returns the rows of n in document order, ignoring nested tables.
func tableRows(n *html.Node) []*html.Node {
	var rows []*html.Node
	for _, c := range dom.Children(n) {
		switch dom.LocalName(c) {
		case "tr":
			rows = append(rows, c)
		case "thead", "tbody", "tfoot":
			for _, tr := range dom.Children(c) {
				if dom.LocalName(tr) == "tr" {
					rows = append(rows, tr)
				}
			}
		}
	}
	return rows
}

// figure renders the figure body followed by its caption in emphasis on a
// line of its own.
func (r *Renderer) figure(n *html.Node, st state) string {
	var body, caption strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if dom.LocalName(c) == "figcaption" {
			caption.WriteString(r.children(c, st))
			continue
		}
		body.WriteString(r.node(c, st))
	}

	var parts []string
	if s := strings.TrimSpace(body.String()); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(dom.CollapseSpace(caption.String())); s != "" {
		parts = append(parts, "*"+s+"*")
	}
	if len(parts) == 0 {
		return ""
	}
	return "\n\n" + strings.Join(parts, "\n\n") + "\n\n"
}

func (r *Renderer) codeBlock(n *html.Node) string {
	code := strings.TrimRight(dom.Text(n), " \t\n")
	code = strings.TrimLeft(code, "\n")
	if strings.TrimSpace(code) == "" {
		return ""
	}
	fence := "```"
	for strings.Contains(code, fence) {
		fence += "`"
	}
	return "\n\n" + fence + r.language(n, code) + "\n" + code + "\n" + fence + "\n\n"
}

var langClass = regexp.MustCompile(`(?:^|\s)(?:language|lang)-([A-Za-z0-9_+#.-]+)`)

// language reads the fence language from class or data-lang markup on the
// block or its code child, then falls back to lexer analysis when enabled.
func (r *Renderer) language(pre *html.Node, code string) string {
	for _, n := range []*html.Node{pre, dom.Find(pre, dom.IsElement("code"))} {
		if n == nil {
			continue
		}
		if m := langClass.FindStringSubmatch(dom.Attr(n, "class")); m != nil {
			return strings.ToLower(m[1])
		}
		if lang := strings.TrimSpace(dom.Attr(n, "data-lang")); lang != "" {
			return strings.ToLower(lang)
		}
	}
	if !r.detect {
		return ""
	}
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

var (
	trailingBlanks = regexp.MustCompile(`(?m)[ \t]+$`)
	blankRuns      = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips trailing blanks from every line, collapses runs of three
// or more newlines to two and trims both ends. It is idempotent.
func Normalize(s string) string {
	s = trailingBlanks.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
