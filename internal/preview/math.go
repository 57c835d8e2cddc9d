package preview

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

// Math spans are swapped for Private Use Area tokens before goldmark runs
// and restored after sanitizing, so TeX never goes through Markdown
// emphasis rules or the HTML policy.
const (
	tokenStart = "\uE000"
	tokenEnd   = "\uE001"
)

// mathOrCode matches code first so that dollars inside code are left alone.
var mathOrCode = regexp.MustCompile("(?s)```.*?```|`[^`\n]*`|\\$\\$(.+?)\\$\\$|\\$([^\\s$](?:[^$\n]*[^\\s$])?)\\$")

var (
	displayToken = regexp.MustCompile(`<p>\x{E000}(\d+)\x{E001}</p>`)
	anyToken     = regexp.MustCompile(`\x{E000}(\d+)\x{E001}`)
)

type mathSpan struct {
	tex     string
	display bool
}

// protectMath replaces math spans in md with tokens and returns the spans
// in token order.
func protectMath(md string) (string, []mathSpan) {
	var (
		spans []mathSpan
		sb    strings.Builder
		last  int
	)
	for _, m := range mathOrCode.FindAllStringSubmatchIndex(md, -1) {
		start, end := m[0], m[1]
		var span mathSpan
		switch {
		case m[2] >= 0:
			span = mathSpan{tex: strings.TrimSpace(md[m[2]:m[3]]), display: true}
		case m[4] >= 0:
			// $5 and $10 is prose.
			if end < len(md) && md[end] >= '0' && md[end] <= '9' {
				continue
			}
			span = mathSpan{tex: md[m[4]:m[5]]}
		default:
			continue
		}
		if span.tex == "" {
			continue
		}
		sb.WriteString(md[last:start])
		sb.WriteString(tokenStart + strconv.Itoa(len(spans)) + tokenEnd)
		spans = append(spans, span)
		last = end
	}
	if spans == nil {
		return md, nil
	}
	sb.WriteString(md[last:])
	return sb.String(), spans
}

// restoreMath puts the spans back as MathJax-delimited elements.
func restoreMath(body string, spans []mathSpan) string {
	if len(spans) == 0 {
		return body
	}
	lookup := func(tok string, sub *regexp.Regexp) (mathSpan, bool) {
		i, err := strconv.Atoi(sub.FindStringSubmatch(tok)[1])
		if err != nil || i >= len(spans) {
			return mathSpan{}, false
		}
		return spans[i], true
	}
	body = displayToken.ReplaceAllStringFunc(body, func(tok string) string {
		span, ok := lookup(tok, displayToken)
		if !ok {
			return tok
		}
		if span.display {
			return mathHTML(span)
		}
		return "<p>" + mathHTML(span) + "</p>"
	})
	return anyToken.ReplaceAllStringFunc(body, func(tok string) string {
		span, ok := lookup(tok, anyToken)
		if !ok {
			return tok
		}
		return mathHTML(span)
	})
}

func mathHTML(span mathSpan) string {
	tex := html.EscapeString(span.tex)
	if span.display {
		return `<div class="math display">\[` + tex + `\]</div>`
	}
	return `<span class="math inline">\(` + tex + `\)</span>`
}
