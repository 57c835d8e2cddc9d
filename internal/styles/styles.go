// Package styles collects the CSS that applies to a content scope.
package styles

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/alnah/go-readsnap/internal/scope"
)

// Kind says how a stylesheet reached the record.
type Kind string

const (
	// KindInline is an embedded style block.
	KindInline Kind = "inline"
	// KindLinkedInlined is a linked sheet whose rules were readable and are
	// carried as text. Relative URLs in it resolve against SourceHref.
	KindLinkedInlined Kind = "linked-inlined"
	// KindLinkedExternal is a linked sheet whose rules could not be read.
	// Only the href is kept and consumers must load it themselves.
	KindLinkedExternal Kind = "linked-external"
)

// Record is one collected stylesheet.
type Record struct {
	Kind       Kind   `json:"kind"`
	CSSText    string `json:"cssText,omitempty"`
	SourceHref string `json:"sourceHref,omitempty"`
	BaseURI    string `json:"baseURI"`
}

// ruleSlack is how many more live rules than literal rule blocks a style
// element may have before its text is rebuilt from the rule list.
const ruleSlack = 5

// Collect gathers style records from sc in document order.
func Collect(ctx context.Context, sc scope.Scope, fixPrint bool) ([]Record, error) {
	srcs, err := sc.Styles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing styles: %w", err)
	}
	return FromSources(srcs, fixPrint), nil
}

// FromSources applies the collection policy to raw style sources.
func FromSources(srcs []scope.StyleSource, fixPrint bool) []Record {
	out := make([]Record, 0, len(srcs))
	for _, src := range srcs {
		if printOnly(src.Media) {
			continue
		}
		var rec Record
		switch src.Kind {
		case scope.SourceStyle:
			text := src.Text
			if src.Readable && len(src.Rules)-estimateRules(text) > ruleSlack {
				text = strings.Join(src.Rules, "\n")
			}
			rec = Record{Kind: KindInline, CSSText: text, BaseURI: src.BaseURI}
		case scope.SourceLink:
			if !src.Readable {
				out = append(out, Record{Kind: KindLinkedExternal, SourceHref: src.Href, BaseURI: src.BaseURI})
				continue
			}
			rec = Record{
				Kind:       KindLinkedInlined,
				CSSText:    strings.Join(src.Rules, "\n"),
				SourceHref: src.Href,
				BaseURI:    src.BaseURI,
			}
		default:
			continue
		}
		if fixPrint {
			rec.CSSText = FixPrint(rec.CSSText)
		}
		out = append(out, rec)
	}
	return out
}

// estimateRules counts rule blocks in literal CSS.
func estimateRules(css string) int {
	return strings.Count(css, "{")
}

// printOnly reports whether every media query in media targets print.
func printOnly(media string) bool {
	media = strings.TrimSpace(strings.ToLower(media))
	if media == "" {
		return false
	}
	for _, q := range strings.Split(media, ",") {
		if !strings.Contains(q, "print") {
			return false
		}
	}
	return true
}

// printCountermeasures match the rules the host injects to defeat printing.
// Blocks may nest one level deep.
var printCountermeasures = []*regexp.Regexp{
	regexp.MustCompile(`(?i)@media\s+(?:only\s+)?print\b[^{]*\{(?:[^{}]*\{[^{}]*\})*[^{}]*\}`),
	regexp.MustCompile(`(?i)body\s*(?:>\s*)?\*\s*\{[^{}]*(?:display\s*:\s*none|visibility\s*:\s*hidden)[^{}]*\}`),
	regexp.MustCompile(`(?i)(?:html|body)\s*::?(?:before|after)\s*\{[^{}]*content\s*:[^{}]*\}`),
}

// FixPrint removes print-media blocks, rules hiding every body child and
// the print-warning pseudo-element rule from css.
func FixPrint(css string) string {
	for _, re := range printCountermeasures {
		css = re.ReplaceAllString(css, "")
	}
	return css
}
