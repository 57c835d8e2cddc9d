package dom

import (
	"regexp"

	"golang.org/x/net/html"
)

// hiddenStyle matches inline declarations that take an element out of the
// rendered page.
var hiddenStyle = regexp.MustCompile(`(?i)(?:^|;)\s*(?:display\s*:\s*none|visibility\s*:\s*hidden)\s*(?:!important\s*)?(?:;|$)`)

// meaningfulTags are content types the host renders asynchronously into
// containers that stay hidden until rendering completes.
var meaningfulTags = map[string]bool{
	"img":     true,
	"picture": true,
	"table":   true,
	"figure":  true,
	"math":    true,
	"svg":     true,
}

// IsHidden reports whether n is hidden by its inline style or the hidden
// attribute. Stylesheet rules are not consulted.
func IsHidden(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if _, ok := LookupAttr(n, "hidden"); ok {
		return true
	}
	return hiddenStyle.MatchString(Attr(n, "style"))
}

// HasMeaningfulDescendant reports whether a descendant of n is an image,
// table, figure, math-markup or vector graphic element.
func HasMeaningfulDescendant(n *html.Node) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if Find(c, func(d *html.Node) bool {
			return d.Type == html.ElementNode && meaningfulTags[LocalName(d)]
		}) != nil {
			return true
		}
	}
	return false
}

// Removable reports whether a hidden element can be dropped without losing
// content that is still pending render.
func Removable(n *html.Node) bool {
	return IsHidden(n) && !HasMeaningfulDescendant(n)
}

// MathRoot returns the first math element in n's subtree, n included.
func MathRoot(n *html.Node) *html.Node {
	return Find(n, IsElement("math"))
}
