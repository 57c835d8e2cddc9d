package sanitize

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-readsnap/internal/dom"
)

// removeBanner removes the host's print-warning banner. For every text node
// holding phrase, the element holding it is marked, then ancestors above it
// while their collapsed text still holds the phrase and stays within slack
// bytes of the holder's text; the document structure elements are never
// marked. Overlapping chains are deduplicated before removal, so running it
// twice removes nothing more.
func removeBanner(root *html.Node, phrase string, slack int) int {
	phrase = strings.TrimSpace(dom.CollapseSpace(phrase))
	if phrase == "" {
		return 0
	}

	marked := make(map[*html.Node]bool)
	var order []*html.Node

	texts := dom.FindAll(root, func(n *html.Node) bool {
		return n.Type == html.TextNode && strings.Contains(dom.CollapseSpace(n.Data), phrase)
	})
	// A phrase split across inline elements has no single text node holding
	// it; fall back to the innermost elements whose text does.
	if len(texts) == 0 {
		texts = innermostHolding(root, phrase)
	}

	for _, t := range texts {
		limit := -1
		for anc := t.Parent; anc != nil && anc.Type == html.ElementNode; anc = anc.Parent {
			if structural(anc) {
				break
			}
			text := strings.TrimSpace(dom.CollapseSpace(dom.Text(anc)))
			if !strings.Contains(text, phrase) {
				break
			}
			if limit < 0 {
				limit = len(text) + slack
			} else if len(text) > limit {
				break
			}
			if !marked[anc] {
				marked[anc] = true
				order = append(order, anc)
			}
		}
	}

	for _, n := range order {
		dom.Remove(n)
	}
	return len(order)
}

var structural = dom.IsElement("body", "html", "head")

func innermostHolding(root *html.Node, phrase string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		found := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				found = true
			}
		}
		if found {
			return true
		}
		if n.Type == html.ElementNode && strings.Contains(dom.CollapseSpace(dom.Text(n)), phrase) {
			// The walk starts at the element's parent; use a child so the
			// element itself is the first ancestor considered.
			if n.FirstChild != nil {
				out = append(out, n.FirstChild)
			}
			return true
		}
		return false
	}
	walk(root)
	return out
}
