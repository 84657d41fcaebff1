package render

import (
	"strings"

	"golang.org/x/net/html"
)

// Excerpts are shown in a terminal, so anything that cannot be rendered as
// text is dropped along with its children.
var droppedTags = map[string]struct{}{
	"audio":    {},
	"base":     {},
	"button":   {},
	"canvas":   {},
	"embed":    {},
	"form":     {},
	"iframe":   {},
	"img":      {},
	"input":    {},
	"link":     {},
	"meta":     {},
	"noscript": {},
	"object":   {},
	"picture":  {},
	"script":   {},
	"select":   {},
	"style":    {},
	"svg":      {},
	"textarea": {},
	"video":    {},
}

// keptAttrs lists the only attributes that survive, per tag.
var keptAttrs = map[string]map[string]struct{}{
	"a":          {"href": {}},
	"blockquote": {"cite": {}},
}

// SanitizeHTML reduces an excerpt to text-bearing markup: media and active
// content are removed, and only links keep an attribute.
func SanitizeHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	nodes, err := html.ParseFragment(strings.NewReader(raw), &html.Node{
		Type: html.ElementNode,
		Data: "div",
	})
	if err != nil {
		return html.EscapeString(raw)
	}

	var b strings.Builder
	for _, n := range nodes {
		if clean := cleanNode(n); clean != nil {
			_ = html.Render(&b, clean)
		}
	}
	return strings.TrimSpace(b.String())
}

func cleanNode(n *html.Node) *html.Node {
	switch n.Type {
	case html.TextNode:
		return &html.Node{Type: html.TextNode, Data: n.Data}
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if _, drop := droppedTags[tag]; drop {
			return nil
		}
		clone := &html.Node{Type: html.ElementNode, Data: n.Data, DataAtom: n.DataAtom}
		allowed := keptAttrs[tag]
		for _, a := range n.Attr {
			key := strings.ToLower(strings.TrimSpace(a.Key))
			if _, ok := allowed[key]; !ok {
				continue
			}
			if !isSafeLink(a.Val) {
				continue
			}
			clone.Attr = append(clone.Attr, html.Attribute{Key: key, Val: strings.TrimSpace(a.Val)})
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if child := cleanNode(c); child != nil {
				clone.AppendChild(child)
			}
		}
		return clone
	default:
		// Comments, doctypes and raw nodes carry nothing worth showing.
		return nil
	}
}

func isSafeLink(v string) bool {
	u := strings.ToLower(strings.TrimSpace(v))
	if u == "" {
		return false
	}
	for _, scheme := range []string{"javascript:", "vbscript:", "data:", "file:"} {
		if strings.HasPrefix(u, scheme) {
			return false
		}
	}
	return true
}
