package feedex

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// The selector subset below covers every pattern the candidate lists
// use: tag, .class, #id, [attr], [attr=val], [attr*=val], tag.class,
// and descendant combination by spaces.

type simpleSel struct {
	tag     string
	id      string
	class   string
	attrKey string
	attrVal string
	attrSub bool // substring match on attrVal
}

func parseSel(sel string) simpleSel {
	var s simpleSel

	if idx := strings.IndexByte(sel, '['); idx >= 0 {
		attr := strings.TrimRight(sel[idx+1:], "]")
		sel = sel[:idx]
		if eq := strings.IndexByte(attr, '='); eq >= 0 {
			s.attrKey = attr[:eq]
			if strings.HasSuffix(s.attrKey, "*") {
				s.attrKey = strings.TrimSuffix(s.attrKey, "*")
				s.attrSub = true
			}
			s.attrVal = strings.Trim(attr[eq+1:], `"'`)
		} else {
			s.attrKey = attr
		}
	}
	if idx := strings.IndexByte(sel, '#'); idx >= 0 {
		s.id = sel[idx+1:]
		sel = sel[:idx]
	}
	if idx := strings.IndexByte(sel, '.'); idx >= 0 {
		s.class = sel[idx+1:]
		sel = sel[:idx]
	}
	s.tag = sel
	return s
}

func selMatches(n *html.Node, s simpleSel) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if s.tag != "" && n.Data != s.tag {
		return false
	}
	if s.id != "" && attr(n, "id") != s.id {
		return false
	}
	if s.class != "" && !hasClassToken(n, s.class) {
		return false
	}
	if s.attrKey != "" {
		if !hasAttrKey(n, s.attrKey) {
			return false
		}
		if s.attrVal != "" {
			got := attr(n, s.attrKey)
			if s.attrSub {
				if !strings.Contains(strings.ToLower(got), s.attrVal) {
					return false
				}
			} else if got != s.attrVal {
				return false
			}
		}
	}
	return true
}

// queryAll returns all nodes under root matching a (possibly
// descendant-combined) selector, in document order.
func queryAll(root *html.Node, selector string) []*html.Node {
	parts := strings.Fields(selector)
	if len(parts) == 0 || root == nil {
		return nil
	}

	matches := matchUnder(root, parseSel(parts[0]))
	for _, part := range parts[1:] {
		s := parseSel(part)
		var next []*html.Node
		for _, parent := range matches {
			next = append(next, matchUnder(parent, s)...)
		}
		matches = next
	}
	return matches
}

// queryFirst returns the first match for any of the given selectors,
// honouring the selectors' order before document order.
func queryFirst(root *html.Node, selectors ...string) *html.Node {
	for _, sel := range selectors {
		if ms := queryAll(root, sel); len(ms) > 0 {
			return ms[0]
		}
	}
	return nil
}

func matchUnder(root *html.Node, s simpleSel) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n != root && selMatches(n, s) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func attr(n *html.Node, key string) string {
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttrKey(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func hasClassToken(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText collapses all visible text under n into a single
// space-separated string.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			t := strings.TrimSpace(n.Data)
			if t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func renderHTML(n *html.Node) string {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// Exported wrappers for packages that resolve over the same parsed
// snapshots. The selector subset above applies.

// QueryAll returns all matches for selector under root in document order.
func QueryAll(root *html.Node, selector string) []*html.Node { return queryAll(root, selector) }

// QueryFirst returns the first match for any selector, selector order
// before document order.
func QueryFirst(root *html.Node, selectors ...string) *html.Node {
	return queryFirst(root, selectors...)
}

// Attr returns the value of an attribute, "" when absent.
func Attr(n *html.Node, key string) string { return attr(n, key) }

// Text collapses the visible text under n.
func Text(n *html.Node) string { return nodeText(n) }

// Contains reports whether root's subtree includes target.
func Contains(root, target *html.Node) bool { return containsNode(root, target) }

// ancestors yields n and its parents up to the document root.
func ancestors(n *html.Node) []*html.Node {
	var chain []*html.Node
	for cur := n; cur != nil; cur = cur.Parent {
		chain = append(chain, cur)
	}
	return chain
}

// containsNode reports whether root's subtree includes target.
func containsNode(root, target *html.Node) bool {
	for cur := target; cur != nil; cur = cur.Parent {
		if cur == root {
			return true
		}
	}
	return false
}
