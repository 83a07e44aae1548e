package dom

import "strings"

// Matches reports whether the node matches a simple selector: a tag, #id,
// .class, or a compound of those ("img.hero#main"). Comma separated lists
// match if any part matches. The universal selector "*" matches everything.
func (n *Node) Matches(selector string) bool {
	for part := range strings.SplitSeq(selector, ",") {
		part = strings.TrimSpace(part)
		if part != "" && n.matchCompound(part) {
			return true
		}
	}
	return false
}

func (n *Node) matchCompound(sel string) bool {
	if sel == "*" {
		return true
	}
	tag, rest := splitToken(sel)
	if tag != "" && tag != "*" && !strings.EqualFold(tag, n.tag) {
		return false
	}
	for rest != "" {
		kind := rest[0]
		var name string
		name, rest = splitToken(rest[1:])
		switch kind {
		case '#':
			if name != n.id {
				return false
			}
		case '.':
			if !n.HasClass(name) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// splitToken returns the leading name up to the next '#' or '.' and the rest.
func splitToken(s string) (string, string) {
	if i := strings.IndexAny(s, "#."); i >= 0 {
		return s[:i], s[i:]
	}
	return s, ""
}

// Closest returns the nearest ancestor-or-self matching selector, or nil.
func (n *Node) Closest(selector string) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.Matches(selector) {
			return cur
		}
	}
	return nil
}

// QueryAll returns every node in n's subtree (n included) matching selector,
// in document order.
func (n *Node) QueryAll(selector string) []*Node {
	var out []*Node
	n.Walk(func(cur *Node) bool {
		if cur.Matches(selector) {
			out = append(out, cur)
		}
		return true
	})
	return out
}

// Query returns the first node in n's subtree matching selector, or nil.
func (n *Node) Query(selector string) *Node {
	var found *Node
	n.Walk(func(cur *Node) bool {
		if found != nil {
			return false
		}
		if cur.Matches(selector) {
			found = cur
			return false
		}
		return true
	})
	return found
}
