package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/richbridge/internal/document"
)

var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
}

// Elements that make the editor non-empty without carrying text.
var contentTags = map[atom.Atom]bool{
	atom.Img: true, atom.Hr: true, atom.Video: true, atom.Audio: true,
	atom.Iframe: true, atom.Table: true, atom.Object: true,
}

func newElement(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func newText(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func isTag(n *html.Node, tags ...atom.Atom) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	for _, a := range tags {
		if n.DataAtom == a {
			return true
		}
	}
	return false
}

func isBlock(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && blockTags[n.DataAtom]
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// style returns the value of a declaration in n's style attribute.
func style(n *html.Node, prop string) string {
	s, ok := attr(n, "style")
	if !ok {
		return ""
	}
	for _, decl := range strings.Split(s, ";") {
		k, v, found := strings.Cut(decl, ":")
		if found && strings.EqualFold(strings.TrimSpace(k), prop) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// setStyle sets one declaration in n's style attribute, keeping the others.
// It reports whether the attribute changed.
func setStyle(n *html.Node, prop, val string) bool {
	old, _ := attr(n, "style")
	var decls []string
	replaced := false
	for _, decl := range strings.Split(old, ";") {
		k, _, found := strings.Cut(decl, ":")
		if !found {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(k), prop) {
			decls = append(decls, prop+": "+val)
			replaced = true
			continue
		}
		decls = append(decls, strings.TrimSpace(decl))
	}
	if !replaced {
		decls = append(decls, prop+": "+val)
	}
	updated := strings.Join(decls, "; ") + ";"
	if updated == old {
		return false
	}
	setAttr(n, "style", updated)
	return true
}

// next returns the pre-order successor of n inside root, or nil.
func next(n, root *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil && n != root; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// walk calls fn for every descendant of root in document order.
func walk(root *html.Node, fn func(n *html.Node)) {
	for n := root.FirstChild; n != nil; n = next(n, root) {
		fn(n)
	}
}

func textNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) {
		if n.Type == html.TextNode {
			out = append(out, n)
		}
	})
	return out
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for _, t := range textNodes(n) {
		b.WriteString(t.Data)
	}
	return b.String()
}

func findByID(root *html.Node, id string) *html.Node {
	if v, ok := attr(root, "id"); ok && v == id && root.Type == html.ElementNode {
		return root
	}
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found != nil || n.Type != html.ElementNode {
			return
		}
		if v, ok := attr(n, "id"); ok && v == id {
			found = n
		}
	})
	return found
}

func findTag(root *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) {
		if found == nil && isTag(n, a) {
			found = n
		}
	})
	return found
}

// contains reports whether anc is a strict ancestor of n.
func contains(anc, n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p == anc {
			return true
		}
	}
	return false
}

// closest returns the nearest of n and its ancestors strictly below stop
// that satisfies pred.
func closest(n, stop *html.Node, pred func(*html.Node) bool) *html.Node {
	for ; n != nil && n != stop; n = n.Parent {
		if pred(n) {
			return n
		}
	}
	return nil
}

func path(n *html.Node) []*html.Node {
	var p []*html.Node
	for ; n != nil; n = n.Parent {
		p = append(p, n)
	}
	for i, j := 0, len(p)-1; i < j; i, j = i+1, j-1 {
		p[i], p[j] = p[j], p[i]
	}
	return p
}

// comparePosition returns the position of other relative to n, with the
// semantics of Node.compareDocumentPosition.
func comparePosition(n, other *html.Node) document.Position {
	switch {
	case n == other:
		return document.Same
	case contains(other, n):
		return document.Contains | document.Preceding
	case contains(n, other):
		return document.ContainedBy | document.Following
	}

	np, op := path(n), path(other)
	if np[0] != op[0] {
		return document.Disconnected | document.ImplementationSpecific | document.Following
	}
	i := 0
	for i < len(np) && i < len(op) && np[i] == op[i] {
		i++
	}
	for s := np[i].NextSibling; s != nil; s = s.NextSibling {
		if s == op[i] {
			return document.Following
		}
	}
	return document.Preceding
}

func childAt(n *html.Node, i int) *html.Node {
	c := n.FirstChild
	for ; c != nil && i > 0; i-- {
		c = c.NextSibling
	}
	return c
}

func childCount(n *html.Node) int {
	count := 0
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		count++
	}
	return count
}

func removeChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// moveChildren appends every child of from to to.
func moveChildren(from, to *html.Node) {
	for c := from.FirstChild; c != nil; {
		nx := c.NextSibling
		from.RemoveChild(c)
		to.AppendChild(c)
		c = nx
	}
}

func innerHTML(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

func setInnerHTML(n *html.Node, s string) error {
	nodes, err := html.ParseFragment(strings.NewReader(s), n)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func cloneShallow(n *html.Node) *html.Node {
	c := &html.Node{
		Type:      n.Type,
		DataAtom:  n.DataAtom,
		Data:      n.Data,
		Namespace: n.Namespace,
	}
	c.Attr = append(c.Attr, n.Attr...)
	return c
}

// wrap puts w where n is and moves n into w.
func wrap(n, w *html.Node) {
	n.Parent.InsertBefore(w, n)
	n.Parent.RemoveChild(n)
	w.AppendChild(n)
}

// unwrap replaces n by its children.
func unwrap(n *html.Node) {
	p := n.Parent
	for c := n.FirstChild; c != nil; {
		nx := c.NextSibling
		n.RemoveChild(c)
		p.InsertBefore(c, n)
		c = nx
	}
	p.RemoveChild(n)
}

// splitText cuts a text node at off. n keeps the head; the tail is
// returned and inserted after n.
func splitText(n *html.Node, off int) *html.Node {
	tail := newText(n.Data[off:])
	n.Data = n.Data[:off]
	n.Parent.InsertBefore(tail, n.NextSibling)
	return tail
}

// isolateChild splits p so that child is its only child. The siblings
// before and after child move into shallow clones of p placed around it.
func isolateChild(p, child *html.Node) {
	if child.PrevSibling != nil {
		before := cloneShallow(p)
		for c := p.FirstChild; c != child; {
			nx := c.NextSibling
			p.RemoveChild(c)
			before.AppendChild(c)
			c = nx
		}
		p.Parent.InsertBefore(before, p)
	}
	if child.NextSibling != nil {
		after := cloneShallow(p)
		for c := child.NextSibling; c != nil; {
			nx := c.NextSibling
			p.RemoveChild(c)
			after.AppendChild(c)
			c = nx
		}
		p.Parent.InsertBefore(after, p.NextSibling)
	}
}

// splitOut takes n out of its ancestor anc. Content of anc around n stays
// inside clones of anc.
func splitOut(n, anc *html.Node) {
	for {
		p := n.Parent
		isolateChild(p, n)
		if p == anc {
			unwrap(p)
			return
		}
		n = p
	}
}
