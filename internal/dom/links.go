package dom

import (
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/richbridge/internal/document"
)

func isLink(n *html.Node) bool {
	if !isTag(n, atom.A) {
		return false
	}
	_, ok := attr(n, "href")
	return ok
}

func (d *Document) links() []*html.Node {
	var out []*html.Node
	walk(d.editor, func(n *html.Node) {
		if isLink(n) {
			out = append(out, n)
		}
	})
	return out
}

// intersectingLinks returns the links touched by the selection, judged from
// the selection's boundary containers.
func (d *Document) intersectingLinks() []*html.Node {
	return document.IntersectingLinks(d.links(), d.sel.Start.Node, d.sel.End.Node, comparePosition)
}

// LinkSelected reports whether any link intersects the selection.
func (d *Document) LinkSelected() bool {
	return len(d.intersectingLinks()) > 0
}

func setText(n *html.Node, s string) {
	removeChildren(n)
	n.AppendChild(newText(s))
}

// createLink inserts or updates a link. On a caret an existing link under
// the caret gets the new href, otherwise a new anchor is inserted and the
// caret moves to its end. A range is linked natively.
func (d *Document) createLink(displayText *string, url string) {
	text := ""
	if displayText != nil {
		text = *displayText
	}

	if !d.sel.Collapsed() {
		d.nativeCreateLink(url)
		if text != "" {
			if links := d.intersectingLinks(); len(links) > 0 && textContent(links[0]) != text {
				d.mutate(func() bool {
					setText(links[0], text)
					return true
				})
				d.sel = caret(links[0], childCount(links[0]))
				d.selectionChanged()
			}
		}
		return
	}

	d.mutate(func() bool {
		if links := d.intersectingLinks(); len(links) > 0 {
			anchor := links[0]
			setAttr(anchor, "href", url)
			if text != "" && textContent(anchor) != text {
				setText(anchor, text)
			}
			d.sel = caret(anchor, childCount(anchor))
			return true
		}

		label := text
		if label == "" {
			label = url
		}
		anchor := newElement(atom.A, html.Attribute{Key: "href", Val: url})
		anchor.AppendChild(newText(label))
		insertAt(d.sel.Start, anchor)
		d.sel = caret(anchor, childCount(anchor))
		return true
	})
	d.selectionChanged()
}

// nativeCreateLink wraps the selected text in anchors, one per run of
// adjacent text nodes. Text already inside a link gets the new href.
func (d *Document) nativeCreateLink(url string) bool {
	if d.sel.Collapsed() || url == "" {
		return false
	}
	changed := d.mutate(func() bool {
		texts := d.isolateRange()
		var last *html.Node
		for _, t := range texts {
			if a := closest(t, d.editor, isLink); a != nil {
				setAttr(a, "href", url)
				last = nil
				continue
			}
			if last != nil && t.PrevSibling == last {
				t.Parent.RemoveChild(t)
				last.AppendChild(t)
				continue
			}
			last = newElement(atom.A, html.Attribute{Key: "href", Val: url})
			wrap(t, last)
		}
		return len(texts) > 0
	})
	if changed {
		d.selectionChanged()
	}
	return changed
}

// nativeUnlink removes the links intersecting the selection, keeping their
// content.
func (d *Document) nativeUnlink() bool {
	links := d.intersectingLinks()
	if len(links) == 0 {
		return false
	}
	so, eo := d.selectionOffsets()
	d.mutate(func() bool {
		for _, a := range links {
			unwrap(a)
		}
		return true
	})
	d.selectOffsets(so, eo)
	d.selectionChanged()
	return true
}
