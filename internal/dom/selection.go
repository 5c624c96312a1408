package dom

import (
	"golang.org/x/net/html"

	"github.com/dshills/richbridge/internal/document"
)

// Point is a selection boundary. In a text node Offset counts bytes; in an
// element it counts children.
type Point struct {
	Node   *html.Node
	Offset int
}

// Selection is the current range. Start equals End for a caret.
type Selection struct {
	Start Point
	End   Point
}

// Collapsed reports whether the selection is a caret.
func (s Selection) Collapsed() bool {
	return s.Start == s.End
}

func caret(n *html.Node, off int) Selection {
	p := Point{Node: n, Offset: off}
	return Selection{Start: p, End: p}
}

// pointAt maps a text offset inside the editor to a boundary. A start
// boundary sitting between two text nodes resolves to the beginning of the
// later one, an end boundary to the end of the earlier one.
func (d *Document) pointAt(pos int, start bool) Point {
	texts := textNodes(d.editor)
	if len(texts) == 0 {
		return Point{Node: d.editor, Offset: 0}
	}
	if pos < 0 {
		pos = 0
	}

	cum := 0
	if start {
		for _, t := range texts {
			if pos < cum+len(t.Data) {
				return Point{Node: t, Offset: pos - cum}
			}
			cum += len(t.Data)
		}
		cum = 0
	}
	for _, t := range texts {
		if pos <= cum+len(t.Data) {
			return Point{Node: t, Offset: pos - cum}
		}
		cum += len(t.Data)
	}
	last := texts[len(texts)-1]
	return Point{Node: last, Offset: len(last.Data)}
}

// offsetOf maps a boundary to a text offset inside the editor.
func (d *Document) offsetOf(p Point) int {
	cum := 0
	if p.Node.Type == html.TextNode {
		for _, t := range textNodes(d.editor) {
			if t == p.Node {
				return cum + p.Offset
			}
			cum += len(t.Data)
		}
		return cum
	}

	boundary := childAt(p.Node, p.Offset)
	for n := d.editor.FirstChild; n != nil; n = next(n, d.editor) {
		if n == boundary {
			return cum
		}
		if boundary == nil && n != p.Node && !contains(p.Node, n) && comparePosition(p.Node, n)&document.Following != 0 {
			return cum
		}
		if n.Type == html.TextNode {
			cum += len(n.Data)
		}
	}
	return cum
}

// selectOffsets replaces the selection with the text range [start, end].
func (d *Document) selectOffsets(start, end int) {
	if end < start {
		start, end = end, start
	}
	if start == end {
		p := d.pointAt(start, false)
		d.sel = Selection{Start: p, End: p}
		return
	}
	d.sel = Selection{Start: d.pointAt(start, true), End: d.pointAt(end, false)}
}

func (d *Document) selectionOffsets() (int, int) {
	return d.offsetOf(d.sel.Start), d.offsetOf(d.sel.End)
}

// selectedTexts returns the text nodes overlapping the selection.
func (d *Document) selectedTexts() []*html.Node {
	startOff, endOff := d.selectionOffsets()
	var out []*html.Node
	cum := 0
	for _, t := range textNodes(d.editor) {
		tStart, tEnd := cum, cum+len(t.Data)
		if tEnd > startOff && tStart < endOff {
			out = append(out, t)
		}
		cum = tEnd
	}
	return out
}

// isolateRange splits the text nodes at the selection boundaries so that
// every selected text node is selected entirely, and returns them.
func (d *Document) isolateRange() []*html.Node {
	s, e := d.sel.Start, d.sel.End
	if e.Node.Type == html.TextNode && e.Offset > 0 && e.Offset < len(e.Node.Data) {
		splitText(e.Node, e.Offset)
	}
	if s.Node.Type == html.TextNode && s.Offset > 0 && s.Offset < len(s.Node.Data) {
		tail := splitText(s.Node, s.Offset)
		if e.Node == s.Node {
			e = Point{Node: tail, Offset: e.Offset - s.Offset}
		}
		s = Point{Node: tail, Offset: 0}
	}
	d.sel = Selection{Start: s, End: e}
	return d.selectedTexts()
}

// insertAt inserts n at p, splitting a text node if needed.
func insertAt(p Point, n *html.Node) {
	if p.Node.Type == html.TextNode {
		switch {
		case p.Offset <= 0:
			p.Node.Parent.InsertBefore(n, p.Node)
		case p.Offset >= len(p.Node.Data):
			p.Node.Parent.InsertBefore(n, p.Node.NextSibling)
		default:
			tail := splitText(p.Node, p.Offset)
			p.Node.Parent.InsertBefore(n, tail)
		}
		return
	}
	p.Node.InsertBefore(n, childAt(p.Node, p.Offset))
}
