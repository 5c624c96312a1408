package dom

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/document"
)

// Default values reported by queryCommandValue when nothing in the
// selection sets them.
const (
	DefaultFontName  = "sans-serif"
	DefaultFontSize  = "3"
	DefaultForeColor = "rgb(0, 0, 0)"
	DefaultBackColor = "rgba(0, 0, 0, 0)"
)

type inlineFormat struct {
	command string
	tag     atom.Atom
	matches []atom.Atom
	// excludes is removed when the format is applied.
	excludes string
}

var inlineFormats = []inlineFormat{
	{command: "bold", tag: atom.B, matches: []atom.Atom{atom.B, atom.Strong}},
	{command: "italic", tag: atom.I, matches: []atom.Atom{atom.I, atom.Em}},
	{command: "underline", tag: atom.U, matches: []atom.Atom{atom.U}},
	{command: "strikeThrough", tag: atom.Strike, matches: []atom.Atom{atom.Strike, atom.S, atom.Del}},
	{command: "subscript", tag: atom.Sub, matches: []atom.Atom{atom.Sub}, excludes: "superscript"},
	{command: "superscript", tag: atom.Sup, matches: []atom.Atom{atom.Sup}, excludes: "subscript"},
}

func lookupFormat(name string) (inlineFormat, bool) {
	for _, f := range inlineFormats {
		if f.command == name {
			return f, true
		}
	}
	return inlineFormat{}, false
}

func (f inlineFormat) match(n *html.Node) bool {
	return isTag(n, f.matches...)
}

// Inline elements removed by removeFormat. Links are kept.
var formattingTags = []atom.Atom{
	atom.B, atom.Strong, atom.I, atom.Em, atom.U, atom.S, atom.Strike, atom.Del,
	atom.Sub, atom.Sup, atom.Font, atom.Span,
}

var alignments = map[string]string{
	"justifyLeft":   "left",
	"justifyCenter": "center",
	"justifyRight":  "right",
	"justifyFull":   "justify",
}

func (d *Document) has(n *html.Node, pred func(*html.Node) bool) bool {
	return closest(n, d.editor, pred) != nil
}

// execCommand emulates document.execCommand and reports whether the
// command was recognised and applicable.
func (d *Document) execCommand(name string, value any) bool {
	if f, ok := lookupFormat(name); ok {
		return d.toggleInline(f)
	}
	if _, ok := alignments[name]; ok {
		return d.justify(name)
	}

	switch name {
	case command.FontName.ArgumentName(), command.FontSize.ArgumentName(),
		command.TextColor.ArgumentName(), command.BackgroundColor.ArgumentName(), "hiliteColor":
		if name == "hiliteColor" {
			name = command.BackgroundColor.ArgumentName()
		}
		return d.applyValue(name, value)
	case command.OrderedList.ArgumentName():
		return d.toggleList(atom.Ol)
	case command.UnorderedList.ArgumentName():
		return d.toggleList(atom.Ul)
	case command.Indent.ArgumentName():
		return d.indent()
	case command.Outdent.ArgumentName():
		return d.outdent()
	case command.RemoveFormat.ArgumentName():
		return d.removeFormat()
	case command.Undo.ArgumentName():
		return d.undoStep()
	case command.Redo.ArgumentName():
		return d.redoStep()
	case "createLink":
		url, _ := value.(string)
		return d.nativeCreateLink(url)
	case "unlink":
		return d.nativeUnlink()
	case "insertText":
		s, _ := value.(string)
		d.insertText(s)
		return s != ""
	default:
		d.logger.Debug("unsupported command %q", name)
		return false
	}
}

// QueryCommandState emulates document.queryCommandState.
func (d *Document) QueryCommandState(name string) bool {
	if f, ok := lookupFormat(name); ok {
		return d.inlineState(f)
	}
	if align, ok := alignments[name]; ok {
		return d.alignment() == align
	}
	switch name {
	case command.OrderedList.ArgumentName():
		return d.inList(atom.Ol)
	case command.UnorderedList.ArgumentName():
		return d.inList(atom.Ul)
	default:
		return false
	}
}

// QueryCommandValue emulates document.queryCommandValue.
func (d *Document) QueryCommandValue(name string) string {
	if d.sel.Collapsed() {
		if v, ok := d.values[name]; ok {
			return formatValue(v)
		}
	}

	n := d.sel.Start.Node
	if texts := d.selectedTexts(); len(texts) > 0 {
		n = texts[0]
	}

	switch name {
	case command.FontName.ArgumentName():
		if f := closest(n, d.editor, hasAttr(atom.Font, "face")); f != nil {
			v, _ := attr(f, "face")
			return v
		}
		return DefaultFontName
	case command.FontSize.ArgumentName():
		if f := closest(n, d.editor, hasAttr(atom.Font, "size")); f != nil {
			v, _ := attr(f, "size")
			return v
		}
		return DefaultFontSize
	case command.TextColor.ArgumentName():
		if f := closest(n, d.editor, hasAttr(atom.Font, "color")); f != nil {
			v, _ := attr(f, "color")
			if c, ok := color.Parse(v); ok {
				return c.String()
			}
		}
		return DefaultForeColor
	case command.BackgroundColor.ArgumentName():
		if e := closest(n, d.editor, hasStyle("background-color")); e != nil {
			if c, ok := color.Parse(style(e, "background-color")); ok {
				return c.String()
			}
		}
		return DefaultBackColor
	default:
		return ""
	}
}

func hasAttr(tag atom.Atom, key string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		if !isTag(n, tag) {
			return false
		}
		_, ok := attr(n, key)
		return ok
	}
}

func hasStyle(prop string) func(*html.Node) bool {
	return func(n *html.Node) bool {
		return n.Type == html.ElementNode && style(n, prop) != ""
	}
}

func formatValue(v any) string {
	switch val := v.(type) {
	case color.Color:
		return val.String()
	case int:
		return strconv.Itoa(val)
	case string:
		return val
	default:
		return ""
	}
}

func (d *Document) inlineState(f inlineFormat) bool {
	if d.sel.Collapsed() {
		if v, ok := d.overrides[f.command]; ok {
			return v
		}
		return d.has(d.sel.Start.Node, f.match)
	}
	texts := d.selectedTexts()
	if len(texts) == 0 {
		return d.has(d.sel.Start.Node, f.match)
	}
	for _, t := range texts {
		if !d.has(t, f.match) {
			return false
		}
	}
	return true
}

// toggleInline flips an inline format. On a caret only the typing style
// changes, so no event fires.
func (d *Document) toggleInline(f inlineFormat) bool {
	on := !d.inlineState(f)
	if d.sel.Collapsed() {
		if d.overrides == nil {
			d.overrides = make(map[string]bool)
		}
		d.overrides[f.command] = on
		if on && f.excludes != "" {
			delete(d.overrides, f.excludes)
		}
		return true
	}

	changed := d.mutate(func() bool {
		texts := d.isolateRange()
		if len(texts) == 0 {
			return false
		}
		for _, t := range texts {
			d.setInline(t, f, on)
		}
		return true
	})
	if changed {
		d.selectionChanged()
	}
	return changed
}

func (d *Document) setInline(t *html.Node, f inlineFormat, on bool) {
	if !on {
		for a := closest(t, d.editor, f.match); a != nil; a = closest(t, d.editor, f.match) {
			splitOut(t, a)
		}
		return
	}
	if ex, ok := lookupFormat(f.excludes); ok {
		d.setInline(t, ex, false)
	}
	if !d.has(t, f.match) {
		wrap(t, newElement(f.tag))
	}
}

func valueElement(name string, v any) *html.Node {
	switch name {
	case command.FontName.ArgumentName():
		return newElement(atom.Font, html.Attribute{Key: "face", Val: v.(string)})
	case command.FontSize.ArgumentName():
		return newElement(atom.Font, html.Attribute{Key: "size", Val: strconv.Itoa(v.(int))})
	case command.TextColor.ArgumentName():
		return newElement(atom.Font, html.Attribute{Key: "color", Val: "#" + strings.ToLower(v.(color.Color).Hex())})
	default:
		return newElement(atom.Span, html.Attribute{Key: "style", Val: "background-color: " + v.(color.Color).String() + ";"})
	}
}

// normalizeValue converts a command argument to the type valueElement
// expects.
func normalizeValue(name string, value any) (any, bool) {
	switch name {
	case command.FontName.ArgumentName():
		s, ok := value.(string)
		return s, ok && s != ""
	case command.FontSize.ArgumentName():
		n, ok := intArg(value)
		if !ok {
			return nil, false
		}
		return min(max(n, command.FontMinSize), command.FontMaxSize), true
	default:
		return colorArg(value)
	}
}

func (d *Document) applyValue(name string, value any) bool {
	v, ok := normalizeValue(name, value)
	if !ok {
		return false
	}
	if d.sel.Collapsed() {
		if d.values == nil {
			d.values = make(map[string]any)
		}
		d.values[name] = v
		return true
	}

	changed := d.mutate(func() bool {
		texts := d.isolateRange()
		for _, t := range texts {
			wrap(t, valueElement(name, v))
		}
		return len(texts) > 0
	})
	if changed {
		d.selectionChanged()
	}
	return changed
}

// blockOf returns the block containing n. Inline content sitting directly
// in the editor is first wrapped in a div.
func (d *Document) blockOf(n *html.Node) *html.Node {
	if b := closest(n, d.editor, isBlock); b != nil {
		return b
	}
	if n == d.editor {
		n = childAt(d.editor, d.sel.Start.Offset)
		if n == nil {
			n = d.editor.LastChild
		}
		if n == nil || isBlock(n) {
			return n
		}
	}
	top := n
	for top.Parent != d.editor {
		top = top.Parent
	}
	first, last := top, top
	for first.PrevSibling != nil && !isBlock(first.PrevSibling) {
		first = first.PrevSibling
	}
	for last.NextSibling != nil && !isBlock(last.NextSibling) {
		last = last.NextSibling
	}
	div := newElement(atom.Div)
	d.editor.InsertBefore(div, first)
	for c := first; ; {
		nx := c.NextSibling
		d.editor.RemoveChild(c)
		div.AppendChild(c)
		if c == last {
			break
		}
		c = nx
	}
	return div
}

// selectedBlocks returns the sibling blocks from the start block to the end
// block.
func (d *Document) selectedBlocks() []*html.Node {
	start := d.blockOf(d.sel.Start.Node)
	if start == nil {
		return nil
	}
	end := d.blockOf(d.sel.End.Node)
	if end == nil || end == start || end.Parent != start.Parent {
		return []*html.Node{start}
	}
	if comparePosition(start, end)&document.Following == 0 {
		start, end = end, start
	}
	var out []*html.Node
	for b := start; b != nil; b = b.NextSibling {
		if isBlock(b) {
			out = append(out, b)
		}
		if b == end {
			break
		}
	}
	return out
}

func (d *Document) alignment() string {
	for n := d.sel.Start.Node; n != nil && n != d.editor; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if a := style(n, "text-align"); a != "" {
			return a
		}
		if a, ok := attr(n, "align"); ok {
			return a
		}
	}
	return ""
}

// justify aligns the selected blocks. Only attributes change, so only the
// attribute mutation observer fires.
func (d *Document) justify(name string) bool {
	align := alignments[name]
	so, eo := d.selectionOffsets()
	changed := d.mutate(func() bool {
		changed := false
		for _, b := range d.selectedBlocks() {
			if setStyle(b, "text-align", align) {
				changed = true
			}
		}
		return changed
	})
	d.selectOffsets(so, eo)
	if changed {
		d.attributesMutated()
	}
	return true
}

func (d *Document) inList(tag atom.Atom) bool {
	li := closest(d.sel.Start.Node, d.editor, func(n *html.Node) bool { return isTag(n, atom.Li) })
	return li != nil && isTag(li.Parent, tag)
}

// restructure runs a structural change and keeps the selection on the same
// text.
func (d *Document) restructure(fn func() bool) bool {
	so, eo := d.selectionOffsets()
	changed := d.mutate(fn)
	if changed {
		d.selectOffsets(so, eo)
		d.selectionChanged()
	}
	return changed
}

func (d *Document) toggleList(tag atom.Atom) bool {
	return d.restructure(func() bool {
		li := closest(d.sel.Start.Node, d.editor, func(n *html.Node) bool { return isTag(n, atom.Li) })
		if li != nil && isTag(li.Parent, atom.Ol, atom.Ul) {
			list := li.Parent
			if list.DataAtom != tag {
				list.DataAtom = tag
				list.Data = tag.String()
				return true
			}
			for item := list.FirstChild; item != nil; {
				nx := item.NextSibling
				list.RemoveChild(item)
				p := newElement(atom.P)
				moveChildren(item, p)
				list.Parent.InsertBefore(p, list)
				item = nx
			}
			list.Parent.RemoveChild(list)
			return true
		}

		blocks := d.selectedBlocks()
		if len(blocks) == 0 {
			return false
		}
		list := newElement(tag)
		blocks[0].Parent.InsertBefore(list, blocks[0])
		for _, b := range blocks {
			item := newElement(atom.Li)
			moveChildren(b, item)
			b.Parent.RemoveChild(b)
			list.AppendChild(item)
		}
		return true
	})
}

func (d *Document) indent() bool {
	return d.restructure(func() bool {
		blocks := d.selectedBlocks()
		if len(blocks) == 0 {
			return false
		}
		bq := newElement(atom.Blockquote)
		blocks[0].Parent.InsertBefore(bq, blocks[0])
		for _, b := range blocks {
			b.Parent.RemoveChild(b)
			bq.AppendChild(b)
		}
		return true
	})
}

func (d *Document) outdent() bool {
	return d.restructure(func() bool {
		bq := closest(d.sel.Start.Node, d.editor, func(n *html.Node) bool { return isTag(n, atom.Blockquote) })
		if bq == nil {
			return false
		}
		unwrap(bq)
		return true
	})
}

func (d *Document) removeFormat() bool {
	if d.sel.Collapsed() {
		d.overrides = nil
		d.values = nil
		return true
	}
	isFormatting := func(n *html.Node) bool { return isTag(n, formattingTags...) }
	changed := d.mutate(func() bool {
		changed := false
		for _, t := range d.isolateRange() {
			for a := closest(t, d.editor, isFormatting); a != nil; a = closest(t, d.editor, isFormatting) {
				splitOut(t, a)
				changed = true
			}
		}
		return changed
	})
	if changed {
		d.selectionChanged()
	}
	return changed
}

// deleteSelection removes the selected text and collapses the selection.
func (d *Document) deleteSelection() {
	so, _ := d.selectionOffsets()
	for _, t := range d.isolateRange() {
		t.Parent.RemoveChild(t)
	}
	p := d.pointAt(so, false)
	d.sel = Selection{Start: p, End: p}
}

// insertText types s at the selection with the pending typing style.
func (d *Document) insertText(s string) {
	if s == "" {
		return
	}
	overrides, values := d.overrides, d.values
	d.mutate(func() bool {
		if !d.sel.Collapsed() {
			d.deleteSelection()
		}
		p := d.sel.Start
		if p.Node.Type == html.TextNode && len(overrides) == 0 && len(values) == 0 {
			p.Node.Data = p.Node.Data[:p.Offset] + s + p.Node.Data[p.Offset:]
			d.sel = caret(p.Node, p.Offset+len(s))
			return true
		}

		t := newText(s)
		insertAt(p, t)
		for _, f := range inlineFormats {
			if on, ok := overrides[f.command]; ok {
				d.setInline(t, f, on)
			}
		}
		for _, name := range []string{
			command.FontName.ArgumentName(), command.FontSize.ArgumentName(),
			command.TextColor.ArgumentName(), command.BackgroundColor.ArgumentName(),
		} {
			if v, ok := values[name]; ok {
				wrap(t, valueElement(name, v))
			}
		}
		d.sel = caret(t, len(s))
		return true
	})
	d.selectionChanged()
}

func intArg(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func colorArg(v any) (color.Color, bool) {
	switch c := v.(type) {
	case color.Color:
		return c, true
	case *color.Color:
		if c == nil {
			return color.Color{}, false
		}
		return *c, true
	case string:
		return color.Parse(c)
	default:
		return color.Color{}, false
	}
}
