package dom

import (
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/document"
)

// Results of evaluations, as a page would stringify them.
const (
	resultNull  = "null"
	resultTrue  = "true"
	resultFalse = "false"
)

func boolResult(b bool) string {
	if b {
		return resultTrue
	}
	return resultFalse
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return nil
}

func stringArg(args []any, i int) string {
	s, _ := arg(args, i).(string)
	return s
}

func stringsArg(args []any, i int) []string {
	s, _ := arg(args, i).([]string)
	return s
}

func boolArg(args []any, i int) bool {
	b, _ := arg(args, i).(bool)
	return b
}

// dispatch evaluates a call on the document goroutine.
func (d *Document) dispatch(req channel.Request) string {
	args := req.Args
	switch req.Method {
	case "document.execCommand":
		return boolResult(d.execCommand(stringArg(args, 0), arg(args, 2)))
	case "document.queryCommandState":
		return boolResult(d.QueryCommandState(stringArg(args, 0)))
	case "document.queryCommandValue":
		return d.QueryCommandValue(stringArg(args, 0))
	case "isSelectionCaret":
		return boolResult(d.sel.Collapsed())
	case "reportSelectionStateChangedIfNecessary":
		d.tracker.Handle(document.TriggerRefresh)
	case "setSubscribedStates":
		d.tracker.SetTables(command.Tables{
			State:      stringsArg(args, 0),
			Value:      stringsArg(args, 1),
			ReportLink: boolArg(args, 2),
		})
	case "attachListeners":
		d.listening = true
	case "setEditorHtml":
		d.setEditorHTML(stringArg(args, 0))
	case "exportHtml":
		d.emit(channel.HTMLExported{HTML: innerHTML(d.editor)})
	case "createLink":
		var text *string
		if s, ok := arg(args, 0).(string); ok {
			text = &s
		}
		d.createLink(text, stringArg(args, 1))
	case "unlink":
		d.nativeUnlink()
	case "injectCss":
		d.injectCSS(stringArg(args, 0))
	case "injectScript":
		id, _ := arg(args, 1).(string)
		return boolResult(d.injectScript(stringArg(args, 0), id))
	case "setSpellCheck":
		d.setSpellCheck(boolArg(args, 0))
	case "requestFocus":
		d.focused = true
	default:
		return d.callScript(req.Method, args)
	}
	return resultNull
}

func (d *Document) setEditorHTML(s string) {
	if err := setInnerHTML(d.editor, s); err != nil {
		d.logger.Warn("set editor html: %v", err)
		return
	}
	d.undo, d.redo = nil, nil
	d.selectOffsets(0, 0)
	d.checkEmpty()
	d.selectionChanged()
}

func (d *Document) injectCSS(css string) {
	d.styles = append(d.styles, css)
	if d.head == nil {
		return
	}
	el := newElement(atom.Style)
	el.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	d.head.AppendChild(el)
}

func (d *Document) setSpellCheck(on bool) {
	v := strconv.FormatBool(on)
	if cur, ok := attr(d.editor, "spellcheck"); ok && cur == v {
		return
	}
	setAttr(d.editor, "spellcheck", v)
	d.attributesMutated()
}
