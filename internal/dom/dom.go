// Package dom is an in-memory document environment for the editor bridge.
//
// A Document holds an HTML page with an editable region (the element with
// id "editor"), a selection inside it and the document-side runtime: the
// native formatting commands, the selection state tracker, link detection,
// HTML export, empty-body detection and Lua user scripts. Every operation
// runs on the document's own goroutine, one at a time, the way a browser
// page runs its scripts.
//
// Document implements channel.Environment.
package dom

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/document"
	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/luart"
)

// EditorID is the id of the editable element in the page template.
const EditorID = "editor"

// DefaultTemplate is the page loaded around the editor content.
const DefaultTemplate = `<!DOCTYPE html><html><head><meta charset="utf-8"></head>` +
	`<body><div id="editor" contenteditable="true"></div></body></html>`

// Document is an in-memory page with an editable region.
type Document struct {
	loop   *loop
	logger *logging.Logger

	template      string
	scriptTimeout time.Duration
	scriptOutput  io.Writer

	handlerMu sync.RWMutex
	handler   channel.EventHandler

	loaded atomic.Bool

	// Owned by the loop goroutine.
	root       *html.Node
	head       *html.Node
	editor     *html.Node
	sel        Selection
	overrides  map[string]bool
	values     map[string]any
	undo       []snapshot
	redo       []snapshot
	listening  bool
	tracker    *document.Tracker
	empty      bool
	emptyKnown bool
	focused    bool
	styles     []string
	scriptIDs  map[string]bool
	lua        *luart.State
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Document) {
		d.logger = l
	}
}

// WithTemplate sets the page template. It must contain an element with id
// "editor"; otherwise one is appended to the body.
func WithTemplate(tmpl string) Option {
	return func(d *Document) {
		d.template = tmpl
	}
}

// WithScriptTimeout bounds each user script evaluation.
func WithScriptTimeout(t time.Duration) Option {
	return func(d *Document) {
		d.scriptTimeout = t
	}
}

// WithScriptOutput receives print output of user scripts.
func WithScriptOutput(w io.Writer) Option {
	return func(d *Document) {
		d.scriptOutput = w
	}
}

// New creates a document environment. Nothing is loaded until Load.
func New(opts ...Option) *Document {
	d := &Document{
		template:      DefaultTemplate,
		scriptTimeout: luart.DefaultTimeout,
		scriptOutput:  io.Discard,
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = logging.Null()
	}
	d.logger = d.logger.WithComponent("dom")
	d.loop = newLoop(d.logger)
	return d
}

// Attach sets the receiver of document events.
func (d *Document) Attach(h channel.EventHandler) {
	d.handlerMu.Lock()
	d.handler = h
	d.handlerMu.Unlock()
}

func (d *Document) emit(ev channel.Event) {
	d.handlerMu.RLock()
	h := d.handler
	d.handlerMu.RUnlock()
	if h != nil {
		h.HandleEvent(ev)
	}
}

// Load (re)loads the page with content inside the editor. Listeners,
// injected styles and scripts, history and subscriptions are reset, and
// PageLoaded is emitted once the page is ready.
func (d *Document) Load(content string) error {
	return d.loop.post(func() { d.load(content) })
}

func (d *Document) load(content string) {
	root, err := html.Parse(strings.NewReader(d.template))
	if err != nil {
		d.logger.Error("parse template: %v", err)
		return
	}
	editor := findByID(root, EditorID)
	if editor == nil {
		editor = newElement(atom.Div, html.Attribute{Key: "id", Val: EditorID}, html.Attribute{Key: "contenteditable", Val: "true"})
		findTag(root, atom.Body).AppendChild(editor)
	}
	if err := setInnerHTML(editor, content); err != nil {
		d.logger.Warn("parse content: %v", err)
	}

	if d.lua != nil {
		_ = d.lua.Close()
	}

	d.root = root
	d.head = findTag(root, atom.Head)
	d.editor = editor
	d.overrides = nil
	d.values = nil
	d.undo, d.redo = nil, nil
	d.listening = false
	d.tracker = document.NewTracker(d, d.reportState, d.logger)
	d.emptyKnown = false
	d.focused = false
	d.styles = nil
	d.scriptIDs = make(map[string]bool)
	d.lua = d.newScriptState()
	d.selectOffsets(0, 0)

	d.loaded.Store(true)
	d.logger.Debug("page loaded")
	d.checkEmpty()
	d.emit(channel.PageLoaded{})
}

// Evaluate queues req on the document goroutine. onResult, if non-nil, is
// called there with the textual result. A request withdrawn by its sender
// before it runs is skipped.
func (d *Document) Evaluate(req channel.Request, onResult channel.ResultFunc) error {
	if !d.loaded.Load() {
		return channel.ErrUnavailable
	}
	return d.loop.post(func() {
		if req.Cancelled() {
			d.logger.Debug("skipping withdrawn %s", req.Method)
			return
		}
		result := d.dispatch(req)
		if onResult != nil {
			onResult(result)
		}
	})
}

// Settle blocks until the document has no queued work, including work
// queued by the work it ran.
func (d *Document) Settle(ctx context.Context) error {
	for {
		idle := make(chan bool, 1)
		if err := d.loop.post(func() { idle <- d.loop.pending() == 0 }); err != nil {
			return err
		}
		select {
		case ok := <-idle:
			if ok {
				return nil
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the document. Further calls fail with channel.ErrUnavailable.
// Close must not be called from an event handler.
func (d *Document) Close() error {
	d.loaded.Store(false)
	d.loop.close()
	if d.lua != nil {
		return d.lua.Close()
	}
	return nil
}

// run executes fn on the document goroutine and waits for it.
func (d *Document) run(fn func()) error {
	if !d.loaded.Load() {
		return channel.ErrUnavailable
	}
	done := make(chan struct{})
	if err := d.loop.post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}
	<-done
	return nil
}

// HTML returns the editor content.
func (d *Document) HTML() (string, error) {
	var s string
	err := d.run(func() { s = innerHTML(d.editor) })
	return s, err
}

// Text returns the editor's text content.
func (d *Document) Text() (string, error) {
	var s string
	err := d.run(func() { s = textContent(d.editor) })
	return s, err
}

// SelectText selects the text range [start, end) of the editor and fires
// a selection change if the selection moved.
func (d *Document) SelectText(start, end int) error {
	return d.run(func() { d.setSelection(start, end) })
}

// SelectAll selects the whole editor content.
func (d *Document) SelectAll() error {
	return d.run(func() { d.setSelection(0, len(textContent(d.editor))) })
}

// SelectionOffsets returns the selection as editor text offsets.
func (d *Document) SelectionOffsets() (start, end int, err error) {
	err = d.run(func() { start, end = d.selectionOffsets() })
	return start, end, err
}

// InsertText types text at the selection, replacing selected content.
func (d *Document) InsertText(text string) error {
	return d.run(func() { d.insertText(text) })
}

// Focused reports whether the editor has been focused.
func (d *Document) Focused() bool {
	var f bool
	_ = d.run(func() { f = d.focused })
	return f
}

// Stylesheets returns the injected CSS, in injection order.
func (d *Document) Stylesheets() []string {
	var out []string
	_ = d.run(func() { out = append(out, d.styles...) })
	return out
}

// Tables returns the selection state tracker's polling tables.
func (d *Document) Tables() command.Tables {
	var t command.Tables
	_ = d.run(func() { t = d.tracker.Tables() })
	return t
}

// Attribute returns an attribute of the editor element.
func (d *Document) Attribute(key string) (string, bool) {
	var v string
	var ok bool
	_ = d.run(func() { v, ok = attr(d.editor, key) })
	return v, ok
}

func (d *Document) setSelection(start, end int) {
	before := d.sel
	d.selectOffsets(start, end)
	if d.sel != before {
		d.selectionChanged()
	}
}

func (d *Document) reportState(r command.Report) {
	d.emit(channel.SelectionStateReported{Report: r})
}

// selectionChanged plays the selectionchange event.
func (d *Document) selectionChanged() {
	d.overrides = nil
	d.values = nil
	if d.listening {
		d.tracker.Handle(document.TriggerSelectionChange)
	}
}

// attributesMutated plays the attribute mutation observer.
func (d *Document) attributesMutated() {
	if d.listening {
		d.tracker.Handle(document.TriggerAttributeMutation)
	}
}

func (d *Document) isEmpty() bool {
	text := strings.ReplaceAll(textContent(d.editor), "\u00a0", " ")
	if strings.TrimSpace(text) != "" {
		return false
	}
	empty := true
	walk(d.editor, func(n *html.Node) {
		if n.Type == html.ElementNode && contentTags[n.DataAtom] {
			empty = false
		}
	})
	return empty
}

func (d *Document) checkEmpty() {
	e := d.isEmpty()
	if d.emptyKnown && e == d.empty {
		return
	}
	d.emptyKnown = true
	d.empty = e
	d.emit(channel.EmptyBodyChanged{Empty: e})
}
