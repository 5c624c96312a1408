package bridge

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/dom"
)

// fakeEnv answers every call synchronously.
type fakeEnv struct {
	mu       sync.Mutex
	requests []channel.Request
	handler  channel.EventHandler
	caret    bool
	down     bool
}

func (f *fakeEnv) Evaluate(req channel.Request, onResult channel.ResultFunc) error {
	f.mu.Lock()
	if f.down {
		f.mu.Unlock()
		return channel.ErrUnavailable
	}
	f.requests = append(f.requests, req)
	caret := f.caret
	f.mu.Unlock()

	if onResult == nil {
		return nil
	}
	switch req.Method {
	case "isSelectionCaret":
		if caret {
			onResult("true")
		} else {
			onResult("false")
		}
	default:
		onResult("null")
	}
	return nil
}

func (f *fakeEnv) Attach(h channel.EventHandler) {
	f.mu.Lock()
	f.handler = h
	f.mu.Unlock()
}

func (f *fakeEnv) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Method
	}
	return out
}

func (f *fakeEnv) last(method string) (channel.Request, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method {
			return f.requests[i], true
		}
	}
	return channel.Request{}, false
}

func (f *fakeEnv) reset() {
	f.mu.Lock()
	f.requests = nil
	f.mu.Unlock()
}

func loaded(t *testing.T, opts ...Option) (*Editor, *fakeEnv) {
	t.Helper()
	env := &fakeEnv{}
	e := New(env, opts...)
	if env.handler != e {
		t.Fatal("editor did not attach itself to the environment")
	}
	e.HandleEvent(channel.PageLoaded{})
	env.reset()
	return e, env
}

func TestEditor_GatesUntilPageLoaded(t *testing.T) {
	env := &fakeEnv{}
	e := New(env)

	e.SetHTML("<p>x</p>")
	e.ToggleBold()
	e.AddCSS("p {}")
	e.SetSpellCheck(false)
	e.RequestFocus()
	if got := env.methods(); len(got) != 0 {
		t.Fatalf("calls before page load: %v", got)
	}
	if e.Loaded() {
		t.Error("Loaded() = true before page load")
	}

	e.HandleEvent(channel.PageLoaded{})

	want := []string{
		"attachListeners",
		"setSubscribedStates",
		"setEditorHtml",
		"isSelectionCaret",
		"document.execCommand",
		"injectCss",
		"setSpellCheck",
		"requestFocus",
	}
	if got := env.methods(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v\nwant %v", got, want)
	}
	if !e.Loaded() {
		t.Error("Loaded() = false after page load")
	}

	sub, _ := env.last("setSubscribedStates")
	tables := command.Subscription(nil).Tables()
	if !reflect.DeepEqual(sub.Args, []any{tables.State, tables.Value, true}) {
		t.Errorf("default subscription args = %v", sub.Args)
	}
}

func TestEditor_ToggleOnCaretRefreshes(t *testing.T) {
	e, env := loaded(t)
	env.caret = true

	e.ToggleItalic()

	want := []string{"isSelectionCaret", "document.execCommand", "reportSelectionStateChangedIfNecessary"}
	if got := env.methods(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	exec, _ := env.last("document.execCommand")
	if exec.Script != "document.execCommand(`italic`, false, null)" {
		t.Errorf("script = %s", exec.Script)
	}
}

func TestEditor_ToggleOnRangeDoesNotRefresh(t *testing.T) {
	e, env := loaded(t)
	env.caret = false

	e.ToggleUnderline()
	e.Justify(command.JustificationFull)
	e.Undo()

	want := []string{
		"isSelectionCaret", "document.execCommand",
		"isSelectionCaret", "document.execCommand",
		"isSelectionCaret", "document.execCommand",
	}
	if got := env.methods(); !reflect.DeepEqual(got, want) {
		t.Errorf("calls = %v, want %v", got, want)
	}
	exec, _ := env.last("document.execCommand")
	if exec.Args[0] != "undo" {
		t.Errorf("last command = %v, want undo", exec.Args[0])
	}
}

func TestEditor_JustifyNoneAndLinkAreIgnored(t *testing.T) {
	e, env := loaded(t)

	e.Justify(command.JustificationNone)
	e.Toggle(command.Link)
	if got := env.methods(); len(got) != 0 {
		t.Errorf("calls = %v, want none", got)
	}
}

func TestEditor_ValueCommands(t *testing.T) {
	e, env := loaded(t)

	e.SetTextColor(color.RGB(0xAB, 0x01, 0xFF))
	exec, _ := env.last("document.execCommand")
	if exec.Script != "document.execCommand(`foreColor`, false, 'AB01FF')" {
		t.Errorf("script = %s", exec.Script)
	}

	e.SetTextBackgroundColor(color.RGB(1, 2, 3))
	exec, _ = env.last("document.execCommand")
	if exec.Args[0] != "backColor" {
		t.Errorf("command = %v, want backColor", exec.Args[0])
	}

	if err := e.SetFontSize(3); err != nil {
		t.Fatalf("SetFontSize(3) error = %v", err)
	}
	exec, _ = env.last("document.execCommand")
	if exec.Script != "document.execCommand(`fontSize`, false, 3)" {
		t.Errorf("script = %s", exec.Script)
	}

	env.reset()
	for _, size := range []int{0, 8, -1} {
		if err := e.SetFontSize(size); !errors.Is(err, ErrFontSizeOutOfRange) {
			t.Errorf("SetFontSize(%d) error = %v, want ErrFontSizeOutOfRange", size, err)
		}
	}
	if got := env.methods(); len(got) != 0 {
		t.Errorf("out-of-range sizes issued calls: %v", got)
	}
}

func TestEditor_LinksAlwaysRefresh(t *testing.T) {
	e, env := loaded(t)
	env.caret = false

	e.CreateLink("  ", "https://example.com")
	e.CreateLink("site", "https://example.com")
	e.Unlink()

	want := []string{
		"createLink", "reportSelectionStateChangedIfNecessary",
		"createLink", "reportSelectionStateChangedIfNecessary",
		"unlink", "reportSelectionStateChangedIfNecessary",
	}
	if got := env.methods(); !reflect.DeepEqual(got, want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}

	env.mu.Lock()
	blank, named := env.requests[0], env.requests[2]
	env.mu.Unlock()
	if blank.Script != "createLink(null, `https://example.com`)" {
		t.Errorf("blank display text script = %s", blank.Script)
	}
	if named.Script != "createLink(`site`, `https://example.com`)" {
		t.Errorf("display text script = %s", named.Script)
	}
}

func TestEditor_ExportCoalesces(t *testing.T) {
	e, env := loaded(t)

	var mu sync.Mutex
	var got []string
	cb := func(html string) {
		mu.Lock()
		got = append(got, html)
		mu.Unlock()
	}

	e.ExportHTML(cb)
	e.ExportHTML(cb)
	e.ExportHTML(nil)
	if calls := env.methods(); !reflect.DeepEqual(calls, []string{"exportHtml"}) {
		t.Fatalf("calls = %v, want one exportHtml", calls)
	}

	e.HandleEvent(channel.HTMLExported{HTML: "<p>a</p>"})
	if !reflect.DeepEqual(got, []string{"<p>a</p>", "<p>a</p>"}) {
		t.Errorf("callbacks got %v", got)
	}

	e.HandleEvent(channel.HTMLExported{HTML: "<p>b</p>"})
	if len(got) != 2 {
		t.Errorf("callbacks ran again after being served: %v", got)
	}

	e.ExportHTML(cb)
	if calls := env.methods(); len(calls) != 2 {
		t.Errorf("second export did not call the document: %v", calls)
	}
}

func TestEditor_SelectionStateReported(t *testing.T) {
	e, _ := loaded(t)
	sub := e.SubscribeStatuses()

	e.HandleEvent(channel.SelectionStateReported{Report: command.Report{
		Bold:        true,
		FontSize:    "4",
		ForeColor:   "rgb(255, 0, 0)",
		JustifyLeft: true,
	}})

	s := e.Statuses()
	if !s.Bold || s.FontSize == nil || *s.FontSize != 4 || s.Justification != command.JustificationLeft {
		t.Errorf("Statuses() = %+v", s)
	}
	if s.TextColor == nil || s.TextColor.Hex() != "FF0000" {
		t.Errorf("TextColor = %v", s.TextColor)
	}

	select {
	case got := <-sub.C():
		if !got.Equal(s) {
			t.Errorf("published %+v, want %+v", got, s)
		}
	default:
		t.Fatal("no status published")
	}
}

func TestEditor_EmptyBody(t *testing.T) {
	e, _ := loaded(t)

	if _, known := e.IsEmpty(); known {
		t.Error("emptiness known before any report")
	}

	e.HandleEvent(channel.EmptyBodyChanged{Empty: true})
	if empty, known := e.IsEmpty(); !empty || !known {
		t.Errorf("IsEmpty() = %v, %v", empty, known)
	}

	sub := e.SubscribeEmpty()
	if got := <-sub.C(); !got {
		t.Error("new subscriber not primed with the current value")
	}
	e.HandleEvent(channel.EmptyBodyChanged{Empty: false})
	if got := <-sub.C(); got {
		t.Error("subscriber missed the change")
	}
}

func TestEditor_ReloadResendsSubscription(t *testing.T) {
	e, env := loaded(t)

	e.SubscribeToStates(command.Subscribe(command.Bold, command.Link))
	sub, ok := env.last("setSubscribedStates")
	if !ok || !reflect.DeepEqual(sub.Args, []any{[]string{"bold"}, []string{}, true}) {
		t.Fatalf("setSubscribedStates = %v, %v", sub.Args, ok)
	}

	env.reset()
	e.HandleEvent(channel.PageLoaded{})
	want := []string{"attachListeners", "setSubscribedStates"}
	if got := env.methods(); !reflect.DeepEqual(got, want) {
		t.Errorf("reload calls = %v, want %v", got, want)
	}
	sub, _ = env.last("setSubscribedStates")
	if !reflect.DeepEqual(sub.Args, []any{[]string{"bold"}, []string{}, true}) {
		t.Errorf("reload subscription args = %v", sub.Args)
	}
	if !e.Subscription().Contains(command.Link) || e.Subscription().Contains(command.Italic) {
		t.Errorf("Subscription() = %v", e.Subscription())
	}
}

func TestEditor_Scripts(t *testing.T) {
	e, env := loaded(t)

	e.AddScript("x = 1")
	e.AddScriptWithID("y = 2", "init")

	env.mu.Lock()
	defer env.mu.Unlock()
	if len(env.requests) != 2 {
		t.Fatalf("requests = %v", env.requests)
	}
	if env.requests[0].Script != "injectScript(`x = 1`, null)" {
		t.Errorf("anonymous script = %s", env.requests[0].Script)
	}
	if env.requests[1].Script != "injectScript(`y = 2`, `init`)" {
		t.Errorf("tagged script = %s", env.requests[1].Script)
	}
}

func TestEditor_UnavailableEnvironmentIsSwallowed(t *testing.T) {
	e, env := loaded(t)
	env.down = true

	e.ToggleBold()
	e.SetHTML("<p>x</p>")
	if got := env.methods(); len(got) != 0 {
		t.Errorf("calls = %v", got)
	}
}

func TestEditor_Close(t *testing.T) {
	e, env := loaded(t, WithID("session-1"))
	if e.ID() != "session-1" {
		t.Errorf("ID() = %q", e.ID())
	}
	statuses := e.SubscribeStatuses()
	empty := e.SubscribeEmpty()

	served := false
	e.ExportHTML(func(string) { served = true })

	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := e.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}

	env.reset()
	e.ToggleBold()
	e.SetHTML("x")
	e.ExportHTML(func(string) {})
	e.HandleEvent(channel.HTMLExported{HTML: "late"})
	if got := env.methods(); len(got) != 0 {
		t.Errorf("calls after Close: %v", got)
	}
	if served {
		t.Error("export callback served after Close")
	}
	if _, ok := <-statuses.C(); ok {
		t.Error("status channel open after Close")
	}
	if _, ok := <-empty.C(); ok {
		t.Error("empty channel open after Close")
	}
}

func TestEditor_GeneratesSessionID(t *testing.T) {
	a := New(&fakeEnv{})
	b := New(&fakeEnv{})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs %q and %q", a.ID(), b.ID())
	}
}

// The tests below drive a real in-memory document.

func session(t *testing.T, content string, opts ...Option) (*Editor, *dom.Document) {
	t.Helper()
	d := dom.New()
	e := New(d, opts...)
	if err := d.Load(content); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	settle(t, d)
	t.Cleanup(func() {
		_ = e.Close()
		_ = d.Close()
	})
	return e, d
}

func settle(t *testing.T, d *dom.Document) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.Settle(ctx); err != nil {
		t.Fatalf("Settle() error = %v", err)
	}
}

func TestSession_CaretToggleReportsWithoutSelectionChange(t *testing.T) {
	e, d := session(t, "<p>hello</p>")
	if err := d.SelectText(2, 2); err != nil {
		t.Fatal(err)
	}
	settle(t, d)
	if e.Statuses().Bold {
		t.Fatal("Bold before toggle")
	}

	e.ToggleBold()
	settle(t, d)

	if !e.Statuses().Bold {
		t.Error("caret bold toggle not reflected in statuses")
	}
	start, end, err := d.SelectionOffsets()
	if err != nil || start != 2 || end != 2 {
		t.Errorf("selection moved to %d..%d (%v)", start, end, err)
	}
}

func TestSession_JustifyRangeReportsThroughMutation(t *testing.T) {
	e, d := session(t, "<p>hello</p>")
	if err := d.SelectText(0, 5); err != nil {
		t.Fatal(err)
	}
	settle(t, d)

	e.Justify(command.JustificationCenter)
	settle(t, d)

	if got := e.Statuses().Justification; got != command.JustificationCenter {
		t.Errorf("Justification = %v, want center", got)
	}
}

func TestSession_RangeToggle(t *testing.T) {
	e, d := session(t, "<p>hello world</p>")
	if err := d.SelectText(0, 5); err != nil {
		t.Fatal(err)
	}
	settle(t, d)

	e.ToggleBold()
	settle(t, d)

	html, err := d.HTML()
	if err != nil {
		t.Fatal(err)
	}
	if html != "<p><b>hello</b> world</p>" {
		t.Errorf("HTML() = %s", html)
	}
	if !e.Statuses().Bold {
		t.Error("Bold = false after range toggle")
	}
}

func TestSession_ToggleKeepsOrderWithLaterCommands(t *testing.T) {
	e, d := session(t, "<p>abc</p>")
	if err := d.SelectAll(); err != nil {
		t.Fatal(err)
	}
	settle(t, d)

	got := make(chan string, 1)
	e.ToggleBold()
	e.ExportHTML(func(html string) { got <- html })
	settle(t, d)

	select {
	case html := <-got:
		if html != "<p><b>abc</b></p>" {
			t.Errorf("exported %q, want the toggle applied first", html)
		}
	default:
		t.Fatal("export callback not served")
	}
}

// heldEnv forwards calls to a document only when released.
type heldEnv struct {
	*dom.Document
	mu   sync.Mutex
	held []func()
}

func (h *heldEnv) Evaluate(req channel.Request, onResult channel.ResultFunc) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = append(h.held, func() { _ = h.Document.Evaluate(req, onResult) })
	return nil
}

func (h *heldEnv) release() {
	h.mu.Lock()
	held := h.held
	h.held = nil
	h.mu.Unlock()
	for _, fn := range held {
		fn()
	}
}

func TestSession_CloseWithdrawsPendingToggle(t *testing.T) {
	d := dom.New()
	env := &heldEnv{Document: d}
	e := New(env)
	t.Cleanup(func() { _ = d.Close() })
	if err := d.Load("<p>abc</p>"); err != nil {
		t.Fatal(err)
	}
	settle(t, d)
	env.release()
	settle(t, d)
	if err := d.SelectAll(); err != nil {
		t.Fatal(err)
	}

	e.ToggleBold()
	if err := e.Close(); err != nil {
		t.Fatal(err)
	}
	env.release()
	settle(t, d)

	html, err := d.HTML()
	if err != nil {
		t.Fatal(err)
	}
	if html != "<p>abc</p>" {
		t.Errorf("HTML() = %s, want the toggle withdrawn", html)
	}
}

func TestSession_GatedContentAndExport(t *testing.T) {
	d := dom.New()
	e := New(d)
	t.Cleanup(func() {
		_ = e.Close()
		_ = d.Close()
	})

	e.SetHTML("<p>queued</p>")
	if err := d.Load(""); err != nil {
		t.Fatal(err)
	}
	settle(t, d)

	if empty, known := e.IsEmpty(); empty || !known {
		t.Errorf("IsEmpty() = %v, %v; want false, true", empty, known)
	}

	got := make(chan string, 2)
	e.ExportHTML(func(html string) { got <- html })
	e.ExportHTML(func(html string) { got <- html })
	settle(t, d)

	for i := 0; i < 2; i++ {
		select {
		case html := <-got:
			if html != "<p>queued</p>" {
				t.Errorf("exported %q", html)
			}
		default:
			t.Fatalf("callback %d not served", i)
		}
	}
}

func TestSession_LinkStatus(t *testing.T) {
	e, d := session(t, `<p>A <a href="https://x">B</a> C</p>`)

	if err := d.SelectText(2, 3); err != nil {
		t.Fatal(err)
	}
	settle(t, d)
	if !e.Statuses().LinkSelected {
		t.Error("LinkSelected = false inside the link")
	}

	e.Unlink()
	settle(t, d)
	if e.Statuses().LinkSelected {
		t.Error("LinkSelected = true after Unlink")
	}
}
