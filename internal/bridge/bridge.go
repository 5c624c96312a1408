// Package bridge is the host side of a rich-text editing session.
//
// An Editor sends formatting commands, content and configuration into a
// channel.Environment and turns the environment's events back into host
// state: the latest selection statuses, the empty-body flag and exported
// HTML. Everything submitted before the environment reports PageLoaded is
// held in per-feature gates and flushed, in order, once it does.
package bridge

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/gate"
	"github.com/dshills/richbridge/internal/logging"
	"github.com/dshills/richbridge/internal/status"
)

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Editor) {
		e.logger = l
	}
}

// WithSubscription sets the initial subscription. The default, nil,
// subscribes to every status command.
func WithSubscription(s command.Subscription) Option {
	return func(e *Editor) {
		e.subscription = s
	}
}

// WithID sets the session identifier instead of a generated one.
func WithID(id string) Option {
	return func(e *Editor) {
		e.id = id
	}
}

type injectionKind int

const (
	injectCSS injectionKind = iota
	injectScript
)

type injection struct {
	kind injectionKind
	code string
	id   *string
}

// Editor is a host-side editing session bound to one environment.
type Editor struct {
	id     string
	env    channel.Environment
	ch     *channel.Channel
	ctx    context.Context
	cancel context.CancelFunc
	logger *logging.Logger

	commands      *gate.Queue[[]*channel.Method]
	html          *gate.Queue[string]
	injections    *gate.Queue[injection]
	subscriptions *gate.Queue[command.Subscription]
	spellCheck    *gate.Queue[bool]
	focus         *gate.Queue[struct{}]

	statuses  status.EditorStatuses
	reportMu  sync.Mutex
	statusOut *status.Stream[status.Statuses]
	emptyOut  *status.Latest[bool]

	exportMu        sync.Mutex
	exportCallbacks []func(html string)

	subMu        sync.Mutex
	subscription command.Subscription

	loads  atomic.Int64
	closed atomic.Bool
}

// New creates an editor over env and attaches it as env's event handler.
// The initial subscription is queued immediately and applied on the first
// page load.
func New(env channel.Environment, opts ...Option) *Editor {
	e := &Editor{
		env:       env,
		statusOut: status.NewStream[status.Statuses](),
		emptyOut:  status.NewLatest[bool](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.id == "" {
		e.id = uuid.NewString()
	}
	if e.logger == nil {
		e.logger = logging.Null()
	}
	e.logger = e.logger.WithComponent("bridge").WithField("session", e.id)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.ch = channel.NewWithContext(e.ctx, env, e.logger)

	e.commands = gate.New(func(batch []*channel.Method) {
		for _, m := range batch {
			e.ch.Execute(m)
		}
	})
	e.html = gate.New(func(html string) {
		e.ch.Call("setEditorHtml", html)
	})
	e.injections = gate.New(e.inject)
	e.subscriptions = gate.New(e.applySubscription)
	e.spellCheck = gate.New(func(enabled bool) {
		e.ch.Call("setSpellCheck", enabled)
	})
	e.focus = gate.New(func(struct{}) {
		e.ch.Call("requestFocus")
	})

	e.subscriptions.Submit(e.subscription)

	env.Attach(e)
	e.logger.Info("session started")
	return e
}

// ID returns the session identifier.
func (e *Editor) ID() string { return e.id }

// Loaded reports whether the environment has loaded at least once.
func (e *Editor) Loaded() bool { return e.loads.Load() > 0 }

// HandleEvent implements channel.EventHandler.
func (e *Editor) HandleEvent(ev channel.Event) {
	if e.closed.Load() {
		return
	}
	switch ev := ev.(type) {
	case channel.PageLoaded:
		e.NotifyPageLoaded()
	case channel.SelectionStateReported:
		e.reportMu.Lock()
		s := e.statuses.UpdateAtomically(ev.Report)
		e.statusOut.Publish(s)
		e.reportMu.Unlock()
	case channel.HTMLExported:
		e.deliverExport(ev.HTML)
	case channel.EmptyBodyChanged:
		e.emptyOut.Publish(ev.Empty)
	}
}

// NotifyPageLoaded sets up the freshly loaded document and opens every
// gate. On a reload the current subscription is sent again, since the
// document starts over with no polling tables.
func (e *Editor) NotifyPageLoaded() {
	n := e.loads.Add(1)
	e.logger.Info("page loaded (load %d)", n)

	e.ch.Call("attachListeners")
	if n > 1 {
		e.subMu.Lock()
		s := e.subscription
		e.subMu.Unlock()
		e.applySubscription(s)
	}

	e.subscriptions.SignalReady()
	e.html.SignalReady()
	e.commands.SignalReady()
	e.injections.SignalReady()
	e.spellCheck.SignalReady()
	e.focus.SignalReady()
}

// SetHTML replaces the editor content.
func (e *Editor) SetHTML(html string) {
	if e.closed.Load() {
		return
	}
	e.html.Submit(html)
}

// SubscribeToStates limits the reported statuses to s. A nil subscription
// restores the default of every command. The document's last reported
// state is forgotten, so the next refresh reports unconditionally.
func (e *Editor) SubscribeToStates(s command.Subscription) {
	if e.closed.Load() {
		return
	}
	e.subscriptions.Submit(s)
}

func (e *Editor) applySubscription(s command.Subscription) {
	e.subMu.Lock()
	e.subscription = s
	e.subMu.Unlock()

	t := s.Tables()
	e.ch.Call("setSubscribedStates", t.State, t.Value, t.ReportLink)
}

// Subscription returns the current subscription.
func (e *Editor) Subscription() command.Subscription {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	return e.subscription
}

// AddCSS injects a stylesheet into the document.
func (e *Editor) AddCSS(css string) {
	if e.closed.Load() {
		return
	}
	e.injections.Submit(injection{kind: injectCSS, code: css})
}

// AddScript injects a user script into the document.
func (e *Editor) AddScript(code string) {
	e.AddScriptWithID(code, "")
}

// AddScriptWithID injects a user script tagged with id. A non-empty id is
// injected at most once per page load.
func (e *Editor) AddScriptWithID(code, id string) {
	if e.closed.Load() {
		return
	}
	inj := injection{kind: injectScript, code: code}
	if id != "" {
		inj.id = &id
	}
	e.injections.Submit(inj)
}

func (e *Editor) inject(inj injection) {
	switch inj.kind {
	case injectCSS:
		e.ch.Call("injectCss", inj.code)
	case injectScript:
		if inj.id == nil {
			e.ch.Call("injectScript", inj.code, nil)
			return
		}
		e.ch.Call("injectScript", inj.code, *inj.id)
	}
}

// SetSpellCheck enables or disables spell checking in the editor.
func (e *Editor) SetSpellCheck(enabled bool) {
	if e.closed.Load() {
		return
	}
	e.spellCheck.Submit(enabled)
}

// RequestFocus moves focus into the editor.
func (e *Editor) RequestFocus() {
	if e.closed.Load() {
		return
	}
	e.focus.Submit(struct{}{})
}

// Statuses returns the latest selection statuses.
func (e *Editor) Statuses() status.Statuses {
	return e.statuses.Snapshot()
}

// SubscribeStatuses returns a subscriber notified of every reported status
// change. A slow subscriber sees only the most recent one.
func (e *Editor) SubscribeStatuses() *status.Subscriber[status.Statuses] {
	return e.statusOut.Subscribe()
}

// IsEmpty returns whether the editor content is empty. known is false until
// the environment has reported it.
func (e *Editor) IsEmpty() (empty, known bool) {
	return e.emptyOut.Value()
}

// SubscribeEmpty returns a subscriber for the empty-body flag, primed with
// the current value when one is known.
func (e *Editor) SubscribeEmpty() *status.Subscriber[bool] {
	return e.emptyOut.Subscribe()
}

// Close ends the session. Pending export callbacks are dropped, subscriber
// channels are closed and later calls are ignored. The environment itself
// is left to its owner.
func (e *Editor) Close() error {
	if !e.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	e.cancel()

	e.exportMu.Lock()
	dropped := len(e.exportCallbacks)
	e.exportCallbacks = nil
	e.exportMu.Unlock()
	if dropped > 0 {
		e.logger.Debug("dropping %d export callbacks", dropped)
	}

	e.reportMu.Lock()
	e.statusOut.Close()
	e.reportMu.Unlock()
	e.emptyOut.Close()

	e.logger.Info("session closed")
	return nil
}
