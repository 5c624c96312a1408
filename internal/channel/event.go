package channel

import "github.com/dshills/richbridge/internal/command"

// Event is a notification sent from the document environment to the host.
// The set of variants is closed: PageLoaded, SelectionStateReported,
// HTMLExported and EmptyBodyChanged.
type Event interface {
	isEvent()
}

// PageLoaded is sent once per load when the editor template is ready.
type PageLoaded struct{}

// SelectionStateReported carries a changed selection state.
type SelectionStateReported struct {
	Report command.Report
}

// HTMLExported carries the editor content requested by exportHtml.
type HTMLExported struct {
	HTML string
}

// EmptyBodyChanged is sent when the editor content becomes empty or stops
// being empty.
type EmptyBodyChanged struct {
	Empty bool
}

func (PageLoaded) isEvent()             {}
func (SelectionStateReported) isEvent() {}
func (HTMLExported) isEvent()           {}
func (EmptyBodyChanged) isEvent()       {}

// EventHandler receives events from the document environment.
type EventHandler interface {
	HandleEvent(ev Event)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(ev Event)

// HandleEvent calls f(ev).
func (f EventHandlerFunc) HandleEvent(ev Event) { f(ev) }
