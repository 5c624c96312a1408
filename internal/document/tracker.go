package document

import (
	"github.com/dshills/richbridge/internal/command"
	"github.com/dshills/richbridge/internal/logging"
)

// Querier answers the native status queries for the current selection.
type Querier interface {
	QueryCommandState(name string) bool
	QueryCommandValue(name string) string
	// LinkSelected reports whether any link intersects the selection.
	LinkSelected() bool
}

// Trigger is the reason the tracker recomputes the selection state.
type Trigger int

const (
	// TriggerSelectionChange fires when the selection moves.
	TriggerSelectionChange Trigger = iota
	// TriggerAttributeMutation fires when an element attribute changes.
	// Some native commands only restyle elements and never move the
	// selection.
	TriggerAttributeMutation
	// TriggerRefresh is an explicit refresh request from the host.
	TriggerRefresh
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerSelectionChange:
		return "selectionchange"
	case TriggerAttributeMutation:
		return "attribute-mutation"
	case TriggerRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

type snapshot struct {
	states map[string]bool
	values map[string]string
	link   bool
}

// ReportFunc receives a changed selection state.
type ReportFunc func(r command.Report)

// Tracker recomputes the selection state on every trigger and reports it
// only when a subscribed key changed since the last report.
//
// A Tracker belongs to the document environment's single thread and is not
// safe for concurrent use.
type Tracker struct {
	q      Querier
	report ReportFunc
	logger *logging.Logger

	tables command.Tables
	last   *snapshot
}

// NewTracker creates a tracker polling every status command.
func NewTracker(q Querier, report ReportFunc, logger *logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.Null()
	}
	return &Tracker{
		q:      q,
		report: report,
		logger: logger.WithComponent("tracker"),
		tables: command.Subscription(nil).Tables(),
	}
}

// SetTables replaces the polling tables. The next trigger always reports.
func (t *Tracker) SetTables(tables command.Tables) {
	t.tables = tables
	t.last = nil
}

// Tables returns the current polling tables.
func (t *Tracker) Tables() command.Tables {
	return t.tables
}

// Handle recomputes the state and reports it if it changed. It returns
// whether a report was sent.
func (t *Tracker) Handle(trigger Trigger) bool {
	cur := t.compute()
	if t.last != nil && t.same(*t.last, cur) {
		return false
	}
	t.last = &cur

	r := t.build(cur)
	t.logger.Debug("state changed on %s: %v", trigger, r.Tuple())
	if t.report != nil {
		t.report(r)
	}
	return true
}

func (t *Tracker) compute() snapshot {
	s := snapshot{
		states: make(map[string]bool, len(t.tables.State)),
		values: make(map[string]string, len(t.tables.Value)),
	}
	for _, name := range t.tables.State {
		s.states[name] = t.q.QueryCommandState(name)
	}
	for _, name := range t.tables.Value {
		s.values[name] = t.q.QueryCommandValue(name)
	}
	if t.tables.ReportLink {
		s.link = t.q.LinkSelected()
	}
	return s
}

func (t *Tracker) same(a, b snapshot) bool {
	for _, name := range t.tables.State {
		if a.states[name] != b.states[name] {
			return false
		}
	}
	for _, name := range t.tables.Value {
		if a.values[name] != b.values[name] {
			return false
		}
	}
	if t.tables.ReportLink && a.link != b.link {
		return false
	}
	return true
}

func (t *Tracker) build(s snapshot) command.Report {
	var r command.Report
	for name, v := range s.states {
		r.SetState(name, v)
	}
	for name, v := range s.values {
		r.SetValue(name, v)
	}
	r.LinkSelected = s.link
	return r
}
