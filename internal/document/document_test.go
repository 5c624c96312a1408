package document

import (
	"reflect"
	"testing"

	"github.com/dshills/richbridge/internal/command"
)

// node is a tree node numbered in pre-order and post-order, enough to
// derive every position relation.
type node struct {
	name      string
	pre, post int
}

func compareNodes(n, other *node) Position {
	switch {
	case n == other:
		return Same
	case other.pre < n.pre && other.post > n.post:
		return Contains | Preceding
	case other.pre > n.pre && other.post < n.post:
		return ContainedBy | Following
	case other.pre < n.pre:
		return Preceding
	default:
		return Following
	}
}

// <p>A <a href="x">B</a> C</p>
var (
	para  = &node{"p", 0, 4}
	textA = &node{"A ", 1, 0}
	link  = &node{"a", 2, 2}
	textB = &node{"B", 3, 1}
	textC = &node{" C", 4, 3}
)

func TestIntersects_BoundaryMatrix(t *testing.T) {
	tests := []struct {
		name       string
		start, end *node
		want       bool
	}{
		{"start in preceding text, end inside link", textA, textB, true},
		{"selection inside trailing text", textC, textC, false},
		{"selection inside leading text", textA, textA, false},
		{"selection spans the whole link", textA, textC, true},
		{"start inside link, end after", textB, textC, true},
		{"caret inside link", textB, textB, true},
		{"boundary on the link itself", link, link, true},
		{"boundary on an ancestor", para, para, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Intersects(compareNodes(link, tt.start), compareNodes(link, tt.end))
			if got != tt.want {
				t.Errorf("Intersects(%v, %v) = %v, want %v",
					compareNodes(link, tt.start), compareNodes(link, tt.end), got, tt.want)
			}
		})
	}
}

func TestIntersects_RawBitmasks(t *testing.T) {
	tests := []struct {
		start, end Position
		want       bool
	}{
		{Same, Following, true},
		{Preceding, Same, true},
		{Contains | Preceding, Following, true},
		{Preceding, ContainedBy | Following, true},
		{Preceding, Following, true},
		{Preceding, Preceding, false},
		{Following, Following, false},
		{Disconnected | ImplementationSpecific | Preceding, Preceding, false},
	}
	for _, tt := range tests {
		if got := Intersects(tt.start, tt.end); got != tt.want {
			t.Errorf("Intersects(%v, %v) = %v, want %v", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestIntersectingLinks(t *testing.T) {
	second := &node{"a2", 5, 6}
	links := []*node{link, second}

	got := IntersectingLinks(links, textA, textB, compareNodes)
	if !reflect.DeepEqual(got, []*node{link}) {
		t.Errorf("got %v", got)
	}
	if got := IntersectingLinks(links, textC, textC, compareNodes); len(got) != 0 {
		t.Errorf("got %v, want none", got)
	}
}

func TestPosition_String(t *testing.T) {
	if s := (ContainedBy | Following).String(); s != "following|contained-by" {
		t.Errorf("String() = %q", s)
	}
	if s := Same.String(); s != "same" {
		t.Errorf("String() = %q", s)
	}
}

type fakeQuerier struct {
	states  map[string]bool
	values  map[string]string
	link    bool
	queried map[string]int
}

func newFakeQuerier() *fakeQuerier {
	return &fakeQuerier{
		states:  map[string]bool{},
		values:  map[string]string{},
		queried: map[string]int{},
	}
}

func (q *fakeQuerier) QueryCommandState(name string) bool {
	q.queried[name]++
	return q.states[name]
}

func (q *fakeQuerier) QueryCommandValue(name string) string {
	q.queried[name]++
	return q.values[name]
}

func (q *fakeQuerier) LinkSelected() bool {
	q.queried["link"]++
	return q.link
}

func TestTracker_FirstCallAlwaysReports(t *testing.T) {
	q := newFakeQuerier()
	var reports []command.Report
	tr := NewTracker(q, func(r command.Report) { reports = append(reports, r) }, nil)

	if !tr.Handle(TriggerSelectionChange) {
		t.Fatal("first call did not report")
	}
	if tr.Handle(TriggerSelectionChange) {
		t.Error("identical state reported twice")
	}
	if len(reports) != 1 {
		t.Errorf("got %d reports, want 1", len(reports))
	}
}

func TestTracker_ReportsChange(t *testing.T) {
	q := newFakeQuerier()
	var last command.Report
	tr := NewTracker(q, func(r command.Report) { last = r }, nil)
	tr.Handle(TriggerSelectionChange)

	q.states["bold"] = true
	q.values["fontSize"] = "5"
	if !tr.Handle(TriggerAttributeMutation) {
		t.Fatal("change not reported")
	}
	if !last.Bold || last.FontSize != "5" {
		t.Errorf("report = %+v", last)
	}
}

func TestTracker_UnsubscribedKeysAreIgnored(t *testing.T) {
	q := newFakeQuerier()
	reports := 0
	tr := NewTracker(q, func(command.Report) { reports++ }, nil)
	tr.SetTables(command.Subscribe(command.Bold).Tables())

	tr.Handle(TriggerSelectionChange)
	q.states["italic"] = true
	q.link = true
	tr.Handle(TriggerSelectionChange)

	if reports != 1 {
		t.Errorf("got %d reports, want 1", reports)
	}
	if q.queried["italic"] != 0 || q.queried["link"] != 0 {
		t.Errorf("unsubscribed commands were queried: %v", q.queried)
	}
}

func TestTracker_LinkOnlyWhenSubscribed(t *testing.T) {
	q := newFakeQuerier()
	var reports []command.Report
	tr := NewTracker(q, func(r command.Report) { reports = append(reports, r) }, nil)
	tr.SetTables(command.Subscribe(command.Link).Tables())

	tr.Handle(TriggerSelectionChange)
	q.link = true
	tr.Handle(TriggerSelectionChange)

	if len(reports) != 2 || !reports[1].LinkSelected {
		t.Errorf("reports = %+v", reports)
	}
}

func TestTracker_SetTablesResetsSnapshot(t *testing.T) {
	q := newFakeQuerier()
	reports := 0
	tr := NewTracker(q, func(command.Report) { reports++ }, nil)

	tr.Handle(TriggerSelectionChange)
	tr.SetTables(command.Subscribe(command.Italic).Tables())
	tr.Handle(TriggerRefresh)

	if reports != 2 {
		t.Errorf("got %d reports, want 2", reports)
	}
}

func TestTracker_EmptyTables(t *testing.T) {
	q := newFakeQuerier()
	reports := 0
	tr := NewTracker(q, func(command.Report) { reports++ }, nil)
	tr.SetTables(command.Subscribe().Tables())

	tr.Handle(TriggerSelectionChange)
	q.states["bold"] = true
	tr.Handle(TriggerSelectionChange)

	if reports != 1 {
		t.Errorf("got %d reports, want 1", reports)
	}
	if len(q.queried) != 0 {
		t.Errorf("queried %v with an empty subscription", q.queried)
	}
}
