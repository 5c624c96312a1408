package command

import (
	"errors"
	"reflect"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name string
		want StatusCommand
	}{
		{"bold", Bold},
		{"BOLD", Bold},
		{"textColor", TextColor},
		{"foreColor", TextColor},
		{"backColor", BackgroundColor},
		{"insertOrderedList", OrderedList},
		{"link", Link},
	}

	for _, tt := range tests {
		got, err := Lookup(tt.name)
		if err != nil {
			t.Errorf("Lookup(%q) error: %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Lookup(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}

	if _, err := Lookup("blink"); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Lookup(blink) error = %v, want ErrUnknownCommand", err)
	}
	if _, err := Lookup(""); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("Lookup(\"\") should not resolve the COMPLEX link command, got %v", err)
	}
}

func TestSubscription_NilMeansAll(t *testing.T) {
	var s Subscription
	if got := len(s.Commands()); got != len(All()) {
		t.Errorf("nil subscription has %d commands, want %d", got, len(All()))
	}

	tables := s.Tables()
	if !tables.ReportLink {
		t.Error("nil subscription should report link status")
	}
	wantState := []string{
		"bold", "italic", "strikeThrough", "underline",
		"insertOrderedList", "insertUnorderedList", "subscript", "superscript",
		"justifyLeft", "justifyCenter", "justifyRight", "justifyFull",
	}
	if !reflect.DeepEqual(tables.State, wantState) {
		t.Errorf("State table = %v, want %v", tables.State, wantState)
	}
	wantValue := []string{"fontName", "fontSize", "foreColor", "backColor"}
	if !reflect.DeepEqual(tables.Value, wantValue) {
		t.Errorf("Value table = %v, want %v", tables.Value, wantValue)
	}
}

func TestSubscription_TablesOmitUnsubscribed(t *testing.T) {
	s := Subscribe(Italic, Bold, FontSize)

	tables := s.Tables()
	if !reflect.DeepEqual(tables.State, []string{"bold", "italic"}) {
		t.Errorf("State table = %v", tables.State)
	}
	if !reflect.DeepEqual(tables.Value, []string{"fontSize"}) {
		t.Errorf("Value table = %v", tables.Value)
	}
	if tables.ReportLink {
		t.Error("link not subscribed but ReportLink is true")
	}
	if s.Contains(Underline) {
		t.Error("Contains(Underline) = true")
	}
}

func TestSubscription_ComplexNeverInTables(t *testing.T) {
	tables := Subscribe(Link).Tables()
	if len(tables.State) != 0 || len(tables.Value) != 0 {
		t.Errorf("COMPLEX command leaked into polling tables: %+v", tables)
	}
	if !tables.ReportLink {
		t.Error("ReportLink = false")
	}
}

func TestParseSubscription(t *testing.T) {
	s, err := ParseSubscription(nil)
	if err != nil || s != nil {
		t.Errorf("ParseSubscription(nil) = %v, %v; want nil, nil", s, err)
	}

	s, err = ParseSubscription([]string{})
	if err != nil || s == nil || !s.Tables().IsEmpty() {
		t.Errorf("ParseSubscription(empty) = %v, %v; want empty subscription", s, err)
	}

	s, err = ParseSubscription([]string{"bold", " link ", ""})
	if err != nil {
		t.Fatalf("ParseSubscription error: %v", err)
	}
	if len(s) != 2 || !s.Contains(Bold) || !s.Contains(Link) {
		t.Errorf("ParseSubscription = %v", s)
	}

	if _, err := ParseSubscription([]string{"bold", "sparkle"}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("error = %v, want ErrUnknownCommand", err)
	}
}

func TestReport_Justification(t *testing.T) {
	tests := []struct {
		report Report
		want   Justification
	}{
		{Report{}, JustificationNone},
		{Report{JustifyLeft: true}, JustificationLeft},
		{Report{JustifyCenter: true}, JustificationCenter},
		{Report{JustifyRight: true}, JustificationRight},
		{Report{JustifyFull: true}, JustificationFull},
		{Report{JustifyLeft: true, JustifyRight: true}, JustificationLeft},
	}
	for _, tt := range tests {
		if got := tt.report.Justification(); got != tt.want {
			t.Errorf("%+v.Justification() = %v, want %v", tt.report, got, tt.want)
		}
	}
}

func TestReport_SetByArgument(t *testing.T) {
	var r Report
	r.SetState("insertUnorderedList", true)
	r.SetState("justifyFull", true)
	r.SetState("unknown", true)
	r.SetValue("foreColor", "rgb(1, 2, 3)")
	r.SetValue("fontName", "serif")

	want := Report{
		UnorderedList: true,
		JustifyFull:   true,
		ForeColor:     "rgb(1, 2, 3)",
		FontName:      "serif",
	}
	if r != want {
		t.Errorf("report = %+v, want %+v", r, want)
	}

	tuple := r.Tuple()
	if len(tuple) != 17 {
		t.Fatalf("tuple has %d positions, want 17", len(tuple))
	}
	if tuple[4] != "serif" || tuple[6] != "rgb(1, 2, 3)" || tuple[10] != true || tuple[16] != true {
		t.Errorf("tuple = %v", tuple)
	}
}

func TestJustification_Command(t *testing.T) {
	for _, j := range []Justification{JustificationLeft, JustificationCenter, JustificationRight, JustificationFull} {
		c, ok := j.Command()
		if !ok || c.StatusType() != StatusState {
			t.Errorf("%v.Command() = %v, %v", j, c, ok)
		}
		parsed, err := ParseJustification(j.String())
		if err != nil || parsed != j {
			t.Errorf("ParseJustification(%q) = %v, %v", j.String(), parsed, err)
		}
	}
	if _, ok := JustificationNone.Command(); ok {
		t.Error("JustificationNone has a command")
	}
}
