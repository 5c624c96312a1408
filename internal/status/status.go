// Package status holds the host-side view of the editor's selection state.
package status

import (
	"strconv"
	"strings"
	"sync"

	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/command"
)

// Statuses is a snapshot of the selection state. Nil pointers mean the value
// is unknown, unsubscribed or unparseable.
type Statuses struct {
	Bold            bool
	Italic          bool
	StrikeThrough   bool
	Underline       bool
	FontName        *string
	FontSize        *float64
	TextColor       *color.Color
	BackgroundColor *color.Color
	LinkSelected    bool
	OrderedList     bool
	UnorderedList   bool
	Subscript       bool
	Superscript     bool
	Justification   command.Justification
}

// FromReport decodes a selection-state report.
func FromReport(r command.Report) Statuses {
	return Statuses{
		Bold:            r.Bold,
		Italic:          r.Italic,
		StrikeThrough:   r.StrikeThrough,
		Underline:       r.Underline,
		FontName:        parseFontName(r.FontName),
		FontSize:        parseFontSize(r.FontSize),
		TextColor:       parseColor(r.ForeColor),
		BackgroundColor: parseColor(r.BackColor),
		LinkSelected:    r.LinkSelected,
		OrderedList:     r.OrderedList,
		UnorderedList:   r.UnorderedList,
		Subscript:       r.Subscript,
		Superscript:     r.Superscript,
		Justification:   r.Justification(),
	}
}

func parseFontName(s string) *string {
	s = strings.Trim(strings.TrimSpace(s), `"'`)
	if s == "" {
		return nil
	}
	return &s
}

func parseFontSize(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &f
}

func parseColor(s string) *color.Color {
	c, ok := color.Parse(s)
	if !ok {
		return nil
	}
	return &c
}

// Equal reports whether s and o describe the same state.
func (s Statuses) Equal(o Statuses) bool {
	return s.Bold == o.Bold &&
		s.Italic == o.Italic &&
		s.StrikeThrough == o.StrikeThrough &&
		s.Underline == o.Underline &&
		eqPtr(s.FontName, o.FontName) &&
		eqPtr(s.FontSize, o.FontSize) &&
		eqPtr(s.TextColor, o.TextColor) &&
		eqPtr(s.BackgroundColor, o.BackgroundColor) &&
		s.LinkSelected == o.LinkSelected &&
		s.OrderedList == o.OrderedList &&
		s.UnorderedList == o.UnorderedList &&
		s.Subscript == o.Subscript &&
		s.Superscript == o.Superscript &&
		s.Justification == o.Justification
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// EditorStatuses is the mutable record of the latest selection state.
// Every update replaces all fields under one lock, so readers never observe
// a mix of two reports.
type EditorStatuses struct {
	mu  sync.RWMutex
	cur Statuses
}

// Update replaces the record with s.
func (e *EditorStatuses) Update(s Statuses) {
	e.mu.Lock()
	e.cur = s
	e.mu.Unlock()
}

// UpdateAtomically decodes r and replaces the record, returning the new
// snapshot.
func (e *EditorStatuses) UpdateAtomically(r command.Report) Statuses {
	s := FromReport(r)
	e.Update(s)
	return s
}

// Snapshot returns a copy of the current record.
func (e *EditorStatuses) Snapshot() Statuses {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cur
}
