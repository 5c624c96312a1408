package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/dshills/richbridge/internal/config/watcher"
	"github.com/dshills/richbridge/internal/status"
)

// setStyle records the contents injected for a stylesheet.
func (app *Application) setStyle(path, css string) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	app.styleMu.Lock()
	app.styles[path] = css
	app.styleMu.Unlock()
}

// reloadStylesheet re-injects a stylesheet after its file changed. Removed
// files keep their last injected rules.
func (app *Application) reloadStylesheet(ev watcher.Event) {
	if ev.Op == watcher.OpRemove || ev.Op == watcher.OpRename {
		app.logger.Warn("stylesheet %s %s", ev.Path, ev.Op)
		return
	}
	css, err := os.ReadFile(ev.Path)
	if err != nil {
		app.logger.Warn("reading stylesheet: %v", err)
		return
	}

	app.styleMu.Lock()
	unchanged := app.styles[ev.Path] == string(css)
	app.styles[ev.Path] = string(css)
	app.styleMu.Unlock()
	if unchanged {
		return
	}

	app.logger.Info("re-injecting %s", ev.Path)
	app.editor.AddCSS(string(css))
}

// printStatuses writes every status snapshot until the stream closes.
func (app *Application) printStatuses(sub *status.Subscriber[status.Statuses]) {
	defer close(app.statusDone)
	for s := range sub.C() {
		fmt.Fprintln(app.out, FormatStatuses(s))
	}
}

// FormatStatuses renders a snapshot as one line of key=value pairs. Only
// set flags and known values appear.
func FormatStatuses(s status.Statuses) string {
	parts := []string{"status:"}
	flags := []struct {
		name string
		on   bool
	}{
		{"bold", s.Bold},
		{"italic", s.Italic},
		{"strikeThrough", s.StrikeThrough},
		{"underline", s.Underline},
		{"link", s.LinkSelected},
		{"orderedList", s.OrderedList},
		{"unorderedList", s.UnorderedList},
		{"subscript", s.Subscript},
		{"superscript", s.Superscript},
	}
	for _, f := range flags {
		if f.on {
			parts = append(parts, f.name)
		}
	}
	if s.FontName != nil {
		parts = append(parts, "fontName="+*s.FontName)
	}
	if s.FontSize != nil {
		parts = append(parts, fmt.Sprintf("fontSize=%g", *s.FontSize))
	}
	if s.TextColor != nil {
		parts = append(parts, "textColor=#"+s.TextColor.Hex())
	}
	if s.BackgroundColor != nil {
		parts = append(parts, "backgroundColor=#"+s.BackgroundColor.Hex())
	}
	parts = append(parts, "justify="+s.Justification.String())
	return strings.Join(parts, " ")
}

// Patch returns a line diff from before to after: removed lines start with
// "-", added lines with "+" and unchanged lines with a space. It is empty
// when the two are equal up to a trailing newline.
func Patch(before, after string) string {
	before, after = withNewline(before), withNewline(after)
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				sb.WriteString(prefix + line)
			}
		}
	}
	return sb.String()
}

func withNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
