package bridge

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/dshills/richbridge/internal/channel"
	"github.com/dshills/richbridge/internal/color"
	"github.com/dshills/richbridge/internal/command"
)

const resultTrue = "true"

// ToggleBold toggles bold on the selection.
func (e *Editor) ToggleBold() { e.Toggle(command.Bold) }

// ToggleItalic toggles italic on the selection.
func (e *Editor) ToggleItalic() { e.Toggle(command.Italic) }

// ToggleStrikeThrough toggles strike-through on the selection.
func (e *Editor) ToggleStrikeThrough() { e.Toggle(command.StrikeThrough) }

// ToggleUnderline toggles underline on the selection.
func (e *Editor) ToggleUnderline() { e.Toggle(command.Underline) }

// ToggleOrderedList turns the selected blocks into or out of an ordered list.
func (e *Editor) ToggleOrderedList() { e.Toggle(command.OrderedList) }

// ToggleUnorderedList turns the selected blocks into or out of a bulleted list.
func (e *Editor) ToggleUnorderedList() { e.Toggle(command.UnorderedList) }

// ToggleSubscript toggles subscript on the selection.
func (e *Editor) ToggleSubscript() { e.Toggle(command.Subscript) }

// ToggleSuperscript toggles superscript on the selection.
func (e *Editor) ToggleSuperscript() { e.Toggle(command.Superscript) }

// RemoveFormat strips inline formatting from the selection.
func (e *Editor) RemoveFormat() { e.Toggle(command.RemoveFormat) }

// Indent indents the selected blocks.
func (e *Editor) Indent() { e.Toggle(command.Indent) }

// Outdent outdents the selected blocks.
func (e *Editor) Outdent() { e.Toggle(command.Outdent) }

// Undo reverts the last edit.
func (e *Editor) Undo() { e.Toggle(command.Undo) }

// Redo reapplies the last undone edit.
func (e *Editor) Redo() { e.Toggle(command.Redo) }

// Justify aligns the selected blocks. JustificationNone is ignored.
func (e *Editor) Justify(j command.Justification) {
	c, ok := j.Command()
	if !ok {
		e.logger.Debug("ignoring justify %s", j)
		return
	}
	e.Toggle(c)
}

// SetTextColor sets the foreground color of the selection.
func (e *Editor) SetTextColor(c color.Color) {
	e.execCommand(command.TextColor, c)
}

// SetTextBackgroundColor sets the background color of the selection.
func (e *Editor) SetTextBackgroundColor(c color.Color) {
	e.execCommand(command.BackgroundColor, c)
}

// SetFontSize sets the font size of the selection, on the 1..7 scale of the
// native fontSize command.
func (e *Editor) SetFontSize(size int) error {
	if size < command.FontMinSize || size > command.FontMaxSize {
		return fmt.Errorf("%w: %d not in %d..%d",
			ErrFontSizeOutOfRange, size, command.FontMinSize, command.FontMaxSize)
	}
	e.execCommand(command.FontSize, size)
	return nil
}

// Toggle executes c on the current selection.
func (e *Editor) Toggle(c command.Command) {
	e.execCommand(c, nil)
}

// CreateLink turns the selection into a link to url. With a caret, a new
// link showing displayText is inserted, or the link under the caret is
// updated. A blank displayText falls back to the URL or the selected text.
func (e *Editor) CreateLink(displayText, url string) {
	var text any
	if strings.TrimSpace(displayText) != "" {
		text = displayText
	}
	e.executeAndRefresh(channel.NewMethod("createLink", text, url))
}

// Unlink removes every link intersecting the selection.
func (e *Editor) Unlink() {
	e.executeAndRefresh(channel.NewMethod("unlink"))
}

// execCommand runs the native command c with argument. The selection is
// checked first: a command applied to a caret changes no selection, so the
// document is asked to report its state once the command has run. With a
// range selected, the command's own selection change triggers the report.
func (e *Editor) execCommand(c command.Command, argument any) {
	if e.closed.Load() {
		return
	}
	name := c.ArgumentName()
	if name == "" {
		e.logger.Warn("%v has no native command", c)
		return
	}
	// Both calls enter the command queue as one entry so no other host
	// command runs between the check and the command.
	var caret atomic.Bool
	check := channel.NewMethod("isSelectionCaret").OnResult(func(result string) {
		if e.closed.Load() {
			return
		}
		caret.Store(result == resultTrue)
	})
	exec := channel.NewMethod("document.execCommand", name, false, argument).OnResult(func(string) {
		if caret.Load() {
			e.refresh()
		}
	})
	e.commands.Submit([]*channel.Method{check, exec})
}

// executeAndRefresh runs m and always asks for a state report afterwards.
func (e *Editor) executeAndRefresh(m *channel.Method) {
	if e.closed.Load() {
		return
	}
	e.commands.Submit([]*channel.Method{m.OnResult(func(string) { e.refresh() })})
}

func (e *Editor) refresh() {
	if e.closed.Load() {
		return
	}
	e.ch.Call("reportSelectionStateChangedIfNecessary")
}
