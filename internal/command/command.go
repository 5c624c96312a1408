// Package command defines the vocabulary shared by the host and the document
// environment: native command descriptors, subscriptions, the polling tables
// derived from them and the selection-state report tuple.
package command

import (
	"fmt"
	"strings"
)

// StatusType classifies how a command's status is observed.
type StatusType int

const (
	// StatusState commands report a boolean through a state query.
	StatusState StatusType = iota
	// StatusValue commands report a scalar through a value query.
	StatusValue
	// StatusComplex commands need custom detection and never enter the
	// generic polling tables.
	StatusComplex
)

// String returns the status type name.
func (t StatusType) String() string {
	switch t {
	case StatusState:
		return "STATE"
	case StatusValue:
		return "VALUE"
	case StatusComplex:
		return "COMPLEX"
	default:
		return "UNKNOWN"
	}
}

// Command is anything that can be passed to the native execCommand.
type Command interface {
	ArgumentName() string
}

// StatusCommand is an immutable descriptor of a command whose status can be
// subscribed to.
type StatusCommand struct {
	name       string
	argument   string
	statusType StatusType
}

// Name returns the configuration name of the command (e.g. "bold", "link").
func (c StatusCommand) Name() string { return c.name }

// ArgumentName returns the native command identifier. It is empty for
// COMPLEX commands.
func (c StatusCommand) ArgumentName() string { return c.argument }

// StatusType returns how the command's status is observed.
func (c StatusCommand) StatusType() StatusType { return c.statusType }

// String implements fmt.Stringer.
func (c StatusCommand) String() string { return c.name }

// Status commands, in report order.
var (
	Bold            = StatusCommand{"bold", "bold", StatusState}
	Italic          = StatusCommand{"italic", "italic", StatusState}
	StrikeThrough   = StatusCommand{"strikeThrough", "strikeThrough", StatusState}
	Underline       = StatusCommand{"underline", "underline", StatusState}
	FontName        = StatusCommand{"fontName", "fontName", StatusValue}
	FontSize        = StatusCommand{"fontSize", "fontSize", StatusValue}
	TextColor       = StatusCommand{"textColor", "foreColor", StatusValue}
	BackgroundColor = StatusCommand{"backgroundColor", "backColor", StatusValue}
	Link            = StatusCommand{"link", "", StatusComplex}
	OrderedList     = StatusCommand{"orderedList", "insertOrderedList", StatusState}
	UnorderedList   = StatusCommand{"unorderedList", "insertUnorderedList", StatusState}
	Subscript       = StatusCommand{"subscript", "subscript", StatusState}
	Superscript     = StatusCommand{"superscript", "superscript", StatusState}
	JustifyLeft     = StatusCommand{"justifyLeft", "justifyLeft", StatusState}
	JustifyCenter   = StatusCommand{"justifyCenter", "justifyCenter", StatusState}
	JustifyRight    = StatusCommand{"justifyRight", "justifyRight", StatusState}
	JustifyFull     = StatusCommand{"justifyFull", "justifyFull", StatusState}
)

var allStatusCommands = []StatusCommand{
	Bold, Italic, StrikeThrough, Underline,
	FontName, FontSize, TextColor, BackgroundColor,
	Link,
	OrderedList, UnorderedList, Subscript, Superscript,
	JustifyLeft, JustifyCenter, JustifyRight, JustifyFull,
}

// All returns every status command in report order.
func All() []StatusCommand {
	out := make([]StatusCommand, len(allStatusCommands))
	copy(out, allStatusCommands)
	return out
}

// Lookup resolves a status command by configuration name or native argument
// name, case-insensitively.
func Lookup(name string) (StatusCommand, error) {
	for _, c := range allStatusCommands {
		if strings.EqualFold(c.name, name) || (c.argument != "" && strings.EqualFold(c.argument, name)) {
			return c, nil
		}
	}
	return StatusCommand{}, fmt.Errorf("%w: %q", ErrUnknownCommand, name)
}

// OtherCommand is a native command without an observable status.
type OtherCommand struct {
	argument string
}

// ArgumentName returns the native command identifier.
func (c OtherCommand) ArgumentName() string { return c.argument }

// String implements fmt.Stringer.
func (c OtherCommand) String() string { return c.argument }

// Commands without an observable status.
var (
	RemoveFormat = OtherCommand{"removeFormat"}
	Indent       = OtherCommand{"indent"}
	Outdent      = OtherCommand{"outdent"}
	Undo         = OtherCommand{"undo"}
	Redo         = OtherCommand{"redo"}
)

// Justification is a paragraph alignment.
type Justification int

const (
	JustificationNone Justification = iota
	JustificationLeft
	JustificationCenter
	JustificationRight
	JustificationFull
)

// String returns the justification name.
func (j Justification) String() string {
	switch j {
	case JustificationLeft:
		return "left"
	case JustificationCenter:
		return "center"
	case JustificationRight:
		return "right"
	case JustificationFull:
		return "full"
	default:
		return "none"
	}
}

// Command returns the STATE command that applies the justification.
// JustificationNone has no command.
func (j Justification) Command() (StatusCommand, bool) {
	switch j {
	case JustificationLeft:
		return JustifyLeft, true
	case JustificationCenter:
		return JustifyCenter, true
	case JustificationRight:
		return JustifyRight, true
	case JustificationFull:
		return JustifyFull, true
	default:
		return StatusCommand{}, false
	}
}

// ParseJustification parses a justification name.
func ParseJustification(s string) (Justification, error) {
	switch strings.ToLower(s) {
	case "left":
		return JustificationLeft, nil
	case "center":
		return JustificationCenter, nil
	case "right":
		return JustificationRight, nil
	case "full":
		return JustificationFull, nil
	case "none", "":
		return JustificationNone, nil
	default:
		return JustificationNone, fmt.Errorf("%w: justification %q", ErrUnknownCommand, s)
	}
}

// Font size bounds accepted by the native fontSize command.
const (
	FontMinSize = 1
	FontMaxSize = 7
)
