package command

// Report is the selection-state tuple the document side sends to the host
// whenever the subscribed state changes. Positions whose command is not
// subscribed carry zero values.
type Report struct {
	Bold          bool
	Italic        bool
	StrikeThrough bool
	Underline     bool
	FontName      string
	FontSize      string
	ForeColor     string
	BackColor     string
	LinkSelected  bool
	OrderedList   bool
	UnorderedList bool
	Subscript     bool
	Superscript   bool
	JustifyLeft   bool
	JustifyCenter bool
	JustifyRight  bool
	JustifyFull   bool
}

// Tuple returns the report in wire position order.
func (r Report) Tuple() []any {
	return []any{
		r.Bold, r.Italic, r.StrikeThrough, r.Underline,
		r.FontName, r.FontSize, r.ForeColor, r.BackColor,
		r.LinkSelected,
		r.OrderedList, r.UnorderedList, r.Subscript, r.Superscript,
		r.JustifyLeft, r.JustifyCenter, r.JustifyRight, r.JustifyFull,
	}
}

// Justification derives the alignment from the justify flags. The first set
// flag wins in left, center, right, full order.
func (r Report) Justification() Justification {
	switch {
	case r.JustifyLeft:
		return JustificationLeft
	case r.JustifyCenter:
		return JustificationCenter
	case r.JustifyRight:
		return JustificationRight
	case r.JustifyFull:
		return JustificationFull
	default:
		return JustificationNone
	}
}

// SetState stores a STATE result by native argument name. Unknown names are
// ignored.
func (r *Report) SetState(argument string, v bool) {
	switch argument {
	case Bold.argument:
		r.Bold = v
	case Italic.argument:
		r.Italic = v
	case StrikeThrough.argument:
		r.StrikeThrough = v
	case Underline.argument:
		r.Underline = v
	case OrderedList.argument:
		r.OrderedList = v
	case UnorderedList.argument:
		r.UnorderedList = v
	case Subscript.argument:
		r.Subscript = v
	case Superscript.argument:
		r.Superscript = v
	case JustifyLeft.argument:
		r.JustifyLeft = v
	case JustifyCenter.argument:
		r.JustifyCenter = v
	case JustifyRight.argument:
		r.JustifyRight = v
	case JustifyFull.argument:
		r.JustifyFull = v
	}
}

// SetValue stores a VALUE result by native argument name. Unknown names are
// ignored.
func (r *Report) SetValue(argument string, v string) {
	switch argument {
	case FontName.argument:
		r.FontName = v
	case FontSize.argument:
		r.FontSize = v
	case TextColor.argument:
		r.ForeColor = v
	case BackgroundColor.argument:
		r.BackColor = v
	}
}
