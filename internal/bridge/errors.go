package bridge

import "errors"

var (
	// ErrFontSizeOutOfRange is returned by SetFontSize for sizes outside
	// command.FontMinSize..command.FontMaxSize.
	ErrFontSizeOutOfRange = errors.New("font size out of range")

	// ErrClosed is returned by operations on a closed editor.
	ErrClosed = errors.New("editor closed")
)
