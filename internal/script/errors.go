package script

import "errors"

// ErrUnsupportedArgument is returned when an argument has no wire encoding.
var ErrUnsupportedArgument = errors.New("unsupported argument type")
