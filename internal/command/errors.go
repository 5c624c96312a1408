package command

import "errors"

// ErrUnknownCommand is returned when a command name cannot be resolved.
var ErrUnknownCommand = errors.New("unknown command")
