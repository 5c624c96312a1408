package channel

import "errors"

// ErrUnavailable is returned by an Environment that cannot accept calls,
// before it has loaded or after it has been torn down.
var ErrUnavailable = errors.New("document environment unavailable")
