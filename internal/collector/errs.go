package collector

import "errors"

// ErrSessionClosed is returned when Run is called on a session that has
// already run.
var ErrSessionClosed = errors.New("collector: session closed")
