package script

import "errors"

// ErrClosed is returned when running code on a closed host.
var ErrClosed = errors.New("script host is closed")
