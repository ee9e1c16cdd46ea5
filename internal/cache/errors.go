package cache

import "errors"

// ErrClosed is returned by a Client after Close.
var ErrClosed = errors.New("cache client is closed")
