package localstore

import (
	"errors"
)

// Sentinel error kinds for local storage.
var (
	ErrUnknownDriver = errors.New("unknown local store driver")
	ErrEncode        = errors.New("encode local data")
	ErrRead          = errors.New("read local data")
	ErrWrite         = errors.New("write local data")
	ErrClosed        = errors.New("local store closed")
)
