package remote

import (
	"errors"
)

// Sentinel error kinds for the remote document client.
var (
	ErrInvalidURL       = errors.New("invalid remote url")
	ErrUnreachable      = errors.New("remote document unreachable")
	ErrUnexpectedStatus = errors.New("unexpected remote status")
	ErrConflict         = errors.New("remote document changed since it was read")
	ErrEncode           = errors.New("encode remote document")
)
