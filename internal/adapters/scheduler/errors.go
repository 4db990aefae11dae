package scheduler

import (
	"errors"
)

// Sentinel error kinds for tasks.
var (
	ErrInvalidInterval = errors.New("task interval must be positive")
	ErrNilFunc         = errors.New("task function is nil")
	ErrAlreadyRunning  = errors.New("task already started")
	ErrStopped         = errors.New("task stopped")
)
