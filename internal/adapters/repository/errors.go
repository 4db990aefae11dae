package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound = errors.New("evaluation not found")
)
