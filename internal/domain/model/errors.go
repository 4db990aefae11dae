package model

import "errors"

// Sentinel kinds for model errors.
var (
	ErrValidation = errors.New("invalid evaluation")
)
