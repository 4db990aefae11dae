package report

import (
	"errors"
)

// Sentinel error kinds for report rendering.
var (
	ErrRender = errors.New("render report")
)
