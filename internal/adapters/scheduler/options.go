package scheduler

import (
	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Option applies a configuration option to the Task.
type Option func(*Task)

// WithImmediate runs the task once as soon as it starts, before the first tick.
func WithImmediate() Option {
	return func(t *Task) { t.immediate = true }
}

// WithLogger sets a custom logger for the task.
func WithLogger(l logger.Logger) Option {
	return func(t *Task) {
		if l != nil {
			t.logger = l
		}
	}
}
