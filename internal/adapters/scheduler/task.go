// Package scheduler runs explicitly cancellable repeating tasks.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/Jhon-Henrry67/Evaluaciongoutier/pkg/logger"
)

// Func is one run of a task. Errors are logged and do not stop the loop.
type Func func(ctx context.Context) error

// Task invokes a Func every interval until stopped or its context ends.
// A run that is still in progress when the next tick fires delays that tick;
// runs never overlap.
type Task struct {
	name      string
	interval  time.Duration
	fn        Func
	immediate bool

	mu       sync.Mutex
	started  bool
	stopped  bool
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// New creates a stopped task.
func New(name string, interval time.Duration, fn Func, opts ...Option) *Task {
	t := &Task{
		name:     name,
		interval: interval,
		fn:       fn,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the task name.
func (t *Task) Name() string { return t.name }

// Start launches the loop. It fails if the task was already started, or
// if the interval is not positive.
func (t *Task) Start(ctx context.Context) error {
	if t.interval <= 0 {
		return ErrInvalidInterval
	}
	if t.fn == nil {
		return ErrNilFunc
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case t.stopped:
		return ErrStopped
	case t.started:
		return ErrAlreadyRunning
	}
	t.started = true

	go t.run(ctx)
	return nil
}

func (t *Task) run(ctx context.Context) {
	defer close(t.done)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	if t.immediate {
		t.invoke(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.shutdown:
			return
		case <-ticker.C:
			t.invoke(ctx)
		}
	}
}

func (t *Task) invoke(ctx context.Context) {
	if err := t.fn(ctx); err != nil {
		t.logger.Warn(ctx, "scheduled run failed",
			logger.String("task", t.name),
			logger.Error(err))
	}
}

// Running reports whether the loop is active.
func (t *Task) Running() bool {
	t.mu.Lock()
	started, stopped := t.started, t.stopped
	t.mu.Unlock()
	if !started || stopped {
		return false
	}
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

// Stop ends the loop and waits for an in-progress run to return. It is safe
// to call more than once and on a task that never started.
func (t *Task) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		if t.started {
			<-t.done
		}
		return
	}
	t.stopped = true
	started := t.started
	close(t.shutdown)
	t.mu.Unlock()

	if started {
		<-t.done
	}
}
