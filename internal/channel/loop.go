package channel

import (
	"context"
	"sync"
)

// Loop runs posted tasks one at a time on a single goroutine. Event
// handlers, local user actions and timer expiries all go through it, so the
// state they touch needs no locking.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once
	observer func()
}

// NewLoop creates a loop with the given task queue capacity.
func NewLoop(size int) *Loop {
	if size <= 0 {
		size = 256
	}
	return &Loop{
		tasks: make(chan func(), size),
		done:  make(chan struct{}),
	}
}

// SetObserver registers fn to run on the loop after every task. It must be
// called before Run.
func (l *Loop) SetObserver(fn func()) {
	l.observer = fn
}

// Post queues fn. It blocks while the queue is full and returns false once
// the loop has stopped. Never call Post from a task while the queue may be
// full.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.tasks <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish. Calling Do from a task
// deadlocks.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	}
}

// Run executes tasks until ctx is cancelled or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case fn := <-l.tasks:
			fn()
			if l.observer != nil {
				l.observer()
			}
		}
	}
}

// Stop terminates the loop. Queued tasks are discarded.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
