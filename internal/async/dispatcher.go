package async

import (
	"context"
	"sync"
)

// Executor runs delivery callbacks on one designated sequence.
type Executor interface {
	Post(fn func())
}

// Dispatcher is a single-goroutine run loop: every posted function executes on
// the goroutine that called Run, one at a time, in post order. Post never
// blocks; functions posted before Run starts are queued and run once it does.
type Dispatcher struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool
	wake    chan struct{}
}

// NewDispatcher returns an idle dispatcher. size is a capacity hint for the
// queue.
func NewDispatcher(size int) *Dispatcher {
	if size < 0 {
		size = 0
	}
	return &Dispatcher{queue: make([]func(), 0, size), wake: make(chan struct{}, 1)}
}

// Post enqueues fn. After Run has returned, fn is dropped.
func (d *Dispatcher) Post(fn func()) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Run executes posted functions until ctx is done. Functions still queued at
// that point are dropped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer func() {
		d.mu.Lock()
		d.stopped = true
		d.queue = nil
		d.mu.Unlock()
	}()
	for {
		d.mu.Lock()
		batch := d.queue
		d.queue = nil
		d.mu.Unlock()

		for _, fn := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
		}
		if len(batch) > 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-d.wake:
		}
	}
}
