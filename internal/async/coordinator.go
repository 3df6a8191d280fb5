package async

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ean_hotel/internal/adapters/observability"
)

type State int32

const (
	Running State = iota
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// WorkFunc is one unit of background work. It should return promptly once
// ctx is cancelled.
type WorkFunc[In, Out any] func(ctx context.Context, in In) (Out, error)

// Task is the handle of one started request.
type Task struct {
	id     string
	cancel context.CancelFunc
	state  atomic.Int32
}

func (t *Task) ID() string { return t.id }

func (t *Task) State() State { return State(t.state.Load()) }

func (t *Task) transition(from, to State) bool {
	return t.state.CompareAndSwap(int32(from), int32(to))
}

// Handlers receive the outcome of the current task on the executor's sequence.
type Handlers[Out any] struct {
	OnResult func(Out)
	OnError  func(error)
}

// Coordinator keeps at most one current task. Starting a task supersedes the
// previous one, and only the current task's outcome is ever handed to
// Handlers, whatever order the tasks finish in.
type Coordinator[In, Out any] struct {
	kind     string
	work     WorkFunc[In, Out]
	exec     Executor
	handlers Handlers[Out]
	log      zerolog.Logger

	current atomic.Pointer[Task]
}

// New returns a coordinator whose outcomes are delivered through exec. kind
// labels logs and metrics.
func New[In, Out any](kind string, work WorkFunc[In, Out], exec Executor, h Handlers[Out], l zerolog.Logger) *Coordinator[In, Out] {
	return &Coordinator[In, Out]{
		kind:     kind,
		work:     work,
		exec:     exec,
		handlers: h,
		log:      l.With().Str("kind", kind).Logger(),
	}
}

// Start signals cancellation to the running task, if any, and launches a new
// one. It does not wait for the previous task to stop.
func (c *Coordinator[In, Out]) Start(ctx context.Context, in In) *Task {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task{id: uuid.NewString(), cancel: cancel}

	if prev := c.current.Swap(t); prev != nil {
		c.cancelTask(prev)
	}
	observability.ObserveTask(c.kind, "started")
	c.log.Debug().Str("task", t.id).Msg("task started")

	go c.run(ctx, t, in)
	return t
}

// KillCurrent cancels the current task, if any. Nothing is delivered for it.
func (c *Coordinator[In, Out]) KillCurrent() {
	if t := c.current.Swap(nil); t != nil {
		c.cancelTask(t)
	}
}

// Current is the task whose outcome would be delivered, or nil.
func (c *Coordinator[In, Out]) Current() *Task { return c.current.Load() }

func (c *Coordinator[In, Out]) cancelTask(t *Task) {
	t.cancel()
	if t.transition(Running, Cancelled) {
		observability.ObserveTask(c.kind, "cancelled")
		c.log.Debug().Str("task", t.id).Msg("task cancelled")
	}
}

func (c *Coordinator[In, Out]) run(ctx context.Context, t *Task, in In) {
	out, err := c.work(ctx, in)
	t.cancel()
	c.exec.Post(func() { c.deliver(t, out, err) })
}

// deliver runs on the executor's sequence. The task must still be current at
// this point; releasing it and checking currency is a single CAS.
func (c *Coordinator[In, Out]) deliver(t *Task, out Out, err error) {
	if !c.current.CompareAndSwap(t, nil) {
		observability.ObserveTask(c.kind, "discarded")
		c.log.Debug().Str("task", t.id).Msg("stale result discarded")
		return
	}

	if err != nil {
		t.transition(Running, Failed)
		observability.ObserveTask(c.kind, "failed")
		if c.handlers.OnError != nil {
			c.handlers.OnError(err)
		}
		return
	}

	t.transition(Running, Completed)
	observability.ObserveTask(c.kind, "delivered")
	if c.handlers.OnResult != nil {
		c.handlers.OnResult(out)
	}
}
