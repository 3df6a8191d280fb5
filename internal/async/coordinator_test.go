package async_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ean_hotel/internal/async"
)

// ---- helpers ----

// manualExecutor hands posted callbacks to the test, which runs them itself
// and so plays the designated delivery sequence.
type manualExecutor struct{ posts chan func() }

func newManualExecutor() *manualExecutor { return &manualExecutor{posts: make(chan func(), 16)} }

func (e *manualExecutor) Post(fn func()) { e.posts <- fn }

// runNext executes the next posted callback.
func (e *manualExecutor) runNext(t *testing.T) {
	t.Helper()
	select {
	case fn := <-e.posts:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a delivery to be posted")
	}
}

// gatedRequest finishes when its gate is closed, ignoring cancellation so a
// superseded request can still complete late.
type gatedRequest struct {
	name string
	gate chan struct{}
}

func gated(name string) gatedRequest { return gatedRequest{name: name, gate: make(chan struct{})} }

func gatedWork(ctx context.Context, r gatedRequest) (string, error) {
	<-r.gate
	return r.name, nil
}

type recorder struct {
	mu      sync.Mutex
	results []string
	errs    []error
}

func (r *recorder) handlers() async.Handlers[string] {
	return async.Handlers[string]{
		OnResult: func(s string) { r.mu.Lock(); r.results = append(r.results, s); r.mu.Unlock() },
		OnError:  func(err error) { r.mu.Lock(); r.errs = append(r.errs, err); r.mu.Unlock() },
	}
}

func (r *recorder) snapshot() ([]string, []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.results...), append([]error(nil), r.errs...)
}

// ---- tests ----

func TestCoordinator_DeliversSingleResult(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	c := async.New[gatedRequest, string]("test", gatedWork, exec, rec.handlers(), zerolog.Nop())

	r1 := gated("R1")
	task := c.Start(context.Background(), r1)
	if task.State() != async.Running || c.Current() != task {
		t.Fatalf("expected running current task, got %s", task.State())
	}

	close(r1.gate)
	exec.runNext(t)

	got, _ := rec.snapshot()
	if len(got) != 1 || got[0] != "R1" {
		t.Fatalf("expected [R1], got %v", got)
	}
	if task.State() != async.Completed {
		t.Fatalf("expected completed, got %s", task.State())
	}
	if c.Current() != nil {
		t.Fatalf("expected no current task after delivery")
	}
}

func TestCoordinator_LatestWinsWhenOlderCompletesLast(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	c := async.New[gatedRequest, string]("test", gatedWork, exec, rec.handlers(), zerolog.Nop())

	r1, r2 := gated("R1"), gated("R2")
	t1 := c.Start(context.Background(), r1)
	t2 := c.Start(context.Background(), r2)

	if t1.State() != async.Cancelled {
		t.Fatalf("superseded task should be cancelled, got %s", t1.State())
	}

	// R2 completes first, then R1
	close(r2.gate)
	exec.runNext(t)
	close(r1.gate)
	exec.runNext(t)

	got, errs := rec.snapshot()
	if len(got) != 1 || got[0] != "R2" {
		t.Fatalf("expected exactly [R2], got %v", got)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if t2.State() != async.Completed || t1.State() != async.Cancelled {
		t.Fatalf("unexpected states: t1=%s t2=%s", t1.State(), t2.State())
	}
}

func TestCoordinator_OlderCompletingFirstIsStillDiscarded(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	c := async.New[gatedRequest, string]("test", gatedWork, exec, rec.handlers(), zerolog.Nop())

	r1, r2 := gated("R1"), gated("R2")
	c.Start(context.Background(), r1)
	c.Start(context.Background(), r2)

	close(r1.gate)
	exec.runNext(t)
	if got, _ := rec.snapshot(); len(got) != 0 {
		t.Fatalf("stale R1 delivered: %v", got)
	}

	close(r2.gate)
	exec.runNext(t)
	if got, _ := rec.snapshot(); len(got) != 1 || got[0] != "R2" {
		t.Fatalf("expected [R2], got %v", got)
	}
}

func TestCoordinator_SupersededAfterWorkFinishedBeforeDelivery(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	c := async.New[gatedRequest, string]("test", gatedWork, exec, rec.handlers(), zerolog.Nop())

	r1 := gated("R1")
	c.Start(context.Background(), r1)
	close(r1.gate)

	// wait until R1's result is posted but do not run it yet
	var pending func()
	select {
	case pending = <-exec.posts:
	case <-time.After(2 * time.Second):
		t.Fatalf("R1 never finished")
	}

	r2 := gated("R2")
	c.Start(context.Background(), r2)
	pending()

	if got, _ := rec.snapshot(); len(got) != 0 {
		t.Fatalf("result of superseded task delivered: %v", got)
	}
	close(r2.gate)
	exec.runNext(t)
	if got, _ := rec.snapshot(); len(got) != 1 || got[0] != "R2" {
		t.Fatalf("expected [R2], got %v", got)
	}
}

func TestCoordinator_KillCurrentSuppressesDelivery(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	c := async.New[gatedRequest, string]("test", gatedWork, exec, rec.handlers(), zerolog.Nop())

	r1 := gated("R1")
	task := c.Start(context.Background(), r1)
	c.KillCurrent()

	if task.State() != async.Cancelled || c.Current() != nil {
		t.Fatalf("expected cancelled task and no current, got %s", task.State())
	}

	close(r1.gate)
	exec.runNext(t)

	got, errs := rec.snapshot()
	if len(got) != 0 || len(errs) != 0 {
		t.Fatalf("expected zero deliveries, got results=%v errs=%v", got, errs)
	}
}

func TestCoordinator_KillWithoutTaskIsNoop(t *testing.T) {
	c := async.New[gatedRequest, string]("test", gatedWork, newManualExecutor(), async.Handlers[string]{}, zerolog.Nop())
	c.KillCurrent()
	if c.Current() != nil {
		t.Fatalf("expected no current task")
	}
}

func TestCoordinator_CancellationReachesWork(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	observed := make(chan error, 1)
	work := func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		observed <- ctx.Err()
		return "", ctx.Err()
	}
	c := async.New[string, string]("test", work, exec, rec.handlers(), zerolog.Nop())

	c.Start(context.Background(), "a")
	c.Start(context.Background(), "b")

	select {
	case err := <-observed:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("superseded work never saw cancellation")
	}
	exec.runNext(t)

	if _, errs := rec.snapshot(); len(errs) != 0 {
		t.Fatalf("cancelled task must not report errors, got %v", errs)
	}
	c.KillCurrent()
}

func TestCoordinator_ErrorGoesToOnError(t *testing.T) {
	exec := newManualExecutor()
	rec := &recorder{}
	boom := errors.New("boom")
	work := func(ctx context.Context, _ string) (string, error) { return "", boom }
	c := async.New[string, string]("test", work, exec, rec.handlers(), zerolog.Nop())

	task := c.Start(context.Background(), "x")
	exec.runNext(t)

	got, errs := rec.snapshot()
	if len(got) != 0 || len(errs) != 1 || !errors.Is(errs[0], boom) {
		t.Fatalf("expected one error, got results=%v errs=%v", got, errs)
	}
	if task.State() != async.Failed {
		t.Fatalf("expected failed, got %s", task.State())
	}
}

func TestCoordinator_ConcurrentStartsDeliverAtMostLatest(t *testing.T) {
	disp := async.NewDispatcher(64)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = disp.Run(ctx) }()

	var mu sync.Mutex
	var delivered []int
	done := make(chan struct{}, 1)
	work := func(ctx context.Context, n int) (int, error) { return n, nil }
	c := async.New[int, int]("test", work, disp, async.Handlers[int]{
		OnResult: func(n int) {
			mu.Lock()
			delivered = append(delivered, n)
			mu.Unlock()
			select {
			case done <- struct{}{}:
			default:
			}
		},
	}, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Start(context.Background(), n)
		}(i)
	}
	wg.Wait()
	last := c.Start(context.Background(), 1000)

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		n := len(delivered)
		tail := 0
		if n > 0 {
			tail = delivered[n-1]
		}
		mu.Unlock()
		if n > 0 && tail == 1000 {
			break
		}
		select {
		case <-done:
		case <-deadline:
			t.Fatalf("latest result never delivered, got %v", delivered)
		}
	}
	if last.State() != async.Completed {
		t.Fatalf("expected latest task completed, got %s", last.State())
	}
}
