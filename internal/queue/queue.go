// Package queue implements the bounded submission queue and worker
// loop shared by every codec pipeline. FIFO enqueue with
// hard-limit backpressure, asynchronous output/error delivery that
// never re-enters the caller, dequeue notification, and a Flush/Reset
// cancellation model that never fires the error callback for a
// user-initiated abort.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
)

// saturatedBackoff is how long the worker waits before retrying a
// PushInput that reported engine.ErrSaturated, to avoid busy-spinning
// while the engine catches up.
const saturatedBackoff = time.Millisecond

// Callbacks are the host-facing delivery points. All three are invoked
// from the queue's own dispatch goroutine, never from inside Enqueue,
// Flush, Reset or Close — callbacks never re-enter a caller's submit.
type Callbacks struct {
	OnOutput  func(engine.Output)
	OnError   func(error)
	OnDequeue func()
}

// Queue owns one adapter exclusively and drives it from a single
// worker goroutine, so engine push/pull calls for one pipeline are
// never concurrent with each other even though multiple pipelines'
// queues run their workers in parallel.
type Queue struct {
	adapter engine.Adapter
	cb      Callbacks

	maxSize         int
	notifyThreshold int

	mu              sync.Mutex
	pending         []engine.Input
	sinceNotify     int
	flushWaiters    []chan error
	cancelFlushCall context.CancelFunc
	// generation increments on every Reset so a worker goroutine
	// blocked inside an in-flight adapter.PushInput/Flush call can tell,
	// once it returns, whether the state it's about to mutate was
	// already discarded out from under it.
	generation int

	wakeCh chan struct{}
	hostCh chan func()

	group      *errgroup.Group
	cancelWork context.CancelFunc
	closeOnce  sync.Once
}

// New builds a Queue bound to adapter, starts its worker and host
// dispatch goroutines, and begins accepting Enqueue calls immediately.
func New(adapter engine.Adapter, cfg config.QueueConfig, cb Callbacks) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	group, groupCtx := errgroup.WithContext(ctx)

	q := &Queue{
		adapter:         adapter,
		cb:              cb,
		maxSize:         cfg.MaxSize,
		notifyThreshold: cfg.NotifyThreshold,
		wakeCh:          make(chan struct{}, 1),
		hostCh:          make(chan func(), 64),
		group:           group,
		cancelWork:      cancel,
	}
	if q.maxSize <= 0 {
		q.maxSize = 64
	}
	if q.notifyThreshold <= 0 {
		q.notifyThreshold = 1
	}

	group.Go(func() error { q.runDispatch(ctx); return nil })
	group.Go(func() error { q.runWorker(groupCtx); return nil })
	return q
}

// Size returns the number of inputs currently queued or in-flight to
// the engine (encodeQueueSize/decodeQueueSize in the host API).
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// PostError delivers err to Callbacks.OnError through the same
// dispatch goroutine as every other callback, for callers that need to
// reject an input without ever enqueuing it (e.g. a pipeline rejecting
// a non-keyframe as the first input after configure).
func (q *Queue) PostError(err error) {
	q.postError(err)
}

// Enqueue appends an input to the tail of the queue. It fails
// synchronously with a QuotaExceededError-tagged error once the queue
// holds maxSize items.
func (q *Queue) Enqueue(in engine.Input) error {
	q.mu.Lock()
	if len(q.pending) >= q.maxSize {
		size := len(q.pending)
		q.mu.Unlock()
		return codecerr.QuotaExceeded(size+1, q.maxSize)
	}
	q.pending = append(q.pending, in)
	q.mu.Unlock()

	q.wake()
	return nil
}

// Flush blocks until every queued input has produced its output (or
// failed) and the adapter reports idle, then returns. A concurrent
// Reset/Close rejects the wait with an AbortError; ctx cancellation
// rejects it with ctx.Err().
func (q *Queue) Flush(ctx context.Context) error {
	result := make(chan error, 1)
	q.mu.Lock()
	q.flushWaiters = append(q.flushWaiters, result)
	q.mu.Unlock()

	q.wake()

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset discards every queued input and buffered output, aborts any
// in-flight adapter.Flush call, rejects pending Flush waiters with
// AbortError, and resets the adapter. It never invokes Callbacks.OnError.
func (q *Queue) Reset() {
	q.mu.Lock()
	q.pending = nil
	q.sinceNotify = 0
	q.generation++
	waiters := q.flushWaiters
	q.flushWaiters = nil
	cancel := q.cancelFlushCall
	q.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, w := range waiters {
		w <- codecerr.AbortError("flush aborted by reset()")
	}
	q.adapter.Reset()
}

// Close stops the worker permanently and behaves like Reset for any
// in-flight work. Idempotent; safe to call more than once.
func (q *Queue) Close() {
	q.Reset()
	q.closeOnce.Do(func() {
		q.cancelWork()
	})
	q.group.Wait()
}

// Wait blocks until the worker and dispatch goroutines have exited.
// Only returns once Close has been called; intended for tests that
// need to observe a clean shutdown with no goroutine leak.
func (q *Queue) Wait() error {
	return q.group.Wait()
}

func (q *Queue) wake() {
	select {
	case q.wakeCh <- struct{}{}:
	default:
	}
}

// runDispatch is the only goroutine that ever invokes host callbacks,
// so Enqueue/Flush/Reset never re-enter caller code.
func (q *Queue) runDispatch(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q.hostCh:
			fn()
		}
	}
}

func (q *Queue) postOutput(out engine.Output) {
	if q.cb.OnOutput == nil {
		return
	}
	select {
	case q.hostCh <- func() { q.cb.OnOutput(out) }:
	default:
		go func() { q.hostCh <- func() { q.cb.OnOutput(out) } }()
	}
}

func (q *Queue) postError(err error) {
	if q.cb.OnError == nil {
		return
	}
	select {
	case q.hostCh <- func() { q.cb.OnError(err) }:
	default:
		go func() { q.hostCh <- func() { q.cb.OnError(err) } }()
	}
}

func (q *Queue) postDequeue() {
	if q.cb.OnDequeue == nil {
		return
	}
	select {
	case q.hostCh <- q.cb.OnDequeue:
	default:
		go func() { q.hostCh <- q.cb.OnDequeue }()
	}
}

// runWorker drains q.pending into the adapter, forwards ready outputs,
// and services Flush waiters once the adapter goes idle.
func (q *Queue) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wakeCh:
		}
		q.drainPending(ctx)
		q.serviceFlushWaiters(ctx)
	}
}

func (q *Queue) drainPending(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			return
		}
		item := q.pending[0]
		gen := q.generation
		q.mu.Unlock()

		err := q.adapter.PushInput(item)

		q.mu.Lock()
		if q.generation != gen {
			// A Reset ran while PushInput was in flight; the item we
			// just pushed is no longer at the head (or the queue is
			// gone entirely). Abandon this result.
			q.mu.Unlock()
			return
		}
		if errors.Is(err, engine.ErrSaturated) {
			q.mu.Unlock()
			q.drainOutputs()
			time.Sleep(saturatedBackoff)
			continue
		}

		q.pending = q.pending[1:]
		q.sinceNotify++
		newSize := len(q.pending)
		fire := q.sinceNotify >= q.notifyThreshold || newSize == 0
		if fire {
			q.sinceNotify = 0
		}
		q.mu.Unlock()
		if fire {
			q.postDequeue()
		}

		if err != nil {
			q.postError(err)
		}
		q.drainOutputs()
	}
}

func (q *Queue) drainOutputs() {
	for {
		out, ok := q.adapter.PullOutput()
		if !ok {
			return
		}
		q.postOutput(out)
	}
}

func (q *Queue) serviceFlushWaiters(ctx context.Context) {
	q.mu.Lock()
	if len(q.pending) != 0 || len(q.flushWaiters) == 0 {
		q.mu.Unlock()
		return
	}
	waiters := q.flushWaiters
	q.flushWaiters = nil
	gen := q.generation
	flushCtx, cancel := context.WithCancel(ctx)
	q.cancelFlushCall = cancel
	q.mu.Unlock()

	// drainPending already fired a dequeue notification for the item
	// that emptied the queue.
	err := q.adapter.Flush(flushCtx)
	if flushCtx.Err() != nil {
		// Cancelled by Reset()/Close(), not a genuine engine failure.
		err = codecerr.AbortError("flush aborted")
	}
	q.drainOutputs()

	q.mu.Lock()
	q.cancelFlushCall = nil
	resetHappened := q.generation != gen
	q.mu.Unlock()
	cancel()

	if resetHappened {
		// Reset() already rejected these waiters directly; don't
		// deliver a second, possibly conflicting result.
		return
	}
	for _, w := range waiters {
		select {
		case w <- err:
		default:
		}
	}
}
