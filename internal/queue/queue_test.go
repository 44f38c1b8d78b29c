package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/engine/enginetest"
)

func testConfig() config.QueueConfig {
	return config.QueueConfig{TargetSize: 2, MaxSize: 4, NotifyThreshold: 1}
}

type recorder struct {
	mu      sync.Mutex
	outputs []engine.Output
	errors  []error
	dequeue int
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnOutput:  func(o engine.Output) { r.mu.Lock(); r.outputs = append(r.outputs, o); r.mu.Unlock() },
		OnError:   func(e error) { r.mu.Lock(); r.errors = append(r.errors, e); r.mu.Unlock() },
		OnDequeue: func() { r.mu.Lock(); r.dequeue++; r.mu.Unlock() },
	}
}

func (r *recorder) outputCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outputs)
}

func (r *recorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func (r *recorder) dequeueCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dequeue
}

func TestEnqueue_RejectsBeyondHardLimit(t *testing.T) {
	fake := enginetest.New()
	gate := make(chan struct{})
	fake.PushInputFunc = func(engine.Input) error { <-gate; return nil }
	rec := &recorder{}
	q := New(fake, testConfig(), rec.callbacks())
	defer func() { close(gate); q.Close() }()

	for i := 0; i < 4; i++ {
		require.NoError(t, q.Enqueue(engine.Input{}))
	}
	err := q.Enqueue(engine.Input{})
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindQuotaExceeded))
	assert.Contains(t, err.Error(), "QuotaExceededError")
	assert.Contains(t, err.Error(), "backpressure")
}

func TestQueue_DeliversOutputsInFIFOOrder(t *testing.T) {
	fake := enginetest.New()
	var mu sync.Mutex
	var seq int
	fake.PushInputFunc = func(in engine.Input) error {
		mu.Lock()
		defer mu.Unlock()
		fake.QueueOutput(engine.Output{Metadata: map[string]any{"seq": seq}})
		seq++
		return nil
	}
	rec := &recorder{}
	q := New(fake, testConfig(), rec.callbacks())
	defer q.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(engine.Input{}))
	}

	require.Eventually(t, func() bool { return rec.outputCount() == 3 }, time.Second, time.Millisecond)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	for i, out := range rec.outputs {
		assert.Equal(t, i, out.Metadata["seq"])
	}
}

func TestQueue_FlushBlocksUntilDrainedThenResolves(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error {
		fake.QueueOutput(engine.Output{})
		return nil
	}
	rec := &recorder{}
	q := New(fake, testConfig(), rec.callbacks())
	defer q.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(engine.Input{}))
	}

	err := q.Flush(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, q.Size())
	assert.Equal(t, 1, fake.FlushCalls())
}

func TestQueue_ResetRejectsFlushWithAbortAndNoErrorCallback(t *testing.T) {
	fake := enginetest.New()
	block := make(chan struct{})
	fake.PushInputFunc = func(in engine.Input) error {
		<-block
		return nil
	}
	rec := &recorder{}
	q := New(fake, testConfig(), rec.callbacks())
	defer q.Close()

	require.NoError(t, q.Enqueue(engine.Input{}))
	require.NoError(t, q.Enqueue(engine.Input{}))

	flushErr := make(chan error, 1)
	go func() { flushErr <- q.Flush(context.Background()) }()

	require.Eventually(t, func() bool { return true }, 10*time.Millisecond, time.Millisecond)
	q.Reset()
	close(block)

	select {
	case err := <-flushErr:
		assert.True(t, codecerr.IsKind(err, codecerr.KindAbortError))
	case <-time.After(time.Second):
		t.Fatal("flush did not resolve after reset")
	}

	assert.Equal(t, 0, q.Size())
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.errorCount())
	assert.Equal(t, 1, fake.ResetCalls())
}

func TestQueue_DequeueNotificationFiresAtLeastOncePerFlush(t *testing.T) {
	fake := enginetest.New()
	fake.PushInputFunc = func(in engine.Input) error { return nil }
	rec := &recorder{}
	q := New(fake, testConfig(), rec.callbacks())
	defer q.Close()

	require.NoError(t, q.Enqueue(engine.Input{}))
	require.NoError(t, q.Flush(context.Background()))

	assert.GreaterOrEqual(t, rec.dequeueCount(), 1)
}

func TestQueue_CloseIsIdempotent(t *testing.T) {
	fake := enginetest.New()
	q := New(fake, testConfig(), Callbacks{})
	q.Close()
	assert.NotPanics(t, func() { q.Close() })
}
