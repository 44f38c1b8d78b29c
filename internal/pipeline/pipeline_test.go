package pipeline

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

func testQueueConfig() config.QueueConfig {
	return config.QueueConfig{TargetSize: 2, MaxSize: 8, NotifyThreshold: 1}
}

type eventRecorder struct {
	mu      sync.Mutex
	outputs []OutputEvent
	errors  []error
	dequeue int
}

func (r *eventRecorder) callbacks() Callbacks {
	return Callbacks{
		OnOutput:  func(e OutputEvent) { r.mu.Lock(); r.outputs = append(r.outputs, e); r.mu.Unlock() },
		OnError:   func(e error) { r.mu.Lock(); r.errors = append(r.errors, e); r.mu.Unlock() },
		OnDequeue: func() { r.mu.Lock(); r.dequeue++; r.mu.Unlock() },
	}
}

func (r *eventRecorder) outputCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.outputs)
}

func (r *eventRecorder) errorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errors)
}

func (r *eventRecorder) lastError() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.errors) == 0 {
		return nil
	}
	return r.errors[len(r.errors)-1]
}

// TestBase_SubmitBeforeConfigureFails exercises the shared state machine
// directly, independent of any one pipeline kind.
func TestBase_SubmitBeforeConfigureFails(t *testing.T) {
	rec := &eventRecorder{}
	b := newBase(engine.KindVideoEncoder, enginetest.Factory(enginetest.New), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))

	err := b.submit(engine.Input{})
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))
}

func TestBase_FlushBeforeConfigureFails(t *testing.T) {
	rec := &eventRecorder{}
	b := newBase(engine.KindVideoEncoder, enginetest.Factory(enginetest.New), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))

	err := b.flush(context.Background())
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))
}

func TestBase_SubmitAfterCloseFails(t *testing.T) {
	rec := &eventRecorder{}
	b := newBase(engine.KindVideoEncoder, enginetest.Factory(enginetest.New), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))
	require.NoError(t, b.configure(engine.Descriptor{}))
	b.close()

	err := b.submit(engine.Input{})
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))

	err = b.configure(engine.Descriptor{})
	require.Error(t, err)
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))
}

func TestBase_ResetNeverFiresErrorCallback(t *testing.T) {
	fake := enginetest.New()
	block := make(chan struct{})
	fake.PushInputFunc = func(engine.Input) error { <-block; return nil }
	rec := &eventRecorder{}
	b := newBase(engine.KindVideoEncoder, enginetest.Factory(func() *enginetest.FakeAdapter { return fake }), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))
	require.NoError(t, b.configure(engine.Descriptor{}))

	require.NoError(t, b.submit(engine.Input{}))
	require.Eventually(t, func() bool { return fake.Configured() }, time.Second, time.Millisecond)
	b.reset()
	close(block)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, rec.errorCount())
	assert.Equal(t, stateUnconfigured, b.state())
}

func TestBase_ReconfigureSwapsAdapterCleanly(t *testing.T) {
	rec := &eventRecorder{}
	var built []*enginetest.FakeAdapter
	factory := enginetest.Factory(func() *enginetest.FakeAdapter {
		f := enginetest.New()
		built = append(built, f)
		return f
	})
	b := newBase(engine.KindVideoEncoder, factory, testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))

	require.NoError(t, b.configure(engine.Descriptor{Codec: "a"}))
	require.NoError(t, b.configure(engine.Descriptor{Codec: "b"}))

	require.Len(t, built, 2)
	require.Eventually(t, func() bool { return built[0].ResetCalls() >= 1 }, time.Second, time.Millisecond)
	assert.Equal(t, "b", built[1].LastDescriptor().Codec)
}

func TestBase_IDIsStableAndUniquePerInstance(t *testing.T) {
	rec := &eventRecorder{}
	a := newBase(engine.KindVideoEncoder, enginetest.Factory(enginetest.New), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))
	b := newBase(engine.KindVideoEncoder, enginetest.Factory(enginetest.New), testQueueConfig(), rec.callbacks(), false, statelessTranslate(func(o engine.Output) OutputEvent { return OutputEvent{} }))

	assert.NotEmpty(t, a.idString())
	assert.NotEmpty(t, b.idString())
	assert.NotEqual(t, a.idString(), b.idString())
	assert.Equal(t, a.idString(), a.idString())
}
