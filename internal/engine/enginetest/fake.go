// Package enginetest provides a hand-written fake engine.Adapter for
// internal/pipeline's unit tests, so the pipeline state machine can be
// exercised without the reference engine's real frame/sample transform
// — the pipeline tests care about state transitions and callback
// discipline, not codec fidelity.
package enginetest

import (
	"context"
	"sync"

	"github.com/webcodecs-go/webcodecs-core/internal/engine"
)

// FakeAdapter is a scriptable engine.Adapter. Each method has an
// overridable *Func hook; when nil, a small default behavior applies.
// Safe for concurrent use since the pipeline under test may call it
// from its worker goroutine while the test inspects call logs.
type FakeAdapter struct {
	ConfigureFunc         func(engine.Descriptor) error
	PushInputFunc         func(engine.Input) error
	PullOutputFunc        func() (engine.Output, bool)
	FlushFunc             func(context.Context) error
	ResetFunc             func()
	IsConfigSupportedFunc func(engine.Descriptor) engine.SupportReport

	mu             sync.Mutex
	configured     bool
	lastDescriptor engine.Descriptor
	pushedInputs   []engine.Input
	pendingOutputs []engine.Output
	resetCalls     int
	flushCalls     int
}

// New returns a FakeAdapter with only default behavior.
func New() *FakeAdapter {
	return &FakeAdapter{}
}

// QueueOutput preloads an output PullOutput will return on a future
// call, in FIFO order, when PullOutputFunc is not overridden.
func (f *FakeAdapter) QueueOutput(out engine.Output) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pendingOutputs = append(f.pendingOutputs, out)
}

// Configured reports whether the last Configure call (default
// behavior) succeeded.
func (f *FakeAdapter) Configured() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configured
}

// LastDescriptor returns the descriptor passed to the most recent
// Configure call.
func (f *FakeAdapter) LastDescriptor() engine.Descriptor {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastDescriptor
}

// PushedInputs returns every input PushInput has received, in order.
func (f *FakeAdapter) PushedInputs() []engine.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]engine.Input, len(f.pushedInputs))
	copy(out, f.pushedInputs)
	return out
}

// ResetCalls returns how many times Reset has been invoked — tests use
// this to assert reset()/close() never re-enter the engine afterward.
func (f *FakeAdapter) ResetCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.resetCalls
}

// FlushCalls returns how many times Flush has been invoked.
func (f *FakeAdapter) FlushCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.flushCalls
}

func (f *FakeAdapter) Configure(desc engine.Descriptor) error {
	if f.ConfigureFunc != nil {
		return f.ConfigureFunc(desc)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = true
	f.lastDescriptor = desc
	f.pendingOutputs = nil
	return nil
}

func (f *FakeAdapter) PushInput(in engine.Input) error {
	if f.PushInputFunc != nil {
		return f.PushInputFunc(in)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushedInputs = append(f.pushedInputs, in)
	return nil
}

func (f *FakeAdapter) PullOutput() (engine.Output, bool) {
	if f.PullOutputFunc != nil {
		return f.PullOutputFunc()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pendingOutputs) == 0 {
		return engine.Output{}, false
	}
	out := f.pendingOutputs[0]
	f.pendingOutputs = f.pendingOutputs[1:]
	return out, true
}

func (f *FakeAdapter) Flush(ctx context.Context) error {
	f.mu.Lock()
	f.flushCalls++
	f.mu.Unlock()
	if f.FlushFunc != nil {
		return f.FlushFunc(ctx)
	}
	return ctx.Err()
}

func (f *FakeAdapter) Reset() {
	f.mu.Lock()
	f.resetCalls++
	f.mu.Unlock()
	if f.ResetFunc != nil {
		f.ResetFunc()
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = false
	f.pushedInputs = nil
	f.pendingOutputs = nil
}

func (f *FakeAdapter) IsConfigSupported(desc engine.Descriptor) engine.SupportReport {
	if f.IsConfigSupportedFunc != nil {
		return f.IsConfigSupportedFunc(desc)
	}
	return engine.SupportReport{Supported: true, EchoedConfig: desc}
}

// Factory adapts a FakeAdapter constructor into an engine.Factory for
// tests that exercise pipeline wiring through the registry.
func Factory(build func() *FakeAdapter) engine.Factory {
	return func(engine.PipelineKind) engine.Adapter { return build() }
}
