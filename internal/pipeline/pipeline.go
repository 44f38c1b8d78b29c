// Package pipeline implements the shared codec pipeline state machine
// (unconfigured/configured/closed) and specializes it into VideoEncoder,
// VideoDecoder, AudioEncoder and AudioDecoder. Each wraps one
// internal/queue.Queue bound to an internal/engine.Adapter obtained
// from the engine registry; the pipeline owns config validation,
// descriptor translation, and the decoder's first-chunk-must-be-key
// rule, while the queue owns submission ordering and callback delivery.
package pipeline

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

type state string

const (
	stateUnconfigured state = "unconfigured"
	stateConfigured   state = "configured"
	stateClosed       state = "closed"
)

// OutputEvent is what a pipeline delivers to Callbacks.OnOutput: a
// tagged union of the one payload type its kind produces, plus any
// engine metadata (decoderConfig, svc.temporalLayerId, and similar).
type OutputEvent struct {
	VideoFrame *media.VideoFrame
	AudioData  *media.AudioData
	VideoChunk *media.EncodedVideoChunk
	AudioChunk *media.EncodedAudioChunk
	Metadata   map[string]any
}

// Callbacks are the host-facing delivery points, forwarded unchanged
// from the underlying queue.Callbacks — every call happens on the
// queue's dispatch goroutine, never re-entrant from Configure/Encode/
// Decode/Flush/Reset/Close.
type Callbacks struct {
	OnOutput  func(OutputEvent)
	OnError   func(error)
	OnDequeue func()
}

// SupportReport is the result of a static isConfigSupported check.
type SupportReport = engine.SupportReport

// base implements the state machine shared by all four pipeline kinds.
// Each kind-specific type embeds it and adds config validation, a
// descriptor builder, and its typed submit method.
type base struct {
	mu sync.Mutex
	st state

	id        string
	kind      engine.PipelineKind
	factory   engine.Factory
	queueCfg  config.QueueConfig
	cb        Callbacks
	translate func(engine.Descriptor) func(engine.Output) OutputEvent

	q               queueHandle
	requireKeyFirst bool
	sawFirstInput   bool
}

// queueHandle is the subset of *queue.Queue a pipeline drives. Declared
// as an interface so pipeline tests can substitute a lighter fake
// without spinning up real worker goroutines.
type queueHandle interface {
	Size() int
	Enqueue(engine.Input) error
	Flush(ctx context.Context) error
	Reset()
	Close()
	PostError(error)
}

func newBase(kind engine.PipelineKind, factory engine.Factory, queueCfg config.QueueConfig, cb Callbacks, requireKeyFirst bool, translate func(engine.Descriptor) func(engine.Output) OutputEvent) *base {
	return &base{
		st:              stateUnconfigured,
		id:              ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String(),
		kind:            kind,
		factory:         factory,
		queueCfg:        queueCfg,
		cb:              cb,
		requireKeyFirst: requireKeyFirst,
		translate:       translate,
	}
}

// newQueueFunc builds each configuration's queue. It is a package
// variable so a test can substitute a fake; by default it is
// newRealQueue (internal/pipeline/queue_adapter.go).
var newQueueFunc = newRealQueue

// configure validates desc is already built (kind-specific files do the
// TypeError-raising translation from a host config struct), then
// applies it: a fresh adapter is built and configured, a fresh queue
// wraps it, and any previous queue is closed after the swap so no
// in-flight callback can race with the new configuration.
func (b *base) configure(desc engine.Descriptor) error {
	b.mu.Lock()
	if b.st == stateClosed {
		b.mu.Unlock()
		return codecerr.InvalidStateError("pipeline is closed")
	}
	adapter := b.factory(b.kind)
	if err := adapter.Configure(desc); err != nil {
		b.mu.Unlock()
		return err
	}

	qcb := queueCallbacks(b.translate(desc), b.cb)
	newQ := newQueueFunc(adapter, b.queueCfg, qcb)

	oldQ := b.q
	b.q = newQ
	b.st = stateConfigured
	b.sawFirstInput = false
	b.mu.Unlock()

	if oldQ != nil {
		oldQ.Close()
	}
	return nil
}

// statelessTranslate adapts a translator that doesn't need the
// configured descriptor into the per-configure translate factory base
// expects, so encoders and the audio decoder can keep writing a plain
// func(engine.Output) OutputEvent.
func statelessTranslate(fn func(engine.Output) OutputEvent) func(engine.Descriptor) func(engine.Output) OutputEvent {
	return func(engine.Descriptor) func(engine.Output) OutputEvent {
		return fn
	}
}

func queueCallbacks(translate func(engine.Output) OutputEvent, cb Callbacks) queueCallbacksT {
	return queueCallbacksT{
		OnOutput: func(out engine.Output) {
			if cb.OnOutput != nil {
				cb.OnOutput(translate(out))
			}
		},
		OnError:   cb.OnError,
		OnDequeue: cb.OnDequeue,
	}
}

// queueCallbacksT mirrors queue.Callbacks without importing internal/queue
// from this file (kept in queue_adapter.go to isolate the concrete
// dependency behind queueHandle for tests).
type queueCallbacksT struct {
	OnOutput  func(engine.Output)
	OnError   func(error)
	OnDequeue func()
}

func (b *base) submit(in engine.Input) error {
	b.mu.Lock()
	if b.st != stateConfigured {
		b.mu.Unlock()
		return codecerr.InvalidStateError("pipeline is not configured")
	}
	q := b.q
	first := !b.sawFirstInput
	b.sawFirstInput = true
	requireKeyFirst := b.requireKeyFirst
	b.mu.Unlock()

	if requireKeyFirst && first && !isKeyInput(in) {
		q.PostError(codecerr.DataError("first input after configure() must be a keyframe"))
		return nil
	}
	return q.Enqueue(in)
}

func isKeyInput(in engine.Input) bool {
	if in.VideoChunk != nil {
		return in.VideoChunk.Type() == media.ChunkTypeKey
	}
	if in.AudioChunk != nil {
		return in.AudioChunk.Type() == media.ChunkTypeKey
	}
	return true
}

func (b *base) queueSize() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.q == nil {
		return 0
	}
	return b.q.Size()
}

func (b *base) flush(ctx context.Context) error {
	b.mu.Lock()
	if b.st != stateConfigured {
		b.mu.Unlock()
		return codecerr.InvalidStateError("flush requires a configured pipeline")
	}
	q := b.q
	b.mu.Unlock()
	return q.Flush(ctx)
}

func (b *base) reset() {
	b.mu.Lock()
	if b.st == stateClosed {
		b.mu.Unlock()
		return
	}
	q := b.q
	b.st = stateUnconfigured
	b.q = nil
	b.sawFirstInput = false
	b.mu.Unlock()

	if q != nil {
		q.Reset()
		q.Close()
	}
}

func (b *base) close() {
	b.mu.Lock()
	if b.st == stateClosed {
		b.mu.Unlock()
		return
	}
	q := b.q
	b.st = stateClosed
	b.q = nil
	b.mu.Unlock()

	if q != nil {
		q.Close()
	}
}

func (b *base) state() state {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.st
}

// stateString exposes the state machine's current state as a plain
// string for inspection surfaces (internal/httpstats) that shouldn't
// need to import this package's unexported state type.
func (b *base) stateString() string {
	return string(b.state())
}

// kindString exposes which of the four pipeline kinds this is.
func (b *base) kindString() string {
	return string(b.kind)
}

// idString returns this pipeline instance's ULID, assigned once at
// construction. Monotonic and lexically sortable, so a host (or
// internal/httpstats) can use it directly as a registry/log key.
func (b *base) idString() string {
	return b.id
}
