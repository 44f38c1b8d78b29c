// Package engine defines the codec engine adapter capability set: the
// only seam between a pipeline (internal/pipeline) and a native or
// in-process codec engine. Pipelines never construct media objects or
// inspect bitstreams directly — they call through an Adapter obtained
// from the registry.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// PipelineKind identifies which of the four pipeline shapes an adapter
// backs. The capability set (configure/push/pull/flush/reset/is-
// supported) is identical across kinds; only the payload types differ.
type PipelineKind string

// Recognized pipeline kinds.
const (
	KindVideoEncoder PipelineKind = "video-encoder"
	KindVideoDecoder PipelineKind = "video-decoder"
	KindAudioEncoder PipelineKind = "audio-encoder"
	KindAudioDecoder PipelineKind = "audio-decoder"
)

// Descriptor is the canonicalized configuration passed to Configure and
// IsConfigSupported. It is a superset covering all four pipeline
// kinds; a given kind only reads the fields relevant to it.
type Descriptor struct {
	PipelineKind PipelineKind
	Codec        string

	// Video fields.
	CodedWidth           int
	CodedHeight          int
	DisplayWidth         int
	DisplayHeight        int
	HardwareAcceleration string // no-preference | prefer-hardware | prefer-software
	OptimizeForLatency   bool
	ColorSpace           media.ColorSpace
	ScalabilityMode      string
	BitstreamFormat      string // avc/hevc non-AnnexB variant, "" otherwise
	BitrateBps           int

	// Audio fields.
	SampleRate       int
	NumberOfChannels int
	AudioFormat      string // e.g. "aac" | "adts"
}

// Input is a tagged union of the four payload types a pipeline may
// push to its adapter: a raw frame/AudioData for an encoder, or an
// encoded chunk for a decoder.
type Input struct {
	VideoFrame *media.VideoFrame
	AudioData  *media.AudioData
	VideoChunk *media.EncodedVideoChunk
	AudioChunk *media.EncodedAudioChunk
	// KeyFrameHint is the host's encode(frame, {keyFrame}) request; video
	// encoders may upgrade a frame to a key chunk even when false (e.g.
	// the first chunk after Configure), never downgrade one set true.
	KeyFrameHint bool
}

// Output is a tagged union of what PullOutput returns, plus any
// metadata the pipeline must merge into its output event: decoderConfig,
// svc.temporalLayerId, colorSpace echo, and similar codec-specific
// obligations.
type Output struct {
	VideoFrame *media.VideoFrame
	AudioData  *media.AudioData
	VideoChunk *media.EncodedVideoChunk
	AudioChunk *media.EncodedAudioChunk
	Metadata   map[string]any
}

// SupportReport is the result of IsConfigSupported: whether the engine
// can service the descriptor, plus the canonical echoed form with
// unknown properties stripped.
type SupportReport struct {
	Supported    bool
	EchoedConfig Descriptor
}

// Adapter is the capability set a pipeline drives. All
// methods except Flush complete synchronously; Flush blocks until the
// engine has drained every buffered output, so pipelines call it from
// a worker goroutine rather than the host callback path.
type Adapter interface {
	// Configure validates and applies desc, discarding any prior
	// configuration. Returns a *codecerr.Error of kind NotSupportedError
	// if the engine cannot service desc.
	Configure(desc Descriptor) error

	// PushInput submits one frame/AudioData/chunk. Returns
	// ErrSaturated if the adapter cannot accept more input right now;
	// the caller (the queue worker) should retry after a PullOutput.
	PushInput(in Input) error

	// PullOutput returns the next ready output, if any, without
	// blocking.
	PullOutput() (Output, bool)

	// Flush signals end-of-stream and blocks until every buffered
	// input has produced its output and the engine is idle. ctx
	// cancellation aborts the wait with ctx.Err().
	Flush(ctx context.Context) error

	// Reset aborts all pending work and discards buffered outputs,
	// returning the adapter to its pre-Configure state.
	Reset()

	// IsConfigSupported reports engine capability for desc without
	// mutating adapter state. Must never panic or error for an
	// unrecognized codec string — it reports Supported: false instead.
	IsConfigSupported(desc Descriptor) SupportReport
}

// ErrSaturated is returned by PushInput when the adapter's internal
// buffering is full; it is not a host-visible error, only a signal for
// the queue worker to back off.
var ErrSaturated = fmt.Errorf("engine: saturated")

// Factory constructs a fresh, unconfigured Adapter instance for the
// requested pipeline kind. Pipelines get one adapter per pipeline
// instance, never shared.
type Factory func(kind PipelineKind) Adapter

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

// Register adds a named engine factory to the process-wide registry.
// Called from package init() by engine implementations (e.g.
// internal/engine/refengine). Re-registering the same name overwrites
// the prior factory.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Lookup resolves a registered engine name (config.EngineConfig.Kind)
// to its Factory.
func Lookup(name string) (Factory, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// CanonicalizeCodec resolves codecString through the codec registry,
// returning the recognized Descriptor family or ok=false for an
// unrecognized string. It returns exactly what codec.Lookup returns;
// the reference engine's adapters call codec.Lookup directly.
func CanonicalizeCodec(codecString string) (codec.Descriptor, bool) {
	return codec.Lookup(codecString)
}
