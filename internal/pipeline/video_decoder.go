package pipeline

import (
	"context"
	"strings"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// VideoDecoderConfig is the host-facing configuration dictionary for a
// VideoDecoder's configure() call. CodedWidth/CodedHeight are optional:
// a decoder may learn them from the bitstream.
type VideoDecoderConfig struct {
	Codec                string
	CodedWidth           *int
	CodedHeight          *int
	DisplayWidth         *int
	DisplayHeight        *int
	HardwareAcceleration string
	OptimizeForLatency   bool
	ColorSpace           media.ColorSpace
}

func buildVideoDecoderDescriptor(cfg VideoDecoderConfig) (engine.Descriptor, error) {
	if strings.TrimSpace(cfg.Codec) == "" {
		return engine.Descriptor{}, codecerr.TypeError("codec is required")
	}
	if (cfg.DisplayWidth == nil) != (cfg.DisplayHeight == nil) {
		return engine.Descriptor{}, codecerr.TypeError("displayWidth and displayHeight must both be set or both be absent")
	}
	accel, err := normalizeHardwareAcceleration(cfg.HardwareAcceleration)
	if err != nil {
		return engine.Descriptor{}, err
	}

	desc := engine.Descriptor{
		PipelineKind:         engine.KindVideoDecoder,
		Codec:                cfg.Codec,
		HardwareAcceleration: accel,
		OptimizeForLatency:   cfg.OptimizeForLatency,
		ColorSpace:           cfg.ColorSpace,
	}
	if cfg.CodedWidth != nil {
		desc.CodedWidth = *cfg.CodedWidth
	}
	if cfg.CodedHeight != nil {
		desc.CodedHeight = *cfg.CodedHeight
	}
	if cfg.DisplayWidth != nil {
		desc.DisplayWidth = *cfg.DisplayWidth
		desc.DisplayHeight = *cfg.DisplayHeight
	}
	return desc, nil
}

// displayAspectMetadata is merged onto every decoded frame's output
// metadata when the configure() call specified displayWidth/Height.
// The frame's own geometry accessors stay derived from its coded/visible
// rect; overriding visibleRect post-decode to force an aspect ratio
// risks violating the "visibleRect within codedRect" invariant when the
// configured aspect implies upscaling, so the ratio is surfaced as a
// hint for the host to apply instead.
func displayAspectMetadata(desc engine.Descriptor) map[string]any {
	if desc.DisplayWidth <= 0 || desc.DisplayHeight <= 0 {
		return nil
	}
	return map[string]any{
		"displayAspectWidth":  desc.DisplayWidth,
		"displayAspectHeight": desc.DisplayHeight,
	}
}

// translateVideoDecoderOutput builds a translator bound to the
// descriptor from the configure() call that owns the queue invoking
// it, so every output from one configuration's queue sees a consistent
// desc even while a superseding configure() swaps base.desc under lock.
func translateVideoDecoderOutput(desc engine.Descriptor) func(engine.Output) OutputEvent {
	aspect := displayAspectMetadata(desc)
	return func(out engine.Output) OutputEvent {
		return OutputEvent{VideoFrame: out.VideoFrame, Metadata: mergeMetadata(out.Metadata, aspect)}
	}
}

func mergeMetadata(dst map[string]any, extra map[string]any) map[string]any {
	if len(extra) == 0 {
		return dst
	}
	out := make(map[string]any, len(dst)+len(extra))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// VideoDecoder turns EncodedVideoChunks into VideoFrames.
type VideoDecoder struct {
	b *base
}

// NewVideoDecoder constructs an unconfigured VideoDecoder.
func NewVideoDecoder(factory engine.Factory, queueCfg config.QueueConfig, cb Callbacks) *VideoDecoder {
	return &VideoDecoder{b: newBase(engine.KindVideoDecoder, factory, queueCfg, cb, true, translateVideoDecoderOutput)}
}

// Configure validates cfg and (re)configures the decoder.
func (d *VideoDecoder) Configure(cfg VideoDecoderConfig) error {
	desc, err := buildVideoDecoderDescriptor(cfg)
	if err != nil {
		return err
	}
	return d.b.configure(desc)
}

// Decode submits an encoded chunk. If this is the first input since the
// last configure() and chunk is not a key chunk, the chunk is dropped
// and a DataError is delivered asynchronously via the error callback;
// the decoder stays configured.
func (d *VideoDecoder) Decode(chunk *media.EncodedVideoChunk) error {
	return d.b.submit(engine.Input{VideoChunk: chunk})
}

// Flush blocks until every submitted chunk has produced its frame.
func (d *VideoDecoder) Flush(ctx context.Context) error { return d.b.flush(ctx) }

// Reset discards queued work and returns the decoder to unconfigured.
func (d *VideoDecoder) Reset() { d.b.reset() }

// Close permanently shuts the decoder down.
func (d *VideoDecoder) Close() { d.b.close() }

// DecodeQueueSize reports how many chunks are queued or in flight.
func (d *VideoDecoder) DecodeQueueSize() int { return d.b.queueSize() }

// State reports the decoder's current lifecycle state, for inspection
// surfaces (internal/httpstats).
func (d *VideoDecoder) State() string { return d.b.stateString() }

// Kind identifies this pipeline as a video decoder.
func (d *VideoDecoder) Kind() string { return d.b.kindString() }

// ID returns this decoder instance's stable identifier, for inspection
// surfaces and log correlation.
func (d *VideoDecoder) ID() string { return d.b.idString() }

// QueueSize is an alias for DecodeQueueSize satisfying the uniform
// Session interface internal/httpstats inspects across all four kinds.
func (d *VideoDecoder) QueueSize() int { return d.DecodeQueueSize() }

// IsVideoDecoderConfigSupported is the static capability check.
func IsVideoDecoderConfigSupported(factory engine.Factory, cfg VideoDecoderConfig) SupportReport {
	desc, err := buildVideoDecoderDescriptor(cfg)
	if err != nil {
		return SupportReport{Supported: false}
	}
	return factory(engine.KindVideoDecoder).IsConfigSupported(desc)
}
