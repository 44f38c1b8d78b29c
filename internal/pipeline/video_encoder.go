package pipeline

import (
	"context"
	"strings"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// VideoEncoderConfig is the host-facing configuration dictionary for a
// VideoEncoder's configure() call.
type VideoEncoderConfig struct {
	Codec                string
	Width                int
	Height               int
	DisplayWidth         *int
	DisplayHeight        *int
	HardwareAcceleration string
	OptimizeForLatency   bool
	ColorSpace           media.ColorSpace
	ScalabilityMode      string
	BitstreamFormat      string
	BitrateBps           int
}

func buildVideoEncoderDescriptor(cfg VideoEncoderConfig) (engine.Descriptor, error) {
	if strings.TrimSpace(cfg.Codec) == "" {
		return engine.Descriptor{}, codecerr.TypeError("codec is required")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return engine.Descriptor{}, codecerr.TypeError("width and height must be > 0")
	}
	if (cfg.DisplayWidth == nil) != (cfg.DisplayHeight == nil) {
		return engine.Descriptor{}, codecerr.TypeError("displayWidth and displayHeight must both be set or both be absent")
	}
	accel, err := normalizeHardwareAcceleration(cfg.HardwareAcceleration)
	if err != nil {
		return engine.Descriptor{}, err
	}

	desc := engine.Descriptor{
		PipelineKind:         engine.KindVideoEncoder,
		Codec:                cfg.Codec,
		CodedWidth:           cfg.Width,
		CodedHeight:          cfg.Height,
		HardwareAcceleration: accel,
		OptimizeForLatency:   cfg.OptimizeForLatency,
		ColorSpace:           cfg.ColorSpace,
		ScalabilityMode:      cfg.ScalabilityMode,
		BitstreamFormat:      cfg.BitstreamFormat,
		BitrateBps:           cfg.BitrateBps,
	}
	if cfg.DisplayWidth != nil {
		desc.DisplayWidth = *cfg.DisplayWidth
		desc.DisplayHeight = *cfg.DisplayHeight
	}
	return desc, nil
}

func normalizeHardwareAcceleration(accel string) (string, error) {
	if accel == "" {
		return "no-preference", nil
	}
	switch accel {
	case "no-preference", "prefer-hardware", "prefer-software":
		return accel, nil
	default:
		return "", codecerr.TypeError("hardwareAcceleration must be one of no-preference, prefer-hardware, prefer-software, got %q", accel)
	}
}

func translateVideoEncoderOutput(out engine.Output) OutputEvent {
	return OutputEvent{VideoChunk: out.VideoChunk, Metadata: out.Metadata}
}

// VideoEncoder turns raw VideoFrames into EncodedVideoChunks.
type VideoEncoder struct {
	b *base
}

// NewVideoEncoder constructs an unconfigured VideoEncoder bound to the
// named engine and the given queue tuning. cb is invoked for every
// output/error/dequeue event from the encoder's own dispatch goroutine.
func NewVideoEncoder(factory engine.Factory, queueCfg config.QueueConfig, cb Callbacks) *VideoEncoder {
	return &VideoEncoder{b: newBase(engine.KindVideoEncoder, factory, queueCfg, cb, false, statelessTranslate(translateVideoEncoderOutput))}
}

// Configure validates cfg and (re)configures the encoder. A prior
// configuration's outstanding work is discarded without firing an
// error callback.
func (e *VideoEncoder) Configure(cfg VideoEncoderConfig) error {
	desc, err := buildVideoEncoderDescriptor(cfg)
	if err != nil {
		return err
	}
	return e.b.configure(desc)
}

// Encode submits a frame for encoding. keyFrameHint requests (but does
// not guarantee) a key chunk; the encoder may still upgrade any frame
// to a key chunk on its own.
func (e *VideoEncoder) Encode(frame *media.VideoFrame, keyFrameHint bool) error {
	return e.b.submit(engine.Input{VideoFrame: frame, KeyFrameHint: keyFrameHint})
}

// Flush blocks until every submitted frame has produced its chunk.
func (e *VideoEncoder) Flush(ctx context.Context) error { return e.b.flush(ctx) }

// Reset discards queued work and returns the encoder to unconfigured.
func (e *VideoEncoder) Reset() { e.b.reset() }

// Close permanently shuts the encoder down.
func (e *VideoEncoder) Close() { e.b.close() }

// EncodeQueueSize reports how many frames are queued or in flight.
func (e *VideoEncoder) EncodeQueueSize() int { return e.b.queueSize() }

// State reports the encoder's current lifecycle state, for inspection
// surfaces (internal/httpstats).
func (e *VideoEncoder) State() string { return e.b.stateString() }

// Kind identifies this pipeline as a video encoder.
func (e *VideoEncoder) Kind() string { return e.b.kindString() }

// ID returns this encoder instance's stable identifier, for inspection
// surfaces and log correlation.
func (e *VideoEncoder) ID() string { return e.b.idString() }

// QueueSize is an alias for EncodeQueueSize satisfying the uniform
// Session interface internal/httpstats inspects across all four kinds.
func (e *VideoEncoder) QueueSize() int { return e.EncodeQueueSize() }

// IsVideoEncoderConfigSupported is the static capability check: it
// never mutates or requires a VideoEncoder instance, and never errors
// for an unrecognized codec — it reports Supported: false instead.
func IsVideoEncoderConfigSupported(factory engine.Factory, cfg VideoEncoderConfig) SupportReport {
	desc, err := buildVideoEncoderDescriptor(cfg)
	if err != nil {
		return SupportReport{Supported: false}
	}
	return factory(engine.KindVideoEncoder).IsConfigSupported(desc)
}
