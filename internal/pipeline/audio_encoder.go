package pipeline

import (
	"context"
	"strings"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// AudioEncoderConfig is the host-facing configuration dictionary for an
// AudioEncoder's configure() call.
type AudioEncoderConfig struct {
	Codec            string
	SampleRate       int
	NumberOfChannels int
	BitrateBps       int
}

func buildAudioEncoderDescriptor(cfg AudioEncoderConfig) (engine.Descriptor, error) {
	if strings.TrimSpace(cfg.Codec) == "" {
		return engine.Descriptor{}, codecerr.TypeError("codec is required")
	}
	if cfg.SampleRate <= 0 {
		return engine.Descriptor{}, codecerr.TypeError("sampleRate must be > 0")
	}
	if cfg.NumberOfChannels <= 0 {
		return engine.Descriptor{}, codecerr.TypeError("numberOfChannels must be > 0")
	}

	return engine.Descriptor{
		PipelineKind:     engine.KindAudioEncoder,
		Codec:            cfg.Codec,
		SampleRate:       cfg.SampleRate,
		NumberOfChannels: cfg.NumberOfChannels,
		BitrateBps:       cfg.BitrateBps,
	}, nil
}

func translateAudioEncoderOutput(out engine.Output) OutputEvent {
	return OutputEvent{AudioChunk: out.AudioChunk, Metadata: out.Metadata}
}

// AudioEncoder turns raw AudioData into EncodedAudioChunks.
type AudioEncoder struct {
	b *base
}

// NewAudioEncoder constructs an unconfigured AudioEncoder.
func NewAudioEncoder(factory engine.Factory, queueCfg config.QueueConfig, cb Callbacks) *AudioEncoder {
	return &AudioEncoder{b: newBase(engine.KindAudioEncoder, factory, queueCfg, cb, false, statelessTranslate(translateAudioEncoderOutput))}
}

// Configure validates cfg and (re)configures the encoder.
func (e *AudioEncoder) Configure(cfg AudioEncoderConfig) error {
	desc, err := buildAudioEncoderDescriptor(cfg)
	if err != nil {
		return err
	}
	return e.b.configure(desc)
}

// Encode submits a block of raw audio samples for encoding.
func (e *AudioEncoder) Encode(data *media.AudioData) error {
	return e.b.submit(engine.Input{AudioData: data})
}

// Flush blocks until every submitted block has produced its chunk.
func (e *AudioEncoder) Flush(ctx context.Context) error { return e.b.flush(ctx) }

// Reset discards queued work and returns the encoder to unconfigured.
func (e *AudioEncoder) Reset() { e.b.reset() }

// Close permanently shuts the encoder down.
func (e *AudioEncoder) Close() { e.b.close() }

// EncodeQueueSize reports how many blocks are queued or in flight.
func (e *AudioEncoder) EncodeQueueSize() int { return e.b.queueSize() }

// State reports the encoder's current lifecycle state, for inspection
// surfaces (internal/httpstats).
func (e *AudioEncoder) State() string { return e.b.stateString() }

// Kind identifies this pipeline as an audio encoder.
func (e *AudioEncoder) Kind() string { return e.b.kindString() }

// ID returns this encoder instance's stable identifier, for inspection
// surfaces and log correlation.
func (e *AudioEncoder) ID() string { return e.b.idString() }

// QueueSize is an alias for EncodeQueueSize satisfying the uniform
// Session interface internal/httpstats inspects across all four kinds.
func (e *AudioEncoder) QueueSize() int { return e.EncodeQueueSize() }

// IsAudioEncoderConfigSupported is the static capability check.
func IsAudioEncoderConfigSupported(factory engine.Factory, cfg AudioEncoderConfig) SupportReport {
	desc, err := buildAudioEncoderDescriptor(cfg)
	if err != nil {
		return SupportReport{Supported: false}
	}
	return factory(engine.KindAudioEncoder).IsConfigSupported(desc)
}
