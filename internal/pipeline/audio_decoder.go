package pipeline

import (
	"context"
	"strings"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/config"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// AudioDecoderConfig is the host-facing configuration dictionary for an
// AudioDecoder's configure() call.
type AudioDecoderConfig struct {
	Codec            string
	SampleRate       int
	NumberOfChannels int
}

func buildAudioDecoderDescriptor(cfg AudioDecoderConfig) (engine.Descriptor, error) {
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
		PipelineKind:     engine.KindAudioDecoder,
		Codec:            cfg.Codec,
		SampleRate:       cfg.SampleRate,
		NumberOfChannels: cfg.NumberOfChannels,
	}, nil
}

func translateAudioDecoderOutput(out engine.Output) OutputEvent {
	return OutputEvent{AudioData: out.AudioData, Metadata: out.Metadata}
}

// AudioDecoder turns EncodedAudioChunks into raw AudioData.
type AudioDecoder struct {
	b *base
}

// NewAudioDecoder constructs an unconfigured AudioDecoder.
func NewAudioDecoder(factory engine.Factory, queueCfg config.QueueConfig, cb Callbacks) *AudioDecoder {
	return &AudioDecoder{b: newBase(engine.KindAudioDecoder, factory, queueCfg, cb, true, statelessTranslate(translateAudioDecoderOutput))}
}

// Configure validates cfg and (re)configures the decoder.
func (d *AudioDecoder) Configure(cfg AudioDecoderConfig) error {
	desc, err := buildAudioDecoderDescriptor(cfg)
	if err != nil {
		return err
	}
	return d.b.configure(desc)
}

// Decode submits an encoded chunk. If this is the first input since the
// last configure() and chunk is not a key chunk, the chunk is dropped
// and a DataError is delivered asynchronously via the error callback;
// the decoder stays configured.
func (d *AudioDecoder) Decode(chunk *media.EncodedAudioChunk) error {
	return d.b.submit(engine.Input{AudioChunk: chunk})
}

// Flush blocks until every submitted chunk has produced its output.
func (d *AudioDecoder) Flush(ctx context.Context) error { return d.b.flush(ctx) }

// Reset discards queued work and returns the decoder to unconfigured.
func (d *AudioDecoder) Reset() { d.b.reset() }

// Close permanently shuts the decoder down.
func (d *AudioDecoder) Close() { d.b.close() }

// DecodeQueueSize reports how many chunks are queued or in flight.
func (d *AudioDecoder) DecodeQueueSize() int { return d.b.queueSize() }

// State reports the decoder's current lifecycle state, for inspection
// surfaces (internal/httpstats).
func (d *AudioDecoder) State() string { return d.b.stateString() }

// Kind identifies this pipeline as an audio decoder.
func (d *AudioDecoder) Kind() string { return d.b.kindString() }

// ID returns this decoder instance's stable identifier, for inspection
// surfaces and log correlation.
func (d *AudioDecoder) ID() string { return d.b.idString() }

// QueueSize is an alias for DecodeQueueSize satisfying the uniform
// Session interface internal/httpstats inspects across all four kinds.
func (d *AudioDecoder) QueueSize() int { return d.DecodeQueueSize() }

// IsAudioDecoderConfigSupported is the static capability check.
func IsAudioDecoderConfigSupported(factory engine.Factory, cfg AudioDecoderConfig) SupportReport {
	desc, err := buildAudioDecoderDescriptor(cfg)
	if err != nil {
		return SupportReport{Supported: false}
	}
	return factory(engine.KindAudioDecoder).IsConfigSupported(desc)
}
