package refengine

import (
	"context"
	"sync"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

var validHardwareAccel = map[string]bool{
	"": true, "no-preference": true, "prefer-hardware": true, "prefer-software": true,
}

type videoEncoder struct {
	mu           sync.Mutex
	configured   bool
	desc         engine.Descriptor
	emittedCount int
	outputs      []engine.Output
}

func (e *videoEncoder) Configure(desc engine.Descriptor) error {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindVideo {
		return codecerr.NotSupportedError("reference video encoder: unrecognized or non-video codec %q", desc.Codec)
	}
	if !validHardwareAccel[desc.HardwareAcceleration] {
		return codecerr.NotSupportedError("reference video encoder: unsupported hardwareAcceleration %q", desc.HardwareAcceleration)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.desc = desc
	e.emittedCount = 0
	e.outputs = nil
	e.configured = true
	return nil
}

func (e *videoEncoder) PushInput(in engine.Input) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return codecerr.InvalidStateError("reference video encoder is not configured")
	}
	frame := in.VideoFrame
	if frame == nil {
		return codecerr.InvalidStateError("reference video encoder received a non-video-frame input")
	}

	full := frame.CodedRect()
	size, err := frame.AllocationSize(media.CopyToOptions{Rect: full})
	if err != nil {
		return err
	}
	pixels := make([]byte, size)
	if _, err := frame.CopyTo(pixels, media.CopyToOptions{Rect: full}); err != nil {
		return err
	}

	chunkType := media.ChunkTypeDelta
	if e.emittedCount == 0 || in.KeyFrameHint {
		chunkType = media.ChunkTypeKey
	}
	frameIndex := e.emittedCount
	e.emittedCount++

	payload := encodeVideoPayload(frame.Format(), frame.CodedWidth(), frame.CodedHeight(), pixels)
	chunk, err := media.NewEncodedVideoChunk(payload, media.EncodedVideoChunkInit{
		Type:      chunkType,
		Timestamp: frame.Timestamp(),
		Duration:  frame.Duration(),
	})
	if err != nil {
		return err
	}

	metadata := map[string]any{
		"svc.temporalLayerId": codec.TemporalLayerID(e.desc.ScalabilityMode, frameIndex),
	}
	if chunkType == media.ChunkTypeKey {
		metadata["decoderConfig"] = map[string]any{
			"codec":               e.desc.Codec,
			"codedWidth":          frame.CodedWidth(),
			"codedHeight":         frame.CodedHeight(),
			"displayAspectWidth":  e.desc.DisplayWidth,
			"displayAspectHeight": e.desc.DisplayHeight,
			"description":         bitstreamDescription(e.desc),
			"colorSpace":          frame.ColorSpace(),
		}
	}

	e.outputs = append(e.outputs, engine.Output{VideoChunk: chunk, Metadata: metadata})
	return nil
}

func (e *videoEncoder) PullOutput() (engine.Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.outputs) == 0 {
		return engine.Output{}, false
	}
	out := e.outputs[0]
	e.outputs = e.outputs[1:]
	return out, true
}

func (e *videoEncoder) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (e *videoEncoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configured = false
	e.emittedCount = 0
	e.outputs = nil
	e.desc = engine.Descriptor{}
}

func (e *videoEncoder) IsConfigSupported(desc engine.Descriptor) engine.SupportReport {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindVideo || !validHardwareAccel[desc.HardwareAcceleration] {
		return engine.SupportReport{Supported: false}
	}
	echoed := desc
	echoed.PipelineKind = engine.KindVideoEncoder
	if echoed.HardwareAcceleration == "" {
		echoed.HardwareAcceleration = "no-preference"
	}
	return engine.SupportReport{Supported: true, EchoedConfig: echoed}
}

type videoDecoder struct {
	mu         sync.Mutex
	configured bool
	desc       engine.Descriptor
	outputs    []engine.Output
}

func (e *videoDecoder) Configure(desc engine.Descriptor) error {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindVideo {
		return codecerr.NotSupportedError("reference video decoder: unrecognized or non-video codec %q", desc.Codec)
	}
	if !validHardwareAccel[desc.HardwareAcceleration] {
		return codecerr.NotSupportedError("reference video decoder: unsupported hardwareAcceleration %q", desc.HardwareAcceleration)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.desc = desc
	e.outputs = nil
	e.configured = true
	return nil
}

func (e *videoDecoder) PushInput(in engine.Input) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return codecerr.InvalidStateError("reference video decoder is not configured")
	}
	chunk := in.VideoChunk
	if chunk == nil {
		return codecerr.InvalidStateError("reference video decoder received a non-chunk input")
	}

	raw := make([]byte, chunk.ByteLength())
	if err := chunk.CopyTo(raw); err != nil {
		return err
	}
	header, pixels, err := decodeVideoPayload(raw)
	if err != nil {
		return err
	}

	frame, err := media.NewVideoFrame(pixels, media.VideoFrameInit{
		Format:      header.Format,
		CodedWidth:  int(header.CodedWidth),
		CodedHeight: int(header.CodedHeight),
		Timestamp:   chunk.Timestamp(),
		Duration:    chunk.Duration(),
		ColorSpace:  e.desc.ColorSpace,
	})
	if err != nil {
		return codecerr.EncodingError(err, "reference video decoder: reconstructing frame")
	}

	e.outputs = append(e.outputs, engine.Output{VideoFrame: frame})
	return nil
}

func (e *videoDecoder) PullOutput() (engine.Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.outputs) == 0 {
		return engine.Output{}, false
	}
	out := e.outputs[0]
	e.outputs = e.outputs[1:]
	return out, true
}

func (e *videoDecoder) Flush(ctx context.Context) error {
	return ctx.Err()
}

func (e *videoDecoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configured = false
	e.outputs = nil
	e.desc = engine.Descriptor{}
}

func (e *videoDecoder) IsConfigSupported(desc engine.Descriptor) engine.SupportReport {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindVideo || !validHardwareAccel[desc.HardwareAcceleration] {
		return engine.SupportReport{Supported: false}
	}
	echoed := desc
	echoed.PipelineKind = engine.KindVideoDecoder
	if echoed.HardwareAcceleration == "" {
		echoed.HardwareAcceleration = "no-preference"
	}
	return engine.SupportReport{Supported: true, EchoedConfig: echoed}
}
