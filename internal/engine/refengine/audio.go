package refengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"sync"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

type audioHeader struct {
	Format           media.SampleFormat
	SampleRate       uint32
	NumberOfFrames   uint32
	NumberOfChannels uint32
}

func encodeAudioPayload(d *media.AudioData) ([]byte, error) {
	numPlanes := 1
	if media.IsPlanar(d.Format()) {
		numPlanes = d.NumberOfChannels()
	}

	var buf bytes.Buffer
	formatBytes := []byte(d.Format())
	binary.Write(&buf, binary.BigEndian, uint16(len(formatBytes)))
	buf.Write(formatBytes)
	binary.Write(&buf, binary.BigEndian, uint32(d.SampleRate()))
	binary.Write(&buf, binary.BigEndian, uint32(d.NumberOfFrames()))
	binary.Write(&buf, binary.BigEndian, uint32(d.NumberOfChannels()))

	for p := 0; p < numPlanes; p++ {
		planeIndex := p
		size, err := d.AllocationSize(media.AudioCopyToOptions{PlaneIndex: &planeIndex})
		if err != nil {
			return nil, err
		}
		plane := make([]byte, size)
		if err := d.CopyTo(plane, media.AudioCopyToOptions{PlaneIndex: &planeIndex}); err != nil {
			return nil, err
		}
		buf.Write(plane)
	}
	return buf.Bytes(), nil
}

func decodeAudioPayload(payload []byte) (audioHeader, []byte, error) {
	r := bytes.NewReader(payload)
	var nameLen uint16
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return audioHeader{}, nil, codecerr.EncodingError(err, "corrupt audio chunk: truncated format header")
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return audioHeader{}, nil, codecerr.EncodingError(err, "corrupt audio chunk: truncated format name")
	}
	var h audioHeader
	h.Format = media.SampleFormat(nameBuf)
	if err := binary.Read(r, binary.BigEndian, &h.SampleRate); err != nil {
		return audioHeader{}, nil, codecerr.EncodingError(err, "corrupt audio chunk: truncated sampleRate")
	}
	if err := binary.Read(r, binary.BigEndian, &h.NumberOfFrames); err != nil {
		return audioHeader{}, nil, codecerr.EncodingError(err, "corrupt audio chunk: truncated numberOfFrames")
	}
	if err := binary.Read(r, binary.BigEndian, &h.NumberOfChannels); err != nil {
		return audioHeader{}, nil, codecerr.EncodingError(err, "corrupt audio chunk: truncated numberOfChannels")
	}
	rest := payload[len(payload)-r.Len():]
	return h, rest, nil
}

type audioEncoder struct {
	mu         sync.Mutex
	configured bool
	desc       engine.Descriptor
	outputs    []engine.Output
}

func (e *audioEncoder) Configure(desc engine.Descriptor) error {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindAudio {
		return codecerr.NotSupportedError("reference audio encoder: unrecognized or non-audio codec %q", desc.Codec)
	}
	if desc.SampleRate <= 0 || desc.NumberOfChannels <= 0 {
		return codecerr.NotSupportedError("reference audio encoder: sampleRate and numberOfChannels must be > 0")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.desc = desc
	e.outputs = nil
	e.configured = true
	return nil
}

func (e *audioEncoder) PushInput(in engine.Input) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return codecerr.InvalidStateError("reference audio encoder is not configured")
	}
	data := in.AudioData
	if data == nil {
		return codecerr.InvalidStateError("reference audio encoder received a non-audio-data input")
	}

	payload, err := encodeAudioPayload(data)
	if err != nil {
		return err
	}
	chunk, err := media.NewEncodedAudioChunk(payload, media.EncodedAudioChunkInit{
		Type:      media.ChunkTypeKey,
		Timestamp: data.Timestamp(),
		Duration:  durationPtr(data.Duration()),
	})
	if err != nil {
		return err
	}

	metadata := map[string]any{}
	if e.desc.AudioFormat != "" {
		metadata["decoderConfig"] = map[string]any{
			"codec":            e.desc.Codec,
			"sampleRate":       e.desc.SampleRate,
			"numberOfChannels": e.desc.NumberOfChannels,
			"format":           e.desc.AudioFormat,
		}
	}

	e.outputs = append(e.outputs, engine.Output{AudioChunk: chunk, Metadata: metadata})
	return nil
}

func durationPtr(v int64) *int64 { return &v }

func (e *audioEncoder) PullOutput() (engine.Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.outputs) == 0 {
		return engine.Output{}, false
	}
	out := e.outputs[0]
	e.outputs = e.outputs[1:]
	return out, true
}

func (e *audioEncoder) Flush(ctx context.Context) error { return ctx.Err() }

func (e *audioEncoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configured = false
	e.outputs = nil
	e.desc = engine.Descriptor{}
}

func (e *audioEncoder) IsConfigSupported(desc engine.Descriptor) engine.SupportReport {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindAudio || desc.SampleRate <= 0 || desc.NumberOfChannels <= 0 {
		return engine.SupportReport{Supported: false}
	}
	echoed := desc
	echoed.PipelineKind = engine.KindAudioEncoder
	return engine.SupportReport{Supported: true, EchoedConfig: echoed}
}

type audioDecoder struct {
	mu         sync.Mutex
	configured bool
	desc       engine.Descriptor
	outputs    []engine.Output
}

func (e *audioDecoder) Configure(desc engine.Descriptor) error {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindAudio {
		return codecerr.NotSupportedError("reference audio decoder: unrecognized or non-audio codec %q", desc.Codec)
	}
	if desc.SampleRate <= 0 || desc.NumberOfChannels <= 0 {
		return codecerr.NotSupportedError("reference audio decoder: sampleRate and numberOfChannels must be > 0")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.desc = desc
	e.outputs = nil
	e.configured = true
	return nil
}

func (e *audioDecoder) PushInput(in engine.Input) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.configured {
		return codecerr.InvalidStateError("reference audio decoder is not configured")
	}
	chunk := in.AudioChunk
	if chunk == nil {
		return codecerr.InvalidStateError("reference audio decoder received a non-chunk input")
	}

	raw := make([]byte, chunk.ByteLength())
	if err := chunk.CopyTo(raw); err != nil {
		return err
	}
	header, samples, err := decodeAudioPayload(raw)
	if err != nil {
		return err
	}

	data, err := media.NewAudioData(samples, media.AudioDataInit{
		Format:           header.Format,
		SampleRate:       int(header.SampleRate),
		NumberOfFrames:   int(header.NumberOfFrames),
		NumberOfChannels: int(header.NumberOfChannels),
		Timestamp:        chunk.Timestamp(),
	})
	if err != nil {
		return codecerr.EncodingError(err, "reference audio decoder: reconstructing audio data")
	}

	e.outputs = append(e.outputs, engine.Output{AudioData: data})
	return nil
}

func (e *audioDecoder) PullOutput() (engine.Output, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.outputs) == 0 {
		return engine.Output{}, false
	}
	out := e.outputs[0]
	e.outputs = e.outputs[1:]
	return out, true
}

func (e *audioDecoder) Flush(ctx context.Context) error { return ctx.Err() }

func (e *audioDecoder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configured = false
	e.outputs = nil
	e.desc = engine.Descriptor{}
}

func (e *audioDecoder) IsConfigSupported(desc engine.Descriptor) engine.SupportReport {
	d, ok := codec.Lookup(desc.Codec)
	if !ok || d.Kind != codec.KindAudio || desc.SampleRate <= 0 || desc.NumberOfChannels <= 0 {
		return engine.SupportReport{Supported: false}
	}
	echoed := desc
	echoed.PipelineKind = engine.KindAudioDecoder
	return engine.SupportReport{Supported: true, EchoedConfig: echoed}
}
