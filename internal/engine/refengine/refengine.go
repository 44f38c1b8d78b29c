// Package refengine is the built-in, in-process codec engine adapter.
// It performs no lossy compression — real codec algorithms live outside
// this process — but it is a real, deterministic software transform:
// video frames and audio samples round-trip through it byte-for-byte,
// wrapped in a minimal self-describing container so a decoder never
// needs to be told the source dimensions or format out of band.
package refengine

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/engine"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// Name is the engine.Register key used by config's default
// engine.kind = "reference".
const Name = "reference"

func init() {
	engine.Register(Name, New)
}

// New constructs the reference adapter for the requested pipeline kind.
func New(kind engine.PipelineKind) engine.Adapter {
	switch kind {
	case engine.KindVideoEncoder:
		return &videoEncoder{}
	case engine.KindVideoDecoder:
		return &videoDecoder{}
	case engine.KindAudioEncoder:
		return &audioEncoder{}
	case engine.KindAudioDecoder:
		return &audioDecoder{}
	default:
		return &unsupported{kind: kind}
	}
}

// unsupported rejects every Configure call; returned for a pipeline
// kind the registry has no concrete adapter for.
type unsupported struct{ kind engine.PipelineKind }

func (u *unsupported) Configure(engine.Descriptor) error {
	return codecerr.NotSupportedError("reference engine has no adapter for pipeline kind %q", u.kind)
}
func (u *unsupported) PushInput(engine.Input) error { return codecerr.InvalidStateError("not configured") }
func (u *unsupported) PullOutput() (engine.Output, bool) { return engine.Output{}, false }
func (u *unsupported) Flush(context.Context) error       { return nil }
func (u *unsupported) Reset()                            {}
func (u *unsupported) IsConfigSupported(engine.Descriptor) engine.SupportReport {
	return engine.SupportReport{Supported: false}
}

// frameHeader is the reference engine's self-describing container
// prefix for an encoded video chunk: enough to reconstruct a VideoFrame
// without a separately negotiated decoder config.
type frameHeader struct {
	Format      codec.PixelFormat
	CodedWidth  uint32
	CodedHeight uint32
}

func encodeVideoPayload(format codec.PixelFormat, w, h int, pixels []byte) []byte {
	var buf bytes.Buffer
	formatBytes := []byte(format)
	binary.Write(&buf, binary.BigEndian, uint16(len(formatBytes)))
	buf.Write(formatBytes)
	binary.Write(&buf, binary.BigEndian, uint32(w))
	binary.Write(&buf, binary.BigEndian, uint32(h))
	buf.Write(pixels)
	return buf.Bytes()
}

func decodeVideoPayload(payload []byte) (frameHeader, []byte, error) {
	r := bytes.NewReader(payload)
	var nameLen uint16
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return frameHeader{}, nil, codecerr.EncodingError(err, "corrupt video chunk: truncated format header")
	}
	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return frameHeader{}, nil, codecerr.EncodingError(err, "corrupt video chunk: truncated format name")
	}
	var w, h uint32
	if err := binary.Read(r, binary.BigEndian, &w); err != nil {
		return frameHeader{}, nil, codecerr.EncodingError(err, "corrupt video chunk: truncated width")
	}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return frameHeader{}, nil, codecerr.EncodingError(err, "corrupt video chunk: truncated height")
	}
	rest := payload[len(payload)-r.Len():]
	return frameHeader{Format: codec.PixelFormat(nameBuf), CodedWidth: w, CodedHeight: h}, rest, nil
}

func bitstreamDescription(desc engine.Descriptor) []byte {
	if desc.BitstreamFormat == "" || desc.BitstreamFormat == "annexb" {
		return nil
	}
	return []byte(fmt.Sprintf("refengine-extradata:%s:%s", desc.Codec, desc.BitstreamFormat))
}
