package media

import "github.com/webcodecs-go/webcodecs-core/internal/codecerr"

// ChunkType distinguishes a self-contained (key) chunk from a
// differentially-coded (delta) one.
type ChunkType string

// Recognized chunk types.
const (
	ChunkTypeKey   ChunkType = "key"
	ChunkTypeDelta ChunkType = "delta"
)

// ValidChunkType reports whether t is "key" or "delta"; any other value
// is a TypeError
func ValidChunkType(t ChunkType) bool {
	return t == ChunkTypeKey || t == ChunkTypeDelta
}

// chunkCore is the shared shape of EncodedVideoChunk and
// EncodedAudioChunk: an opaque, detachable byte payload with a type,
// timestamp and optional duration.
type chunkCore struct {
	h         *handle
	chunkType ChunkType
	timestamp int64
	duration  *int64
	byteLen   int
}

func newChunkCore(data []byte, chunkType ChunkType, timestamp int64, duration *int64, transfer []*TransferableBuffer) (*chunkCore, error) {
	if !ValidChunkType(chunkType) {
		return nil, codecerr.TypeError("chunk type must be %q or %q, got %q", ChunkTypeKey, ChunkTypeDelta, chunkType)
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	Transfer(transfer)
	return &chunkCore{
		h:         newHandle(owned),
		chunkType: chunkType,
		timestamp: timestamp,
		duration:  duration,
		byteLen:   len(owned),
	}, nil
}

func (c *chunkCore) close() { c.h.close() }

func (c *chunkCore) closed() bool { return c.h.isDetached() }

func (c *chunkCore) chunkTypeOf() ChunkType {
	if c.h.isDetached() {
		return ""
	}
	return c.chunkType
}

func (c *chunkCore) byteLength() int {
	if c.h.isDetached() {
		return 0
	}
	return c.byteLen
}

// copyTo copies byteLength bytes into dest, failing RangeError if dest
// is undersized.
func (c *chunkCore) copyTo(dest []byte) error {
	payload, err := c.h.bytes()
	if err != nil {
		return err
	}
	if len(dest) < len(payload) {
		return codecerr.RangeError("dest too small: got %d want >= %d", len(dest), len(payload))
	}
	copy(dest, payload)
	return nil
}

func (c *chunkCore) clone() (*chunkCore, error) {
	h, err := c.h.clone()
	if err != nil {
		return nil, err
	}
	return &chunkCore{h: h, chunkType: c.chunkType, timestamp: c.timestamp, duration: c.duration, byteLen: c.byteLen}, nil
}

// EncodedVideoChunkInit configures a new EncodedVideoChunk.
type EncodedVideoChunkInit struct {
	Type      ChunkType
	Timestamp int64
	Duration  *int64
	Transfer  []*TransferableBuffer
}

// EncodedVideoChunk is an opaque, detachable container for one
// compressed video access unit.
type EncodedVideoChunk struct{ core *chunkCore }

// NewEncodedVideoChunk constructs an EncodedVideoChunk from encoded bytes.
func NewEncodedVideoChunk(data []byte, init EncodedVideoChunkInit) (*EncodedVideoChunk, error) {
	core, err := newChunkCore(data, init.Type, init.Timestamp, init.Duration, init.Transfer)
	if err != nil {
		return nil, err
	}
	return &EncodedVideoChunk{core: core}, nil
}

func (c *EncodedVideoChunk) Close()                   { c.core.close() }
func (c *EncodedVideoChunk) Closed() bool             { return c.core.closed() }
func (c *EncodedVideoChunk) Type() ChunkType          { return c.core.chunkTypeOf() }
func (c *EncodedVideoChunk) Timestamp() int64         { return c.core.timestamp }
func (c *EncodedVideoChunk) Duration() *int64         { return c.core.duration }
func (c *EncodedVideoChunk) ByteLength() int          { return c.core.byteLength() }
func (c *EncodedVideoChunk) CopyTo(dest []byte) error { return c.core.copyTo(dest) }

func (c *EncodedVideoChunk) Clone() (*EncodedVideoChunk, error) {
	core, err := c.core.clone()
	if err != nil {
		return nil, err
	}
	return &EncodedVideoChunk{core: core}, nil
}

// EncodedAudioChunkInit configures a new EncodedAudioChunk.
type EncodedAudioChunkInit struct {
	Type      ChunkType
	Timestamp int64
	Duration  *int64
	Transfer  []*TransferableBuffer
}

// EncodedAudioChunk is an opaque, detachable container for one
// compressed audio access unit.
type EncodedAudioChunk struct{ core *chunkCore }

// NewEncodedAudioChunk constructs an EncodedAudioChunk from encoded bytes.
func NewEncodedAudioChunk(data []byte, init EncodedAudioChunkInit) (*EncodedAudioChunk, error) {
	core, err := newChunkCore(data, init.Type, init.Timestamp, init.Duration, init.Transfer)
	if err != nil {
		return nil, err
	}
	return &EncodedAudioChunk{core: core}, nil
}

func (c *EncodedAudioChunk) Close()                   { c.core.close() }
func (c *EncodedAudioChunk) Closed() bool             { return c.core.closed() }
func (c *EncodedAudioChunk) Type() ChunkType          { return c.core.chunkTypeOf() }
func (c *EncodedAudioChunk) Timestamp() int64         { return c.core.timestamp }
func (c *EncodedAudioChunk) Duration() *int64         { return c.core.duration }
func (c *EncodedAudioChunk) ByteLength() int          { return c.core.byteLength() }
func (c *EncodedAudioChunk) CopyTo(dest []byte) error { return c.core.copyTo(dest) }

func (c *EncodedAudioChunk) Clone() (*EncodedAudioChunk, error) {
	core, err := c.core.clone()
	if err != nil {
		return nil, err
	}
	return &EncodedAudioChunk{core: core}, nil
}
