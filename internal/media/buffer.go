// Package media implements the WebCodecs media data objects:
// VideoFrame, AudioData, EncodedVideoChunk and EncodedAudioChunk. Each
// wraps an immutable, reference-counted byte payload behind a per-handle
// detach bit: a media object's payload is a reference-counted handle to
// an immutable byte arena, close() drops one reference, and clones
// share the arena but carry independent detach bits.
package media

import (
	"sync"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
)

// arena is the immutable byte payload shared by a media object and all
// of its clones. It carries no detach state of its own — that lives per
// handle — so a detach on one clone never affects a sibling.
type arena struct {
	data []byte
}

// handle is one live or detached view onto an arena. Every VideoFrame,
// AudioData, EncodedVideoChunk and EncodedAudioChunk embeds a handle.
type handle struct {
	mu       sync.RWMutex
	arena    *arena
	detached bool
}

func newHandle(data []byte) *handle {
	return &handle{arena: &arena{data: data}}
}

// clone returns a new handle sharing the same arena. Fails
// InvalidStateError if this handle is already detached.
func (h *handle) clone() (*handle, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.detached {
		return nil, codecerr.InvalidStateError("clone of a closed object")
	}
	return &handle{arena: h.arena}, nil
}

// close idempotently detaches this handle. A second close is a silent
// no-op.
func (h *handle) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detached = true
	h.arena = nil
}

func (h *handle) isDetached() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.detached
}

// bytes returns the live payload, or InvalidStateError if detached.
func (h *handle) bytes() ([]byte, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.detached {
		return nil, codecerr.InvalidStateError("object is closed")
	}
	return h.arena.data, nil
}

// TransferableBuffer models a host-owned ArrayBuffer-like byte buffer
// that can be handed to a media object constructor's transfer list.
// Listing a buffer detaches it: its view length becomes 0 and further
// reads fail. Detach is idempotent so a buffer named twice in one transfer list, or
// a buffer not referenced by the constructor's data at all, is tolerated.
type TransferableBuffer struct {
	mu   sync.Mutex
	data []byte
}

// NewTransferableBuffer wraps data as a transferable buffer the caller
// still owns until it is passed through a transfer list.
func NewTransferableBuffer(data []byte) *TransferableBuffer {
	return &TransferableBuffer{data: data}
}

// ByteLength returns the buffer's current view length — 0 once detached.
func (b *TransferableBuffer) ByteLength() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

// detach steals the buffer's bytes and zeros the caller's view,
// returning the stolen bytes (or nil if already detached).
func (b *TransferableBuffer) detach() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	stolen := b.data
	b.data = nil
	return stolen
}

// Transfer detaches every buffer in list exactly once each, tolerating
// duplicates and a nil list.
func Transfer(list []*TransferableBuffer) {
	for _, b := range list {
		if b != nil {
			b.detach()
		}
	}
}
