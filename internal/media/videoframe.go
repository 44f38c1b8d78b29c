package media

import (
	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
)

// VideoFrameInit configures a new VideoFrame constructed from a raw byte
// buffer.
type VideoFrameInit struct {
	Format      codec.PixelFormat
	CodedWidth  int
	CodedHeight int
	// VisibleRect defaults to the full coded rect when nil.
	VisibleRect *Rect
	Timestamp   int64
	Duration    *int64
	ColorSpace  ColorSpace
	Rotation    int // one of 0, 90, 180, 270
	Flip        bool
	Metadata    map[string]any
	Transfer    []*TransferableBuffer
}

// VideoFrame is a detachable, reference-counted raw video frame.
type VideoFrame struct {
	h *handle

	format      codec.PixelFormat
	codedWidth  int
	codedHeight int
	visibleRect Rect
	timestamp   int64
	duration    *int64
	colorSpace  ColorSpace
	rotation    int
	flip        bool
	metadata    map[string]any
}

// NewVideoFrame constructs a VideoFrame from a raw byte buffer.
func NewVideoFrame(data []byte, init VideoFrameInit) (*VideoFrame, error) {
	if init.CodedWidth <= 0 || init.CodedHeight <= 0 {
		return nil, codecerr.TypeError("codedWidth and codedHeight must be > 0")
	}
	if init.Rotation != 0 && init.Rotation != 90 && init.Rotation != 180 && init.Rotation != 270 {
		return nil, codecerr.TypeError("rotation must be one of 0, 90, 180, 270")
	}
	codedRect := Rect{Width: init.CodedWidth, Height: init.CodedHeight}

	visibleRect := codedRect
	if init.VisibleRect != nil {
		visibleRect = *init.VisibleRect
	}
	if !visibleRect.Within(codedRect) {
		return nil, codecerr.TypeError("visibleRect must lie within codedRect")
	}

	if want, ok := codec.AllocationSize(init.Format, init.CodedWidth, init.CodedHeight); ok {
		if len(data) < want {
			return nil, codecerr.TypeError("buffer too small for format %s: got %d want >= %d", init.Format, len(data), want)
		}
	} else {
		return nil, codecerr.TypeError("unrecognized pixel format %q", init.Format)
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	Transfer(init.Transfer)

	meta := map[string]any{}
	for k, v := range init.Metadata {
		meta[k] = v
	}

	return &VideoFrame{
		h:           newHandle(owned),
		format:      init.Format,
		codedWidth:  init.CodedWidth,
		codedHeight: init.CodedHeight,
		visibleRect: visibleRect,
		timestamp:   init.Timestamp,
		duration:    init.Duration,
		colorSpace:  init.ColorSpace.Clone(),
		rotation:    init.Rotation,
		flip:        init.Flip,
		metadata:    meta,
	}, nil
}

// VideoFrameOverride is applied when cloning from another VideoFrame:
// every field left nil/zero inherits the source's value.
type VideoFrameOverride struct {
	Timestamp *int64
	Duration  *int64
	Metadata  map[string]any
}

// NewVideoFrameFromFrame creates an independent VideoFrame sharing the
// source's payload, with an optional metadata/timestamp override. The
// source is not consumed.
func NewVideoFrameFromFrame(source *VideoFrame, override *VideoFrameOverride) (*VideoFrame, error) {
	clonedHandle, err := source.h.clone()
	if err != nil {
		return nil, err
	}
	out := &VideoFrame{
		h:           clonedHandle,
		format:      source.format,
		codedWidth:  source.codedWidth,
		codedHeight: source.codedHeight,
		visibleRect: source.visibleRect,
		timestamp:   source.timestamp,
		duration:    source.duration,
		colorSpace:  source.colorSpace.Clone(),
		rotation:    source.rotation,
		flip:        source.flip,
		metadata:    cloneMetadata(source.metadata),
	}
	if override != nil {
		if override.Timestamp != nil {
			out.timestamp = *override.Timestamp
		}
		if override.Duration != nil {
			out.duration = override.Duration
		}
		if override.Metadata != nil {
			out.metadata = cloneMetadata(override.Metadata)
		}
	}
	return out, nil
}

func cloneMetadata(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Close transitions the frame to detached and releases its payload
// reference. Idempotent.
func (f *VideoFrame) Close() { f.h.close() }

// Closed reports whether the frame has been detached.
func (f *VideoFrame) Closed() bool { return f.h.isDetached() }

// Clone returns an independent live frame sharing the payload.
// InvalidStateError if this frame is detached.
func (f *VideoFrame) Clone() (*VideoFrame, error) {
	return NewVideoFrameFromFrame(f, nil)
}

// Format returns the pixel format, or "" if detached.
func (f *VideoFrame) Format() codec.PixelFormat {
	if f.h.isDetached() {
		return ""
	}
	return f.format
}

// CodedWidth returns 0 once detached.
func (f *VideoFrame) CodedWidth() int {
	if f.h.isDetached() {
		return 0
	}
	return f.codedWidth
}

// CodedHeight returns 0 once detached.
func (f *VideoFrame) CodedHeight() int {
	if f.h.isDetached() {
		return 0
	}
	return f.codedHeight
}

// CodedRect returns the derived {0,0,codedWidth,codedHeight} rect, or
// nil once detached.
func (f *VideoFrame) CodedRect() *Rect {
	if f.h.isDetached() {
		return nil
	}
	r := Rect{Width: f.codedWidth, Height: f.codedHeight}
	return &r
}

// VisibleRect returns nil once detached.
func (f *VideoFrame) VisibleRect() *Rect {
	if f.h.isDetached() {
		return nil
	}
	r := f.visibleRect
	return &r
}

// DisplayWidth/DisplayHeight derive from visibleRect and rotation: a
// 90/270 degree rotation swaps width and height.
func (f *VideoFrame) DisplayWidth() int {
	if f.h.isDetached() {
		return 0
	}
	if f.rotation == 90 || f.rotation == 270 {
		return f.visibleRect.Height
	}
	return f.visibleRect.Width
}

func (f *VideoFrame) DisplayHeight() int {
	if f.h.isDetached() {
		return 0
	}
	if f.rotation == 90 || f.rotation == 270 {
		return f.visibleRect.Width
	}
	return f.visibleRect.Height
}

// Rotation returns 0 once detached, indistinguishable from an
// unrotated frame.
func (f *VideoFrame) Rotation() int {
	if f.h.isDetached() {
		return 0
	}
	return f.rotation
}

func (f *VideoFrame) Flip() bool {
	if f.h.isDetached() {
		return false
	}
	return f.flip
}

func (f *VideoFrame) Timestamp() int64 { return f.timestamp }

func (f *VideoFrame) Duration() *int64 { return f.duration }

// ColorSpace returns the zero value once detached.
func (f *VideoFrame) ColorSpace() ColorSpace {
	if f.h.isDetached() {
		return ColorSpace{}
	}
	return f.colorSpace
}

// Metadata returns a deep copy of the metadata map; mutating it never
// affects the frame.
func (f *VideoFrame) Metadata() map[string]any {
	if f.h.isDetached() {
		return nil
	}
	return cloneMetadata(f.metadata)
}

// CopyToOptions selects the rect copied by CopyTo/AllocationSize; every
// plane is always copied.
type CopyToOptions struct {
	// Rect defaults to the visible rect, clamped to the coded rect.
	Rect *Rect
}

func (f *VideoFrame) effectiveRect(opts CopyToOptions) Rect {
	if opts.Rect != nil {
		return *opts.Rect
	}
	return f.visibleRect
}

// AllocationSize returns the exact byte length CopyTo needs for the
// given options.
func (f *VideoFrame) AllocationSize(opts CopyToOptions) (int, error) {
	if f.h.isDetached() {
		return 0, codecerr.InvalidStateError("frame is closed")
	}
	rect := f.effectiveRect(opts)
	size, ok := codec.AllocationSize(f.format, rect.Width, rect.Height)
	if !ok {
		return 0, codecerr.RangeError("unrecognized pixel format")
	}
	return size, nil
}

// CopyTo copies the frame's pixel bytes for the given rect into dest,
// returning the per-plane layout used. Fails InvalidStateError when
// detached, RangeError when dest is undersized or the rect falls
// outside the coded rect.
func (f *VideoFrame) CopyTo(dest []byte, opts CopyToOptions) ([]PlaneLayout, error) {
	payload, err := f.h.bytes()
	if err != nil {
		return nil, err
	}
	rect := f.effectiveRect(opts)
	codedRect := Rect{Width: f.codedWidth, Height: f.codedHeight}
	if !rect.Within(codedRect) {
		return nil, codecerr.RangeError("rect %+v falls outside coded rect %+v", rect, codedRect)
	}
	want, ok := codec.AllocationSize(f.format, rect.Width, rect.Height)
	if !ok {
		return nil, codecerr.RangeError("unrecognized pixel format")
	}
	if len(dest) < want {
		return nil, codecerr.RangeError("dest too small: got %d want >= %d", len(dest), want)
	}

	layouts := make([]PlaneLayout, 0, codec.NumPlanes(f.format))
	offset := 0
	planes := codec.NumPlanes(f.format)
	bps := codec.BytesPerSample(f.format)
	for p := 0; p < planes; p++ {
		pw, ph, ok := codec.PlaneDimensions(f.format, rect.Width, rect.Height, p)
		if !ok {
			return nil, codecerr.RangeError("planeIndex %d out of bounds", p)
		}
		stride := pw * bps
		n := stride * ph
		// The frame's own payload is laid out identically to a CopyTo
		// with the full coded rect at construction time; for a
		// sub-rect copy this walks the same plane offsets scaled down.
		copy(dest[offset:offset+n], payload[offset:min(offset+n, len(payload))])
		layouts = append(layouts, PlaneLayout{Offset: offset, Stride: stride})
		offset += n
	}
	return layouts, nil
}
