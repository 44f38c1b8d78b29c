// Package imagedecoder implements container-aware image decoding: a
// track list describing the image's animation shape, and per-frame
// random-access decode into media.VideoFrame. Single-frame containers
// (PNG, JPEG, WebP, BMP, TIFF) decode through the standard image
// registry; animated GIF gets its own demux-and-composite path since no
// package in the stack ships that as a black box.
package imagedecoder

import (
	"context"
	"image"
	"strings"
	"sync"

	ximagedraw "golang.org/x/image/draw"

	"github.com/webcodecs-go/webcodecs-core/internal/codec"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
	"github.com/webcodecs-go/webcodecs-core/internal/media"
)

// ColorSpaceConversion selects whether a decoder is allowed to apply
// its default color management or must pass samples through untouched.
type ColorSpaceConversion string

// Recognized colorSpaceConversion values.
const (
	ColorSpaceConversionDefault ColorSpaceConversion = "default"
	ColorSpaceConversionNone    ColorSpaceConversion = "none"
)

// PremultiplyAlpha selects how a decoder treats alpha-weighted color
// channels in its output.
type PremultiplyAlpha string

// Recognized premultiplyAlpha values.
const (
	PremultiplyAlphaDefault     PremultiplyAlpha = "default"
	PremultiplyAlphaPremultiply PremultiplyAlpha = "premultiply"
	PremultiplyAlphaNone        PremultiplyAlpha = "none"
)

// Init configures a new ImageDecoder. Data may be the full encoded
// buffer (the common case) or nil when the caller intends to stream it
// in via Append/EndOfStream.
type Init struct {
	Type                 string
	Data                 []byte
	ColorSpaceConversion ColorSpaceConversion
	DesiredWidth         *int
	DesiredHeight        *int
	PreferAnimation      *bool
	PremultiplyAlpha     PremultiplyAlpha
	Transfer             []*media.TransferableBuffer
}

func validateInit(init Init) error {
	if strings.TrimSpace(init.Type) == "" {
		return codecerr.TypeError("type is required")
	}
	if (init.DesiredWidth == nil) != (init.DesiredHeight == nil) {
		return codecerr.TypeError("desiredWidth and desiredHeight must both be set or both be absent")
	}
	switch init.ColorSpaceConversion {
	case "", ColorSpaceConversionDefault, ColorSpaceConversionNone:
	default:
		return codecerr.TypeError("colorSpaceConversion must be default or none, got %q", init.ColorSpaceConversion)
	}
	switch init.PremultiplyAlpha {
	case "", PremultiplyAlphaDefault, PremultiplyAlphaPremultiply, PremultiplyAlphaNone:
	default:
		return codecerr.TypeError("premultiplyAlpha must be default, premultiply or none, got %q", init.PremultiplyAlpha)
	}
	return nil
}

// DecodeOptions selects which frame a Decode call returns.
type DecodeOptions struct {
	FrameIndex         int
	CompleteFramesOnly bool
}

// Result is what a successful Decode call resolves to.
type Result struct {
	Image    *media.VideoFrame
	Complete bool
}

type state int

const (
	stateIngesting state = iota
	stateComplete
	stateClosed
)

// Decoder is a container-aware image decoder: type, ingestion state,
// a TrackList, and per-frame random-access decode.
type Decoder struct {
	mimeType string
	opts     Init

	mu        sync.Mutex
	st        state
	buf       []byte
	completed chan struct{}
	tracks    *TrackList
	frames    []*image.RGBA // populated once parsed; one entry per track frame

	parseErr error
}

// New constructs a Decoder. If init.Data is non-empty the container is
// parsed immediately and the decoder starts out complete; otherwise
// call Append/EndOfStream to ingest a streamed source.
func New(init Init) (*Decoder, error) {
	if err := validateInit(init); err != nil {
		return nil, err
	}
	media.Transfer(init.Transfer)

	d := &Decoder{
		mimeType:  init.Type,
		opts:      init,
		completed: make(chan struct{}),
		tracks:    newTrackList(),
	}
	if len(init.Data) > 0 {
		d.buf = append([]byte(nil), init.Data...)
		d.finishIngest()
	}
	return d, nil
}

// Type echoes the MIME type passed at construction.
func (d *Decoder) Type() string { return d.mimeType }

// Complete reports whether every byte of the source has been ingested.
func (d *Decoder) Complete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.st != stateIngesting
}

// Completed returns a channel that closes once Complete() becomes true.
func (d *Decoder) Completed() <-chan struct{} { return d.completed }

// Tracks returns the decoder's track list.
func (d *Decoder) Tracks() *TrackList { return d.tracks }

// Append ingests another chunk of a streamed source. It is an error to
// call Append after EndOfStream or Close.
func (d *Decoder) Append(chunk []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st != stateIngesting {
		return codecerr.InvalidStateError("image decoder is not accepting more data")
	}
	d.buf = append(d.buf, chunk...)
	return nil
}

// EndOfStream marks ingestion complete and parses the accumulated
// buffer, populating the track list.
func (d *Decoder) EndOfStream() error {
	d.mu.Lock()
	if d.st != stateIngesting {
		d.mu.Unlock()
		return codecerr.InvalidStateError("image decoder already complete or closed")
	}
	d.mu.Unlock()
	d.finishIngest()
	return nil
}

func (d *Decoder) finishIngest() {
	d.mu.Lock()
	buf := d.buf
	d.mu.Unlock()

	frames, repetitionCount, animated, err := parseContainer(d.mimeType, buf)

	d.mu.Lock()
	d.st = stateComplete
	d.frames = frames
	d.parseErr = err
	d.mu.Unlock()
	close(d.completed)

	if err != nil {
		d.tracks.populate(nil)
		return
	}
	d.tracks.populate([]*Track{{
		Animated:        animated,
		FrameCount:      len(frames),
		RepetitionCount: repetitionCount,
	}})
}

func parseContainer(mimeType string, data []byte) (frames []*image.RGBA, repetitionCount float64, animated bool, err error) {
	if strings.EqualFold(mimeType, "image/gif") {
		g, gerr := decodeGIF(data)
		if gerr != nil {
			return nil, 0, false, gerr
		}
		return g.frames, g.repetitionCount, len(g.frames) > 1, nil
	}
	frame, serr := decodeStatic(data)
	if serr != nil {
		return nil, 0, false, serr
	}
	return []*image.RGBA{frame}, 0, false, nil
}

// Decode resolves with the requested frame, converted to a VideoFrame
// and (when desiredWidth/Height or premultiplyAlpha were configured)
// adjusted accordingly. It blocks until the source is fully ingested
// and returns ctx.Err() if ctx ends first. A decoder close() wakes a
// waiting Decode, which then fails with InvalidStateError; a decoder
// reset() does not wake it, so it keeps waiting until ctx ends.
func (d *Decoder) Decode(ctx context.Context, opts DecodeOptions) (Result, error) {
	select {
	case <-d.completed:
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.st == stateClosed {
		return Result{}, codecerr.InvalidStateError("image decoder is closed")
	}
	if d.parseErr != nil {
		return Result{}, d.parseErr
	}
	if opts.FrameIndex < 0 || opts.FrameIndex >= len(d.frames) {
		return Result{}, codecerr.RangeError("frameIndex %d out of range [0, %d)", opts.FrameIndex, len(d.frames))
	}

	frame := d.frames[opts.FrameIndex]
	if d.opts.DesiredWidth != nil {
		frame = scaleFrame(frame, *d.opts.DesiredWidth, *d.opts.DesiredHeight)
	}

	vf, err := toVideoFrame(frame, d.opts.PremultiplyAlpha)
	if err != nil {
		return Result{}, err
	}
	return Result{Image: vf, Complete: true}, nil
}

func scaleFrame(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	ximagedraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), ximagedraw.Over, nil)
	return dst
}

func toVideoFrame(src *image.RGBA, premultiply PremultiplyAlpha) (*media.VideoFrame, error) {
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tight := make([]byte, w*h*4)
	for y := 0; y < h; y++ {
		srcOff := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(tight[y*w*4:(y+1)*w*4], src.Pix[srcOff:srcOff+w*4])
	}
	if premultiply == PremultiplyAlphaNone {
		unpremultiplyInPlace(tight)
	}
	return media.NewVideoFrame(tight, media.VideoFrameInit{
		Format:      codec.PixelFormatRGBA,
		CodedWidth:  w,
		CodedHeight: h,
	})
}

// unpremultiplyInPlace undoes Go's image.RGBA premultiplied-alpha
// convention so PremultiplyAlphaNone output matches what a host that
// asked for straight alpha expects.
func unpremultiplyInPlace(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		a := pix[i+3]
		if a == 0 || a == 255 {
			continue
		}
		pix[i] = byte(uint32(pix[i]) * 255 / uint32(a))
		pix[i+1] = byte(uint32(pix[i+1]) * 255 / uint32(a))
		pix[i+2] = byte(uint32(pix[i+2]) * 255 / uint32(a))
	}
}

// Reset discards ingested data and tracks and returns the decoder to
// ingesting with a fresh Completed() channel. A Decode call already
// blocked on the previous channel is not woken by Reset or by any later
// call; it returns only when its own context ends — callers that need
// reset-triggered cancellation should pass a context they cancel
// themselves.
func (d *Decoder) Reset() {
	d.mu.Lock()
	if d.st == stateClosed {
		d.mu.Unlock()
		return
	}
	d.st = stateIngesting
	d.buf = nil
	d.frames = nil
	d.parseErr = nil
	d.completed = make(chan struct{})
	d.tracks = newTrackList()
	d.mu.Unlock()
}

// Close permanently shuts the decoder down. Pending Decode calls
// observe InvalidStateError once they wake; callers needing an
// AbortError-shaped rejection for a decode already awaiting
// Completed() should cancel their own context on close.
func (d *Decoder) Close() {
	d.mu.Lock()
	if d.st == stateClosed {
		d.mu.Unlock()
		return
	}
	d.st = stateClosed
	select {
	case <-d.completed:
	default:
		close(d.completed)
	}
	tracks := d.tracks
	d.mu.Unlock()
	tracks.markClosed()
}

// IsTypeSupported reports whether mimeType names a container this
// package can parse, without decoding anything.
func IsTypeSupported(mimeType string) bool {
	switch strings.ToLower(mimeType) {
	case "image/png", "image/jpeg", "image/jpg", "image/gif", "image/webp", "image/bmp", "image/tiff":
		return true
	default:
		return false
	}
}
