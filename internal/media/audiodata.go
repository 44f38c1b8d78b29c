package media

import "github.com/webcodecs-go/webcodecs-core/internal/codecerr"

// SampleFormat enumerates AudioData sample formats.
type SampleFormat string

// Recognized sample formats.
const (
	SampleFormatU8        SampleFormat = "u8"
	SampleFormatS16       SampleFormat = "s16"
	SampleFormatS32       SampleFormat = "s32"
	SampleFormatF32       SampleFormat = "f32"
	SampleFormatU8Planar  SampleFormat = "u8-planar"
	SampleFormatS16Planar SampleFormat = "s16-planar"
	SampleFormatS32Planar SampleFormat = "s32-planar"
	SampleFormatF32Planar SampleFormat = "f32-planar"
)

// SampleByteSize returns the per-sample byte width for a format, or 0
// for an unrecognized one.
func SampleByteSize(format SampleFormat) int {
	switch format {
	case SampleFormatU8, SampleFormatU8Planar:
		return 1
	case SampleFormatS16, SampleFormatS16Planar:
		return 2
	case SampleFormatS32, SampleFormatS32Planar, SampleFormatF32, SampleFormatF32Planar:
		return 4
	default:
		return 0
	}
}

// IsPlanar reports whether format stores channels in separate planes
// rather than interleaved.
func IsPlanar(format SampleFormat) bool {
	switch format {
	case SampleFormatU8Planar, SampleFormatS16Planar, SampleFormatS32Planar, SampleFormatF32Planar:
		return true
	default:
		return false
	}
}

// AudioDataInit configures a new AudioData.
type AudioDataInit struct {
	Format           SampleFormat
	SampleRate       int
	NumberOfFrames   int
	NumberOfChannels int
	Timestamp        int64
	Transfer         []*TransferableBuffer
}

// AudioData is a detachable, reference-counted block of raw audio
// samples.
type AudioData struct {
	h *handle

	format           SampleFormat
	sampleRate       int
	numberOfFrames   int
	numberOfChannels int
	timestamp        int64
}

// NewAudioData constructs an AudioData from raw sample bytes. The byte
// length must be at least numberOfFrames * numberOfChannels *
// sampleByteSize; an undersized buffer fails construction.
func NewAudioData(data []byte, init AudioDataInit) (*AudioData, error) {
	sbs := SampleByteSize(init.Format)
	if sbs == 0 {
		return nil, codecerr.TypeError("unrecognized sample format %q", init.Format)
	}
	if init.NumberOfFrames <= 0 || init.NumberOfChannels <= 0 || init.SampleRate <= 0 {
		return nil, codecerr.TypeError("numberOfFrames, numberOfChannels and sampleRate must be > 0")
	}
	want := init.NumberOfFrames * init.NumberOfChannels * sbs
	if len(data) < want {
		return nil, codecerr.TypeError("buffer too small: got %d want >= %d", len(data), want)
	}

	owned := make([]byte, len(data))
	copy(owned, data)
	Transfer(init.Transfer)

	return &AudioData{
		h:                newHandle(owned),
		format:           init.Format,
		sampleRate:       init.SampleRate,
		numberOfFrames:   init.NumberOfFrames,
		numberOfChannels: init.NumberOfChannels,
		timestamp:        init.Timestamp,
	}, nil
}

// Close idempotently detaches this AudioData.
func (d *AudioData) Close() { d.h.close() }

// Closed reports whether the object has been detached.
func (d *AudioData) Closed() bool { return d.h.isDetached() }

// Clone returns an independent live AudioData sharing the payload.
func (d *AudioData) Clone() (*AudioData, error) {
	h, err := d.h.clone()
	if err != nil {
		return nil, err
	}
	return &AudioData{
		h:                h,
		format:           d.format,
		sampleRate:       d.sampleRate,
		numberOfFrames:   d.numberOfFrames,
		numberOfChannels: d.numberOfChannels,
		timestamp:        d.timestamp,
	}, nil
}

func (d *AudioData) Format() SampleFormat {
	if d.h.isDetached() {
		return ""
	}
	return d.format
}

func (d *AudioData) SampleRate() int {
	if d.h.isDetached() {
		return 0
	}
	return d.sampleRate
}

func (d *AudioData) NumberOfFrames() int {
	if d.h.isDetached() {
		return 0
	}
	return d.numberOfFrames
}

func (d *AudioData) NumberOfChannels() int {
	if d.h.isDetached() {
		return 0
	}
	return d.numberOfChannels
}

func (d *AudioData) Timestamp() int64 { return d.timestamp }

// Duration is derived: floor(numberOfFrames / sampleRate * 1e6) microseconds.
func (d *AudioData) Duration() int64 {
	if d.h.isDetached() || d.sampleRate == 0 {
		return 0
	}
	return int64(d.numberOfFrames) * 1_000_000 / int64(d.sampleRate)
}

// AudioCopyToOptions selects the plane copied by CopyTo/AllocationSize.
// PlaneIndex is required and has no default: for interleaved formats
// it must point to 0; for planar formats it must be < numberOfChannels.
// A nil PlaneIndex is a TypeError, never treated as plane 0.
type AudioCopyToOptions struct {
	PlaneIndex *int
	// FrameCount 0 selects every frame from FrameOffset to the end.
	FrameOffset int
	FrameCount  int
}

func (d *AudioData) resolveFrameRange(opts AudioCopyToOptions) (offset, count int) {
	offset = opts.FrameOffset
	count = opts.FrameCount
	if count == 0 {
		count = d.numberOfFrames - offset
	}
	return offset, count
}

// AllocationSize returns the exact byte length CopyTo needs for opts.
func (d *AudioData) AllocationSize(opts AudioCopyToOptions) (int, error) {
	if d.h.isDetached() {
		return 0, codecerr.InvalidStateError("audio data is closed")
	}
	planeIndex, err := requirePlaneIndex(opts.PlaneIndex)
	if err != nil {
		return 0, err
	}
	if err := d.validatePlaneIndex(planeIndex); err != nil {
		return 0, err
	}
	_, count := d.resolveFrameRange(opts)
	sbs := SampleByteSize(d.format)
	if IsPlanar(d.format) {
		return count * sbs, nil
	}
	return count * d.numberOfChannels * sbs, nil
}

// requirePlaneIndex rejects an omitted planeIndex with TypeError rather
// than silently defaulting to plane 0.
func requirePlaneIndex(planeIndex *int) (int, error) {
	if planeIndex == nil {
		return 0, codecerr.TypeError("planeIndex is required")
	}
	return *planeIndex, nil
}

func (d *AudioData) validatePlaneIndex(planeIndex int) error {
	if IsPlanar(d.format) {
		if planeIndex < 0 || planeIndex >= d.numberOfChannels {
			return codecerr.RangeError("planeIndex %d out of range [0,%d)", planeIndex, d.numberOfChannels)
		}
		return nil
	}
	if planeIndex != 0 {
		return codecerr.RangeError("planeIndex must be 0 for interleaved format %q", d.format)
	}
	return nil
}

// CopyTo copies plane opts.PlaneIndex's bytes into dest. Fails
// TypeError if planeIndex is omitted, InvalidStateError if detached,
// RangeError if dest is too small or planeIndex is out of bounds.
func (d *AudioData) CopyTo(dest []byte, opts AudioCopyToOptions) error {
	payload, err := d.h.bytes()
	if err != nil {
		return err
	}
	planeIndex, err := requirePlaneIndex(opts.PlaneIndex)
	if err != nil {
		return err
	}
	if err := d.validatePlaneIndex(planeIndex); err != nil {
		return err
	}
	offset, count := d.resolveFrameRange(opts)
	if offset < 0 || offset+count > d.numberOfFrames {
		return codecerr.RangeError("frame range [%d,%d) out of bounds for %d frames", offset, offset+count, d.numberOfFrames)
	}

	want, err := d.AllocationSize(opts)
	if err != nil {
		return err
	}
	if len(dest) < want {
		return codecerr.RangeError("dest too small: got %d want >= %d", len(dest), want)
	}

	sbs := SampleByteSize(d.format)
	if IsPlanar(d.format) {
		planeStart := planeIndex * d.numberOfFrames * sbs
		src := payload[planeStart+offset*sbs:]
		copy(dest, src[:count*sbs])
		return nil
	}

	frameStride := d.numberOfChannels * sbs
	src := payload[offset*frameStride:]
	copy(dest, src[:count*frameStride])
	return nil
}
