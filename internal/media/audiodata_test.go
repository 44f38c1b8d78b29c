package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
)

func interleavedAudio(t *testing.T, frames, channels int) *AudioData {
	t.Helper()
	data := make([]byte, frames*channels*4)
	for i := range data {
		data[i] = byte(i)
	}
	d, err := NewAudioData(data, AudioDataInit{
		Format:           SampleFormatF32,
		SampleRate:       48000,
		NumberOfFrames:   frames,
		NumberOfChannels: channels,
		Timestamp:        0,
	})
	require.NoError(t, err)
	return d
}

func planarAudio(t *testing.T, frames, channels int) *AudioData {
	t.Helper()
	data := make([]byte, frames*channels*2)
	for i := range data {
		data[i] = byte(i)
	}
	d, err := NewAudioData(data, AudioDataInit{
		Format:           SampleFormatS16Planar,
		SampleRate:       44100,
		NumberOfFrames:   frames,
		NumberOfChannels: channels,
	})
	require.NoError(t, err)
	return d
}

func TestNewAudioData_RejectsUnrecognizedFormat(t *testing.T) {
	_, err := NewAudioData(make([]byte, 16), AudioDataInit{
		Format: "bogus", SampleRate: 1, NumberOfFrames: 1, NumberOfChannels: 1,
	})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestNewAudioData_RejectsUndersizedBuffer(t *testing.T) {
	_, err := NewAudioData(make([]byte, 4), AudioDataInit{
		Format: SampleFormatF32, SampleRate: 48000, NumberOfFrames: 10, NumberOfChannels: 2,
	})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestNewAudioData_RejectsNonPositiveDimensions(t *testing.T) {
	_, err := NewAudioData(make([]byte, 16), AudioDataInit{
		Format: SampleFormatF32, SampleRate: 0, NumberOfFrames: 10, NumberOfChannels: 2,
	})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestAudioData_DurationDerivedFromFramesAndSampleRate(t *testing.T) {
	d := interleavedAudio(t, 48000, 2)
	defer d.Close()
	assert.Equal(t, int64(1_000_000), d.Duration())
}

func TestAudioData_DetachSemantics(t *testing.T) {
	d := interleavedAudio(t, 10, 2)
	d.Close()
	d.Close()

	assert.Equal(t, SampleFormat(""), d.Format())
	assert.Equal(t, 0, d.SampleRate())
	assert.Equal(t, 0, d.NumberOfFrames())
	assert.Equal(t, 0, d.NumberOfChannels())
	assert.Equal(t, int64(0), d.Duration())

	_, err := d.Clone()
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))

	_, err = d.AllocationSize(AudioCopyToOptions{})
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))

	err = d.CopyTo(make([]byte, 1000), AudioCopyToOptions{})
	assert.True(t, codecerr.IsKind(err, codecerr.KindInvalidState))
}

func TestAudioData_InterleavedPlaneIndexMustBeZero(t *testing.T) {
	d := interleavedAudio(t, 10, 2)
	defer d.Close()

	one := 1
	_, err := d.AllocationSize(AudioCopyToOptions{PlaneIndex: &one})
	assert.True(t, codecerr.IsKind(err, codecerr.KindRangeError))

	zero := 0
	size, err := d.AllocationSize(AudioCopyToOptions{PlaneIndex: &zero})
	require.NoError(t, err)
	assert.Equal(t, 10*2*4, size)
}

func TestAudioData_PlanarPlaneIndexBounds(t *testing.T) {
	d := planarAudio(t, 10, 2)
	defer d.Close()

	two := 2
	_, err := d.AllocationSize(AudioCopyToOptions{PlaneIndex: &two})
	assert.True(t, codecerr.IsKind(err, codecerr.KindRangeError))

	one := 1
	size, err := d.AllocationSize(AudioCopyToOptions{PlaneIndex: &one})
	require.NoError(t, err)
	assert.Equal(t, 10*2, size)
}

func TestAudioData_CopyToPlanarIsolatesChannelPlanes(t *testing.T) {
	d := planarAudio(t, 4, 2)
	defer d.Close()

	zero, one := 0, 1
	plane0 := make([]byte, 4*2)
	require.NoError(t, d.CopyTo(plane0, AudioCopyToOptions{PlaneIndex: &zero}))

	plane1 := make([]byte, 4*2)
	require.NoError(t, d.CopyTo(plane1, AudioCopyToOptions{PlaneIndex: &one}))

	assert.NotEqual(t, plane0, plane1)
}

func TestAudioData_CopyToFrameRange(t *testing.T) {
	d := interleavedAudio(t, 10, 1)
	defer d.Close()

	zero := 0
	dest := make([]byte, 4*4)
	err := d.CopyTo(dest, AudioCopyToOptions{PlaneIndex: &zero, FrameOffset: 2, FrameCount: 4})
	require.NoError(t, err)

	full := make([]byte, 10*4)
	require.NoError(t, d.CopyTo(full, AudioCopyToOptions{PlaneIndex: &zero}))
	assert.Equal(t, full[2*4:6*4], dest)
}

func TestAudioData_CopyToRangeErrorOnOutOfBoundsFrames(t *testing.T) {
	d := interleavedAudio(t, 10, 1)
	defer d.Close()

	zero := 0
	err := d.CopyTo(make([]byte, 1000), AudioCopyToOptions{PlaneIndex: &zero, FrameOffset: 8, FrameCount: 5})
	assert.True(t, codecerr.IsKind(err, codecerr.KindRangeError))
}

func TestAudioData_OmittedPlaneIndexIsTypeError(t *testing.T) {
	d := interleavedAudio(t, 10, 2)
	defer d.Close()

	_, err := d.AllocationSize(AudioCopyToOptions{})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))

	err = d.CopyTo(make([]byte, 1000), AudioCopyToOptions{})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestAudioData_OmittedPlaneIndexIsTypeErrorEvenOnPlaneZero(t *testing.T) {
	// A planar AudioData's plane 0 is otherwise a valid planeIndex, so
	// this guards against treating an omitted PlaneIndex as an implicit
	// zero instead of rejecting it outright.
	d := planarAudio(t, 10, 2)
	defer d.Close()

	_, err := d.AllocationSize(AudioCopyToOptions{})
	assert.True(t, codecerr.IsKind(err, codecerr.KindTypeError))
}

func TestAudioData_CloneIsIndependent(t *testing.T) {
	d := interleavedAudio(t, 4, 2)
	clone, err := d.Clone()
	require.NoError(t, err)

	d.Close()
	assert.True(t, d.Closed())
	assert.False(t, clone.Closed())
	assert.Equal(t, 4, clone.NumberOfFrames())
}
