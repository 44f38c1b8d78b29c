package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_RecognizedCodecs(t *testing.T) {
	tests := []struct {
		codec  string
		family string
		kind   Kind
	}{
		{"avc1.42001e", "h264", KindVideo},
		{"avc1.42001E", "h264", KindVideo},
		{"hev1.1.6.L93.B0", "h265", KindVideo},
		{"vp8", "vp8", KindVideo},
		{"vp09.00.10.08", "vp9", KindVideo},
		{"av01.0.04M.08", "av1", KindVideo},
		{"mp4a.40.2", "aac", KindAudio},
		{"opus", "opus", KindAudio},
	}
	for _, tt := range tests {
		d, ok := Lookup(tt.codec)
		assert.True(t, ok, tt.codec)
		assert.Equal(t, tt.family, d.Family, tt.codec)
		assert.Equal(t, tt.kind, d.Kind, tt.codec)
	}
}

func TestLookup_UnrecognizedNeverErrors(t *testing.T) {
	_, ok := Lookup("totally-bogus-codec")
	assert.False(t, ok)
}

func TestTemporalLayerID_L1T2Cycles(t *testing.T) {
	want := []int{0, 1, 0, 1, 0, 1}
	for i, w := range want {
		assert.Equal(t, w, TemporalLayerID("L1T2", i))
	}
}

func TestTemporalLayerID_L1T3Cycles(t *testing.T) {
	want := []int{0, 2, 1, 2, 0, 2, 1, 2}
	for i, w := range want {
		assert.Equal(t, w, TemporalLayerID("L1T3", i))
	}
}

func TestTemporalLayerID_UnsetIsZero(t *testing.T) {
	for i := 0; i < 5; i++ {
		assert.Equal(t, 0, TemporalLayerID("", i))
	}
}

func TestAllocationSize_RGBA(t *testing.T) {
	size, ok := AllocationSize(PixelFormatRGBA, 320, 240)
	assert.True(t, ok)
	assert.Equal(t, 320*240*4, size)
}

func TestAllocationSize_I420(t *testing.T) {
	size, ok := AllocationSize(PixelFormatI420, 4, 4)
	assert.True(t, ok)
	// Y: 4*4 = 16, U: 2*2 = 4, V: 2*2 = 4
	assert.Equal(t, 24, size)
}

func TestAllocationSize_OddDimensionsRoundUpChroma(t *testing.T) {
	size, ok := AllocationSize(PixelFormatI420, 3, 3)
	assert.True(t, ok)
	// Y: 3*3=9, U: ceil(3/2)*ceil(3/2)=4, V: 4 => 17
	assert.Equal(t, 17, size)
}

func TestAllocationSize_I420P10DoubleBytes(t *testing.T) {
	size8, _ := AllocationSize(PixelFormatI420, 4, 4)
	size10, _ := AllocationSize(PixelFormatI420P10, 4, 4)
	assert.Equal(t, size8*2, size10)
}

func TestAllocationSize_UnknownFormat(t *testing.T) {
	_, ok := AllocationSize(PixelFormat("bogus"), 4, 4)
	assert.False(t, ok)
}

func TestPlaneDimensions_NV12ChromaPlane(t *testing.T) {
	w, h, ok := PlaneDimensions(PixelFormatNV12, 4, 4, 1)
	assert.True(t, ok)
	assert.Equal(t, 4, w) // 2 channels * ceil(4/2)
	assert.Equal(t, 2, h)
}

func TestPlaneDimensions_OutOfRange(t *testing.T) {
	_, _, ok := PlaneDimensions(PixelFormatI420, 4, 4, 3)
	assert.False(t, ok)
}
