package codec

// PixelFormat enumerates the supported VideoFrame pixel formats.
type PixelFormat string

// Recognized pixel formats.
const (
	PixelFormatRGBA PixelFormat = "RGBA"
	PixelFormatBGRA PixelFormat = "BGRA"
	PixelFormatRGBX PixelFormat = "RGBX"
	PixelFormatBGRX PixelFormat = "BGRX"
	PixelFormatI420 PixelFormat = "I420"
	PixelFormatI422 PixelFormat = "I422"
	PixelFormatI444 PixelFormat = "I444"
	PixelFormatNV12 PixelFormat = "NV12"
	PixelFormatNV21 PixelFormat = "NV21"

	PixelFormatI420P10 PixelFormat = "I420P10"
	PixelFormatI420P12 PixelFormat = "I420P12"
	PixelFormatI422P10 PixelFormat = "I422P10"
	PixelFormatI422P12 PixelFormat = "I422P12"
	PixelFormatI444P10 PixelFormat = "I444P10"
	PixelFormatI444P12 PixelFormat = "I444P12"
	PixelFormatNV12P10 PixelFormat = "NV12P10"

	PixelFormatI420AP10 PixelFormat = "I420AP10"
	PixelFormatI422AP10 PixelFormat = "I422AP10"
	PixelFormatI444AP10 PixelFormat = "I444AP10"
)

// PlaneLayout describes one plane of a multi-plane pixel format, as
// returned by VideoFrame.copyTo.
type PlaneLayout struct {
	Offset int
	Stride int
}

// planeSpec describes one plane's geometry relative to the frame's
// coded width/height, for a given pixel format.
type planeSpec struct {
	// hDiv/vDiv are the horizontal/vertical chroma subsampling divisors
	// (1 for luma/packed planes, 2 for 4:2:0/4:2:2 chroma planes, etc).
	hDiv, vDiv int
	// channels is the number of interleaved samples this plane carries
	// per pixel (e.g. 4 for a packed RGBA plane, 2 for an NV12 UV plane).
	channels int
}

// formatSpec is one row of the pixel format geometry table.
type formatSpec struct {
	bytesPerSample int
	planes         []planeSpec
}

var formatTable = map[PixelFormat]formatSpec{
	PixelFormatRGBA: {1, []planeSpec{{1, 1, 4}}},
	PixelFormatBGRA: {1, []planeSpec{{1, 1, 4}}},
	PixelFormatRGBX: {1, []planeSpec{{1, 1, 4}}},
	PixelFormatBGRX: {1, []planeSpec{{1, 1, 4}}},

	PixelFormatI420: {1, []planeSpec{{1, 1, 1}, {2, 2, 1}, {2, 2, 1}}},
	PixelFormatI422: {1, []planeSpec{{1, 1, 1}, {2, 1, 1}, {2, 1, 1}}},
	PixelFormatI444: {1, []planeSpec{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},

	PixelFormatNV12: {1, []planeSpec{{1, 1, 1}, {2, 2, 2}}},
	PixelFormatNV21: {1, []planeSpec{{1, 1, 1}, {2, 2, 2}}},

	PixelFormatI420P10: {2, []planeSpec{{1, 1, 1}, {2, 2, 1}, {2, 2, 1}}},
	PixelFormatI420P12: {2, []planeSpec{{1, 1, 1}, {2, 2, 1}, {2, 2, 1}}},
	PixelFormatI422P10: {2, []planeSpec{{1, 1, 1}, {2, 1, 1}, {2, 1, 1}}},
	PixelFormatI422P12: {2, []planeSpec{{1, 1, 1}, {2, 1, 1}, {2, 1, 1}}},
	PixelFormatI444P10: {2, []planeSpec{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},
	PixelFormatI444P12: {2, []planeSpec{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},
	PixelFormatNV12P10: {2, []planeSpec{{1, 1, 1}, {2, 2, 2}}},

	PixelFormatI420AP10: {2, []planeSpec{{1, 1, 1}, {2, 2, 1}, {2, 2, 1}, {1, 1, 1}}},
	PixelFormatI422AP10: {2, []planeSpec{{1, 1, 1}, {2, 1, 1}, {2, 1, 1}, {1, 1, 1}}},
	PixelFormatI444AP10: {2, []planeSpec{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}, {1, 1, 1}}},
}

// NumPlanes returns the plane count for a pixel format, or 0 if unknown.
func NumPlanes(format PixelFormat) int {
	spec, ok := formatTable[format]
	if !ok {
		return 0
	}
	return len(spec.planes)
}

// PlaneDimensions returns the (width, height) of planeIndex for a frame
// of the given coded size and format. ok is false for an unknown format
// or out-of-range planeIndex.
func PlaneDimensions(format PixelFormat, codedWidth, codedHeight, planeIndex int) (w, h int, ok bool) {
	spec, found := formatTable[format]
	if !found || planeIndex < 0 || planeIndex >= len(spec.planes) {
		return 0, 0, false
	}
	p := spec.planes[planeIndex]
	w = ceilDiv(codedWidth, p.hDiv) * p.channels
	h = ceilDiv(codedHeight, p.vDiv)
	return w, h, true
}

// BytesPerSample returns the per-sample byte width for a format (1 for
// 8-bit formats, 2 for the P10/P12/AP10 variants), or 0 if unknown.
func BytesPerSample(format PixelFormat) int {
	spec, ok := formatTable[format]
	if !ok {
		return 0
	}
	return spec.bytesPerSample
}

// AllocationSize computes the minimum destination byte length needed by
// copyTo for the given format and rect: the sum, over every
// plane, of planeWidth * planeHeight * bytesPerSample.
func AllocationSize(format PixelFormat, rectWidth, rectHeight int) (int, bool) {
	spec, ok := formatTable[format]
	if !ok {
		return 0, false
	}
	total := 0
	for _, p := range spec.planes {
		w := ceilDiv(rectWidth, p.hDiv) * p.channels
		h := ceilDiv(rectHeight, p.vDiv)
		total += w * h * spec.bytesPerSample
	}
	return total, true
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return a
	}
	return (a + b - 1) / b
}
