package imagedecoder

import (
	"bytes"
	"image"
	"image/draw"
	"image/gif"
	"math"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
)

// decodedGIF holds every animation frame of a GIF already composited
// into full-canvas RGBA images, plus the container-level loop count.
type decodedGIF struct {
	frames          []*image.RGBA
	repetitionCount float64
}

// decodeGIF demuxes every frame of an animated (or single-frame) GIF
// and composites each one onto a full canvas per the image's disposal
// method, so frame N of the result is the complete picture a viewer
// would see at that point, not just the delta GIF encodes.
func decodeGIF(data []byte) (*decodedGIF, error) {
	g, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, codecerr.EncodingError(err, "corrupt or unsupported GIF data")
	}
	if len(g.Image) == 0 {
		return nil, codecerr.EncodingError(nil, "GIF contains no frames")
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	canvas := image.NewRGBA(bounds)
	var previous *image.RGBA

	frames := make([]*image.RGBA, 0, len(g.Image))
	for i, frame := range g.Image {
		disposal := byte(gif.DisposalNone)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			snapshot := image.NewRGBA(bounds)
			draw.Draw(snapshot, bounds, canvas, bounds.Min, draw.Src)
			previous = snapshot
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		out := image.NewRGBA(bounds)
		draw.Draw(out, bounds, canvas, bounds.Min, draw.Src)
		frames = append(frames, out)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			if previous != nil {
				canvas = previous
			}
		}
	}

	// image/gif's LoopCount is -1 when the source has no NETSCAPE2.0
	// loop extension at all (play once), and 0 when the extension is
	// present with an explicit "loop forever" count; anything else is
	// the encoded N+1 repetitions.
	var repetitionCount float64
	switch {
	case g.LoopCount == 0:
		repetitionCount = math.Inf(1)
	case g.LoopCount == -1:
		repetitionCount = 1
	default:
		repetitionCount = float64(g.LoopCount + 1)
	}

	return &decodedGIF{frames: frames, repetitionCount: repetitionCount}, nil
}
