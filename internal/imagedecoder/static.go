package imagedecoder

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/webcodecs-go/webcodecs-core/internal/codecerr"
)

// decodeStatic decodes any single-frame container image.Decode
// recognizes (the blank imports above register PNG, JPEG, BMP, TIFF and
// WebP) into one full-canvas RGBA frame.
func decodeStatic(data []byte) (*image.RGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, codecerr.EncodingError(err, "corrupt or unrecognized image data")
	}
	bounds := src.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(out, out.Bounds(), src, bounds.Min, draw.Src)
	return out, nil
}
