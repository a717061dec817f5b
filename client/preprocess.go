package client

import (
	"bytes"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// minPageWidth is roughly an A4 page at 150 DPI. Narrower rasters are
// upscaled so small print survives recognition.
const minPageWidth = 1240

// PreprocessPage converts a page raster to grayscale and upscales it when
// it is too small for reliable recognition.
func PreprocessPage(img image.Image) image.Image {
	gray := imaging.Grayscale(img)
	if w := gray.Bounds().Dx(); w > 0 && w < minPageWidth {
		return imaging.Resize(gray, minPageWidth*2, 0, imaging.Lanczos)
	}
	return gray
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
