package imageproc

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

// JPEGQuality is the fixed quality for opaque output.
const JPEGQuality = 95

const (
	ContentTypePNG  = "image/png"
	ContentTypeJPEG = "image/jpeg"
)

// Encode writes img as lossless PNG when transparent, otherwise as JPEG at
// JPEGQuality. It returns the bytes and their content type.
func Encode(img image.Image, transparent bool) ([]byte, string, error) {
	var buf bytes.Buffer
	if transparent {
		if err := imaging.Encode(&buf, img, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), ContentTypePNG, nil
	}
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), ContentTypeJPEG, nil
}
