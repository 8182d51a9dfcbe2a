// Package imageproc implements the thin post-processing stage around model
// inference: decoding uploads, applying masks, flattening onto a solid
// background and encoding the final bytes.
package imageproc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	// Extra decoders beyond the stdlib jpeg/png/gif registered by imaging.
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned when the upload cannot be decoded.
var ErrInvalidImage = errors.New("invalid image data")

// Decode decodes an uploaded image, honouring EXIF orientation.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty upload", ErrInvalidImage)
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return img, nil
}

// ToRGB drops any alpha channel: colours are kept as stored and every pixel
// becomes fully opaque. Models are fed RGB only.
func ToRGB(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// IsMask reports whether a provider output is a single-channel mask rather
// than a matted RGBA image.
func IsMask(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model, color.AlphaModel, color.Alpha16Model:
		return true
	}
	return false
}
