package imageproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// ApplyMask pastes src through mask onto a fully transparent canvas: the
// result keeps src colours and takes its alpha from the mask luminance.
// Masks produced at model resolution are scaled to the source size first.
func ApplyMask(src image.Image, mask image.Image) *image.NRGBA {
	out := imaging.Clone(src)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	mb := mask.Bounds()
	if mb.Dx() != w || mb.Dy() != h {
		mask = resize.Resize(uint(w), uint(h), mask, resize.Bilinear)
		mb = mask.Bounds()
	}
	for y := 0; y < h; y++ {
		row := y * out.Stride
		for x := 0; x < w; x++ {
			g := color.GrayModel.Convert(mask.At(mb.Min.X+x, mb.Min.Y+y)).(color.Gray)
			out.Pix[row+x*4+3] = g.Y
		}
	}
	return out
}

// AlphaOf extracts the alpha channel of img as a grayscale mask.
func AlphaOf(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			a := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA).A
			out.Pix[y*out.Stride+x] = a
		}
	}
	return out
}
