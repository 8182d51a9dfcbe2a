package imageproc

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Flatten composites img over a solid background and returns a fully opaque
// image of the same size.
func Flatten(img image.Image, bg color.NRGBA) *image.RGBA {
	bg.A = 0xff
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
