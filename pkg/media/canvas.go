package media

import (
	"image"
	"image/color"
)

// WrapRGBA views raw RGBA pixel data as an image without copying.
// The data must hold w*h*4 bytes.
func WrapRGBA(data []byte, w, h int) *image.RGBA {
	return &image.RGBA{Pix: data, Stride: w * 4, Rect: image.Rect(0, 0, w, h)}
}

// Scale renders src into a new image n times larger using nearest
// neighbor sampling. n of 1 returns src untouched.
func Scale(src *image.RGBA, n int) *image.RGBA {
	if n <= 1 {
		return src
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w*n, h*n))
	for y := 0; y < h*n; y++ {
		srow := src.Pix[(y/n)*src.Stride:]
		drow := dst.Pix[y*dst.Stride:]
		for x := 0; x < w*n; x++ {
			si, di := (x/n)*4, x*4
			copy(drow[di:di+4], srow[si:si+4])
		}
	}
	return dst
}

// Fill paints the whole image with one color.
func Fill(img *image.RGBA, c color.RGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
}
