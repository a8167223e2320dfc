package media

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var overlayFace = basicfont.Face7x13

// DrawText renders a line of text onto img at (x, y) using the built-in
// bitmap face. y is the text baseline.
func DrawText(img *image.RGBA, text string, x, y int, c color.RGBA) {
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: overlayFace,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(text)
}

// DrawBanner renders lines bottom-up in the lower-left corner over a
// darkened strip, the way disc metadata is shown on stub output.
func DrawBanner(img *image.RGBA, lines []string) {
	if len(lines) == 0 {
		return
	}
	h := img.Bounds().Dy()
	lineH := overlayFace.Metrics().Height.Ceil() + 2
	top := h - len(lines)*lineH - 4
	if top < 0 {
		top = 0
	}
	dim(img, top)
	y := h - 6
	for i := len(lines) - 1; i >= 0; i-- {
		DrawText(img, lines[i], 4, y, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})
		y -= lineH
	}
}

func dim(img *image.RGBA, fromY int) {
	b := img.Bounds()
	for y := fromY; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		for i := 0; i < len(row); i += 4 {
			row[i+0] /= 2
			row[i+1] /= 2
			row[i+2] /= 2
		}
	}
}
