package dolphin

import (
	"image"
	"math"

	"github.com/retroframe/retroframe/pkg/media"
)

const (
	stubWidth  = 640
	stubHeight = 480
	stubFPS    = 60.0
	stubRate   = 44100

	toneHz = 220.0
)

// stub produces deterministic placeholder output while the external
// process owns the real presentation: an animated pattern with the disc
// metadata rendered over it, and a quiet tone.
type stub struct {
	frame   uint64
	lines   []string
	samples int
	phase   float64
}

func newStub(lines []string) *stub {
	return &stub{lines: lines, samples: stubRate / int(stubFPS)}
}

func (s *stub) render() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, stubWidth, stubHeight))
	t := int(s.frame)
	for y := 0; y < stubHeight; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < stubWidth; x++ {
			v := byte((x + t) ^ (y - t))
			row[x*4+0] = v / 4
			row[x*4+1] = v / 3
			row[x*4+2] = v / 2
			row[x*4+3] = 0xFF
		}
	}
	media.DrawBanner(img, s.lines)
	s.frame++
	return img
}

func (s *stub) sound() []int16 {
	out := make([]int16, s.samples*2)
	step := 2 * math.Pi * toneHz / stubRate
	for i := 0; i < s.samples; i++ {
		v := int16(1500 * math.Sin(s.phase))
		s.phase += step
		out[i*2], out[i*2+1] = v, v
	}
	if s.phase > 2*math.Pi {
		s.phase -= 2 * math.Pi
	}
	return out
}
