package recorder

import (
	"bufio"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

const listFile = "input.txt"

// pngStream writes numbered frame images plus an ffmpeg concat list
// with per-frame durations.
type pngStream struct {
	dir  string
	list *os.File
	w    *bufio.Writer
	n    int
	enc  png.Encoder
}

func newPngStream(dir string, fps float64) (*pngStream, error) {
	list, err := os.Create(filepath.Join(dir, listFile))
	if err != nil {
		return nil, err
	}
	s := &pngStream{
		dir:  dir,
		list: list,
		w:    bufio.NewWriter(list),
		enc:  png.Encoder{CompressionLevel: png.BestSpeed},
	}
	if _, err := fmt.Fprintf(s.w, "ffconcat version 1.0\n# fps: %.4f\n", fps); err != nil {
		_ = list.Close()
		return nil, err
	}
	return s, nil
}

func (s *pngStream) Write(frame image.Image, d time.Duration) error {
	name := fmt.Sprintf("f%07d.png", s.n)
	s.n++
	f, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return err
	}
	if err := s.enc.Encode(f, frame); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(s.w, "file %s\nduration %.6f\n", name, d.Seconds())
	return err
}

func (s *pngStream) Close() error {
	if err := s.w.Flush(); err != nil {
		_ = s.list.Close()
		return err
	}
	return s.list.Close()
}
