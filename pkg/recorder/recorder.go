// Package recorder captures a session as a per-frame PNG stream plus a
// WAV audio track, suitable for muxing afterwards:
//
//	ffmpeg -r 60 -f concat -i ./recordings/<dir>/input.txt \
//	    -i ./recordings/<dir>/audio.wav \
//	    -b:a 192K -crf 23 -pix_fmt yuv420p out.mp4
package recorder

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type Recording struct {
	mu sync.Mutex

	audio *wavStream
	video *pngStream

	dir string
}

type Options struct {
	Dir       string
	Fps       float64
	Frequency int
	Game      string
}

// New creates a recording in a timestamped directory under opts.Dir.
func New(opts Options) (*Recording, error) {
	name := fmt.Sprintf("%s_%s", time.Now().Format("20060102_150405"), sanitize(opts.Game))
	dir, err := filepath.Abs(filepath.Join(opts.Dir, name))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	audio, err := newWavStream(dir, opts.Frequency)
	if err != nil {
		return nil, err
	}
	video, err := newPngStream(dir, opts.Fps)
	if err != nil {
		_ = audio.Close()
		return nil, err
	}
	return &Recording{audio: audio, video: video, dir: dir}, nil
}

func (r *Recording) Dir() string { return r.dir }

func (r *Recording) WriteAudio(samples []int16) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.audio.Write(samples)
}

func (r *Recording) WriteVideo(frame image.Image, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.video.Write(frame, d)
}

func (r *Recording) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return errors.Join(r.video.Close(), r.audio.Close())
}

func sanitize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			out[i] = '_'
		}
	}
	if len(out) == 0 {
		return "session"
	}
	return string(out)
}
