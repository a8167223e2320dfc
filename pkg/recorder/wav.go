package recorder

import (
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const audioFile = "audio.wav"

type wavStream struct {
	f   *os.File
	enc *wav.Encoder
	fmt *audio.Format
}

func newWavStream(dir string, frequency int) (*wavStream, error) {
	f, err := os.Create(filepath.Join(dir, audioFile))
	if err != nil {
		return nil, err
	}
	return &wavStream{
		f:   f,
		enc: wav.NewEncoder(f, frequency, 16, 2, 1),
		fmt: &audio.Format{NumChannels: 2, SampleRate: frequency},
	}, nil
}

func (w *wavStream) Write(samples []int16) error {
	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	return w.enc.Write(&audio.IntBuffer{Format: w.fmt, Data: data, SourceBitDepth: 16})
}

func (w *wavStream) Close() error {
	// finalizes the RIFF header
	if err := w.enc.Close(); err != nil {
		_ = w.f.Close()
		return err
	}
	return w.f.Close()
}
