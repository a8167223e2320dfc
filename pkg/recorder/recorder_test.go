package recorder

import (
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestRecording(t *testing.T) {
	rec, err := New(Options{Dir: t.TempDir(), Fps: 60, Frequency: 44100, Game: "Test Game!"})
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 3; i++ {
		if err := rec.WriteVideo(img, 16*time.Millisecond); err != nil {
			t.Fatal(err)
		}
		if err := rec.WriteAudio(make([]int16, 128)); err != nil {
			t.Fatal(err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(filepath.Base(rec.Dir()), "Test_Game_") {
		t.Errorf("dir name %q not sanitized as expected", rec.Dir())
	}
	for _, name := range []string{"audio.wav", "input.txt", "f0000000.png", "f0000002.png"} {
		if _, err := os.Stat(filepath.Join(rec.Dir(), name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
	list, err := os.ReadFile(filepath.Join(rec.Dir(), "input.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(string(list), "file "); got != 3 {
		t.Errorf("concat list has %d entries, want 3", got)
	}
}
