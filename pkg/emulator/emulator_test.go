package emulator

import (
	"testing"
	"time"
)

func TestFramePeriod(t *testing.T) {
	if got := FramePeriod(60); got != time.Second/60 {
		t.Errorf("FramePeriod(60) = %v, want %v", got, time.Second/60)
	}
	// Fractional display rates of the supported systems.
	for _, fps := range []float64{59.7275, 60.0988} {
		got := FramePeriod(fps)
		if got < 16*time.Millisecond || got > 17*time.Millisecond {
			t.Errorf("FramePeriod(%v) = %v, want ~16.7ms", fps, got)
		}
	}
}
