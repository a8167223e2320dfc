package console

import (
	"bytes"
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
)

func testRom(t *testing.T) string {
	t.Helper()
	data := make([]byte, 16+0x4000+0x2000)
	copy(data, inesMagic)
	data[4], data[5] = 1, 1
	// Non-trivial pattern table so frames carry content.
	for i := 0; i < 0x2000; i++ {
		data[16+0x4000+i] = byte(i * 7)
	}
	path := filepath.Join(t.TempDir(), "test.nes")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func mustNew(t *testing.T, path string) *Console {
	t.Helper()
	c, err := New(path, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestParseRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.nes")
	if err := os.WriteFile(path, make([]byte, 64), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path, logger.Default()); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestRAMMirroring(t *testing.T) {
	c := mustNew(t, testRom(t))
	if err := c.WriteMemory(0x0005, []byte{0x42}); err != nil {
		t.Fatal(err)
	}
	for _, addr := range []uint{0x0005, 0x0805, 0x1005, 0x1805} {
		got, err := c.ReadMemory(addr, 1)
		if err != nil {
			t.Fatal(err)
		}
		if got[0] != 0x42 {
			t.Errorf("mirror at 0x%04X = %#x, want 0x42", addr, got[0])
		}
	}
}

func TestPersistStateNoop(t *testing.T) {
	c := mustNew(t, testRom(t))
	if c.Caps().Persistent {
		t.Error("console reports Persistent")
	}
	out := filepath.Join(t.TempDir(), "state.sav")
	if err := c.PersistState(out); err != nil {
		t.Fatalf("PersistState: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("no-op PersistState created a file")
	}
}

func TestStepCyclesFrameCarry(t *testing.T) {
	c := mustNew(t, testRom(t))
	if err := c.StepCycles(CyclesPerFrame*2 + 10); err != nil {
		t.Fatal(err)
	}
	// Two boundaries crossed, one frame latched for the next StepFrame.
	if c.m.frames != 2 {
		t.Fatalf("frames = %d, want 2", c.m.frames)
	}
	if _, err := c.StepFrame(emulator.InputState{}); err != nil {
		t.Fatal(err)
	}
	if c.m.frames != 2 {
		t.Errorf("latched StepFrame advanced the machine")
	}
}

func TestDeterministicReplay(t *testing.T) {
	path := testRom(t)
	run := func() ([32]byte, []byte) {
		c := mustNew(t, path)
		var in emulator.InputState
		sum := sha256.New()
		for i := 0; i < 20; i++ {
			in.Set(emulator.BtnStart, i%3 == 0)
			f, err := c.StepFrame(in)
			if err != nil {
				t.Fatal(err)
			}
			sum.Write(f.Video.Pix)
		}
		mem, err := c.ReadMemory(0, 0x800)
		if err != nil {
			t.Fatal(err)
		}
		var d [32]byte
		sum.Sum(d[:0])
		return d, mem
	}
	d1, m1 := run()
	d2, m2 := run()
	if d1 != d2 || !bytes.Equal(m1, m2) {
		t.Error("replay diverged between identical runs")
	}
}
