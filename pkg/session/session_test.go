package session

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/logger"
)

func handheldImage(t *testing.T) string {
	t.Helper()
	rom := make([]byte, 2*0x4000)
	copy(rom[0x134:], "WATCHTEST")
	path := filepath.Join(t.TempDir(), "tetris.gb")
	if err := os.WriteFile(path, rom, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func gamecubeImage(t *testing.T) string {
	t.Helper()
	raw := make([]byte, 0x1000)
	copy(raw, "GALE01")
	copy(raw[0x20:], "Stub Disc")
	path := filepath.Join(t.TempDir(), "disc.gcm")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWatchStreamScenario(t *testing.T) {
	var out bytes.Buffer
	s, err := New(handheldImage(t), config.Config{}, Options{
		FrameLimit: 120,
		Uncapped:   true,
		Watches: []Watch{
			{Name: "board", Start: 0xC0A0, Len: 200},
			{Name: "state", Start: 0xC200, Len: 32},
		},
		WatchOut: &out,
	}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Terminated {
		t.Errorf("state = %v, want terminated", s.State())
	}

	sc := bufio.NewScanner(&out)
	var n uint64
	for sc.Scan() {
		var rec watchRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("record %d: %v", n, err)
		}
		// Counters are zero-based and increase by exactly one, the
		// first completed frame is record 0.
		if rec.Frame != n {
			t.Fatalf("record %d has frame %d", n, rec.Frame)
		}
		n++
		if len(rec.Watches) != 2 {
			t.Fatalf("record %d has %d watches", n, len(rec.Watches))
		}
		if rec.Watches[0].Name != "board" || len(rec.Watches[0].DataHex) != 400 {
			t.Fatalf("bad board entry: %+v", rec.Watches[0])
		}
		if rec.Watches[1].Name != "state" || len(rec.Watches[1].DataHex) != 64 {
			t.Fatalf("bad state entry: %+v", rec.Watches[1])
		}
	}
	if n != 120 {
		t.Errorf("emitted %d records, want 120", n)
	}
}

func TestOutOfRangeWatchNeverStarts(t *testing.T) {
	_, err := New(handheldImage(t), config.Config{}, Options{
		Watches: []Watch{{Name: "bad", Start: 0xFFF0, Len: 0x100}},
	}, logger.Default())
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "bad") {
		t.Errorf("error does not name the watch: %v", err)
	}
}

func TestDumpUnsupportedLeavesNoFile(t *testing.T) {
	t.Setenv("DOLPHIN_BIN", "")
	t.Setenv("PATH", t.TempDir())

	out := filepath.Join(t.TempDir(), "dump.bin")
	s, err := New(gamecubeImage(t), config.Config{}, Options{
		FrameLimit: 2,
		Uncapped:   true,
		Dump:       &DumpRequest{Start: 0, Len: 64, Format: DumpBinary, Output: out},
	}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	// The delegate cannot expose memory; the run must still finish.
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Error("dump file was created for an unsupported backend")
	}
}

func TestDumpWritesHexTable(t *testing.T) {
	out := filepath.Join(t.TempDir(), "dump.txt")
	s, err := New(handheldImage(t), config.Config{}, Options{
		FrameLimit: 1,
		Uncapped:   true,
		Dump:       &DumpRequest{Start: 0xC000, Len: 32, Format: DumpHex, Output: out},
	}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if lines[0] != "Dumping 32 bytes from 0xC000" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows", len(lines))
	}
	if !strings.HasPrefix(lines[1], "0xC000:") || !strings.HasPrefix(lines[2], "0xC010:") {
		t.Errorf("rows not address-prefixed: %q, %q", lines[1], lines[2])
	}
}

func TestCycleBudget(t *testing.T) {
	var out bytes.Buffer
	s, err := New(handheldImage(t), config.Config{}, Options{
		CycleLimit: 70224 * 3,
		Uncapped:   true,
		Watches:    []Watch{{Name: "wram", Start: 0xC000, Len: 16}},
		WatchOut:   &out,
	}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Terminated {
		t.Errorf("state = %v, want terminated", s.State())
	}
	if s.Frames() != 3 {
		t.Errorf("frames = %d, want 3", s.Frames())
	}

	// One record per frame completed inside the cycle budget.
	sc := bufio.NewScanner(&out)
	var n uint64
	for sc.Scan() {
		var rec watchRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("record %d: %v", n, err)
		}
		if rec.Frame != n {
			t.Fatalf("record %d has frame %d", n, rec.Frame)
		}
		n++
	}
	if n != 3 {
		t.Errorf("emitted %d records, want 3", n)
	}
}

func TestCycleBudgetSubFrameTail(t *testing.T) {
	var out bytes.Buffer
	s, err := New(handheldImage(t), config.Config{}, Options{
		CycleLimit: 70224*2 + 100,
		Uncapped:   true,
		Watches:    []Watch{{Name: "wram", Start: 0xC000, Len: 16}},
		WatchOut:   &out,
	}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Run(); err != nil {
		t.Fatal(err)
	}
	// The trailing 100 cycles complete no frame and emit no record.
	if s.Frames() != 2 {
		t.Errorf("frames = %d, want 2", s.Frames())
	}
	if got := bytes.Count(out.Bytes(), []byte("\n")); got != 2 {
		t.Errorf("emitted %d records, want 2", got)
	}
}

func TestDuplicateWatchNamesRejected(t *testing.T) {
	_, err := New(handheldImage(t), config.Config{}, Options{
		Watches: []Watch{
			{Name: "board", Start: 0xC000, Len: 16},
			{Name: "board", Start: 0xC100, Len: 16},
		},
	}, logger.Default())
	if err == nil {
		t.Fatal("expected a validation error for duplicate watch names")
	}
	if !strings.Contains(err.Error(), "duplicate") {
		t.Errorf("error does not report the duplicate: %v", err)
	}
}
