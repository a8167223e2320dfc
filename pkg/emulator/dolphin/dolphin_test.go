package dolphin

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroframe/retroframe/pkg/config"
	"github.com/retroframe/retroframe/pkg/emulator"
	"github.com/retroframe/retroframe/pkg/logger"
)

func writeDisc(t *testing.T, name string, raw []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discHeader() []byte {
	raw := make([]byte, 0x1000)
	copy(raw[offGameCode:], "GALE")
	copy(raw[offMakerCode:], "01")
	raw[offDisc] = 0
	raw[offVersion] = 2
	raw[offStreaming] = 1
	copy(raw[offTitle:], "Super Smash Bros. Melee")
	return raw
}

func TestParseHeader(t *testing.T) {
	path := writeDisc(t, "melee.gcm", discHeader())
	md := parseHeader(path)
	if md.GameCode != "GALE" || md.MakerCode != "01" {
		t.Errorf("codes = %q/%q, want GALE/01", md.GameCode, md.MakerCode)
	}
	if md.Version != 2 || !md.Streaming {
		t.Errorf("version/streaming = %d/%v, want 2/true", md.Version, md.Streaming)
	}
	if md.Title != "Super Smash Bros. Melee" {
		t.Errorf("title = %q", md.Title)
	}
}

func TestStubMetadataIsNotExternal(t *testing.T) {
	d := newStubDelegate(t)
	// No child process is running, only the metadata stub.
	if d.Metadata().External {
		t.Error("stub-only delegate reports an external core")
	}
}

func TestParseHeaderCompressedDegrades(t *testing.T) {
	raw := make([]byte, 64)
	copy(raw, "RVZ\x01")
	path := writeDisc(t, "melee.rvz", raw)
	md := parseHeader(path)
	if md.Title != "melee" {
		t.Errorf("title = %q, want file-derived melee", md.Title)
	}
	if md.GameCode != "" {
		t.Errorf("game code = %q, want empty", md.GameCode)
	}
}

func newStubDelegate(t *testing.T) *Delegate {
	t.Helper()
	path := writeDisc(t, "game.gcm", discHeader())
	// Point discovery at nothing so the stub always runs.
	t.Setenv("DOLPHIN_BIN", "")
	t.Setenv("PATH", t.TempDir())
	d, err := NewGameCube(path, config.Dolphin{}, logger.Default())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestStubOutput(t *testing.T) {
	d := newStubDelegate(t)
	f1, err := d.StepFrame(emulator.InputState{})
	if err != nil {
		t.Fatal(err)
	}
	if got := f1.Video.Bounds(); got.Dx() != stubWidth || got.Dy() != stubHeight {
		t.Errorf("stub frame %v", got)
	}
	if len(f1.Audio) != 2*stubRate/int(stubFPS) {
		t.Errorf("stub audio %d samples", len(f1.Audio))
	}
	// The pattern animates.
	f2, err := d.StepFrame(emulator.InputState{})
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range f1.Video.Pix {
		if f1.Video.Pix[i] != f2.Video.Pix[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("stub frames do not animate")
	}
}

func TestUnsupportedOperations(t *testing.T) {
	d := newStubDelegate(t)
	if err := d.StepCycles(100); !errors.Is(err, emulator.ErrUnsupportedOperation) {
		t.Errorf("StepCycles err = %v", err)
	}
	if _, err := d.ReadMemory(0, 16); !errors.Is(err, emulator.ErrUnsupportedOperation) {
		t.Errorf("ReadMemory err = %v", err)
	}
	if caps := d.Caps(); caps.Memory || caps.Cycles || caps.Persistent {
		t.Errorf("caps = %+v, want all false", caps)
	}
	if err := d.PersistState("x"); err != nil {
		t.Errorf("PersistState = %v, want no-op success", err)
	}
}
