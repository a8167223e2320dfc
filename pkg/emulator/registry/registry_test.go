package registry

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveByExtension(t *testing.T) {
	tests := []struct {
		path string
		kind Kind
	}{
		{"tetris.gb", Handheld},
		{"links-awakening.GBC", Handheld},
		{"mario.nes", Console},
		{"kart.n64", Nintendo64},
		{"kart.Z64", Nintendo64},
		{"kart.v64", Nintendo64},
		{"melee.gcm", GameCube},
		{"melee.gcz", GameCube},
		{"melee.GCN", GameCube},
		{"melee.rvz", GameCube},
		{"boot.dol", GameCube},
		{"crash.cue", PlayStation},
		{"psx.exe", PlayStation},
		{"deep/nested/dir/tetris.gb", Handheld},
		{"/abs/path/to/MARIO.NES", Console},
	}
	for _, tc := range tests {
		kind, err := Resolve(tc.path)
		if err != nil {
			t.Errorf("Resolve(%q): unexpected error: %v", tc.path, err)
			continue
		}
		if kind != tc.kind {
			t.Errorf("Resolve(%q) = %v, want %v", tc.path, kind, tc.kind)
		}
	}
}

func TestResolveUnsupported(t *testing.T) {
	for _, path := range []string{"game.zip", "noext", "dir.gb/img", "save.sav"} {
		if _, err := Resolve(path); err == nil {
			t.Errorf("Resolve(%q): expected error", path)
		} else if _, ok := err.(*UnsupportedFormatError); !ok {
			t.Errorf("Resolve(%q): error type %T, want *UnsupportedFormatError", path, err)
		}
	}
}

func writeImage(t *testing.T, name string, header []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, header, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func gcHeader() []byte {
	h := make([]byte, 0x440)
	copy(h, "GALE01")
	copy(h[0x1C:], []byte{0xC2, 0x33, 0x9F, 0x3D})
	return h
}

func psHeader() []byte {
	h := make([]byte, 0x9400)
	copy(h[0x9340:], "          Licensed  by          Sony Computer Entertainment Inc.")
	return h
}

func TestResolveAmbiguousISO(t *testing.T) {
	gc := writeImage(t, "disc.iso", gcHeader())
	kind, err := Resolve(gc)
	if err != nil {
		t.Fatalf("Resolve(gc iso): %v", err)
	}
	if kind != GameCube {
		t.Errorf("Resolve(gc iso) = %v, want GameCube", kind)
	}

	ps := writeImage(t, "disc.iso", psHeader())
	kind, err = Resolve(ps)
	if err != nil {
		t.Fatalf("Resolve(ps iso): %v", err)
	}
	if kind != PlayStation {
		t.Errorf("Resolve(ps iso) = %v, want PlayStation", kind)
	}
}

func TestResolveAmbiguousBin(t *testing.T) {
	h := make([]byte, 0x800)
	copy(h, "PS-X EXE")
	ps := writeImage(t, "track01.BIN", h)
	kind, err := Resolve(ps)
	if err != nil {
		t.Fatalf("Resolve(ps bin): %v", err)
	}
	if kind != PlayStation {
		t.Errorf("Resolve(ps bin) = %v, want PlayStation", kind)
	}
}

func TestResolveAmbiguousNoMatch(t *testing.T) {
	junk := writeImage(t, "mystery.iso", make([]byte, 0x8000))
	if _, err := Resolve(junk); err == nil {
		t.Fatal("Resolve(zero iso): expected error")
	} else if _, ok := err.(*UnsupportedFormatError); !ok {
		t.Fatalf("Resolve(zero iso): error type %T, want *UnsupportedFormatError", err)
	}
}

func TestRequirement(t *testing.T) {
	tests := []struct {
		kind Kind
		req  Requirement
	}{
		{Handheld, NeedsNothing},
		{Console, NeedsNothing},
		{Nintendo64, NeedsPluginSet},
		{GameCube, NeedsExternalBinary},
		{PlayStation, NeedsExternalBinary},
	}
	for _, tc := range tests {
		if got := tc.kind.Requirement(); got != tc.req {
			t.Errorf("%v.Requirement() = %v, want %v", tc.kind, got, tc.req)
		}
	}
}
