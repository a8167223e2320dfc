package mupen

import (
	"errors"
	"strings"
	"testing"

	"github.com/retroframe/retroframe/pkg/emulator"
)

func env(kv map[string]string) func(string) string {
	return func(k string) string { return kv[k] }
}

func fs(present ...string) func(string) bool {
	return func(path string) bool {
		for _, p := range present {
			if path == p {
				return true
			}
		}
		return false
	}
}

func TestLocateRootWinsOverEverything(t *testing.T) {
	rootLib := "/opt/m64p/plugins/" + decorate("mupen64plus-rsp-hle")[0]
	var touched []string
	p := probe{
		getenv: env(map[string]string{
			"M64P_ROOT": "/opt/m64p",
			"M64P_RSP":  "/elsewhere/rsp.so",
		}),
		exists: func(path string) bool {
			touched = append(touched, path)
			return path == rootLib
		},
	}
	got, err := p.locate(libSpecs[roleRSP])
	if err != nil {
		t.Fatal(err)
	}
	if got != rootLib {
		t.Errorf("locate = %q, want %q", got, rootLib)
	}
	// The per-library override is never consulted once the root hits.
	for _, path := range touched {
		if path == "/elsewhere/rsp.so" {
			t.Error("override path probed despite root hit")
		}
	}
}

func TestLocateOverrideMissingIsImmediateFailure(t *testing.T) {
	p := probe{
		getenv: env(map[string]string{"M64P_CORE_LIB": "/nope/core.so"}),
		exists: fs(), // nothing exists anywhere
	}
	_, err := p.locate(libSpecs[roleCore])
	var miss *emulator.MissingDependencyError
	if !errors.As(err, &miss) {
		t.Fatalf("error type %T, want *MissingDependencyError", err)
	}
	// The failure names only the override, not the standard dirs.
	if len(miss.Searched) != 1 || miss.Searched[0] != "/nope/core.so" {
		t.Errorf("Searched = %v, want just the override path", miss.Searched)
	}
}

func TestLocateStandardDirs(t *testing.T) {
	lib := dirCandidates(standardDirs(), libSpecs[roleCore])[0]
	p := probe{getenv: env(nil), exists: fs(lib)}
	got, err := p.locate(libSpecs[roleCore])
	if err != nil {
		t.Fatal(err)
	}
	if got != lib {
		t.Errorf("locate = %q, want %q", got, lib)
	}
}

func TestLocateFailureListsEveryPath(t *testing.T) {
	p := probe{
		getenv: env(map[string]string{"M64P_ROOT": "/opt/m64p"}),
		exists: fs(),
	}
	_, err := p.locate(libSpecs[roleVideo], "/cache/bundle")
	var miss *emulator.MissingDependencyError
	if !errors.As(err, &miss) {
		t.Fatalf("error type %T, want *MissingDependencyError", err)
	}
	want := len(rootCandidates("/opt/m64p", libSpecs[roleVideo])) +
		len(dirCandidates(append(standardDirs(), "/cache/bundle"), libSpecs[roleVideo]))
	if len(miss.Searched) != want {
		t.Errorf("Searched has %d paths, want %d", len(miss.Searched), want)
	}
	if !strings.Contains(err.Error(), "video plugin") {
		t.Errorf("error does not name the role: %v", err)
	}
}

func TestDiscoverStopsAtFirstMissing(t *testing.T) {
	core := dirCandidates(standardDirs(), libSpecs[roleCore])[0]
	p := probe{getenv: env(nil), exists: fs(core)}
	_, err := p.discover()
	var miss *emulator.MissingDependencyError
	if !errors.As(err, &miss) {
		t.Fatalf("error type %T, want *MissingDependencyError", err)
	}
	if !strings.Contains(miss.What, "video plugin") {
		t.Errorf("What = %q, want the video plugin", miss.What)
	}
}
