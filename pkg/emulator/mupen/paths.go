package mupen

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/retroframe/retroframe/pkg/emulator"
)

// libRole identifies one library of the plugin set.
type libRole int

const (
	roleCore libRole = iota
	roleVideo
	roleAudio
	roleInput
	roleRSP

	roleCount
)

func (r libRole) String() string {
	switch r {
	case roleCore:
		return "core library"
	case roleVideo:
		return "video plugin"
	case roleAudio:
		return "audio plugin"
	case roleInput:
		return "input plugin"
	case roleRSP:
		return "rsp plugin"
	}
	return "?"
}

// spec describes how one library is found: its env override and the
// base names that satisfy it, in preference order.
type libSpec struct {
	role  libRole
	env   string
	names []string
}

const envRoot = "M64P_ROOT"

var libSpecs = [roleCount]libSpec{
	{roleCore, "M64P_CORE_LIB", []string{"mupen64plus"}},
	{roleVideo, "M64P_VIDEO", []string{
		"mupen64plus-video-GLideN64",
		"mupen64plus-video-glide64mk2",
		"mupen64plus-video-rice",
	}},
	{roleAudio, "M64P_AUDIO", []string{"mupen64plus-audio-sdl"}},
	{roleInput, "M64P_INPUT", []string{"mupen64plus-input-sdl"}},
	{roleRSP, "M64P_RSP", []string{"mupen64plus-rsp-hle"}},
}

// rootSubdirs are checked under an explicit root, in order.
var rootSubdirs = []string{".", "lib", "bin", "plugins"}

// decorate expands a base library name into platform file names.
func decorate(name string) []string {
	switch runtime.GOOS {
	case "windows":
		return []string{name + ".dll"}
	case "darwin":
		return []string{"lib" + name + ".dylib", name + ".dylib"}
	default:
		return []string{"lib" + name + ".so", name + ".so", "lib" + name + ".so.2"}
	}
}

func standardDirs() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{
			`C:\Program Files\m64p`,
			`C:\Program Files (x86)\Mupen64Plus`,
		}
	case "darwin":
		return []string{
			"/opt/homebrew/lib",
			"/opt/homebrew/lib/mupen64plus",
			"/usr/local/lib",
			"/usr/local/lib/mupen64plus",
		}
	default:
		return []string{
			"/usr/lib/mupen64plus",
			"/usr/lib/x86_64-linux-gnu/mupen64plus",
			"/usr/local/lib/mupen64plus",
			"/usr/lib",
			"/usr/local/lib",
		}
	}
}

// probe abstracts the filesystem and environment so the search protocol
// is testable without either.
type probe struct {
	getenv func(string) string
	exists func(string) bool
}

// rootCandidates lists every path checked for the spec under a root.
func rootCandidates(root string, s libSpec) []string {
	var out []string
	for _, sub := range rootSubdirs {
		for _, name := range s.names {
			for _, file := range decorate(name) {
				out = append(out, filepath.Join(root, sub, file))
			}
		}
	}
	return out
}

// dirCandidates lists every path checked for the spec across dirs.
func dirCandidates(dirs []string, s libSpec) []string {
	var out []string
	for _, dir := range dirs {
		for _, name := range s.names {
			for _, file := range decorate(name) {
				out = append(out, filepath.Join(dir, file))
			}
		}
	}
	return out
}

// locate resolves one library. Search order: explicit root, per-library
// env override, platform standard dirs, then extraDirs (the unpacked
// bundle cache). An env override naming a missing file fails immediately
// instead of falling through. On failure the returned error lists every
// path tried.
func (p probe) locate(s libSpec, extraDirs ...string) (string, error) {
	var searched []string

	if root := p.getenv(envRoot); root != "" {
		for _, c := range rootCandidates(root, s) {
			if p.exists(c) {
				return c, nil
			}
			searched = append(searched, c)
		}
	}

	if override := p.getenv(s.env); override != "" {
		if p.exists(override) {
			return override, nil
		}
		return "", &emulator.MissingDependencyError{
			What:     fmt.Sprintf("%s (%s override)", s.role, s.env),
			Searched: []string{override},
		}
	}

	for _, c := range dirCandidates(append(standardDirs(), extraDirs...), s) {
		if p.exists(c) {
			return c, nil
		}
		searched = append(searched, c)
	}

	names := make([]string, 0, len(s.names))
	for _, n := range s.names {
		names = append(names, decorate(n)...)
	}
	return "", &emulator.MissingDependencyError{
		What:     s.role.String(),
		Names:    names,
		Searched: searched,
	}
}

// pluginSet holds the resolved path of every library.
type pluginSet [roleCount]string

// discover resolves the full set, or fails with a MissingDependency
// naming every searched path of the first library it cannot find.
func (p probe) discover(extraDirs ...string) (pluginSet, error) {
	var set pluginSet
	for _, s := range libSpecs {
		path, err := p.locate(s, extraDirs...)
		if err != nil {
			return set, err
		}
		set[s.role] = path
	}
	return set, nil
}
