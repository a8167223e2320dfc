package dolphin

import (
	"os"
	"os/exec"
	"runtime"
)

// program describes one external emulator binary family.
type program struct {
	env   string
	names []string
	fixed []string
	// batch holds extra args making the binary boot the image directly.
	batch []string
}

var gamecubeProgram = program{
	env:   "DOLPHIN_BIN",
	names: []string{"dolphin-emu-nogui", "dolphin-emu", "dolphin", "Dolphin"},
	fixed: fixedPaths("Dolphin"),
	batch: []string{"-b", "-e"},
}

var playstationProgram = program{
	env:   "DUCKSTATION_BIN",
	names: []string{"duckstation-nogui", "duckstation-qt", "duckstation"},
	fixed: fixedPaths("DuckStation"),
	batch: []string{"-batch"},
}

func fixedPaths(app string) []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{
			"/Applications/" + app + ".app/Contents/MacOS/" + app,
		}
	case "windows":
		return []string{
			`C:\Program Files\` + app + `\` + app + `.exe`,
		}
	default:
		return []string{"/usr/games/" + app, "/opt/" + app + "/" + app}
	}
}

// findBinary probes for the external binary once per launch: env
// override, then PATH, then fixed install locations. An empty result
// means the stub core runs alone.
func (p program) findBinary(override string) string {
	if override != "" {
		return override
	}
	if env := os.Getenv(p.env); env != "" {
		return env
	}
	for _, name := range p.names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, path := range p.fixed {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
