package mupen

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/retroframe/retroframe/pkg/emulator"
)

// Core API constants, matching m64p_types.h.
const (
	apiVersion = 0x020001

	errSuccess = 0

	cmdRomOpen          = 1
	cmdRomClose         = 2
	cmdExecute          = 5
	cmdStop             = 6
	cmdPause            = 7
	cmdResume           = 8
	cmdStateQuery       = 9
	cmdStateLoad        = 10
	cmdStateSave        = 11
	cmdKeyDown          = 13
	cmdKeyUp            = 14
	cmdSetFrameCallback = 15
	cmdStateSet         = 17
	cmdReadScreen       = 18
	cmdReset            = 19
	cmdAdvanceFrame     = 20

	stateEmuState  = 1
	stateVideoSize = 6

	emuStateStopped = 1
	emuStatePaused  = 3

	pluginRSP   = 1
	pluginVideo = 2
	pluginAudio = 3
	pluginInput = 4
)

// coreLib is the bound core library.
type coreLib struct {
	handle uintptr

	startup      func(int32, string, string, uintptr, uintptr, uintptr, uintptr) int32
	shutdown     func() int32
	attachPlugin func(int32, uintptr) int32
	detachPlugin func(int32) int32
	doCommand    func(int32, int32, unsafe.Pointer) int32
	memRead8     func(uint32) byte
	memWrite8    func(uint32, byte)
}

// plugin is one bound auxiliary library.
type plugin struct {
	kind     int32
	handle   uintptr
	startup  func(uintptr, uintptr, uintptr) int32
	shutdown func() int32
}

type version struct {
	kind, ver, api int32
	name           string
}

func getVersion(handle uintptr) (version, error) {
	var fn func(*int32, *int32, *int32, *uintptr, *int32) int32
	purego.RegisterLibFunc(&fn, handle, "PluginGetVersion")
	var v version
	var namePtr uintptr
	var caps int32
	if rc := fn(&v.kind, &v.ver, &v.api, &namePtr, &caps); rc != errSuccess {
		return v, fmt.Errorf("PluginGetVersion: status %d", rc)
	}
	v.name = goString(namePtr)
	return v, nil
}

func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var out []byte
	for i := 0; ; i++ {
		b := *(*byte)(unsafe.Pointer(p + uintptr(i)))
		if b == 0 {
			break
		}
		out = append(out, b)
	}
	return string(out)
}

// openCore loads and binds the core library, verifying its API version.
func openCore(path string) (*coreLib, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, &emulator.MissingDependencyError{What: "core library", Searched: []string{path}}
	}
	v, err := getVersion(handle)
	if err != nil {
		_ = closeLibrary(handle)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v.api>>16 != apiVersion>>16 {
		_ = closeLibrary(handle)
		return nil, &emulator.MissingDependencyError{
			What:     fmt.Sprintf("core library with api 0x%x (found 0x%x)", apiVersion, v.api),
			Searched: []string{path},
		}
	}
	c := &coreLib{handle: handle}
	purego.RegisterLibFunc(&c.startup, handle, "CoreStartup")
	purego.RegisterLibFunc(&c.shutdown, handle, "CoreShutdown")
	purego.RegisterLibFunc(&c.attachPlugin, handle, "CoreAttachPlugin")
	purego.RegisterLibFunc(&c.detachPlugin, handle, "CoreDetachPlugin")
	purego.RegisterLibFunc(&c.doCommand, handle, "CoreDoCommand")
	purego.RegisterLibFunc(&c.memRead8, handle, "DebugMemRead8")
	purego.RegisterLibFunc(&c.memWrite8, handle, "DebugMemWrite8")
	return c, nil
}

// openPlugin loads and binds one plugin, verifying kind and API version.
func openPlugin(path string, kind int32, role libRole) (*plugin, error) {
	handle, err := openLibrary(path)
	if err != nil {
		return nil, &emulator.MissingDependencyError{What: role.String(), Searched: []string{path}}
	}
	v, err := getVersion(handle)
	if err != nil {
		_ = closeLibrary(handle)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if v.kind != kind {
		_ = closeLibrary(handle)
		return nil, &emulator.MissingDependencyError{
			What:     fmt.Sprintf("%s (library %s reports kind %d)", role, path, v.kind),
			Searched: []string{path},
		}
	}
	p := &plugin{kind: kind, handle: handle}
	purego.RegisterLibFunc(&p.startup, handle, "PluginStartup")
	purego.RegisterLibFunc(&p.shutdown, handle, "PluginShutdown")
	return p, nil
}

func (c *coreLib) command(name string, cmd, param int32, ptr unsafe.Pointer) error {
	if rc := c.doCommand(cmd, param, ptr); rc != errSuccess {
		return fmt.Errorf("%s: status %d", name, rc)
	}
	return nil
}
